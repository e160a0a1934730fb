// SPDX-License-Identifier: MIT
// Package params: sentinel errors and the error types returned at the
// adjustment boundary. Messages are prefixed with "params: ...".

package params

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/katalvlaran/paramspace/validate"
	"github.com/katalvlaran/paramspace/values"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("params: validation failed")

	// ErrMissingIndexRates indicates uses_extend_func without index rates
	// or a custom extrapolator.
	ErrMissingIndexRates = errors.New("params: uses_extend_func requires index rates or an extrapolator")

	// ErrNoLabelToExtend indicates Extend without a label while the instance
	// has no label to extend.
	ErrNoLabelToExtend = errors.New("params: no label to extend")

	// ErrExplicitKept is the kind of the warning filed when Clobber(false)
	// leaves a caller-supplied entry in place of an adjusted value.
	ErrExplicitKept = errors.New("params: caller-supplied value kept")
)

// ValidationError carries the blocking report of a rejected adjustment.
// It unwraps to ErrValidation and to every error Message, so errors.Is
// matches validate.ErrRangeViolation and friends.
type ValidationError struct {
	Report validate.Report
}

// Error lists every message, parameters in lexical order.
func (e *ValidationError) Error() string {
	if err := e.Report.Err(); err != nil {
		return ErrValidation.Error() + ":\n" + err.Error()
	}

	return ErrValidation.Error()
}

// Unwrap exposes ErrValidation and the joined messages.
func (e *ValidationError) Unwrap() []error {
	if err := e.Report.Err(); err != nil {
		return []error{ErrValidation, err}
	}

	return []error{ErrValidation}
}

// Errors renders the errors as {param: [text, ...]}.
func (e *ValidationError) Errors() map[string][]string { return e.Report.Strings() }

// UnknownParameterError names adjusted parameters the schema does not declare.
type UnknownParameterError struct {
	Names []string
}

// Error implements error.
func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("params: unknown parameter(s): %s", strings.Join(e.Names, ", "))
}

// Unwrap exposes validate.ErrUnknownParameter.
func (e *UnknownParameterError) Unwrap() error { return validate.ErrUnknownParameter }

// unknownParams returns an *UnknownParameterError for the undeclared names of
// adj, or nil.
func (p *Parameters) unknownParams(adj map[string][]values.ValueObject) error {
	var names []string
	for name := range adj {
		if p.schema.ParamIndex(name) < 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	return &UnknownParameterError{Names: names}
}
