// SPDX-License-Identifier: MIT

package validate

import (
	"errors"
	"sort"
)

// Report aggregates messages per parameter name.
type Report struct {
	Errors   map[string][]Message
	Warnings map[string][]Message
}

func (r *Report) addError(m Message) {
	if r.Errors == nil {
		r.Errors = make(map[string][]Message)
	}
	r.Errors[m.Param] = append(r.Errors[m.Param], m)
}

func (r *Report) addWarning(m Message) {
	if r.Warnings == nil {
		r.Warnings = make(map[string][]Message)
	}
	r.Warnings[m.Param] = append(r.Warnings[m.Param], m)
}

// add files m as an error or a warning.
func (r *Report) add(m Message, blocking bool) {
	if blocking {
		r.addError(m)

		return
	}
	r.addWarning(m)
}

// HasErrors reports whether any error was recorded.
func (r Report) HasErrors() bool { return len(r.Errors) > 0 }

// HasWarnings reports whether any warning was recorded.
func (r Report) HasWarnings() bool { return len(r.Warnings) > 0 }

// Empty reports whether nothing was recorded.
func (r Report) Empty() bool { return !r.HasErrors() && !r.HasWarnings() }

// Merge appends every message of o to r.
func (r *Report) Merge(o Report) {
	for _, name := range sortedKeys(o.Errors) {
		for _, m := range o.Errors[name] {
			r.addError(m)
		}
	}
	for _, name := range sortedKeys(o.Warnings) {
		for _, m := range o.Warnings[name] {
			r.addWarning(m)
		}
	}
}

// Escalate returns a copy of r with every warning filed as an error.
func (r Report) Escalate() Report {
	var out Report
	out.Merge(Report{Errors: r.Errors})
	out.Merge(Report{Errors: r.Warnings})

	return out
}

// Strings renders errors as {param: [text, ...]}.
func (r Report) Strings() map[string][]string { return texts(r.Errors) }

// WarningStrings renders warnings as {param: [text, ...]}.
func (r Report) WarningStrings() map[string][]string { return texts(r.Warnings) }

// Err joins every error message, parameters in lexical order, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, name := range sortedKeys(r.Errors) {
		for _, m := range r.Errors[name] {
			errs = append(errs, m)
		}
	}

	return errors.Join(errs...)
}

func texts(in map[string][]Message) map[string][]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]string, len(in))
	for name, msgs := range in {
		for _, m := range msgs {
			out[name] = append(out[name], m.Text)
		}
	}

	return out
}

func sortedKeys(m map[string][]Message) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
