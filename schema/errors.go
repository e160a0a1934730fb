// SPDX-License-Identifier: MIT

package schema

import "errors"

// Sentinel errors. Loaders and Resolve wrap them with the offending name.
var (
	// ErrMalformed indicates a document that does not have the schema shape.
	ErrMalformed = errors.New("schema: malformed document")

	// ErrUnknownType indicates a label, member or parameter type that the
	// registry does not know.
	ErrUnknownType = errors.New("schema: unknown type")

	// ErrUnknownReference indicates a validator bound or operator naming a
	// parameter or label that does not exist.
	ErrUnknownReference = errors.New("schema: unknown reference")

	// ErrInvalidValidator indicates an unsupported validator, level or bound.
	ErrInvalidValidator = errors.New("schema: invalid validator")

	// ErrUnknownLabel indicates a default value object using an undeclared label.
	ErrUnknownLabel = errors.New("schema: unknown label")

	// ErrUnknownMember indicates a parameter field that is neither a base
	// field nor a declared additional member, or a member of the wrong type.
	ErrUnknownMember = errors.New("schema: unknown member")

	// ErrDuplicateName indicates a label or parameter declared twice.
	ErrDuplicateName = errors.New("schema: duplicate name")

	// ErrNotResolved indicates a typed accessor used before Resolve.
	ErrNotResolved = errors.New("schema: schema is not resolved")
)
