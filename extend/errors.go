// SPDX-License-Identifier: MIT

package extend

import "errors"

var (
	// ErrUnknownExtendLabel indicates an engine built for a label the schema
	// does not declare.
	ErrUnknownExtendLabel = errors.New("extend: unknown label to extend")

	// ErrMissingRate indicates a rate table without a rate for a grid point
	// that indexing had to step over.
	ErrMissingRate = errors.New("extend: missing indexing rate")

	// ErrNotNumeric indicates an indexed value with a non-numeric leaf.
	ErrNotNumeric = errors.New("extend: indexed value is not numeric")
)
