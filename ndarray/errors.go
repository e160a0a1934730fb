// SPDX-License-Identifier: MIT
// Package ndarray: sentinel error set.
// Every message is prefixed with "ndarray: ...". Callers match with errors.Is.

package ndarray

import "errors"

var (
	// ErrBadShape is returned for a negative dimension or a nested value
	// that is shallower than requested.
	ErrBadShape = errors.New("ndarray: invalid shape")

	// ErrOutOfRange indicates an index outside the array bounds or a wrong
	// number of indices. At/Set return it instead of panicking.
	ErrOutOfRange = errors.New("ndarray: index out of range")

	// ErrDimensionMismatch indicates ragged nesting, a flat buffer of the
	// wrong length, or an array whose shape does not match the axes.
	ErrDimensionMismatch = errors.New("ndarray: dimension mismatch")

	// ErrSparseValues indicates value objects that do not cover the axes
	// exactly once per point. See SparseError for the details.
	ErrSparseValues = errors.New("ndarray: values are not dense")

	// ErrInconsistentLabels indicates value objects that do not all use
	// the axis labels.
	ErrInconsistentLabels = errors.New("ndarray: inconsistent labels")

	// ErrArrayWithLabels indicates an array-valued parameter with labels,
	// which has no array form.
	ErrArrayWithLabels = errors.New("ndarray: array-valued parameter has labels")
)
