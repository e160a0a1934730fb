// SPDX-License-Identifier: MIT

// Package ndarray - row-major storage & safe accessors.
//
// Purpose:
//   - Keep a flat buffer with the explicit offset formula sum(idx[k]*strides[k]).
//   - Guarantee safety at the public surface: At/Set return errors instead of panicking.
//   - Convert to and from nested []any, the form values carry on the wire.
//
// Complexity quicksheet:
//   - New: O(size); At/Set: O(ndim); Clone: O(size); Nested/FromNested: O(size).

package ndarray

import (
	"fmt"

	"github.com/katalvlaran/paramspace/values"
)

const (
	ctxAt  = "At"
	ctxSet = "Set"
)

// arrayErrorf attaches the method and indices to a sentinel.
func arrayErrorf(method string, idx []int, err error) error {
	return fmt.Errorf("Array.%s(%v): %w", method, idx, err)
}

// Array is a row-major N-d container.
//   - shape holds the dimension sizes; an empty shape is a 0-d array with one cell.
//   - strides[k] is the flat distance between neighbours along axis k.
//   - data has len == product(shape).
type Array struct {
	shape   []int
	strides []int
	data    []any
}

var _ fmt.Stringer = (*Array)(nil)

// New allocates an array of the given shape with nil cells.
// MAIN DESCRIPTION:
//   - Public constructor with shape validation.
//
// Implementation:
//   - Stage 1: reject negative dimensions.
//   - Stage 2: compute strides from the last axis backwards.
//   - Stage 3: allocate the flat buffer.
//
// Errors:
//   - ErrBadShape for a negative dimension.
//
// Complexity:
//   - Time O(size), Space O(size).
func New(shape ...int) (*Array, error) {
	for _, n := range shape {
		if n < 0 {
			return nil, fmt.Errorf("shape %v: %w", shape, ErrBadShape)
		}
	}
	sh := append([]int(nil), shape...)
	strides := make([]int, len(sh))
	size := 1
	for k := len(sh) - 1; k >= 0; k-- {
		strides[k] = size
		size *= sh[k]
	}

	return &Array{shape: sh, strides: strides, data: make([]any, size)}, nil
}

// FromFlat builds an array over a copy of data laid out row-major.
func FromFlat(shape []int, data []any) (*Array, error) {
	a, err := New(shape...)
	if err != nil {
		return nil, err
	}
	if len(data) != len(a.data) {
		return nil, fmt.Errorf("shape %v needs %d values, got %d: %w", shape, len(a.data), len(data), ErrDimensionMismatch)
	}
	copy(a.data, data)

	return a, nil
}

// Shape returns a copy of the dimension sizes.
func (a *Array) Shape() []int { return append([]int(nil), a.shape...) }

// NDim returns the number of dimensions.
func (a *Array) NDim() int { return len(a.shape) }

// Size returns the number of cells.
func (a *Array) Size() int { return len(a.data) }

// offset computes the flat offset of idx or returns ErrOutOfRange.
func (a *Array) offset(idx []int) (int, error) {
	if len(idx) != len(a.shape) {
		return 0, ErrOutOfRange
	}
	off := 0
	for k, i := range idx {
		if i < 0 || i >= a.shape[k] {
			return 0, ErrOutOfRange
		}
		off += i * a.strides[k]
	}

	return off, nil
}

// At returns the cell at idx.
// Errors: ErrOutOfRange on a wrong index count or an index out of bounds.
// Complexity: O(ndim).
func (a *Array) At(idx ...int) (any, error) {
	off, err := a.offset(idx)
	if err != nil {
		return nil, arrayErrorf(ctxAt, idx, err)
	}

	return a.data[off], nil
}

// Set stores v at idx.
// Errors: ErrOutOfRange on a wrong index count or an index out of bounds.
// Complexity: O(ndim).
func (a *Array) Set(v any, idx ...int) error {
	off, err := a.offset(idx)
	if err != nil {
		return arrayErrorf(ctxSet, idx, err)
	}
	a.data[off] = v

	return nil
}

// Unravel returns the multi-index of flat offset off.
func (a *Array) Unravel(off int) []int {
	idx := make([]int, len(a.shape))
	for k := range a.shape {
		idx[k] = off / a.strides[k]
		off %= a.strides[k]
	}

	return idx
}

// Flat returns a copy of the cells in row-major order.
func (a *Array) Flat() []any {
	out := make([]any, len(a.data))
	for i, v := range a.data {
		out[i] = values.CloneValue(v)
	}

	return out
}

// Clone returns a deep copy.
// Complexity: O(size).
func (a *Array) Clone() *Array {
	return &Array{
		shape:   append([]int(nil), a.shape...),
		strides: append([]int(nil), a.strides...),
		data:    a.Flat(),
	}
}

// Nested returns the array as nested []any; a 0-d array returns its cell.
func (a *Array) Nested() any {
	if len(a.shape) == 0 {
		return values.CloneValue(a.data[0])
	}

	return a.nest(0, 0)
}

func (a *Array) nest(axis, off int) []any {
	out := make([]any, a.shape[axis])
	for i := range out {
		o := off + i*a.strides[axis]
		if axis == len(a.shape)-1 {
			out[i] = values.CloneValue(a.data[o])
		} else {
			out[i] = a.nest(axis+1, o)
		}
	}

	return out
}

// FromNested builds an ndim-dimensional array from nested []any.
// MAIN DESCRIPTION:
//   - Inverse of Nested for rectangular input.
//
// Implementation:
//   - Stage 1: read the shape along the first element of every level.
//   - Stage 2: walk v row-major, checking every level has the same length.
//
// Errors:
//   - ErrBadShape when v is shallower than ndim.
//   - ErrDimensionMismatch for ragged nesting.
//
// Complexity:
//   - Time O(size), Space O(size).
func FromNested(v any, ndim int) (*Array, error) {
	if ndim < 0 {
		return nil, fmt.Errorf("ndim %d: %w", ndim, ErrBadShape)
	}
	shape := make([]int, 0, ndim)
	cur := v
	for k := 0; k < ndim; k++ {
		arr, ok := cur.([]any)
		if !ok {
			return nil, fmt.Errorf("depth %d of %d: %w", k, ndim, ErrBadShape)
		}
		shape = append(shape, len(arr))
		if len(arr) == 0 {
			for ; k+1 < ndim; k++ {
				shape = append(shape, 0)
			}

			break
		}
		cur = arr[0]
	}
	a, err := New(shape...)
	if err != nil {
		return nil, err
	}
	if a.Size() == 0 {
		return a, nil
	}
	off := 0
	if err = a.fill(v, 0, &off); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *Array) fill(v any, axis int, off *int) error {
	if axis == len(a.shape) {
		a.data[*off] = values.CloneValue(v)
		*off++

		return nil
	}
	arr, ok := v.([]any)
	if !ok || len(arr) != a.shape[axis] {
		return fmt.Errorf("axis %d: %w", axis, ErrDimensionMismatch)
	}
	for _, e := range arr {
		if err := a.fill(e, axis+1, off); err != nil {
			return err
		}
	}

	return nil
}

// String renders the nested form.
func (a *Array) String() string {
	return values.Format(a.Nested())
}
