// SPDX-License-Identifier: MIT

package ndarray

import (
	"fmt"
	"sort"
	"strings"

	"github.com/katalvlaran/paramspace/grid"
	"github.com/katalvlaran/paramspace/values"
)

// Axis is one array dimension: a label and its (possibly restricted) grid.
type Axis struct {
	Label string
	Grid  grid.Grid
}

// SparseError lists what keeps value objects from filling the axes.
type SparseError struct {
	// Missing are label tuples of empty cells.
	Missing []map[string]any
	// Extra are entries whose labels are off the axes' grids.
	Extra []values.ValueObject
	// Duplicate are entries for a cell that was already filled.
	Duplicate []values.ValueObject
}

// maxListed bounds how many items of each kind Error prints.
const maxListed = 5

// Error implements error.
func (e *SparseError) Error() string {
	var parts []string
	if n := len(e.Missing); n > 0 {
		shown := make([]string, 0, min(n, maxListed))
		for _, m := range e.Missing[:min(n, maxListed)] {
			shown = append(shown, values.ValueObject{Labels: m}.LabelString())
		}
		parts = append(parts, fmt.Sprintf("%d missing %s", n, strings.Join(shown, " ")))
	}
	for _, set := range []struct {
		what string
		vos  []values.ValueObject
	}{{"extra", e.Extra}, {"duplicate", e.Duplicate}} {
		if n := len(set.vos); n > 0 {
			shown := make([]string, 0, min(n, maxListed))
			for _, vo := range set.vos[:min(n, maxListed)] {
				shown = append(shown, vo.LabelString())
			}
			parts = append(parts, fmt.Sprintf("%d %s %s", n, set.what, strings.Join(shown, " ")))
		}
	}

	return ErrSparseValues.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap exposes ErrSparseValues.
func (e *SparseError) Unwrap() error { return ErrSparseValues }

// Shape returns the axis grid lengths.
func Shape(axes []Axis) []int {
	shape := make([]int, len(axes))
	for k, ax := range axes {
		shape[k] = ax.Grid.Len()
	}

	return shape
}

// ToArray places each value object at the cell given by its labels.
// MAIN DESCRIPTION:
//   - Dense conversion of label-indexed values to an N-d array.
//
// Implementation:
//   - Stage 1 (Validate): every entry uses exactly the axis labels.
//   - Stage 2 (Execute): index each entry by grid position, collecting
//     extra and duplicate entries.
//   - Stage 3 (Finalize): report empty cells.
//
// Errors:
//   - ErrInconsistentLabels when an entry's label set differs from the axes.
//   - *SparseError (ErrSparseValues) when cells are missing, extra or duplicated.
//
// Complexity:
//   - Time O(N*ndim + size), Space O(size).
func ToArray(vos []values.ValueObject, axes []Axis) (*Array, error) {
	for _, vo := range vos {
		if err := checkLabels(vo, axes); err != nil {
			return nil, err
		}
	}
	a, err := New(Shape(axes)...)
	if err != nil {
		return nil, err
	}
	filled := make([]bool, a.Size())
	sparse := &SparseError{}
	idx := make([]int, len(axes))
	for _, vo := range vos {
		onGrid := true
		for k, ax := range axes {
			i, ok := ax.Grid.IndexOf(vo.Labels[ax.Label])
			if !ok {
				onGrid = false

				break
			}
			idx[k] = i
		}
		if !onGrid {
			sparse.Extra = append(sparse.Extra, vo)

			continue
		}
		off, _ := a.offset(idx)
		if filled[off] {
			sparse.Duplicate = append(sparse.Duplicate, vo)

			continue
		}
		filled[off] = true
		a.data[off] = values.CloneValue(vo.Value)
	}
	for off, ok := range filled {
		if !ok {
			sparse.Missing = append(sparse.Missing, labelsAt(axes, a.Unravel(off)))
		}
	}
	if len(sparse.Missing)+len(sparse.Extra)+len(sparse.Duplicate) > 0 {
		return nil, sparse
	}

	return a, nil
}

func checkLabels(vo values.ValueObject, axes []Axis) error {
	if len(vo.Labels) == len(axes) {
		same := true
		for _, ax := range axes {
			if !vo.Has(ax.Label) {
				same = false

				break
			}
		}
		if same {
			return nil
		}
	}
	names := make([]string, len(axes))
	for k, ax := range axes {
		names[k] = ax.Label
	}
	sort.Strings(names)

	return fmt.Errorf("%s uses %v, axes are %v: %w", vo.LabelString(), vo.LabelNames(), names, ErrInconsistentLabels)
}

func labelsAt(axes []Axis, idx []int) map[string]any {
	m := make(map[string]any, len(axes))
	for k, ax := range axes {
		m[ax.Label] = ax.Grid.At(idx[k])
	}

	return m
}

// FromArray zips every cell of a back to a value object labelled by the axes,
// in row-major order. It is the inverse of ToArray for the same axes.
//
// Errors:
//   - ErrDimensionMismatch when a's shape differs from the axis grids.
//
// Complexity:
//   - Time O(size*ndim), Space O(size).
func FromArray(a *Array, axes []Axis) ([]values.ValueObject, error) {
	want := Shape(axes)
	got := a.Shape()
	if len(want) != len(got) {
		return nil, fmt.Errorf("array shape %v, axes %v: %w", got, want, ErrDimensionMismatch)
	}
	for k := range want {
		if want[k] != got[k] {
			return nil, fmt.Errorf("array shape %v, axes %v: %w", got, want, ErrDimensionMismatch)
		}
	}
	out := make([]values.ValueObject, 0, a.Size())
	for off, v := range a.data {
		vo := values.ValueObject{Value: values.CloneValue(v)}
		if len(axes) > 0 {
			vo.Labels = labelsAt(axes, a.Unravel(off))
		}
		out = append(out, vo)
	}

	return out, nil
}
