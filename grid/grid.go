// SPDX-License-Identifier: MIT

package grid

import (
	"github.com/katalvlaran/paramspace/values"
)

// Grid is the ordered domain of one label.
type Grid struct {
	Label  string
	values []any
	index  map[string]int
}

// New builds a grid over vals in the given order. Duplicates keep their first
// position.
func New(label string, vals []any) Grid {
	g := Grid{Label: label, values: make([]any, 0, len(vals)), index: make(map[string]int, len(vals))}
	for _, v := range vals {
		k := values.KeyOf(v)
		if _, dup := g.index[k]; dup {
			continue
		}
		g.index[k] = len(g.values)
		g.values = append(g.values, v)
	}

	return g
}

// Len returns the number of points.
func (g Grid) Len() int { return len(g.values) }

// At returns point i.
func (g Grid) At(i int) any { return g.values[i] }

// Values returns a copy of the points in order.
func (g Grid) Values() []any { return append([]any(nil), g.values...) }

// IndexOf returns the position of v.
// Complexity: O(1).
func (g Grid) IndexOf(v any) (int, bool) {
	i, ok := g.index[values.KeyOf(v)]

	return i, ok
}

// Contains reports whether v is a grid point.
func (g Grid) Contains(v any) bool {
	_, ok := g.IndexOf(v)

	return ok
}

// Compare orders a and b by grid position. Values off the grid sort after
// every grid point and compare equal to each other.
func (g Grid) Compare(a, b any) int {
	ia, oka := g.IndexOf(a)
	ib, okb := g.IndexOf(b)
	switch {
	case !oka && !okb:
		return 0
	case !oka:
		return 1
	case !okb:
		return -1
	}

	return ia - ib
}

// Restrict returns the sub-grid of points in vals, kept in grid order.
// Values that are not grid points are dropped.
func (g Grid) Restrict(vals []any) Grid {
	keep := make(map[int]struct{}, len(vals))
	for _, v := range vals {
		if i, ok := g.IndexOf(v); ok {
			keep[i] = struct{}{}
		}
	}
	sub := make([]any, 0, len(keep))
	for i, v := range g.values {
		if _, ok := keep[i]; ok {
			sub = append(sub, v)
		}
	}

	return New(g.Label, sub)
}
