// SPDX-License-Identifier: MIT

package extend

import (
	"fmt"
	"slices"

	"github.com/katalvlaran/paramspace/grid"
	"github.com/katalvlaran/paramspace/values"
)

// Param identifies the parameter a plan is made for.
type Param struct {
	Name string
	// Indexed parameters go through the extrapolator; others carry forward.
	Indexed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtrapolator enables indexing. Panics on nil.
func WithExtrapolator(x Extrapolator) Option {
	if x == nil {
		panic("extend: WithExtrapolator(nil)")
	}

	return func(e *Engine) { e.x = x }
}

// Engine plans auto entries along one label.
type Engine struct {
	label  string
	full   grid.Grid
	target grid.Grid
	x      Extrapolator
}

// New returns an engine over the full grid g of label.
func New(g grid.Grid, opts ...Option) *Engine {
	e := &Engine{label: g.Label, full: g, target: g}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Label returns the label extended along.
func (e *Engine) Label() string { return e.label }

// Grid returns the full grid.
func (e *Engine) Grid() grid.Grid { return e.full }

// Restrict returns a copy of e that only emits entries at points; values
// still advance over the full grid.
func (e *Engine) Restrict(points []any) *Engine {
	cp := *e
	cp.target = e.full.Restrict(points)

	return &cp
}

// line is one combination of the other labels.
type line struct {
	others map[string]any
	at     map[int]values.ValueObject
	first  int
}

// lines groups entries carrying the label by their other labels, in order of
// first appearance. Entries off the grid and delete directives are ignored.
func (e *Engine) lines(vos []values.ValueObject) []*line {
	byKey := make(map[string]*line)
	var order []*line
	for _, vo := range vos {
		v, ok := vo.Label(e.label)
		if !ok || vo.IsDelete() {
			continue
		}
		i, ok := e.full.IndexOf(v)
		if !ok {
			continue
		}
		key := vo.KeyWithout(e.label)
		ln, ok := byKey[key]
		if !ok {
			ln = &line{others: vo.Without(e.label), at: make(map[int]values.ValueObject), first: i}
			byKey[key] = ln
			order = append(order, ln)
		}
		ln.at[i] = vo
		if i < ln.first {
			ln.first = i
		}
	}

	return order
}

// Plan returns the auto entries that make every line of vos dense from its
// first point on, in line order then grid order.
// Stage 1 (Validate): group entries into lines.
// Stage 2 (Execute): walk the grid per line carrying (or indexing) values.
// Complexity: O(N + L*G) for N entries, L lines and G grid points.
func (e *Engine) Plan(p Param, vos []values.ValueObject) ([]values.ValueObject, error) {
	var out []values.ValueObject
	index := e.x != nil && p.Indexed
	for _, ln := range e.lines(vos) {
		prior := ln.at[ln.first].Value
		for i := ln.first + 1; i < e.full.Len(); i++ {
			if vo, ok := ln.at[i]; ok {
				prior = vo.Value

				continue
			}
			next := values.CloneValue(prior)
			if index {
				var err error
				if next, err = e.x.Next(p.Name, prior, e.full.At(i-1)); err != nil {
					return nil, err
				}
			}
			prior = next
			point := e.full.At(i)
			if !e.target.Contains(point) {
				continue
			}
			labels := make(map[string]any, len(ln.others)+1)
			for k, v := range ln.others {
				labels[k] = v
			}
			labels[e.label] = point
			out = append(out, values.ValueObject{Labels: labels, Value: next, Auto: true})
		}
	}

	return out, nil
}

// Stale returns the label keys of current entries invalidated by adj.
//
// For each adjusted entry at point p with other labels O, in grid order,
// entries of current at points after p that agree with O (entries lacking
// one of O's labels agree) are examined in grid order:
//   - clobber: every auto entry is stale; explicit entries are kept.
//   - no clobber: the auto run directly after p is stale, up to the first
//     explicit entry.
//
// Adjusted entries without the label, or off the grid, invalidate nothing.
func (e *Engine) Stale(current, adj []values.ValueObject, clobber bool) map[string]struct{} {
	stale := make(map[string]struct{})
	type pos struct {
		i  int
		vo values.ValueObject
	}
	var adjusted []pos
	for _, a := range adj {
		v, ok := a.Label(e.label)
		if !ok {
			continue
		}
		if i, ok := e.full.IndexOf(v); ok {
			adjusted = append(adjusted, pos{i, a})
		}
	}
	slices.SortStableFunc(adjusted, func(x, y pos) int { return x.i - y.i })

	for _, a := range adjusted {
		others := a.vo.Without(e.label)
		var later []pos
		for _, vo := range current {
			v, ok := vo.Label(e.label)
			if !ok {
				continue
			}
			i, ok := e.full.IndexOf(v)
			if !ok || i <= a.i || !agrees(vo, others) {
				continue
			}
			later = append(later, pos{i, vo})
		}
		slices.SortStableFunc(later, func(x, y pos) int { return x.i - y.i })
		for _, l := range later {
			if !l.vo.Auto {
				if clobber {
					continue
				}

				break
			}
			stale[l.vo.LabelKey()] = struct{}{}
		}
	}

	return stale
}

func agrees(vo values.ValueObject, labels map[string]any) bool {
	for k, want := range labels {
		if got, ok := vo.Labels[k]; ok && !values.Equal(got, want) {
			return false
		}
	}

	return true
}

// Density reports, for vos along the engine label, the number of lines and
// whether each line has exactly one entry per grid point from its first
// point on.
func (e *Engine) Density(vos []values.ValueObject) (lines int, dense bool) {
	ls := e.lines(vos)
	dense = true
	for _, ln := range ls {
		if len(ln.at) != e.full.Len()-ln.first {
			dense = false
		}
	}

	return len(ls), dense
}

// String implements fmt.Stringer.
func (e *Engine) String() string {
	return fmt.Sprintf("extend(%s, %d points)", e.label, e.full.Len())
}
