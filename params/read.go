// SPDX-License-Identifier: MIT
// Package params - read surface.
//
// Reads never change the instance. A State narrows them to some values of
// some labels; it is held by the caller and passed to every read.

package params

import (
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/katalvlaran/paramspace/ndarray"
	"github.com/katalvlaran/paramspace/schema"
	"github.com/katalvlaran/paramspace/validate"
	"github.com/katalvlaran/paramspace/values"
)

// State restricts reads to the listed (raw) values of each label. Entries
// lacking one of the labels still match; a nil State matches everything.
type State map[string][]any

// coerceLabel coerces raw values of label.
func (p *Parameters) coerceLabel(label string, raw []any) ([]any, error) {
	l, ok := p.schema.Label(label)
	if !ok {
		return nil, fmt.Errorf("params: label %q: %w", label, validate.ErrUnknownLabel)
	}
	out := make([]any, 0, len(raw))
	for _, r := range raw {
		v, err := l.ValueType().Coerce(r)
		if err != nil {
			return nil, fmt.Errorf("params: label %s: %w", label, err)
		}
		out = append(out, v)
	}

	return out, nil
}

// parse coerces every label of st.
func (p *Parameters) parse(st State) (map[string][]any, error) {
	out := make(map[string][]any, len(st))
	for label, raw := range st {
		vals, err := p.coerceLabel(label, raw)
		if err != nil {
			return nil, err
		}
		out[label] = vals
	}

	return out, nil
}

// query turns parsed state into a non-strict equality query.
func (p *Parameters) query(labels map[string][]any) values.Query {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)
	q := values.Query{Compare: p.typeCompare}
	for _, name := range names {
		q = q.And(name, values.OpEq, labels[name]...)
	}

	return q
}

// typeCompare orders label values by their label type.
func (p *Parameters) typeCompare(label string, a, b any) (int, error) {
	if l, ok := p.schema.Label(label); ok && l.ValueType() != nil {
		return l.ValueType().Compare(a, b)
	}

	return 0, fmt.Errorf("params: label %q: %w", label, validate.ErrUnknownLabel)
}

// filtered returns the entries of name matching st.
func (p *Parameters) filtered(name string, st State) (*schema.Parameter, []values.ValueObject, map[string][]any, error) {
	prm, s, err := p.store(name)
	if err != nil {
		return nil, nil, nil, err
	}
	labels, err := p.parse(st)
	if err != nil {
		return nil, nil, nil, err
	}
	vos, err := s.Select(p.query(labels))
	if err != nil {
		return nil, nil, nil, err
	}

	return prm, vos, labels, nil
}

// SpecOption tunes Specification.
type SpecOption func(*specConfig)

type specConfig struct {
	includeEmpty bool
	sorted       bool
}

// IncludeEmpty keeps parameters with no entry matching the state.
func IncludeEmpty() SpecOption { return func(c *specConfig) { c.includeEmpty = true } }

// Sorted orders each parameter's entries by the label grids.
func Sorted() SpecOption { return func(c *specConfig) { c.sorted = true } }

// Specification returns the entries of every parameter matching st.
func (p *Parameters) Specification(st State, opts ...SpecOption) (map[string][]values.ValueObject, error) {
	var cfg specConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	labels, err := p.parse(st)
	if err != nil {
		return nil, err
	}
	q := p.query(labels)
	var cmp func(a, b values.ValueObject) int
	if cfg.sorted {
		cmp = values.ByLabels(p.schema.LabelNames(), p.labelCompare())
	}
	out := make(map[string][]values.ValueObject, len(p.stores))
	for _, name := range p.schema.ParamNames() {
		vos, err := p.stores[name].Select(q)
		if err != nil {
			return nil, err
		}
		if len(vos) == 0 && !cfg.includeEmpty {
			continue
		}
		if cmp != nil {
			slices.SortStableFunc(vos, cmp)
		}
		out[name] = vos
	}

	return out, nil
}

// Select runs q over the entries of name. A nil q.Compare orders label
// values by their label type.
func (p *Parameters) Select(name string, q values.Query) ([]values.ValueObject, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, s, err := p.store(name)
	if err != nil {
		return nil, err
	}
	if q.Compare == nil {
		q.Compare = p.typeCompare
	}

	return s.Select(q)
}

// Value returns the entries of name matching st, or the array of ToArray
// when array_first is on.
func (p *Parameters) Value(name string, st State) (any, error) {
	if p.ops.ArrayFirst {
		return p.ToArray(name, st)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, vos, _, err := p.filtered(name, st)

	return vos, err
}

// ToArray returns the entries of name matching st as a dense array.
// MAIN DESCRIPTION:
//   - Axes are the labels the entries use, in declaration order, each
//     indexed by its grid narrowed to the state's values.
//
// Implementation:
//   - Stage 1: filter by st; no entry gives an empty 1-d array.
//   - Stage 2: array-valued parameters return their value as the array.
//   - Stage 3: ndarray.ToArray over the axes.
//
// Errors:
//   - ndarray.ErrInconsistentLabels, ndarray.ErrSparseValues.
//   - ndarray.ErrArrayWithLabels for array-valued parameters with labels.
func (p *Parameters) ToArray(name string, st State) (*ndarray.Array, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	prm, vos, labels, err := p.filtered(name, st)
	if err != nil {
		return nil, err
	}
	if len(vos) == 0 {
		return ndarray.New(0)
	}
	axes, err := p.axes(vos, labels)
	if err != nil {
		return nil, fmt.Errorf("params: %s: %w", name, err)
	}
	if prm.NumberDims > 0 {
		if len(axes) > 0 {
			return nil, fmt.Errorf("params: %s has %d dimension(s) and labels: %w", name, prm.NumberDims, ndarray.ErrArrayWithLabels)
		}
		arr, err := ndarray.FromNested(vos[0].Value, prm.NumberDims)
		if err != nil {
			return nil, fmt.Errorf("params: %s: %w", name, err)
		}

		return arr, nil
	}
	arr, err := ndarray.ToArray(vos, axes)
	if err != nil {
		return nil, fmt.Errorf("params: %s: %w", name, err)
	}

	return arr, nil
}

// FromArray converts arr back to value objects of name using the axes
// ToArray would use for st. The instance is not changed; pass the result to
// Adjust to apply it.
func (p *Parameters) FromArray(name string, arr *ndarray.Array, st State) ([]values.ValueObject, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	prm, vos, labels, err := p.filtered(name, st)
	if err != nil {
		return nil, err
	}
	axes, err := p.axes(vos, labels)
	if err != nil {
		return nil, fmt.Errorf("params: %s: %w", name, err)
	}
	if prm.NumberDims > 0 {
		if len(axes) > 0 {
			return nil, fmt.Errorf("params: %s has %d dimension(s) and labels: %w", name, prm.NumberDims, ndarray.ErrArrayWithLabels)
		}

		return []values.ValueObject{{Value: arr.Nested()}}, nil
	}

	return ndarray.FromArray(arr, axes)
}

// axes resolves the array axes of vos.
func (p *Parameters) axes(vos []values.ValueObject, labels map[string][]any) ([]ndarray.Axis, error) {
	var used []string
	for i, vo := range vos {
		names := vo.LabelNames()
		if i == 0 {
			used = names
		} else if !slices.Equal(used, names) {
			return nil, fmt.Errorf("labels %v and %v: %w", used, names, ndarray.ErrInconsistentLabels)
		}
	}
	var axes []ndarray.Axis
	for _, l := range p.schema.Labels {
		if !slices.Contains(used, l.Name) {
			continue
		}
		g, err := p.grids.Grid(l)
		if err != nil {
			return nil, err
		}
		if vals, ok := labels[l.Name]; ok {
			g = g.Restrict(vals)
		}
		axes = append(axes, ndarray.Axis{Label: l.Name, Grid: g})
	}

	return axes, nil
}

// Dump writes the schema, with the effective operators, and the current
// values sorted by the label grids, in the layout schema.LoadJSON reads.
func (p *Parameters) Dump(w io.Writer) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cmp := values.ByLabels(p.schema.LabelNames(), p.labelCompare())
	sorted := make(map[string][]values.ValueObject, len(p.stores))
	for name, s := range p.stores {
		cp := s.Clone()
		cp.Sort(cmp)
		sorted[name] = cp.All()
	}
	sch := *p.schema
	sch.Operators = p.ops
	if err := sch.WriteJSON(w, func(name string) []values.ValueObject { return sorted[name] }); err != nil {
		return fmt.Errorf("params: dump: %w", err)
	}

	return nil
}
