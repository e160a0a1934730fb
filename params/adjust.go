// SPDX-License-Identifier: MIT

package params

import (
	"fmt"
	"slices"

	"github.com/katalvlaran/paramspace/extend"
	"github.com/katalvlaran/paramspace/validate"
	"github.com/katalvlaran/paramspace/values"
)

// Adjust validates adj and merges it into the current values.
// MAIN DESCRIPTION:
//   - The whole adjustment is applied or nothing is: any blocking error
//     restores every store to its state before the call.
//
// Implementation:
//   - Stage 1 (Validate): unknown names fail fast; every parameter of adj is
//     coerced then bound-checked against the batch and the current values.
//   - Stage 2 (Execute): in extend mode, drop the auto entries the
//     adjustment invalidates, merge in grid order, then plan, validate and
//     merge the extension. Otherwise merge as given.
//   - Stage 3 (Finalize): warnings are kept on the instance (see Warnings).
//     Under Clobber(false) every value that met a caller-supplied entry and
//     was not applied files an ErrExplicitKept warning.
//
// Returns the coerced adjustment.
//
// Errors:
//   - *UnknownParameterError for undeclared names.
//   - *ValidationError for blocking messages (nil under RaiseErrors(false)).
//   - extend errors such as extend.ErrMissingRate.
func (p *Parameters) Adjust(adj map[string][]values.ValueObject, opts ...AdjustOption) (map[string][]values.ValueObject, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.adjust(adj, newAdjustConfig(opts))
}

func (p *Parameters) adjust(adj map[string][]values.ValueObject, cfg adjustConfig) (map[string][]values.ValueObject, error) {
	p.report = validate.Report{}
	if err := p.unknownParams(adj); err != nil {
		return nil, err
	}
	batch, rep := validate.Adjustment(p.context(), adj)
	rep = cfg.settle(rep)
	if rep.HasErrors() {
		return nil, p.reject(rep, cfg)
	}

	names := p.ordered(batch)
	snap := p.snapshot()
	ext, err := p.apply(batch, names, cfg)
	if err != nil {
		p.restore(snap)

		return nil, err
	}
	rep.Merge(cfg.settle(ext))
	if rep.HasErrors() {
		p.restore(snap)
		p.log.Debug().Strs("params", names).Int("errors", len(rep.Errors)).Msg("adjustment rolled back")

		return nil, p.reject(rep, cfg)
	}
	p.report = rep
	p.finish()
	p.log.Debug().Strs("params", names).Int("warnings", len(rep.Warnings)).Msg("adjustment applied")

	return batch, nil
}

// apply merges a validated batch. In extend mode it returns the report of
// the extension it planned.
func (p *Parameters) apply(batch map[string][]values.ValueObject, names []string, cfg adjustConfig) (validate.Report, error) {
	var kept validate.Report
	extending := p.engine != nil && cfg.extendAdj
	for _, name := range names {
		s := p.stores[name]
		vos := batch[name]
		removed := 0
		if extending {
			stale := p.engine.Stale(s.All(), vos, cfg.clobber)
			removed = s.Remove(func(vo values.ValueObject) bool {
				_, ok := stale[vo.LabelKey()]

				return ok
			})
			vos = p.gridSorted(vos)
		}
		var total values.MergeResult
		for _, vo := range vos {
			r := s.Merge(vo, values.MergeOptions{Clobber: cfg.clobber})
			if r.Skipped > 0 {
				kept.Merge(keptWarning(name, vo, r.Skipped))
			}
			total.Updated += r.Updated
			total.Appended += r.Appended
			total.Deleted += r.Deleted
			total.Skipped += r.Skipped
		}
		p.log.Debug().
			Str("param", name).
			Int("stale", removed).
			Int("updated", total.Updated).
			Int("appended", total.Appended).
			Int("deleted", total.Deleted).
			Int("skipped", total.Skipped).
			Msg("merged")
	}
	if !extending {
		return kept, nil
	}
	ext, err := p.extendParams(p.engine, names)
	kept.Merge(ext)

	return kept, err
}

// keptWarning reports the n caller-supplied entries vo did not overwrite.
func keptWarning(name string, vo values.ValueObject, n int) validate.Report {
	action := "value " + values.Format(vo.Value)
	if vo.IsDelete() {
		action = "delete"
	}
	m := validate.Message{
		Kind:   ErrExplicitKept,
		Param:  name,
		Labels: vo.Labels,
		Text:   fmt.Sprintf("%s%s %s not applied: %d caller-supplied entr%s kept (clobber off)", name, vo.LabelString(), action, n, plural(n)),
	}

	return validate.Report{Warnings: map[string][]validate.Message{name: {m}}}
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}

	return "ies"
}

// gridSorted returns a copy of vos ordered along the label to extend.
func (p *Parameters) gridSorted(vos []values.ValueObject) []values.ValueObject {
	g := p.engine.Grid()
	out := slices.Clone(vos)
	slices.SortStableFunc(out, values.ByLabels([]string{p.engine.Label()}, func(_ string, a, b any) int {
		return g.Compare(a, b)
	}))

	return out
}

// extendParams fills every line of names along e's label, checking the
// new entries against the validators.
func (p *Parameters) extendParams(e *extend.Engine, names []string) (validate.Report, error) {
	var rep validate.Report
	ctx := p.context()
	for _, name := range names {
		prm, s, err := p.store(name)
		if err != nil {
			return rep, err
		}
		plan, err := e.Plan(extend.Param{Name: name, Indexed: prm.Indexed}, s.All())
		if err != nil {
			return rep, fmt.Errorf("params: extend %s: %w", name, err)
		}
		if len(plan) == 0 {
			continue
		}
		rep.Merge(validate.Bounds(ctx, prm, plan))
		for _, vo := range plan {
			s.Put(vo)
		}
		p.log.Debug().Str("param", name).Str("label", e.Label()).Int("entries", len(plan)).Msg("extended")
	}

	return rep, nil
}

// Delete removes the entries matching each value object of adj; only labels
// are read, values are ignored. In extend mode the gaps are refilled from the
// preceding points.
func (p *Parameters) Delete(adj map[string][]values.ValueObject, opts ...AdjustOption) error {
	del := make(map[string][]values.ValueObject, len(adj))
	for name, vos := range adj {
		for _, vo := range vos {
			del[name] = append(del[name], values.ValueObject{Labels: vo.Labels})
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.adjust(del, newAdjustConfig(opts))

	return err
}

// Validate checks adj against the current values without changing them.
func (p *Parameters) Validate(adj map[string][]values.ValueObject, opts ...AdjustOption) (validate.Report, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.unknownParams(adj); err != nil {
		return validate.Report{}, err
	}
	_, rep := validate.Adjustment(p.context(), adj)

	return newAdjustConfig(opts).settle(rep), nil
}

// ExtendOptions selects what Extend fills.
type ExtendOptions struct {
	// Label to extend along; empty means the label to extend.
	Label string
	// Values restricts the points that receive entries. Raw label values.
	Values []any
	// Params restricts the parameters; empty means all.
	Params []string
}

// Extend fills the gaps of the selected parameters along a label. Entries are
// only added, never overwritten. Indexing applies along the label to extend.
func (p *Parameters) Extend(o ExtendOptions, opts ...AdjustOption) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg := newAdjustConfig(opts)
	p.report = validate.Report{}

	e, err := p.engineFor(o.Label)
	if err != nil {
		return err
	}
	if o.Values != nil {
		pts, err := p.coerceLabel(e.Label(), o.Values)
		if err != nil {
			return err
		}
		e = e.Restrict(pts)
	}
	names := o.Params
	if len(names) == 0 {
		names = p.schema.ParamNames()
	}
	for _, name := range names {
		if _, _, err := p.store(name); err != nil {
			return err
		}
	}

	snap := p.snapshot()
	rep, err := p.extendParams(e, names)
	if err != nil {
		p.restore(snap)

		return err
	}
	rep = cfg.settle(rep)
	if rep.HasErrors() {
		p.restore(snap)

		return p.reject(rep, cfg)
	}
	p.report = rep
	p.finish()

	return nil
}

// engineFor returns the engine for label: the configured one for the label
// to extend, a plain carry-forward engine for any other label.
func (p *Parameters) engineFor(label string) (*extend.Engine, error) {
	if label == "" || label == p.ops.LabelToExtend {
		if p.engine == nil {
			return nil, ErrNoLabelToExtend
		}

		return p.engine, nil
	}
	l, ok := p.schema.Label(label)
	if !ok {
		return nil, fmt.Errorf("params: %q: %w", label, extend.ErrUnknownExtendLabel)
	}
	g, err := p.grids.Grid(l)
	if err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}

	return extend.New(g), nil
}
