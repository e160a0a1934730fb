// SPDX-License-Identifier: MIT

package params

import (
	"fmt"
	"slices"
	"sync"

	"github.com/katalvlaran/paramspace/extend"
	"github.com/katalvlaran/paramspace/grid"
	"github.com/katalvlaran/paramspace/registry"
	"github.com/katalvlaran/paramspace/schema"
	"github.com/katalvlaran/paramspace/validate"
	"github.com/katalvlaran/paramspace/values"
	"github.com/rs/zerolog"
)

// Parameters is a validated, mutable set of parameter values over one
// resolved schema.
//
// Concurrency: every method takes the instance lock, so concurrent reads are
// safe and mutations are serialized. Transaction callbacks run without the
// lock held and may call any method.
type Parameters struct {
	mu sync.RWMutex

	schema     *schema.Schema
	ops        schema.Operators
	grids      *grid.Builder
	engine     *extend.Engine // nil when not extending
	stores     map[string]*values.Store
	ctx        validate.Context
	log        zerolog.Logger
	sortValues bool

	// report is the outcome of the last mutation: warnings, or errors kept
	// under RaiseErrors(false).
	report validate.Report
	inTx   bool
}

// New builds Parameters from sch, resolving it first when needed.
// MAIN DESCRIPTION:
//   - Applies operator overrides, coerces and validates the defaults, and in
//     extend mode extends every parameter along the label to extend.
//
// Implementation:
//   - Stage 1 (Resolve): resolve sch against the configured registry.
//   - Stage 2 (Validate): coerce defaults, check every validator.
//   - Stage 3 (Extend): build the engine and fill every line.
//
// Errors:
//   - schema resolution errors (schema.ErrUnknownType, ...).
//   - *ValidationError when the defaults do not validate.
//   - extend.ErrUnknownExtendLabel, grid.ErrInvalidGrid, ErrMissingIndexRates.
//
// Complexity:
//   - Time O(P*N) validation plus O(L*G) extension per parameter.
func New(sch *schema.Schema, opts ...Option) (*Parameters, error) {
	if sch == nil {
		return nil, fmt.Errorf("params: nil schema: %w", validate.ErrUnresolvedSchema)
	}
	cfg := newConfig(opts)
	if !sch.Resolved() {
		if err := sch.Resolve(cfg.registry); err != nil {
			return nil, fmt.Errorf("params: %w", err)
		}
	}
	p := &Parameters{
		schema:     sch,
		ops:        sch.Operators,
		grids:      grid.NewBuilder(cfg.gridOpts...),
		stores:     make(map[string]*values.Store, len(sch.Params)),
		log:        cfg.logger,
		sortValues: cfg.sortValues,
	}
	if cfg.labelToExtend != nil {
		p.ops.LabelToExtend = *cfg.labelToExtend
	}
	if cfg.arrayFirst != nil {
		p.ops.ArrayFirst = *cfg.arrayFirst
	}
	if cfg.usesExtendFunc != nil {
		p.ops.UsesExtendFunc = *cfg.usesExtendFunc
	}

	ctx, rep, err := validate.NewContext(sch)
	if err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	rep.Merge(validate.Specification(ctx))
	if rep.HasErrors() {
		return nil, &ValidationError{Report: rep}
	}
	for _, prm := range sch.Params {
		s, err := values.NewStore(ctx.Defaults[prm.Name]...)
		if err != nil {
			return nil, fmt.Errorf("params: %s defaults: %w", prm.Name, err)
		}
		p.stores[prm.Name] = s
	}
	ctx.Current = p.current
	p.ctx = ctx
	p.report = rep

	if err = p.initEngine(cfg); err != nil {
		return nil, err
	}
	if p.engine != nil {
		ext, err := p.extendParams(p.engine, sch.ParamNames())
		if err != nil {
			return nil, err
		}
		if ext.HasErrors() {
			return nil, &ValidationError{Report: ext}
		}
		p.report.Merge(ext)
	}
	p.finish()
	p.log.Debug().
		Int("params", len(sch.Params)).
		Str("label_to_extend", p.ops.LabelToExtend).
		Bool("array_first", p.ops.ArrayFirst).
		Msg("parameters loaded")

	return p, nil
}

// initEngine builds the extend engine for the label to extend, if any.
func (p *Parameters) initEngine(cfg config) error {
	label := p.ops.LabelToExtend
	if label == "" {
		return nil
	}
	l, ok := p.schema.Label(label)
	if !ok {
		return fmt.Errorf("params: %q: %w", label, extend.ErrUnknownExtendLabel)
	}
	g, err := p.grids.Grid(l)
	if err != nil {
		return fmt.Errorf("params: %w", err)
	}
	var opts []extend.Option
	if p.ops.UsesExtendFunc {
		x, err := indexer(cfg, l)
		if err != nil {
			return err
		}
		opts = append(opts, extend.WithExtrapolator(x))
	}
	p.engine = extend.New(g, opts...)

	return nil
}

// indexer returns the configured extrapolator, or a rate table keyed by the
// coerced label values of cfg.indexRates.
func indexer(cfg config, l *schema.Label) (extend.Extrapolator, error) {
	if cfg.extrapolator != nil {
		return cfg.extrapolator, nil
	}
	if len(cfg.indexRates) == 0 {
		return nil, ErrMissingIndexRates
	}
	t := extend.NewRateTable()
	for raw, rate := range cfg.indexRates {
		v, err := l.ValueType().Coerce(raw)
		if err != nil {
			return nil, fmt.Errorf("params: index rate %s=%v: %w", l.Name, raw, err)
		}
		t.Set(v, rate)
	}

	return t, nil
}

// current feeds the validation context with live values.
func (p *Parameters) current(name string) []values.ValueObject {
	s, ok := p.stores[name]
	if !ok {
		return nil
	}

	return s.All()
}

// context returns the validation context; inside a transaction checks that
// reference other parameters wait for the commit.
func (p *Parameters) context() validate.Context {
	ctx := p.ctx
	ctx.SkipRefs = p.inTx

	return ctx
}

// ordered returns the keys of batch in schema order.
func (p *Parameters) ordered(batch map[string][]values.ValueObject) []string {
	names := make([]string, 0, len(batch))
	for name := range batch {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return p.schema.ParamIndex(a) - p.schema.ParamIndex(b)
	})

	return names
}

func (p *Parameters) snapshot() map[string]*values.Store {
	snap := make(map[string]*values.Store, len(p.stores))
	for name, s := range p.stores {
		snap[name] = s.Clone()
	}

	return snap
}

func (p *Parameters) restore(snap map[string]*values.Store) {
	for name, s := range snap {
		p.stores[name].Restore(s)
	}
}

// reject records rep and returns it as an error unless raising is off.
func (p *Parameters) reject(rep validate.Report, cfg adjustConfig) error {
	p.report = rep
	if !cfg.raiseErrors {
		return nil
	}

	return &ValidationError{Report: rep}
}

// finish runs after every successful mutation.
func (p *Parameters) finish() {
	if p.sortValues {
		p.sortAll()
	}
}

// labelCompare orders two values of label by its grid, falling back to the
// label type for labels without a finite grid.
func (p *Parameters) labelCompare() func(label string, a, b any) int {
	grids := make(map[string]grid.Grid, len(p.schema.Labels))
	for _, l := range p.schema.Labels {
		if g, err := p.grids.Grid(l); err == nil {
			grids[l.Name] = g
		}
	}

	return func(label string, a, b any) int {
		if g, ok := grids[label]; ok {
			return g.Compare(a, b)
		}
		c, _ := registry.CompareValues(a, b)

		return c
	}
}

func (p *Parameters) sortAll() {
	cmp := values.ByLabels(p.schema.LabelNames(), p.labelCompare())
	for _, s := range p.stores {
		s.Sort(cmp)
	}
}

// store returns the parameter and store called name.
func (p *Parameters) store(name string) (*schema.Parameter, *values.Store, error) {
	prm, ok := p.schema.Param(name)
	if !ok {
		return nil, nil, &UnknownParameterError{Names: []string{name}}
	}

	return prm, p.stores[name], nil
}

// Schema returns the resolved schema. Callers must not modify it.
func (p *Parameters) Schema() *schema.Schema { return p.schema }

// Operators returns the effective operators, after option overrides.
func (p *Parameters) Operators() schema.Operators { return p.ops }

// Keys returns the parameter names in schema order.
func (p *Parameters) Keys() []string { return p.schema.ParamNames() }

// LabelGrid returns the grid of label.
func (p *Parameters) LabelGrid(label string) (grid.Grid, error) {
	l, ok := p.schema.Label(label)
	if !ok {
		return grid.Grid{}, fmt.Errorf("params: label %q: %w", label, validate.ErrUnknownLabel)
	}

	return p.grids.Grid(l)
}

// Errors returns the errors kept by the last call made with RaiseErrors(false).
func (p *Parameters) Errors() map[string][]string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.report.Strings()
}

// Warnings returns the warnings of the last mutation.
func (p *Parameters) Warnings() map[string][]string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.report.WarningStrings()
}

// Report returns the full report of the last mutation.
func (p *Parameters) Report() validate.Report {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.report
}

// SortValues orders every store by the label grids, labels in declaration
// order. Sorting twice is a no-op.
func (p *Parameters) SortValues() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sortAll()
}
