// SPDX-License-Identifier: MIT
// Package params - functional options.
//
// Construction options (Option) override the schema operators and wire the
// collaborators; per-call options (AdjustOption) tune one adjustment.
// Option constructors panic on nonsense arguments (programmer error).

package params

import (
	"github.com/katalvlaran/paramspace/extend"
	"github.com/katalvlaran/paramspace/grid"
	"github.com/katalvlaran/paramspace/registry"
	"github.com/katalvlaran/paramspace/validate"
	"github.com/rs/zerolog"
)

// Option configures New.
type Option func(*config)

type config struct {
	labelToExtend  *string
	arrayFirst     *bool
	usesExtendFunc *bool
	indexRates     map[any]float64
	extrapolator   extend.Extrapolator
	registry       *registry.Registry
	logger         zerolog.Logger
	sortValues     bool
	gridOpts       []grid.Option
}

func newConfig(opts []Option) config {
	cfg := config{registry: registry.Default(), logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// WithLabelToExtend overrides the label_to_extend operator.
// An empty label turns extension off.
func WithLabelToExtend(label string) Option {
	return func(c *config) { c.labelToExtend = &label }
}

// WithArrayFirst overrides the array_first operator: Value returns arrays.
func WithArrayFirst(on bool) Option {
	return func(c *config) { c.arrayFirst = &on }
}

// WithUsesExtendFunc overrides the uses_extend_func operator: indexed
// parameters are grown by the index rates while extending.
func WithUsesExtendFunc(on bool) Option {
	return func(c *config) { c.usesExtendFunc = &on }
}

// WithIndexRates sets the rate applied when stepping from each point of the
// label to extend. Keys are raw label values, coerced by New.
// Panics on an empty map.
func WithIndexRates(rates map[any]float64) Option {
	if len(rates) == 0 {
		panic("params: WithIndexRates requires at least one rate")
	}
	cp := make(map[any]float64, len(rates))
	for k, v := range rates {
		cp[k] = v
	}

	return func(c *config) { c.indexRates = cp }
}

// WithExtrapolator replaces the rate table used for indexing.
// Panics on nil.
func WithExtrapolator(x extend.Extrapolator) Option {
	if x == nil {
		panic("params: WithExtrapolator(nil)")
	}

	return func(c *config) { c.extrapolator = x }
}

// WithRegistry resolves the schema against reg instead of registry.Default().
// Panics on nil.
func WithRegistry(reg *registry.Registry) Option {
	if reg == nil {
		panic("params: WithRegistry(nil)")
	}

	return func(c *config) { c.registry = reg }
}

// WithLogger sets the debug logger. Default: zerolog.Nop().
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithSortValues keeps every store in label grid order after each mutation.
func WithSortValues(on bool) Option {
	return func(c *config) { c.sortValues = on }
}

// WithGridOptions forwards options to the label grid builder.
func WithGridOptions(opts ...grid.Option) Option {
	return func(c *config) { c.gridOpts = append(c.gridOpts, opts...) }
}

// AdjustOption tunes Adjust, Delete, Extend and Transaction.
type AdjustOption func(*adjustConfig)

type adjustConfig struct {
	ignoreWarnings   bool
	warningsAsErrors bool
	raiseErrors      bool
	extendAdj        bool
	clobber          bool
}

func newAdjustConfig(opts []AdjustOption) adjustConfig {
	cfg := adjustConfig{raiseErrors: true, extendAdj: true, clobber: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// IgnoreWarnings drops warnings instead of recording them.
func IgnoreWarnings() AdjustOption {
	return func(c *adjustConfig) { c.ignoreWarnings = true }
}

// WarningsAsErrors makes warnings block the adjustment.
func WarningsAsErrors() AdjustOption {
	return func(c *adjustConfig) { c.warningsAsErrors = true }
}

// RaiseErrors(false) keeps a rejected report on the instance (see Errors)
// instead of returning a *ValidationError. The adjustment is still rolled back.
func RaiseErrors(on bool) AdjustOption {
	return func(c *adjustConfig) { c.raiseErrors = on }
}

// ExtendAdjustment(false) merges an adjustment without re-extending.
func ExtendAdjustment(on bool) AdjustOption {
	return func(c *adjustConfig) { c.extendAdj = on }
}

// Clobber(false) keeps caller-supplied entries that an adjustment would
// otherwise overwrite or invalidate. Default true.
func Clobber(on bool) AdjustOption {
	return func(c *adjustConfig) { c.clobber = on }
}

// settle applies the warning policy to rep.
func (c adjustConfig) settle(rep validate.Report) validate.Report {
	switch {
	case c.warningsAsErrors:
		return rep.Escalate()
	case c.ignoreWarnings:
		rep.Warnings = nil
	}

	return rep
}
