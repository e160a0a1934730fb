// SPDX-License-Identifier: MIT

package extend

import (
	"fmt"
	"math"

	"github.com/katalvlaran/paramspace/registry"
	"github.com/katalvlaran/paramspace/values"
	"github.com/shopspring/decimal"
)

// MaxIndexedValue caps indexed values.
const MaxIndexedValue = 9e99

var maxIndexed = decimal.NewFromFloat(MaxIndexedValue)

// Extrapolator derives the value at the grid point following from, given the
// value prior held at from. Implementations must not modify prior.
type Extrapolator interface {
	Next(param string, prior any, from any) (any, error)
}

// ExtrapolatorFunc adapts a function to Extrapolator.
type ExtrapolatorFunc func(param string, prior any, from any) (any, error)

// Next implements Extrapolator.
func (f ExtrapolatorFunc) Next(param string, prior any, from any) (any, error) {
	return f(param, prior, from)
}

// RateTable is the built-in indexing extrapolator: rates keyed by the grid
// point a step starts from.
type RateTable struct {
	rates map[string]float64
}

// NewRateTable returns an empty table.
func NewRateTable() *RateTable {
	return &RateTable{rates: make(map[string]float64)}
}

// Set stores rate for grid point point. point must be a coerced label value.
// Panics if rate is not finite.
func (t *RateTable) Set(point any, rate float64) *RateTable {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		panic(fmt.Sprintf("extend: rate %v at %s is not finite", rate, values.Format(point)))
	}
	t.rates[values.KeyOf(point)] = rate

	return t
}

// Rate returns the rate stored for point.
func (t *RateTable) Rate(point any) (float64, bool) {
	r, ok := t.rates[values.KeyOf(point)]

	return r, ok
}

// Len returns the number of rates.
func (t *RateTable) Len() int { return len(t.rates) }

// Next implements Extrapolator: every numeric leaf becomes
// round2(leaf * (1 + rate[from])) in decimal arithmetic, capped at
// MaxIndexedValue. Integer leaves stay integers: they are rounded to whole
// units, not to cents.
func (t *RateTable) Next(param string, prior any, from any) (any, error) {
	rate, ok := t.Rate(from)
	if !ok {
		return nil, fmt.Errorf("extend: %s at %s: %w", param, values.Format(from), ErrMissingRate)
	}

	return values.MapLeaves(prior, func(leaf any) (any, error) {
		f, ok := registry.AsFloat(leaf)
		if !ok {
			return nil, fmt.Errorf("extend: %s leaf %v: %w", param, leaf, ErrNotNumeric)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return MaxIndexedValue, nil
		}
		d := decimal.NewFromFloat(f).Mul(decimal.NewFromFloat(rate).Add(decimal.NewFromInt(1)))
		if d.GreaterThanOrEqual(maxIndexed) {
			return MaxIndexedValue, nil
		}
		if _, isInt := leaf.(int64); isInt {
			return d.Round(0).IntPart(), nil
		}
		v, _ := d.Round(2).Float64()

		return v, nil
	})
}
