// SPDX-License-Identifier: MIT

package grid

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/katalvlaran/paramspace/registry"
	"github.com/katalvlaran/paramspace/schema"
	"github.com/katalvlaran/paramspace/values"
)

// Defaults.
const (
	// DefaultMaxPoints caps the size of a range grid.
	DefaultMaxPoints = 1_000_000

	// DefaultEpsilon is the relative tolerance (in steps) used to decide
	// that a float grid point lands on max.
	DefaultEpsilon = 1e-9
)

// Option configures a Builder.
type Option func(*Builder)

// WithMaxPoints overrides DefaultMaxPoints. Panics if n <= 0.
func WithMaxPoints(n int) Option {
	if n <= 0 {
		panic("grid: WithMaxPoints requires n > 0")
	}

	return func(b *Builder) { b.maxPoints = n }
}

// WithEpsilon overrides DefaultEpsilon. Panics if eps < 0 or NaN.
func WithEpsilon(eps float64) Option {
	if eps < 0 || math.IsNaN(eps) {
		panic("grid: WithEpsilon requires eps >= 0")
	}

	return func(b *Builder) { b.eps = eps }
}

type cached struct {
	fingerprint string
	grid        Grid
}

// Builder computes and caches label grids. Safe for concurrent use.
type Builder struct {
	maxPoints int
	eps       float64

	mu    sync.Mutex
	cache map[string]cached
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{maxPoints: DefaultMaxPoints, eps: DefaultEpsilon, cache: make(map[string]cached)}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Grid returns the grid of l, computing it when the cached one is missing
// or was derived from a different definition.
func (b *Builder) Grid(l *schema.Label) (Grid, error) {
	fp := fingerprint(l)
	b.mu.Lock()
	c, ok := b.cache[l.Name]
	b.mu.Unlock()
	if ok && c.fingerprint == fp {
		return c.grid, nil
	}
	g, err := b.build(l)
	if err != nil {
		return Grid{}, err
	}
	b.mu.Lock()
	b.cache[l.Name] = cached{fingerprint: fp, grid: g}
	b.mu.Unlock()

	return g, nil
}

// Invalidate drops the cached grid of label name.
func (b *Builder) Invalidate(name string) {
	b.mu.Lock()
	delete(b.cache, name)
	b.mu.Unlock()
}

// Build computes the grid of l without caching.
func Build(l *schema.Label) (Grid, error) {
	return NewBuilder().build(l)
}

func (b *Builder) build(l *schema.Label) (Grid, error) {
	typ := l.ValueType()
	if typ == nil {
		return Grid{}, invalidf(l.Name, "label type is not resolved")
	}
	if r := l.Validators.RangeRule(); r != nil {
		return b.expandRange(l.Name, typ, r)
	}
	if c := l.Validators.Choice; c != nil {
		if len(c.Values) == 0 {
			return Grid{}, invalidf(l.Name, "empty choice list")
		}

		return New(l.Name, c.Values), nil
	}

	return Grid{}, invalidf(l.Name, "no range or choice validator")
}

// expandRange walks min, min+step, ... <= max.
// Stage 1 (Validate): bounds present, finite, ordered; step positive.
// Stage 2 (Execute): generate points, snapping float points near max.
// Complexity: O(n) in the number of points.
func (b *Builder) expandRange(name string, typ registry.Type, r *schema.Range) (Grid, error) {
	if r.Min == nil || r.Max == nil {
		return Grid{}, invalidf(name, "range needs both min and max")
	}
	if r.Min.Ref != schema.RefNone || r.Max.Ref != schema.RefNone {
		return Grid{}, invalidf(name, "range bounds must be literals")
	}
	lo, hi := r.Min.Value, r.Max.Value
	for _, v := range []any{lo, hi} {
		if f, ok := registry.AsFloat(v); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return Grid{}, invalidf(name, "non-finite bound %v", v)
		}
	}
	order, err := typ.Compare(lo, hi)
	if err != nil {
		return Grid{}, invalidf(name, "bounds are not comparable: %v", err)
	}
	if order > 0 {
		return Grid{}, invalidf(name, "min %s > max %s", values.Format(lo), values.Format(hi))
	}
	st, ok := typ.(registry.Stepper)
	if !ok {
		return Grid{}, invalidf(name, "type %s has no range grid", typ.Name())
	}
	step := r.Step
	if step == nil && typ.Kind() != registry.KindDate {
		step = int64(1)
	}
	next, err := st.Step(lo, step, 1)
	if err != nil {
		return Grid{}, invalidf(name, "step %v: %v", step, err)
	}
	if c, err := typ.Compare(next, lo); err != nil || c <= 0 {
		return Grid{}, invalidf(name, "step %v must be positive", step)
	}

	var stepF float64
	isFloat := typ.Kind() == registry.KindFloat
	if isFloat {
		stepF = next.(float64) - lo.(float64)
	}
	points := make([]any, 0, 16)
	for i := 0; ; i++ {
		v, err := st.Step(lo, step, i)
		if err != nil {
			return Grid{}, invalidf(name, "step %d: %v", i, err)
		}
		if isFloat && math.Abs(v.(float64)-hi.(float64)) <= b.eps*math.Abs(stepF) {
			v = hi
		}
		c, err := typ.Compare(v, hi)
		if err != nil {
			return Grid{}, invalidf(name, "%v", err)
		}
		if c > 0 {
			break
		}
		if len(points) == b.maxPoints {
			return Grid{}, invalidf(name, "more than %d points", b.maxPoints)
		}
		points = append(points, v)
	}

	return New(name, points), nil
}

// fingerprint identifies the parts of a label definition that shape its grid.
func fingerprint(l *schema.Label) string {
	var sb strings.Builder
	sb.WriteString(l.Type)
	if r := l.Validators.RangeRule(); r != nil {
		sb.WriteString("|range:")
		for _, bd := range []*schema.Bound{r.Min, r.Max} {
			if bd != nil {
				sb.WriteString(values.KeyOf(bd.Value))
			}
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%v", r.Step)
	}
	if c := l.Validators.Choice; c != nil {
		sb.WriteString("|choice:")
		for _, v := range c.Values {
			sb.WriteString(values.KeyOf(v))
			sb.WriteByte(',')
		}
	}

	return sb.String()
}
