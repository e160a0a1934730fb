package extend_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/paramspace/extend"
	"github.com/katalvlaran/paramspace/grid"
	"github.com/katalvlaran/paramspace/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func years() grid.Grid {
	return grid.New("year", []any{int64(2017), int64(2018), int64(2019), int64(2020)})
}

func points(n int) grid.Grid {
	vals := make([]any, n)
	for i := range vals {
		vals[i] = int64(i + 1)
	}

	return grid.New("g", vals)
}

// apply mirrors an extend-mode adjustment: drop stale entries, merge the
// adjustment, merge the new plan.
func apply(t *testing.T, e *extend.Engine, s *values.Store, p extend.Param, clobber bool, adj ...values.ValueObject) {
	t.Helper()
	stale := e.Stale(s.All(), adj, clobber)
	s.Remove(func(vo values.ValueObject) bool {
		_, ok := stale[vo.LabelKey()]

		return ok
	})
	for _, vo := range adj {
		s.Merge(vo, values.MergeOptions{Clobber: clobber})
	}
	fill(t, e, s, p)
}

func fill(t *testing.T, e *extend.Engine, s *values.Store, p extend.Param) {
	t.Helper()
	plan, err := e.Plan(p, s.All())
	require.NoError(t, err)
	for _, vo := range plan {
		s.Merge(vo, values.MergeOptions{Clobber: true})
	}
}

// along returns the value at every grid point of the line selected by others.
func along(s *values.Store, g grid.Grid, others ...any) []any {
	out := make([]any, g.Len())
	for i := range out {
		labels := values.New(nil, others...).Labels
		if labels == nil {
			labels = map[string]any{}
		}
		labels[g.Label] = g.At(i)
		if vo, ok := s.Lookup(labels); ok {
			out[i] = vo.Value
		}
	}

	return out
}

func TestConcreteScenario(t *testing.T) {
	e := extend.New(years())
	sd := extend.Param{Name: "sd"}
	s, err := values.NewStore(
		values.New(6350.0, "year", int64(2017)),
		values.New(12000.0, "year", int64(2018)),
	)
	require.NoError(t, err)

	fill(t, e, s, sd)
	assert.Equal(t, []any{6350.0, 12000.0, 12000.0, 12000.0}, along(s, years()))

	apply(t, e, s, sd, true, values.New(15000.0, "year", int64(2019)))
	assert.Equal(t, []any{6350.0, 12000.0, 15000.0, 15000.0}, along(s, years()))

	vo, ok := s.Lookup(map[string]any{"year": int64(2019)})
	require.True(t, ok)
	assert.False(t, vo.Auto)
	vo, ok = s.Lookup(map[string]any{"year": int64(2020)})
	require.True(t, ok)
	assert.True(t, vo.Auto)
}

func TestClobberSemantics(t *testing.T) {
	g := points(7)
	e := extend.New(g)
	p := extend.Param{Name: "p"}
	seed := func(t *testing.T) *values.Store {
		s, err := values.NewStore(values.New(10, "g", int64(1)), values.New(20, "g", int64(5)))
		require.NoError(t, err)
		fill(t, e, s, p)
		require.Equal(t, []any{10, 10, 10, 10, 20, 20, 20}, along(s, g))

		return s
	}

	t.Run("clobber", func(t *testing.T) {
		s := seed(t)
		stale := e.Stale(s.All(), []values.ValueObject{values.New(15, "g", int64(3))}, true)
		assert.Len(t, stale, 3) // g4, g6, g7
		apply(t, e, s, p, true, values.New(15, "g", int64(3)))
		assert.Equal(t, []any{10, 10, 15, 15, 20, 20, 20}, along(s, g))
	})

	t.Run("no clobber", func(t *testing.T) {
		s := seed(t)
		stale := e.Stale(s.All(), []values.ValueObject{values.New(15, "g", int64(3))}, false)
		assert.Len(t, stale, 1) // g4 only, the run stops at g5
		apply(t, e, s, p, false, values.New(15, "g", int64(3)))
		assert.Equal(t, []any{10, 10, 15, 15, 20, 20, 20}, along(s, g))
	})

	t.Run("no clobber keeps caller entries", func(t *testing.T) {
		s := seed(t)
		s.Merge(values.New(12, "g", int64(4)), values.MergeOptions{Clobber: true})
		require.Equal(t, 12, along(s, g)[3])

		apply(t, e, s, p, false, values.New(15, "g", int64(3)))
		assert.Equal(t, []any{10, 10, 15, 12, 20, 20, 20}, along(s, g))

		// an explicit entry at the adjusted point is left alone too
		apply(t, e, s, p, false, values.New(99, "g", int64(4)))
		assert.Equal(t, 12, along(s, g)[3])
	})
}

func TestPlanDensityAndNoBackwardFill(t *testing.T) {
	e := extend.New(years())
	s, err := values.NewStore(
		values.New(6350.0, "year", int64(2017), "mars", "single"),
		values.New(12700.0, "year", int64(2017), "mars", "joint"),
		values.New(24000.0, "year", int64(2018), "mars", "joint"),
		values.New(1.0, "year", int64(2019), "mars", "widow"),
		values.New(7.0, "mars", "single"),
	)
	require.NoError(t, err)

	fill(t, e, s, extend.Param{Name: "sd"})

	assert.Equal(t, []any{6350.0, 6350.0, 6350.0, 6350.0}, along(s, years(), "mars", "single"))
	assert.Equal(t, []any{12700.0, 24000.0, 24000.0, 24000.0}, along(s, years(), "mars", "joint"))
	assert.Equal(t, []any{nil, nil, 1.0, 1.0}, along(s, years(), "mars", "widow"))

	lines, dense := e.Density(s.All())
	assert.Equal(t, 3, lines)
	assert.True(t, dense)
	// 4 + 4 + 2 entries along year, plus the entry without the label
	assert.Equal(t, 11, s.Len())

	// a second pass adds nothing
	plan, err := e.Plan(extend.Param{Name: "sd"}, s.All())
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestPlanDensityNxK(t *testing.T) {
	e := extend.New(years())
	var vos []values.ValueObject
	for _, m := range []string{"single", "joint", "separate"} {
		vos = append(vos, values.New(1.0, "year", int64(2017), "mars", m))
	}
	s, err := values.NewStore(vos...)
	require.NoError(t, err)

	fill(t, e, s, extend.Param{Name: "p"})
	assert.Equal(t, 4*3, s.Len())
	_, dense := e.Density(s.All())
	assert.True(t, dense)
}

func TestIndexing(t *testing.T) {
	rates := extend.NewRateTable().
		Set(int64(2017), 0.02).
		Set(int64(2018), 0.03).
		Set(int64(2019), 0.01)
	e := extend.New(years(), extend.WithExtrapolator(rates))

	plan, err := e.Plan(extend.Param{Name: "sd", Indexed: true}, []values.ValueObject{
		values.New(100.0, "year", int64(2017)),
		values.New(int64(100), "year", int64(2017), "mars", "single"),
		values.New([]any{100.0, 200.0}, "year", int64(2017), "mars", "joint"),
	})
	require.NoError(t, err)
	require.Len(t, plan, 9)
	assert.InDelta(t, 102.0, plan[0].Value, 1e-9)
	assert.InDelta(t, 105.06, plan[1].Value, 1e-9)
	assert.InDelta(t, 106.11, plan[2].Value, 1e-9)
	assert.Equal(t, int64(102), plan[3].Value)
	assert.Equal(t, []any{102.0, 204.0}, plan[6].Value)

	// not indexed: plain carry forward
	plan, err = e.Plan(extend.Param{Name: "flat"}, []values.ValueObject{values.New(100.0, "year", int64(2017))})
	require.NoError(t, err)
	assert.Equal(t, 100.0, plan[2].Value)

	// restricted target still compounds over skipped points
	plan, err = e.Restrict([]any{int64(2020)}).Plan(extend.Param{Name: "sd", Indexed: true},
		[]values.ValueObject{values.New(100.0, "year", int64(2017))})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, int64(2020), plan[0].Labels["year"])
	assert.InDelta(t, 106.11, plan[0].Value, 1e-9)
}

func TestIndexingErrors(t *testing.T) {
	e := extend.New(years(), extend.WithExtrapolator(extend.NewRateTable().Set(int64(2017), 0.1)))
	_, err := e.Plan(extend.Param{Name: "sd", Indexed: true}, []values.ValueObject{values.New(100.0, "year", int64(2017))})
	require.ErrorIs(t, err, extend.ErrMissingRate)

	_, err = e.Plan(extend.Param{Name: "s", Indexed: true}, []values.ValueObject{values.New("x", "year", int64(2017))})
	require.ErrorIs(t, err, extend.ErrNotNumeric)

	capped, err := extend.NewRateTable().Set(int64(2017), 0.5).Next("p", 8e99, int64(2017))
	require.NoError(t, err)
	assert.Equal(t, extend.MaxIndexedValue, capped)

	require.Panics(t, func() { extend.WithExtrapolator(nil) })
	require.Panics(t, func() { extend.NewRateTable().Set(int64(2017), math.Inf(1)) })
}

func TestIndexingRoundsIntegersToUnits(t *testing.T) {
	rates := extend.NewRateTable().Set(int64(2017), 0.0123)

	v, err := rates.Next("p", int64(1000), int64(2017))
	require.NoError(t, err)
	assert.Equal(t, int64(1012), v)

	v, err = rates.Next("p", 1000.0, int64(2017))
	require.NoError(t, err)
	assert.Equal(t, 1012.3, v)
}

func TestCustomExtrapolator(t *testing.T) {
	double := extend.ExtrapolatorFunc(func(_ string, prior any, _ any) (any, error) {
		return prior.(float64) * 2, nil
	})
	e := extend.New(years(), extend.WithExtrapolator(double))
	plan, err := e.Plan(extend.Param{Name: "p", Indexed: true}, []values.ValueObject{values.New(1.0, "year", int64(2018))})
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, 2.0, plan[0].Value)
	assert.Equal(t, 4.0, plan[1].Value)
}
