package grid_test

import (
	"strings"
	"testing"
	"time"

	"github.com/katalvlaran/paramspace/grid"
	"github.com/katalvlaran/paramspace/registry"
	"github.com/katalvlaran/paramspace/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// label resolves a one-label schema and returns that label.
func label(t *testing.T, def string) *schema.Label {
	t.Helper()
	doc := `{"schema": {"labels": {"l": ` + def + `}}}`
	sch, err := schema.LoadJSON(strings.NewReader(doc))
	require.NoError(t, err)
	require.NoError(t, sch.Resolve(registry.Default()))
	l, ok := sch.Label("l")
	require.True(t, ok)

	return l
}

func TestBuildRange(t *testing.T) {
	d := func(s string) any {
		v, err := time.Parse(registry.DateLayout, s)
		require.NoError(t, err)
		return v
	}
	cases := []struct {
		name string
		def  string
		want []any
	}{
		{
			"int default step",
			`{"type": "int", "validators": {"range": {"min": 2017, "max": 2020}}}`,
			[]any{int64(2017), int64(2018), int64(2019), int64(2020)},
		},
		{
			"int max off step boundary",
			`{"type": "int", "validators": {"range": {"min": 0, "max": 7, "step": 3}}}`,
			[]any{int64(0), int64(3), int64(6)},
		},
		{
			"float step snaps to max",
			`{"type": "float", "validators": {"range": {"min": 0, "max": 0.3, "step": 0.1}}}`,
			[]any{0.0, 0.1, 0.2, 0.3},
		},
		{
			"float default step",
			`{"type": "float", "validators": {"range": {"min": 1, "max": 3}}}`,
			[]any{1.0, 2.0, 3.0},
		},
		{
			"date default step",
			`{"type": "date", "validators": {"range": {"min": "2020-02-27", "max": "2020-03-01"}}}`,
			[]any{d("2020-02-27"), d("2020-02-28"), d("2020-02-29"), d("2020-03-01")},
		},
		{
			"date weekly step",
			`{"type": "date", "validators": {"date_range": {"min": "2020-01-01", "max": "2020-01-20", "step": {"weeks": 1}}}}`,
			[]any{d("2020-01-01"), d("2020-01-08"), d("2020-01-15")},
		},
		{
			"single point",
			`{"type": "int", "validators": {"range": {"min": 5, "max": 5}}}`,
			[]any{int64(5)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := grid.Build(label(t, tc.def))
			require.NoError(t, err)
			got := g.Values()
			require.Len(t, got, len(tc.want))
			for i := range tc.want {
				if f, ok := tc.want[i].(float64); ok {
					assert.InDelta(t, f, got[i], 1e-12)

					continue
				}
				assert.Equal(t, tc.want[i], got[i])
			}
		})
	}
}

func TestBuildChoiceKeepsDeclaredOrder(t *testing.T) {
	g, err := grid.Build(label(t, `{"type": "str", "validators": {"choice": {"choices": ["single", "joint", "separate", "headhh"]}}}`))
	require.NoError(t, err)

	assert.Equal(t, []any{"single", "joint", "separate", "headhh"}, g.Values())
	i, ok := g.IndexOf("separate")
	require.True(t, ok)
	assert.Equal(t, 2, i)
	assert.Negative(t, g.Compare("joint", "headhh"))
	assert.Positive(t, g.Compare("widow", "single"))
	assert.False(t, g.Contains("widow"))

	sub := g.Restrict([]any{"headhh", "single", "widow"})
	assert.Equal(t, []any{"single", "headhh"}, sub.Values())
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		name string
		def  string
	}{
		{"no validator", `{"type": "int"}`},
		{"min above max", `{"type": "int", "validators": {"range": {"min": 5, "max": 1}}}`},
		{"missing max", `{"type": "int", "validators": {"range": {"min": 5}}}`},
		{"zero step", `{"type": "int", "validators": {"range": {"min": 0, "max": 5, "step": 0}}}`},
		{"negative step", `{"type": "float", "validators": {"range": {"min": 0, "max": 5, "step": -1}}}`},
		{"bool range", `{"type": "bool", "validators": {"range": {"min": false, "max": true}}}`},
		{"empty choice", `{"type": "str", "validators": {"choice": {"choices": []}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := grid.Build(label(t, tc.def))
			require.ErrorIs(t, err, grid.ErrInvalidGrid)
		})
	}
}

func TestBuilderLimitsAndCache(t *testing.T) {
	l := label(t, `{"type": "int", "validators": {"range": {"min": 0, "max": 100}}}`)

	_, err := grid.NewBuilder(grid.WithMaxPoints(10)).Grid(l)
	require.ErrorIs(t, err, grid.ErrInvalidGrid)

	b := grid.NewBuilder()
	g1, err := b.Grid(l)
	require.NoError(t, err)
	assert.Equal(t, 101, g1.Len())

	// a changed definition is picked up without explicit invalidation
	l.Validators.Range.Max.Value = int64(10)
	g2, err := b.Grid(l)
	require.NoError(t, err)
	assert.Equal(t, 11, g2.Len())

	b.Invalidate("l")
	g3, err := b.Grid(l)
	require.NoError(t, err)
	assert.Equal(t, g2.Values(), g3.Values())

	require.Panics(t, func() { grid.WithMaxPoints(0) })
	require.Panics(t, func() { grid.WithEpsilon(-1) })
}
