package values_test

import (
	"testing"

	"github.com/katalvlaran/paramspace/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	s := sdStore(t)
	s.Merge(values.New(int64(5), "year", int64(2019)), values.MergeOptions{Clobber: true})

	cases := []struct {
		name string
		q    values.Query
		want []int64
	}{
		{"eq", values.Where("mars", values.OpEq, "single"), []int64{6350, 12000}},
		{"isin", values.Where("year", values.OpEq, int64(2017), int64(2019)), []int64{6350, 12700, 5}},
		{"ne", values.Where("year", values.OpNe, int64(2017)), []int64{12000, 24000, 5}},
		{"gt", values.Where("year", values.OpGt, int64(2017)), []int64{12000, 24000, 5}},
		{"lte", values.Where("year", values.OpLte, int64(2018)), []int64{6350, 12700, 12000, 24000}},
		{"and", values.Where("year", values.OpGte, int64(2018)).And("mars", values.OpEq, "joint"), []int64{24000}},
		{
			"non-strict keeps entries lacking the label",
			values.Query{Conds: []values.Cond{{Label: "mars", Op: values.OpEq, Values: []any{"joint"}}}},
			[]int64{12700, 24000, 5},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Select(tc.q)
			require.NoError(t, err)
			vals := make([]int64, 0, len(got))
			for _, vo := range got {
				vals = append(vals, vo.Value.(int64))
			}
			assert.Equal(t, tc.want, vals)
		})
	}
}

func TestSelectCustomCompareAndErrors(t *testing.T) {
	s, err := values.NewStore(
		values.New(int64(1), "size", "small"),
		values.New(int64(2), "size", "medium"),
		values.New(int64(3), "size", "large"),
	)
	require.NoError(t, err)
	order := map[any]int{"small": 0, "medium": 1, "large": 2}
	q := values.Where("size", values.OpGt, "small")
	q.Compare = func(_ string, a, b any) (int, error) { return order[a] - order[b], nil }

	got, err := s.Select(q)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = s.Select(values.Where("size", values.Op("like"), "s"))
	require.ErrorIs(t, err, values.ErrUnknownOp)
}
