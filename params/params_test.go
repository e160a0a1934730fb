package params_test

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/katalvlaran/paramspace/extend"
	"github.com/katalvlaran/paramspace/ndarray"
	"github.com/katalvlaran/paramspace/params"
	"github.com/katalvlaran/paramspace/registry"
	"github.com/katalvlaran/paramspace/schema"
	"github.com/katalvlaran/paramspace/validate"
	"github.com/katalvlaran/paramspace/values"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSchema(t *testing.T) *schema.Schema {
	t.Helper()
	f, err := os.Open("testdata/tax.json")
	require.NoError(t, err)
	defer f.Close()
	sch, err := schema.LoadJSON(f)
	require.NoError(t, err)

	return sch
}

func load(t *testing.T, opts ...params.Option) *params.Parameters {
	t.Helper()
	p, err := params.New(loadSchema(t), opts...)
	require.NoError(t, err)

	return p
}

func adj(name string, vos ...values.ValueObject) map[string][]values.ValueObject {
	return map[string][]values.ValueObject{name: vos}
}

// byYear returns the values of a year-only parameter for 2017..2020; nil
// marks a missing point.
func byYear(t *testing.T, p *params.Parameters, name string) []any {
	t.Helper()
	out := make([]any, 4)
	for i := range out {
		vos, err := p.Select(name, values.Where("year", values.OpEq, int64(2017+i)))
		require.NoError(t, err)
		if len(vos) == 1 {
			out[i] = vos[0].Value
		}
	}

	return out
}

func autoAt(t *testing.T, p *params.Parameters, name string, year int64) bool {
	t.Helper()
	vos, err := p.Select(name, values.Where("year", values.OpEq, year))
	require.NoError(t, err)
	require.Len(t, vos, 1)

	return vos[0].Auto
}

func TestNewExtendsDefaults(t *testing.T) {
	p := load(t)

	assert.Equal(t, []any{6350.0, 12000.0, 12000.0, 12000.0}, byYear(t, p, "sd"))
	assert.False(t, autoAt(t, p, "sd", 2018))
	assert.True(t, autoAt(t, p, "sd", 2019))
	assert.Equal(t, []any{1000.0, 1000.0, 1000.0, 1000.0}, byYear(t, p, "credit"))

	spec, err := p.Specification(nil)
	require.NoError(t, err)
	assert.Len(t, spec["exemption"], 8)
	assert.Len(t, spec["filing_status"], 1)
	assert.Equal(t, []string{"sd", "exemption", "credit", "phaseout", "filing_status", "brackets"}, p.Keys())

	g, err := p.LabelGrid("year")
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())
	_, err = p.LabelGrid("region")
	require.ErrorIs(t, err, validate.ErrUnknownLabel)
}

func TestConcreteScenario(t *testing.T) {
	p := load(t)

	got, err := p.Adjust(adj("sd", values.New(15000, "year", 2019)))
	require.NoError(t, err)
	assert.Equal(t, 15000.0, got["sd"][0].Value)
	assert.Equal(t, []any{6350.0, 12000.0, 15000.0, 15000.0}, byYear(t, p, "sd"))
	assert.False(t, autoAt(t, p, "sd", 2019))
	assert.True(t, autoAt(t, p, "sd", 2020))
}

func TestAdjustRollsBackOnError(t *testing.T) {
	p := load(t)

	_, err := p.Adjust(map[string][]values.ValueObject{
		"sd":     {values.New(15000, "year", 2019)},
		"credit": {values.New(20000, "year", 2018)},
	})
	require.ErrorIs(t, err, params.ErrValidation)
	require.ErrorIs(t, err, validate.ErrRangeViolation)

	var ve *params.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, map[string][]string{
		"credit": {"credit[year=2018] 20000 > max 12000 sd[year=2018]"},
	}, ve.Errors())

	// nothing applied
	assert.Equal(t, []any{6350.0, 12000.0, 12000.0, 12000.0}, byYear(t, p, "sd"))
	assert.Equal(t, []any{1000.0, 1000.0, 1000.0, 1000.0}, byYear(t, p, "credit"))
}

func TestAdjustSeesBatchValues(t *testing.T) {
	p := load(t)

	// credit is checked against the sd of the same batch
	_, err := p.Adjust(map[string][]values.ValueObject{
		"sd":     {values.New(25000, "year", 2018)},
		"credit": {values.New(20000, "year", 2018)},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{1000.0, 20000.0, 20000.0, 20000.0}, byYear(t, p, "credit"))
}

func TestUnknownParameter(t *testing.T) {
	p := load(t)

	_, err := p.Adjust(adj("nope", values.New(1)))
	require.ErrorIs(t, err, validate.ErrUnknownParameter)
	var unknown *params.UnknownParameterError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, []string{"nope"}, unknown.Names)

	_, err = p.Validate(adj("nope", values.New(1)))
	require.ErrorIs(t, err, validate.ErrUnknownParameter)

	_, err = p.ToArray("nope", nil)
	require.ErrorIs(t, err, validate.ErrUnknownParameter)
}

func TestWarnings(t *testing.T) {
	t.Run("kept by default", func(t *testing.T) {
		p := load(t)
		_, err := p.Adjust(adj("phaseout", values.New(7000, "year", 2017)))
		require.NoError(t, err)
		assert.Equal(t, map[string][]string{
			"phaseout": {"phaseout[year=2017] 7000 > max 6350 sd[year=2017]"},
		}, p.Warnings())
		assert.Empty(t, p.Errors())
		assert.Equal(t, []any{7000.0, 7000.0, 7000.0, 7000.0}, byYear(t, p, "phaseout"))
	})

	t.Run("as errors", func(t *testing.T) {
		p := load(t)
		_, err := p.Adjust(adj("phaseout", values.New(7000, "year", 2017)), params.WarningsAsErrors())
		require.ErrorIs(t, err, validate.ErrRangeViolation)
		assert.Equal(t, 500.0, byYear(t, p, "phaseout")[0])
	})

	t.Run("ignored", func(t *testing.T) {
		p := load(t)
		_, err := p.Adjust(adj("phaseout", values.New(7000, "year", 2017)), params.IgnoreWarnings())
		require.NoError(t, err)
		assert.Empty(t, p.Warnings())
		assert.Equal(t, 7000.0, byYear(t, p, "phaseout")[0])
	})
}

func TestRaiseErrorsFalse(t *testing.T) {
	p := load(t)

	_, err := p.Adjust(adj("credit", values.New(20000, "year", 2018)), params.RaiseErrors(false))
	require.NoError(t, err)
	require.Len(t, p.Errors()["credit"], 1)
	assert.True(t, p.Report().HasErrors())
	assert.Equal(t, 1000.0, byYear(t, p, "credit")[1])

	// the next call starts from a clean report
	_, err = p.Adjust(adj("credit", values.New(10, "year", 2018)))
	require.NoError(t, err)
	assert.Empty(t, p.Errors())
}

func TestClobber(t *testing.T) {
	t.Run("explicit entries survive", func(t *testing.T) {
		p := load(t)
		_, err := p.Adjust(adj("sd", values.New(20000, "year", 2020)))
		require.NoError(t, err)
		_, err = p.Adjust(adj("sd", values.New(13000, "year", 2018)))
		require.NoError(t, err)
		assert.Equal(t, []any{6350.0, 13000.0, 13000.0, 20000.0}, byYear(t, p, "sd"))
	})

	t.Run("no clobber", func(t *testing.T) {
		p := load(t)
		_, err := p.Adjust(adj("sd", values.New(20000, "year", 2020)))
		require.NoError(t, err)

		// an auto point is taken over
		_, err = p.Adjust(adj("sd", values.New(15000, "year", 2019)), params.Clobber(false))
		require.NoError(t, err)
		assert.Equal(t, []any{6350.0, 12000.0, 15000.0, 20000.0}, byYear(t, p, "sd"))
		assert.Empty(t, p.Warnings())

		// a caller-supplied point is left alone and the miss is reported
		_, err = p.Adjust(adj("sd", values.New(1, "year", 2018)), params.Clobber(false))
		require.NoError(t, err)
		assert.Equal(t, []any{6350.0, 12000.0, 15000.0, 20000.0}, byYear(t, p, "sd"))
		assert.Equal(t, map[string][]string{
			"sd": {"sd[year=2018] value 1 not applied: 1 caller-supplied entry kept (clobber off)"},
		}, p.Warnings())
		require.Len(t, p.Report().Warnings["sd"], 1)
		assert.ErrorIs(t, p.Report().Warnings["sd"][0], params.ErrExplicitKept)

		// strict callers see it as a rejection
		_, err = p.Adjust(adj("sd", values.New(1, "year", 2018)), params.Clobber(false), params.WarningsAsErrors())
		require.ErrorIs(t, err, params.ErrExplicitKept)
		assert.Equal(t, []any{6350.0, 12000.0, 15000.0, 20000.0}, byYear(t, p, "sd"))

		// deletes are spared the same way
		require.NoError(t, p.Delete(adj("sd", values.New(nil, "year", 2020)), params.Clobber(false)))
		assert.Equal(t, []any{6350.0, 12000.0, 15000.0, 20000.0}, byYear(t, p, "sd"))
		assert.Equal(t, []string{"sd[year=2020] delete not applied: 1 caller-supplied entry kept (clobber off)"},
			p.Warnings()["sd"])
	})

	t.Run("without extension", func(t *testing.T) {
		p := load(t)
		_, err := p.Adjust(adj("sd", values.New(15000, "year", 2019)), params.ExtendAdjustment(false))
		require.NoError(t, err)
		assert.Equal(t, []any{6350.0, 12000.0, 15000.0, 12000.0}, byYear(t, p, "sd"))
	})
}

func TestDeleteRoundTrip(t *testing.T) {
	p := load(t)
	before := byYear(t, p, "sd")

	_, err := p.Adjust(adj("sd", values.New(15000, "year", 2019)))
	require.NoError(t, err)
	adjusted := byYear(t, p, "sd")

	require.NoError(t, p.Delete(adj("sd", values.New(nil, "year", 2019))))
	assert.Equal(t, before, byYear(t, p, "sd"))
	assert.True(t, autoAt(t, p, "sd", 2019))

	_, err = p.Adjust(adj("sd", values.New(15000, "year", 2019)))
	require.NoError(t, err)
	assert.Equal(t, adjusted, byYear(t, p, "sd"))

	// without extension the gap stays
	require.NoError(t, p.Delete(adj("sd", values.New(nil, "year", 2019)), params.ExtendAdjustment(false)))
	assert.Nil(t, byYear(t, p, "sd")[2])

	_, err = p.Validate(adj("sd", values.New(nil, "year", 2030)))
	require.NoError(t, err)
	require.Error(t, p.Delete(adj("sd", values.New(nil, "year", 2030))))
}

func TestTransaction(t *testing.T) {
	t.Run("defers cross-parameter checks", func(t *testing.T) {
		var buf bytes.Buffer
		p := load(t, params.WithLogger(zerolog.New(&buf)))

		_, err := p.Adjust(adj("credit", values.New(14000, "year", 2019)))
		require.ErrorIs(t, err, validate.ErrRangeViolation)

		err = p.Transaction(func(p *params.Parameters) error {
			if _, err := p.Adjust(adj("credit", values.New(14000, "year", 2019))); err != nil {
				return err
			}
			_, err := p.Adjust(adj("sd", values.New(15000, "year", 2019)))

			return err
		})
		require.NoError(t, err)
		assert.Equal(t, []any{1000.0, 1000.0, 14000.0, 14000.0}, byYear(t, p, "credit"))
		assert.Contains(t, buf.String(), `"message":"transaction begin"`)
		assert.Contains(t, buf.String(), `"message":"transaction commit"`)
		assert.Contains(t, buf.String(), `"tx":"`)
	})

	t.Run("rolls back at commit", func(t *testing.T) {
		p := load(t)
		err := p.Transaction(func(p *params.Parameters) error {
			_, err := p.Adjust(adj("credit", values.New(14000, "year", 2019)))

			return err
		})
		require.ErrorIs(t, err, validate.ErrRangeViolation)
		assert.Equal(t, []any{1000.0, 1000.0, 1000.0, 1000.0}, byYear(t, p, "credit"))
		assert.True(t, autoAt(t, p, "credit", 2019))
	})

	t.Run("rolls back on callback error", func(t *testing.T) {
		p := load(t)
		boom := errors.New("boom")
		err := p.Transaction(func(p *params.Parameters) error {
			if _, err := p.Adjust(adj("sd", values.New(15000, "year", 2019))); err != nil {
				return err
			}

			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, []any{6350.0, 12000.0, 12000.0, 12000.0}, byYear(t, p, "sd"))
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		p := load(t)
		require.Panics(t, func() {
			_ = p.Transaction(func(p *params.Parameters) error {
				_, _ = p.Adjust(adj("sd", values.New(15000, "year", 2019)))
				panic("boom")
			})
		})
		assert.Equal(t, 12000.0, byYear(t, p, "sd")[2])

		// the instance is usable again
		_, err := p.Adjust(adj("sd", values.New(15000, "year", 2019)))
		require.NoError(t, err)
	})

	t.Run("nested joins", func(t *testing.T) {
		p := load(t)
		err := p.Transaction(func(p *params.Parameters) error {
			return p.Transaction(func(p *params.Parameters) error {
				_, err := p.Adjust(adj("credit", values.New(14000, "year", 2019)))

				return err
			})
		})
		require.ErrorIs(t, err, params.ErrValidation)
		assert.Equal(t, 1000.0, byYear(t, p, "credit")[2])
	})
}

func TestIndexing(t *testing.T) {
	p := load(t,
		params.WithUsesExtendFunc(true),
		params.WithIndexRates(map[any]float64{2017: 0.02, 2018: 0.03, 2019: 0.01}),
	)
	sd := byYear(t, p, "sd")
	assert.Equal(t, 12000.0, sd[1])
	assert.InDelta(t, 12360.0, sd[2], 1e-9)
	assert.InDelta(t, 12483.6, sd[3], 1e-9)
	// not indexed
	assert.Equal(t, []any{1000.0, 1000.0, 1000.0, 1000.0}, byYear(t, p, "credit"))

	_, err := p.Adjust(adj("sd", values.New(10000, "year", 2019)))
	require.NoError(t, err)
	assert.InDelta(t, 10100.0, byYear(t, p, "sd")[3], 1e-9)

	_, err = params.New(loadSchema(t), params.WithUsesExtendFunc(true))
	require.ErrorIs(t, err, params.ErrMissingIndexRates)

	half := extend.ExtrapolatorFunc(func(_ string, prior any, _ any) (any, error) {
		return prior.(float64) / 2, nil
	})
	p = load(t, params.WithUsesExtendFunc(true), params.WithExtrapolator(half))
	assert.Equal(t, []any{6350.0, 12000.0, 6000.0, 3000.0}, byYear(t, p, "sd"))
}

func TestExtend(t *testing.T) {
	t.Run("restricted points", func(t *testing.T) {
		p := load(t)
		require.NoError(t, p.Delete(adj("sd",
			values.New(nil, "year", 2019),
			values.New(nil, "year", 2020),
		), params.ExtendAdjustment(false)))
		require.NoError(t, p.Extend(params.ExtendOptions{Values: []any{2020}, Params: []string{"sd"}}))
		assert.Equal(t, []any{6350.0, 12000.0, nil, 12000.0}, byYear(t, p, "sd"))
	})

	t.Run("other label", func(t *testing.T) {
		p := load(t)
		require.NoError(t, p.Delete(adj("exemption", values.New(nil, "year", 2017, "mars", "joint")),
			params.ExtendAdjustment(false)))
		require.NoError(t, p.Extend(params.ExtendOptions{Label: "mars", Params: []string{"exemption"}}))

		vos, err := p.Select("exemption", values.Where("year", values.OpEq, int64(2017)).And("mars", values.OpEq, "joint"))
		require.NoError(t, err)
		require.Len(t, vos, 1)
		assert.Equal(t, 4050.0, vos[0].Value)
		assert.True(t, vos[0].Auto)
	})

	t.Run("errors", func(t *testing.T) {
		p := load(t, params.WithLabelToExtend(""))
		assert.Equal(t, []any{6350.0, 12000.0, nil, nil}, byYear(t, p, "sd"))
		require.ErrorIs(t, p.Extend(params.ExtendOptions{}), params.ErrNoLabelToExtend)
		require.ErrorIs(t, p.Extend(params.ExtendOptions{Label: "region"}), extend.ErrUnknownExtendLabel)
		require.ErrorIs(t, p.Extend(params.ExtendOptions{Label: "year", Params: []string{"nope"}}), validate.ErrUnknownParameter)

		require.NoError(t, p.Extend(params.ExtendOptions{Label: "year"}))
		assert.Equal(t, []any{6350.0, 12000.0, 12000.0, 12000.0}, byYear(t, p, "sd"))
	})
}

func TestArrays(t *testing.T) {
	p := load(t)

	arr, err := p.ToArray("exemption", nil)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2}, arr.Shape())
	assert.Equal(t, []any{
		[]any{4050.0, 8100.0},
		[]any{0.0, 0.0},
		[]any{0.0, 0.0},
		[]any{0.0, 0.0},
	}, arr.Nested())

	back, err := p.FromArray("exemption", arr, nil)
	require.NoError(t, err)
	spec, err := p.Specification(nil)
	require.NoError(t, err)
	want := make(map[string]any)
	for _, vo := range spec["exemption"] {
		want[vo.LabelKey()] = vo.Value
	}
	got := make(map[string]any)
	for _, vo := range back {
		got[vo.LabelKey()] = vo.Value
	}
	assert.Equal(t, want, got)

	arr, err = p.ToArray("sd", params.State{"year": {2019, 2020}})
	require.NoError(t, err)
	assert.Equal(t, []any{12000.0, 12000.0}, arr.Nested())

	arr, err = p.ToArray("brackets", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{0.1, 0.2, 0.3}, arr.Nested())

	arr, err = p.ToArray("filing_status", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, arr.NDim())
	assert.Equal(t, "single", arr.Nested())

	arr, err = p.ToArray("credit", params.State{"year": {2030}})
	require.NoError(t, err)
	assert.Equal(t, 0, arr.Size())

	_, err = p.ToArray("credit", params.State{"year": {"soon"}})
	require.ErrorIs(t, err, registry.ErrTypeCoercion)
}

func TestArrayErrors(t *testing.T) {
	p := load(t)

	require.NoError(t, p.Delete(adj("exemption", values.New(nil, "year", 2019, "mars", "joint")),
		params.ExtendAdjustment(false)))
	_, err := p.ToArray("exemption", nil)
	require.ErrorIs(t, err, ndarray.ErrSparseValues)

	// dropping the unlabeled value and adding a labelled one
	require.NoError(t, p.Delete(adj("brackets", values.New(nil))))
	_, err = p.Adjust(adj("brackets", values.New([]any{0.1, 0.2}, "year", 2017)))
	require.NoError(t, err)
	_, err = p.ToArray("brackets", nil)
	require.ErrorIs(t, err, ndarray.ErrArrayWithLabels)

	_, err = p.Adjust(adj("credit", values.New(5, "year", 2018, "mars", "joint")), params.ExtendAdjustment(false))
	require.NoError(t, err)
	_, err = p.ToArray("credit", nil)
	require.ErrorIs(t, err, ndarray.ErrInconsistentLabels)
}

func TestValueArrayFirst(t *testing.T) {
	p := load(t)
	v, err := p.Value("sd", params.State{"year": {2017}})
	require.NoError(t, err)
	require.IsType(t, []values.ValueObject{}, v)
	assert.Len(t, v, 1)

	p = load(t, params.WithArrayFirst(true))
	assert.True(t, p.Operators().ArrayFirst)
	v, err = p.Value("sd", nil)
	require.NoError(t, err)
	arr, ok := v.(*ndarray.Array)
	require.True(t, ok)
	assert.Equal(t, []int{4}, arr.Shape())
}

func TestSpecificationAndSort(t *testing.T) {
	p := load(t, params.WithSortValues(true))

	_, err := p.Adjust(adj("exemption",
		values.New(100, "year", 2020, "mars", "joint"),
		values.New(50, "year", 2019, "mars", "single"),
	), params.ExtendAdjustment(false))
	require.NoError(t, err)

	spec, err := p.Specification(params.State{"year": {2019}})
	require.NoError(t, err)
	// parameters without year entries still match; those lacking the label pass
	assert.Len(t, spec["sd"], 1)
	assert.Len(t, spec["filing_status"], 1)
	require.Len(t, spec["exemption"], 2)
	assert.Equal(t, "single", spec["exemption"][0].Labels["mars"])
	assert.Equal(t, 50.0, spec["exemption"][0].Value)

	spec, err = p.Specification(params.State{"mars": {"joint"}, "year": {2020}}, params.Sorted())
	require.NoError(t, err)
	require.Len(t, spec["exemption"], 1)
	assert.Equal(t, 100.0, spec["exemption"][0].Value)

	// sorted stores: year first, then mars in choice order
	vos, err := p.Select("exemption", values.Query{})
	require.NoError(t, err)
	require.Len(t, vos, 8)
	assert.Equal(t, int64(2017), vos[0].Labels["year"])
	assert.Equal(t, "single", vos[0].Labels["mars"])
	assert.Equal(t, int64(2020), vos[7].Labels["year"])
	assert.Equal(t, "joint", vos[7].Labels["mars"])

	_, err = p.Specification(params.State{"region": {"north"}})
	require.ErrorIs(t, err, validate.ErrUnknownLabel)

	vos, err = p.Select("sd", values.Where("year", values.OpGte, int64(2019)))
	require.NoError(t, err)
	assert.Len(t, vos, 2)
}

func TestDumpReload(t *testing.T) {
	p := load(t)
	_, err := p.Adjust(adj("sd", values.New(15000, "year", 2019)))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.Dump(&buf))

	sch, err := schema.LoadJSON(&buf)
	require.NoError(t, err)
	back, err := params.New(sch)
	require.NoError(t, err)

	want, err := p.Specification(nil, params.Sorted())
	require.NoError(t, err)
	got, err := back.Specification(nil, params.Sorted())
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reloaded specification mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, autoAt(t, back, "sd", 2020))
}

func TestNewErrors(t *testing.T) {
	sch := loadSchema(t)
	sch.Params[2].Value = []values.ValueObject{values.New(99999, "year", 2017)}
	_, err := params.New(sch)
	require.ErrorIs(t, err, validate.ErrRangeViolation)

	_, err = params.New(loadSchema(t), params.WithLabelToExtend("region"))
	require.ErrorIs(t, err, extend.ErrUnknownExtendLabel)

	_, err = params.New(nil)
	require.ErrorIs(t, err, validate.ErrUnresolvedSchema)

	require.Panics(t, func() { params.WithIndexRates(nil) })
	require.Panics(t, func() { params.WithExtrapolator(nil) })
	require.Panics(t, func() { params.WithRegistry(nil) })
}
