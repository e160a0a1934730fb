package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// toCty lifts a raw Go value into a cty.Value.
// Known scalar shapes are mapped directly; anything else goes through
// gocty.ImpliedType so structs and slices still get a best-effort type.
func toCty(raw any) (cty.Value, error) {
	switch v := raw.(type) {
	case nil:
		return cty.NilVal, fmt.Errorf("registry: null value: %w", ErrTypeCoercion)
	case cty.Value:
		return v, nil
	case json.Number:
		return cty.ParseNumberVal(v.String())
	case string:
		return cty.StringVal(v), nil
	case bool:
		return cty.BoolVal(v), nil
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case int8:
		return cty.NumberIntVal(int64(v)), nil
	case int16:
		return cty.NumberIntVal(int64(v)), nil
	case int32:
		return cty.NumberIntVal(int64(v)), nil
	case int64:
		return cty.NumberIntVal(v), nil
	case uint:
		return cty.NumberUIntVal(uint64(v)), nil
	case uint8:
		return cty.NumberUIntVal(uint64(v)), nil
	case uint16:
		return cty.NumberUIntVal(uint64(v)), nil
	case uint32:
		return cty.NumberUIntVal(uint64(v)), nil
	case uint64:
		return cty.NumberUIntVal(v), nil
	case float32:
		return floatToCty(float64(v))
	case float64:
		return floatToCty(v)
	case time.Time:
		return cty.StringVal(v.Format(DateLayout)), nil
	}

	ty, err := gocty.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, fmt.Errorf("registry: unable to infer cty.Type: %w", err)
	}

	return gocty.ToCtyValue(raw, ty)
}

// floatToCty rejects NaN and ±Inf: parameter values must be finite.
func floatToCty(f float64) (cty.Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return cty.NilVal, fmt.Errorf("registry: non-finite number: %w", ErrTypeCoercion)
	}

	return cty.NumberFloatVal(f), nil
}

// convertTo lifts raw and converts it to the primitive cty type want.
func convertTo(raw any, want cty.Type) (cty.Value, bool) {
	val, err := toCty(raw)
	if err != nil || val.IsNull() || !val.IsKnown() {
		return cty.NilVal, false
	}
	if !val.Type().IsPrimitiveType() {
		return cty.NilVal, false
	}
	out, err := convert.Convert(val, want)
	if err != nil {
		return cty.NilVal, false
	}

	return out, true
}

func coerceInt(raw any) (any, error) {
	if bv, ok := raw.(bool); ok {
		return nil, coercionErrorf(TypeInt, bv)
	}
	val, ok := convertTo(raw, cty.Number)
	if !ok {
		return nil, coercionErrorf(TypeInt, raw)
	}
	var out int64
	if err := gocty.FromCtyValue(val, &out); err != nil {
		// non-integral or out of int64 range
		return nil, coercionErrorf(TypeInt, raw)
	}

	return out, nil
}

func coerceFloat(raw any) (any, error) {
	if bv, ok := raw.(bool); ok {
		return nil, coercionErrorf(TypeFloat, bv)
	}
	val, ok := convertTo(raw, cty.Number)
	if !ok {
		return nil, coercionErrorf(TypeFloat, raw)
	}
	var out float64
	if err := gocty.FromCtyValue(val, &out); err != nil {
		return nil, coercionErrorf(TypeFloat, raw)
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return nil, coercionErrorf(TypeFloat, raw)
	}

	return out, nil
}

func coerceBool(raw any) (any, error) {
	// cty has no number→bool conversion; strings "true"/"false" convert.
	val, ok := convertTo(raw, cty.Bool)
	if !ok {
		return nil, coercionErrorf(TypeBool, raw)
	}
	var out bool
	if err := gocty.FromCtyValue(val, &out); err != nil {
		return nil, coercionErrorf(TypeBool, raw)
	}

	return out, nil
}

func coerceStr(raw any) (any, error) {
	val, err := toCty(raw)
	if err != nil || val.IsNull() || !val.Type().Equals(cty.String) {
		return nil, coercionErrorf(TypeStr, raw)
	}

	return val.AsString(), nil
}

func coerceDate(raw any) (any, error) {
	if t, ok := raw.(time.Time); ok {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	s, err := coerceStr(raw)
	if err != nil {
		return nil, coercionErrorf(TypeDate, raw)
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(s.(string)))
	if err != nil {
		return nil, coercionErrorf(TypeDate, raw)
	}

	return t, nil
}

// CompareValues orders two canonical built-in values.
// Numbers compare across int64/float64; strings lexically; false < true;
// dates chronologically. Mixed kinds return ErrIncomparable.
func CompareValues(a, b any) (int, error) {
	if ai, ok := a.(int64); ok {
		if bi, ok := b.(int64); ok {
			return cmpOrdered(ai, bi), nil
		}
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return cmpOrdered(af, bf), nil
		}
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), nil
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0, nil
			case !av:
				return -1, nil
			default:
				return 1, nil
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv), nil
		}
	}

	return 0, fmt.Errorf("registry: compare %T with %T: %w", a, b, ErrIncomparable)
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// asFloat widens Go numeric values (including json.Number) to float64.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}

	return 0, false
}

// AsFloat is the exported form of asFloat, used by indexing arithmetic.
func AsFloat(v any) (float64, bool) { return asFloat(v) }
