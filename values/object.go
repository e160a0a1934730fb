// SPDX-License-Identifier: MIT

package values

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Reserved member names of a serialized ValueObject.
const (
	ValueKey = "value"
	AutoKey  = "_auto"
)

// dateLayout mirrors registry.DateLayout; dates serialize as plain ISO dates.
const dateLayout = "2006-01-02"

// ValueObject is one label-key -> value entry of a parameter.
// A nil Value is the delete sentinel.
type ValueObject struct {
	Labels map[string]any
	Value  any
	Auto   bool
}

// New builds a ValueObject from a value and alternating label name/value pairs.
// New(12000, "year", 2019) == {year: 2019, value: 12000}.
func New(value any, kv ...any) ValueObject {
	vo := ValueObject{Value: value}
	if len(kv) == 0 {
		return vo
	}
	vo.Labels = make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		vo.Labels[fmt.Sprint(kv[i])] = kv[i+1]
	}

	return vo
}

// Label returns the value assigned to label name.
func (vo ValueObject) Label(name string) (any, bool) {
	v, ok := vo.Labels[name]

	return v, ok
}

// Has reports whether vo carries label name.
func (vo ValueObject) Has(name string) bool {
	_, ok := vo.Labels[name]

	return ok
}

// IsDelete reports whether vo is a delete directive.
func (vo ValueObject) IsDelete() bool { return vo.Value == nil }

// LabelNames returns the label names of vo in lexical order.
func (vo ValueObject) LabelNames() []string {
	names := make([]string, 0, len(vo.Labels))
	for k := range vo.Labels {
		names = append(names, k)
	}
	sort.Strings(names)

	return names
}

// LabelKey is the canonical identity of vo's label assignments.
func (vo ValueObject) LabelKey() string {
	return labelKey(vo.Labels, "")
}

// KeyWithout is LabelKey computed as if label drop were absent.
func (vo ValueObject) KeyWithout(drop string) string {
	return labelKey(vo.Labels, drop)
}

func labelKey(labels map[string]any, drop string) string {
	names := make([]string, 0, len(labels))
	for k := range labels {
		if k != drop {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	var sb strings.Builder
	for i, k := range names {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(KeyOf(labels[k]))
	}

	return sb.String()
}

// Without returns a copy of vo's labels minus the named ones.
func (vo ValueObject) Without(names ...string) map[string]any {
	out := make(map[string]any, len(vo.Labels))
	for k, v := range vo.Labels {
		out[k] = v
	}
	for _, n := range names {
		delete(out, n)
	}

	return out
}

// With returns a deep copy of vo with label name set to v.
func (vo ValueObject) With(name string, v any) ValueObject {
	out := vo.Clone()
	if out.Labels == nil {
		out.Labels = make(map[string]any, 1)
	}
	out.Labels[name] = v

	return out
}

// Clone returns a deep copy; nested []any values are copied too.
func (vo ValueObject) Clone() ValueObject {
	out := ValueObject{Value: CloneValue(vo.Value), Auto: vo.Auto}
	if vo.Labels != nil {
		out.Labels = make(map[string]any, len(vo.Labels))
		for k, v := range vo.Labels {
			out.Labels[k] = v
		}
	}

	return out
}

// LabelString renders labels as "[a=1, b=2]" in lexical order, or "" when vo
// has none. Used in validation messages.
func (vo ValueObject) LabelString() string {
	if len(vo.Labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(vo.Labels))
	for _, k := range vo.LabelNames() {
		parts = append(parts, k+"="+Format(vo.Labels[k]))
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

// String implements fmt.Stringer.
func (vo ValueObject) String() string {
	s := vo.LabelString() + " " + Format(vo.Value)
	if vo.Auto {
		s += " (auto)"
	}

	return strings.TrimSpace(s)
}

// CloneValue deep-copies nested []any values; scalars are returned as is.
func CloneValue(v any) any {
	arr, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]any, len(arr))
	for i, x := range arr {
		out[i] = CloneValue(x)
	}

	return out
}

// KeyOf is the canonical string identity of a coerced scalar or nested array.
// The dynamic type takes part in the key, so int64(1) != float64(1).
func KeyOf(v any) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case time.Time:
		return "date:" + x.Format(dateLayout)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = KeyOf(e)
		}

		return "[" + strings.Join(parts, ",") + "]"
	default:
		return fmt.Sprintf("%T:%v", v, v)
	}
}

// Equal reports whether a and b have the same canonical key.
func Equal(a, b any) bool { return KeyOf(a) == KeyOf(b) }

// Format renders a value for messages: dates as ISO, arrays as [a b].
func Format(v any) string {
	switch x := v.(type) {
	case time.Time:
		return x.Format(dateLayout)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = Format(e)
		}

		return "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

// Depth returns the nesting depth of v: 0 for scalars, 1 for a flat list, and
// so on. Ragged nesting reports ok=false.
func Depth(v any) (depth int, ok bool) {
	arr, isArr := v.([]any)
	if !isArr {
		return 0, true
	}
	if len(arr) == 0 {
		return 1, true
	}
	first, ok := Depth(arr[0])
	if !ok {
		return 0, false
	}
	for _, e := range arr[1:] {
		d, ok := Depth(e)
		if !ok || d != first {
			return 0, false
		}
	}

	return first + 1, true
}

// Leaves calls fn for every scalar in v in row-major order.
func Leaves(v any, fn func(leaf any)) {
	if arr, ok := v.([]any); ok {
		for _, e := range arr {
			Leaves(e, fn)
		}

		return
	}
	fn(v)
}

// MapLeaves rebuilds v with fn applied to every scalar.
func MapLeaves(v any, fn func(leaf any) (any, error)) (any, error) {
	arr, ok := v.([]any)
	if !ok {
		return fn(v)
	}
	out := make([]any, len(arr))
	for i, e := range arr {
		m, err := MapLeaves(e, fn)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}

	return out, nil
}

// jsonValue maps coerced values to their wire form.
func jsonValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(dateLayout)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = jsonValue(e)
		}

		return out
	default:
		return v
	}
}

// MarshalJSON writes the flat form {<label>: v, ..., "value": v[, "_auto": true]}.
func (vo ValueObject) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(vo.Labels)+2)
	for k, v := range vo.Labels {
		m[k] = jsonValue(v)
	}
	m[ValueKey] = jsonValue(vo.Value)
	if vo.Auto {
		m[AutoKey] = true
	}

	return json.Marshal(m)
}

// UnmarshalJSON reads the flat form. Numbers decode as json.Number so the
// registry can coerce them without float rounding.
func (vo *ValueObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	parsed, err := FromMap(m)
	if err != nil {
		return err
	}
	*vo = parsed

	return nil
}

// FromMap converts a decoded flat map into a ValueObject.
func FromMap(m map[string]any) (ValueObject, error) {
	raw, ok := m[ValueKey]
	if !ok {
		return ValueObject{}, ErrMissingValue
	}
	vo := ValueObject{Value: raw}
	if a, ok := m[AutoKey]; ok {
		b, isBool := a.(bool)
		if !isBool {
			return ValueObject{}, fmt.Errorf("values: %q must be a boolean, got %v: %w", AutoKey, a, ErrReservedLabel)
		}
		vo.Auto = b
	}
	for k, v := range m {
		if k == ValueKey || k == AutoKey {
			continue
		}
		if vo.Labels == nil {
			vo.Labels = make(map[string]any, len(m))
		}
		vo.Labels[k] = v
	}

	return vo, nil
}
