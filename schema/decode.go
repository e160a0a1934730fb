// SPDX-License-Identifier: MIT

package schema

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/katalvlaran/paramspace/values"
)

// baseFields are the parameter members every schema understands.
var baseFields = map[string]struct{}{
	"title": {}, "description": {}, "notes": {}, "type": {},
	"number_dims": {}, "indexed": {}, "validators": {}, "value": {},
}

func wrapName(kind, name string, err error) error {
	return fmt.Errorf("schema: %s %q: %w", kind, name, err)
}

func asString(m map[string]any, key string) (string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("schema: %q must be a string, got %T: %w", key, raw, ErrMalformed)
	}

	return s, nil
}

func asBool(m map[string]any, key string) (bool, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("schema: %q must be a boolean, got %T: %w", key, raw, ErrMalformed)
	}

	return b, nil
}

func asInt(m map[string]any, key string) (int, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return 0, nil
	}
	switch n := raw.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("schema: %q: %w", key, ErrMalformed)
		}

		return int(i), nil
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("schema: %q must be an integer: %w", key, ErrMalformed)
		}

		return int(n), nil
	default:
		return 0, fmt.Errorf("schema: %q must be an integer, got %T: %w", key, raw, ErrMalformed)
	}
}

func asObject(m map[string]any, key string) (map[string]any, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema: %q must be an object, got %T: %w", key, raw, ErrMalformed)
	}

	return obj, nil
}

func labelFromMap(name string, m map[string]any) (*Label, error) {
	l := &Label{Name: name}
	var err error
	if l.Type, err = asString(m, "type"); err != nil {
		return nil, wrapName("label", name, err)
	}
	if l.NumberDims, err = asInt(m, "number_dims"); err != nil {
		return nil, wrapName("label", name, err)
	}
	raw, err := asObject(m, "validators")
	if err != nil {
		return nil, wrapName("label", name, err)
	}
	if l.Validators, err = parseValidators(raw, true); err != nil {
		return nil, wrapName("label", name, err)
	}

	return l, nil
}

func memberFromMap(name string, m map[string]any) (*Member, error) {
	mem := &Member{Name: name}
	var err error
	if mem.Type, err = asString(m, "type"); err != nil {
		return nil, wrapName("member", name, err)
	}
	if mem.NumberDims, err = asInt(m, "number_dims"); err != nil {
		return nil, wrapName("member", name, err)
	}

	return mem, nil
}

func operatorsFromMap(m map[string]any) (Operators, error) {
	var op Operators
	var err error
	if op.ArrayFirst, err = asBool(m, "array_first"); err != nil {
		return op, err
	}
	if op.LabelToExtend, err = asString(m, "label_to_extend"); err != nil {
		return op, err
	}
	if op.UsesExtendFunc, err = asBool(m, "uses_extend_func"); err != nil {
		return op, err
	}

	return op, nil
}

func parameterFromMap(name string, m map[string]any) (*Parameter, error) {
	p := &Parameter{Name: name}
	var err error
	for _, f := range []struct {
		key string
		dst *string
	}{{"title", &p.Title}, {"description", &p.Description}, {"notes", &p.Notes}, {"type", &p.Type}} {
		if *f.dst, err = asString(m, f.key); err != nil {
			return nil, wrapName("parameter", name, err)
		}
	}
	if p.Type == "" {
		return nil, wrapName("parameter", name, fmt.Errorf("schema: missing type: %w", ErrMalformed))
	}
	if p.NumberDims, err = asInt(m, "number_dims"); err != nil {
		return nil, wrapName("parameter", name, err)
	}
	if p.Indexed, err = asBool(m, "indexed"); err != nil {
		return nil, wrapName("parameter", name, err)
	}
	raw, err := asObject(m, "validators")
	if err != nil {
		return nil, wrapName("parameter", name, err)
	}
	if p.Validators, err = parseValidators(raw, false); err != nil {
		return nil, wrapName("parameter", name, err)
	}
	rawValue, ok := m["value"]
	if !ok {
		return nil, wrapName("parameter", name, fmt.Errorf("schema: missing value: %w", ErrMalformed))
	}
	if p.Value, err = ValueObjects(rawValue); err != nil {
		return nil, wrapName("parameter", name, err)
	}
	for k, v := range m {
		if _, base := baseFields[k]; base {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = v
	}

	return p, nil
}

// ValueObjects interprets a decoded "value" member or adjustment entry.
// A list of objects that all carry "value" is a list of value objects;
// An empty list is no values; anything else (a scalar, a plain array, null)
// is one unlabeled value.
func ValueObjects(raw any) ([]values.ValueObject, error) {
	list, ok := raw.([]any)
	if ok && len(list) == 0 {
		return nil, nil
	}
	if !ok || !allValueObjects(list) {
		return []values.ValueObject{{Value: raw}}, nil
	}
	out := make([]values.ValueObject, 0, len(list))
	for _, item := range list {
		vo, err := values.FromMap(item.(map[string]any))
		if err != nil {
			return nil, err
		}
		out = append(out, vo)
	}

	return out, nil
}

func allValueObjects(list []any) bool {
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return false
		}
		if _, has := m[values.ValueKey]; !has {
			return false
		}
	}

	return true
}
