// SPDX-License-Identifier: MIT

package schema

import (
	"fmt"
	"sort"
)

// Level decides whether a failed check is an error or a warning.
type Level string

// Levels accepted under "level" or "out_of_range_action".
const (
	LevelError Level = "error"
	LevelStop  Level = "stop"
	LevelWarn  Level = "warn"
)

// Blocking reports whether a violation at this level is an error.
func (l Level) Blocking() bool { return l != LevelWarn }

func parseLevel(raw any) (Level, error) {
	if raw == nil {
		return LevelError, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("schema: level %v: %w", raw, ErrInvalidValidator)
	}
	switch l := Level(s); l {
	case LevelError, LevelStop, LevelWarn:
		return l, nil
	default:
		return "", fmt.Errorf("schema: level %q: %w", s, ErrInvalidValidator)
	}
}

// RefKind classifies a Bound.
type RefKind int

const (
	// RefNone is a literal bound.
	RefNone RefKind = iota
	// RefParam names another parameter.
	RefParam
	// RefDefault is the owning parameter's own default values.
	RefDefault
)

// DefaultRef is the bound keyword for a parameter's own defaults.
const DefaultRef = "default"

// Bound is one side of a range, or a reference used by choice and when.
// Raw is the value as written; Resolve fills the rest.
type Bound struct {
	Raw any

	// Value is the coerced literal when Ref == RefNone.
	Value any
	Ref   RefKind
	// Param is the referenced parameter (the owner for RefDefault).
	Param string
	// Index is Param's declaration index.
	Index int
}

// Range is a "range" or "date_range" validator.
type Range struct {
	Min   *Bound
	Max   *Bound
	Step  any
	Level Level
}

// Choice is a "choice" validator: a literal list or a parameter reference.
type Choice struct {
	Choices []any
	Ref     *Bound
	Level   Level
	// Values are the coerced literal choices, set by Resolve.
	Values []any
}

// Condition operators of a when validator.
const (
	CondEqualTo     = "equal_to"
	CondGreaterThan = "greater_than"
	CondLessThan    = "less_than"
)

// When applies Then or Otherwise depending on another parameter's value.
type When struct {
	Param     *Bound
	Op        string
	Is        any
	Then      Validators
	Otherwise Validators

	// IsValue is Is coerced to the referenced parameter's type.
	IsValue any
}

// Validators is the validator set of a label or parameter.
type Validators struct {
	Range     *Range
	DateRange *Range
	Choice    *Choice
	When      *When
}

// Empty reports whether no validator is declared.
func (v Validators) Empty() bool {
	return v.Range == nil && v.DateRange == nil && v.Choice == nil && v.When == nil
}

// RangeRule returns the declared range, preferring date_range.
func (v Validators) RangeRule() *Range {
	if v.DateRange != nil {
		return v.DateRange
	}

	return v.Range
}

// parseValidators builds Validators from a decoded "validators" object.
func parseValidators(raw map[string]any, nested bool) (Validators, error) {
	var out Validators
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, name := range keys {
		body, ok := raw[name].(map[string]any)
		if !ok {
			return out, fmt.Errorf("schema: validator %q must be an object: %w", name, ErrInvalidValidator)
		}
		var err error
		switch name {
		case "range":
			out.Range, err = parseRange(body)
		case "date_range":
			out.DateRange, err = parseRange(body)
		case "choice":
			out.Choice, err = parseChoice(body)
		case "when":
			if nested {
				return out, fmt.Errorf("schema: nested when: %w", ErrInvalidValidator)
			}
			out.When, err = parseWhen(body)
		default:
			return out, fmt.Errorf("schema: validator %q: %w", name, ErrInvalidValidator)
		}
		if err != nil {
			return out, err
		}
	}

	return out, nil
}

func levelOf(body map[string]any) (Level, error) {
	if raw, ok := body["out_of_range_action"]; ok {
		return parseLevel(raw)
	}

	return parseLevel(body["level"])
}

func parseRange(body map[string]any) (*Range, error) {
	r := &Range{Step: body["step"]}
	for k := range body {
		switch k {
		case "min", "max", "step", "level", "out_of_range_action":
		default:
			return nil, fmt.Errorf("schema: range member %q: %w", k, ErrInvalidValidator)
		}
	}
	if v, ok := body["min"]; ok && v != nil {
		r.Min = &Bound{Raw: v}
	}
	if v, ok := body["max"]; ok && v != nil {
		r.Max = &Bound{Raw: v}
	}
	lvl, err := levelOf(body)
	if err != nil {
		return nil, err
	}
	r.Level = lvl

	return r, nil
}

func parseChoice(body map[string]any) (*Choice, error) {
	c := &Choice{}
	switch v := body["choices"].(type) {
	case []any:
		c.Choices = v
	case string:
		c.Ref = &Bound{Raw: v}
	default:
		return nil, fmt.Errorf("schema: choices must be a list or a parameter name: %w", ErrInvalidValidator)
	}
	lvl, err := levelOf(body)
	if err != nil {
		return nil, err
	}
	c.Level = lvl

	return c, nil
}

func parseWhen(body map[string]any) (*When, error) {
	param, ok := body["param"].(string)
	if !ok {
		return nil, fmt.Errorf("schema: when.param must be a string: %w", ErrInvalidValidator)
	}
	w := &When{Param: &Bound{Raw: param}, Op: CondEqualTo}
	switch is := body["is"].(type) {
	case map[string]any:
		if len(is) != 1 {
			return nil, fmt.Errorf("schema: when.is takes exactly one condition, got %d: %w", len(is), ErrInvalidValidator)
		}
		for op, v := range is {
			switch op {
			case CondEqualTo, CondGreaterThan, CondLessThan:
				w.Op, w.Is = op, v
			default:
				return nil, fmt.Errorf("schema: when.is condition %q: %w", op, ErrInvalidValidator)
			}
		}
	default:
		w.Is = is
	}
	for _, side := range []struct {
		key string
		dst *Validators
	}{{"then", &w.Then}, {"otherwise", &w.Otherwise}} {
		raw, present := body[side.key]
		if !present || raw == nil {
			continue
		}
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("schema: when.%s must be an object: %w", side.key, ErrInvalidValidator)
		}
		v, err := parseValidators(m, true)
		if err != nil {
			return nil, err
		}
		*side.dst = v
	}

	return w, nil
}

// toMap renders validators back to their document form.
func (v Validators) toMap() map[string]any {
	out := make(map[string]any, 4)
	if v.Range != nil {
		out["range"] = v.Range.toMap()
	}
	if v.DateRange != nil {
		out["date_range"] = v.DateRange.toMap()
	}
	if v.Choice != nil {
		m := map[string]any{"level": string(v.Choice.Level)}
		if v.Choice.Ref != nil {
			m["choices"] = v.Choice.Ref.Raw
		} else {
			m["choices"] = v.Choice.Choices
		}
		out["choice"] = m
	}
	if v.When != nil {
		out["when"] = map[string]any{
			"param":     v.When.Param.Raw,
			"is":        map[string]any{v.When.Op: v.When.Is},
			"then":      v.When.Then.toMap(),
			"otherwise": v.When.Otherwise.toMap(),
		}
	}

	return out
}

func (r *Range) toMap() map[string]any {
	m := map[string]any{"level": string(r.Level)}
	if r.Min != nil {
		m["min"] = r.Min.Raw
	}
	if r.Max != nil {
		m["max"] = r.Max.Raw
	}
	if r.Step != nil {
		m["step"] = r.Step
	}

	return m
}
