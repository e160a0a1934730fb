package registry

import (
	"fmt"
	"strings"
	"time"
)

// Kind enumerates the built-in value kinds; KindCustom covers every
// registered custom type.
type Kind int

const (
	// KindInvalid is the zero Kind and never names a usable type.
	KindInvalid Kind = iota
	// KindInt is a signed 64-bit integer.
	KindInt
	// KindFloat is a 64-bit float.
	KindFloat
	// KindBool is a boolean.
	KindBool
	// KindStr is a string.
	KindStr
	// KindDate is a calendar date (time.Time at UTC midnight).
	KindDate
	// KindCustom is a caller-registered type.
	KindCustom
)

// Built-in type names as they appear in schemas.
const (
	TypeInt   = "int"
	TypeFloat = "float"
	TypeBool  = "bool"
	TypeStr   = "str"
	TypeDate  = "date"
)

// DateLayout is the ISO layout accepted and produced for dates.
const DateLayout = "2006-01-02"

// String returns the schema name of a built-in kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return TypeInt
	case KindFloat:
		return TypeFloat
	case KindBool:
		return TypeBool
	case KindStr:
		return TypeStr
	case KindDate:
		return TypeDate
	case KindCustom:
		return "custom"
	default:
		return "invalid"
	}
}

// Numeric reports whether values of kind k order and step like numbers.
func (k Kind) Numeric() bool { return k == KindInt || k == KindFloat }

// Type is the capability object behind a type name.
//
// Coerce turns a raw input (JSON scalar, Go value, string) into the canonical
// Go value for the type, returning *CoercionError on failure. Compare defines
// the total order used by range checks, sorting and comparisons in queries.
type Type interface {
	Name() string
	Kind() Kind
	Coerce(raw any) (any, error)
	Compare(a, b any) (int, error)
}

// Stepper is implemented by types whose range validators can be expanded into
// a grid. Step returns start advanced by n steps of size step.
type Stepper interface {
	Step(start, step any, n int) (any, error)
}

// Bounds carries the literal range/choice bounds a schema declares for a
// label or parameter; it is the input of a partial type's Factory.
type Bounds struct {
	Min     any
	Max     any
	Step    any
	Choices []any
}

// Factory finalizes a partial type once its schema bounds are known.
type Factory func(b Bounds) (Type, error)

// builtin implements Type and Stepper for the five built-in kinds.
type builtin struct {
	kind Kind
}

func (b builtin) Name() string { return b.kind.String() }

func (b builtin) Kind() Kind { return b.kind }

func (b builtin) Coerce(raw any) (any, error) {
	switch b.kind {
	case KindInt:
		return coerceInt(raw)
	case KindFloat:
		return coerceFloat(raw)
	case KindBool:
		return coerceBool(raw)
	case KindStr:
		return coerceStr(raw)
	case KindDate:
		return coerceDate(raw)
	default:
		return nil, coercionErrorf(b.Name(), raw)
	}
}

func (b builtin) Compare(x, y any) (int, error) {
	return CompareValues(x, y)
}

// Step implements Stepper. Numeric steps are numbers; date steps are a number
// of days or a map with "days"/"weeks" members.
func (b builtin) Step(start, step any, n int) (any, error) {
	switch b.kind {
	case KindInt:
		s, err := coerceInt(start)
		if err != nil {
			return nil, err
		}
		d, err := coerceInt(step)
		if err != nil {
			return nil, err
		}

		return s.(int64) + int64(n)*d.(int64), nil
	case KindFloat:
		s, err := coerceFloat(start)
		if err != nil {
			return nil, err
		}
		d, err := coerceFloat(step)
		if err != nil {
			return nil, err
		}

		return s.(float64) + float64(n)*d.(float64), nil
	case KindDate:
		s, err := coerceDate(start)
		if err != nil {
			return nil, err
		}
		days, err := DateStepDays(step)
		if err != nil {
			return nil, err
		}

		return s.(time.Time).AddDate(0, 0, n*days), nil
	default:
		return nil, fmt.Errorf("registry: %s values cannot be stepped: %w", b.Name(), ErrIncomparable)
	}
}

// DateStepDays normalizes a date step to a whole number of days.
// Accepted forms: an integer (days) or a map with "days" and/or "weeks".
// A nil step means one day.
func DateStepDays(step any) (int, error) {
	if step == nil {
		return 1, nil
	}
	if m, ok := step.(map[string]any); ok {
		total := int64(0)
		for k, v := range m {
			n, err := coerceInt(v)
			if err != nil {
				return 0, err
			}
			switch strings.ToLower(k) {
			case "days":
				total += n.(int64)
			case "weeks":
				total += 7 * n.(int64)
			default:
				return 0, fmt.Errorf("registry: unsupported date step unit %q: %w", k, ErrTypeCoercion)
			}
		}

		return int(total), nil
	}
	n, err := coerceInt(step)
	if err != nil {
		return 0, err
	}

	return int(n.(int64)), nil
}
