// SPDX-License-Identifier: MIT

package values

import (
	"fmt"

	"github.com/katalvlaran/paramspace/registry"
)

// Op is a comparison operator of a query condition.
type Op string

// Query operators.
const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

// Cond tests one label. Several Values form a union: eq with [a b] is "isin",
// ne with [a b] is "not in". Ordered operators hold when they hold for any value.
type Cond struct {
	Label  string
	Op     Op
	Values []any
}

// Query is a conjunction of conditions.
type Query struct {
	Conds []Cond
	// Strict=false lets entries lacking a condition's label pass that condition.
	Strict bool
	// Compare orders two values of label; nil falls back to registry.CompareValues.
	Compare func(label string, a, b any) (int, error)
}

// Where is shorthand for a single-condition query.
func Where(label string, op Op, vals ...any) Query {
	return Query{Conds: []Cond{{Label: label, Op: op, Values: vals}}, Strict: true}
}

// And returns q with c appended.
func (q Query) And(label string, op Op, vals ...any) Query {
	q.Conds = append(append([]Cond(nil), q.Conds...), Cond{Label: label, Op: op, Values: vals})

	return q
}

// Select returns copies of the entries matching q in store order.
func (s *Store) Select(q Query) ([]ValueObject, error) {
	for _, c := range q.Conds {
		if !c.Op.valid() {
			return nil, fmt.Errorf("values: %q: %w", c.Op, ErrUnknownOp)
		}
	}
	var out []ValueObject
	for _, vo := range s.vos {
		ok, err := q.Matches(vo)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, vo.Clone())
		}
	}

	return out, nil
}

// Matches evaluates q against one entry.
func (q Query) Matches(vo ValueObject) (bool, error) {
	for _, c := range q.Conds {
		got, has := vo.Labels[c.Label]
		if !has {
			if q.Strict {
				return false, nil
			}

			continue
		}
		ok, err := q.test(c, got)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

func (q Query) test(c Cond, got any) (bool, error) {
	switch c.Op {
	case OpEq:
		for _, v := range c.Values {
			if Equal(got, v) {
				return true, nil
			}
		}

		return false, nil
	case OpNe:
		for _, v := range c.Values {
			if Equal(got, v) {
				return false, nil
			}
		}

		return true, nil
	}
	for _, v := range c.Values {
		cmp, err := q.compare(c.Label, got, v)
		if err != nil {
			return false, err
		}
		if c.Op.holds(cmp) {
			return true, nil
		}
	}

	return false, nil
}

func (q Query) compare(label string, a, b any) (int, error) {
	if q.Compare != nil {
		return q.Compare(label, a, b)
	}

	return registry.CompareValues(a, b)
}

func (op Op) valid() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
		return true
	}

	return false
}

func (op Op) holds(cmp int) bool {
	switch op {
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	}

	return false
}
