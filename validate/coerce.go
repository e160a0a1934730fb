// SPDX-License-Identifier: MIT

package validate

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/paramspace/registry"
	"github.com/katalvlaran/paramspace/schema"
	"github.com/katalvlaran/paramspace/values"
)

// Context carries what validation looks up besides the candidates: the
// resolved schema, coerced defaults, the current values and the batch being
// validated. It is passed explicitly on every call and never stored globally.
type Context struct {
	Schema *schema.Schema

	// Defaults are the coerced default values per parameter.
	Defaults map[string][]values.ValueObject

	// Current returns the current values of a parameter. Nil means defaults.
	Current func(name string) []values.ValueObject

	// Batch holds the coerced in-flight adjustment per parameter.
	Batch map[string][]values.ValueObject

	// SkipRefs disables every check whose bound references a parameter.
	// Transactions use it to defer cross-parameter checks to commit.
	SkipRefs bool
}

// NewContext coerces the defaults of every parameter of a resolved schema.
// Problems with the defaults themselves are returned in the Report.
func NewContext(sch *schema.Schema) (Context, Report, error) {
	if sch == nil || !sch.Resolved() {
		return Context{}, Report{}, ErrUnresolvedSchema
	}
	ctx := Context{Schema: sch, Defaults: make(map[string][]values.ValueObject, len(sch.Params))}
	var rep Report
	for _, p := range sch.Params {
		vos, r := Coerce(ctx, p, p.Value)
		rep.Merge(r)
		ctx.Defaults[p.Name] = vos
	}

	return ctx, rep, nil
}

func (ctx Context) current(name string) []values.ValueObject {
	if ctx.Current == nil {
		return ctx.Defaults[name]
	}

	return ctx.Current(name)
}

// Coerce checks labels, value type and shape of every candidate of p.
// It returns the candidates that passed, coerced, in input order.
// Delete directives (nil value) pass with only their labels coerced.
func Coerce(ctx Context, p *schema.Parameter, candidates []values.ValueObject) ([]values.ValueObject, Report) {
	var rep Report
	out := make([]values.ValueObject, 0, len(candidates))
	for _, cand := range candidates {
		vo, msgs := coerceOne(ctx, p, cand)
		for _, m := range msgs {
			rep.addError(m)
		}
		if len(msgs) == 0 {
			out = append(out, vo)
		}
	}

	return out, rep
}

func coerceOne(ctx Context, p *schema.Parameter, cand values.ValueObject) (values.ValueObject, []Message) {
	vo := values.ValueObject{Auto: cand.Auto}
	if len(cand.Labels) > 0 {
		vo.Labels = make(map[string]any, len(cand.Labels))
	}
	var (
		msgs    []Message
		failed  []string
		unknown []string
	)
	for _, name := range cand.LabelNames() {
		raw := cand.Labels[name]
		vo.Labels[name] = raw
		l, ok := ctx.Schema.Label(name)
		if !ok {
			unknown = append(unknown, name)

			continue
		}
		v, err := l.ValueType().Coerce(raw)
		if err != nil {
			failed = append(failed, name)
			msgs = append(msgs, Message{Kind: ErrTypeCoercion, Param: p.Name, Cause: err})

			continue
		}
		vo.Labels[name] = v
	}
	labels := vo.LabelString()
	for i, name := range failed {
		msgs[i].Labels = vo.Labels
		msgs[i].Text = fmt.Sprintf("%s%s label %s: %s", p.Name, labels, name, msgs[i].Cause.Error())
	}
	for _, name := range unknown {
		msgs = append(msgs, newMessage(ErrUnknownLabel, p.Name, vo.Labels, "%s%s unknown label %q", p.Name, labels, name))
	}
	if len(msgs) == 0 {
		msgs = append(msgs, checkLabels(ctx, p, vo)...)
	}

	if cand.IsDelete() {
		return vo, msgs
	}
	v, err := values.MapLeaves(cand.Value, p.ValueType().Coerce)
	if err != nil {
		m := newMessage(ErrTypeCoercion, p.Name, vo.Labels, "%s%s %s", p.Name, labels, err.Error())
		m.Cause = err

		return vo, append(msgs, m)
	}
	vo.Value = v
	if depth, ok := values.Depth(v); !ok || depth != p.NumberDims {
		msgs = append(msgs, newMessage(ErrStructuralShape, p.Name, vo.Labels,
			"%s%s value %s has %s, expected %d", p.Name, labels, values.Format(v), dimsText(depth, ok), p.NumberDims))
	}

	return vo, msgs
}

func dimsText(depth int, ok bool) string {
	if !ok {
		return "ragged dimensions"
	}
	if depth == 1 {
		return "1 dimension"
	}

	return fmt.Sprintf("%d dimensions", depth)
}

// checkLabels applies each label's own range and choice validators.
// Label violations are always errors: an off-grid label cannot be stored.
func checkLabels(ctx Context, p *schema.Parameter, vo values.ValueObject) []Message {
	var msgs []Message
	for _, name := range vo.LabelNames() {
		l, _ := ctx.Schema.Label(name)
		v := vo.Labels[name]
		if r := l.Validators.RangeRule(); r != nil {
			for _, side := range rangeSides(r) {
				c, err := compare(l.ValueType(), v, side.bound.Value)
				if err != nil || !side.bad(c) {
					continue
				}
				msgs = append(msgs, newMessage(ErrRangeViolation, p.Name, vo.Labels, "%s%s label %s %s %s %s %s",
					p.Name, vo.LabelString(), name, values.Format(v), side.op, side.word, values.Format(side.bound.Value)))
			}
		}
		if c := l.Validators.Choice; c != nil && !contains(l.ValueType(), c.Values, v) {
			msgs = append(msgs, newMessage(ErrChoiceViolation, p.Name, vo.Labels, "%s%s label %s %q must be in list of choices %s.",
				p.Name, vo.LabelString(), name, values.Format(v), values.Format(c.Values)))
		}
	}

	return msgs
}

// compare orders a and b with typ, falling back to the generic order for
// values of another type (bounds taken from a differently typed parameter).
func compare(typ registry.Type, a, b any) (int, error) {
	c, err := typ.Compare(a, b)
	if err == nil {
		return c, nil
	}
	c, err2 := registry.CompareValues(a, b)
	if err2 != nil {
		return 0, errors.Join(err, err2)
	}

	return c, nil
}

func contains(typ registry.Type, set []any, v any) bool {
	for _, s := range set {
		if values.Equal(s, v) {
			return true
		}
		if c, err := compare(typ, s, v); err == nil && c == 0 {
			return true
		}
	}

	return false
}
