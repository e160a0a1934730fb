// SPDX-License-Identifier: MIT

package validate

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/paramspace/registry"
	"github.com/katalvlaran/paramspace/schema"
	"github.com/katalvlaran/paramspace/values"
)

// maxListedChoices is the size from which choice messages omit the list.
const maxListedChoices = 20

type rangeSide struct {
	bound *schema.Bound
	op    string
	word  string
	bad   func(cmp int) bool
}

func rangeSides(r *schema.Range) []rangeSide {
	sides := make([]rangeSide, 0, 2)
	if r.Min != nil {
		sides = append(sides, rangeSide{bound: r.Min, op: "<", word: "min", bad: func(c int) bool { return c < 0 }})
	}
	if r.Max != nil {
		sides = append(sides, rangeSide{bound: r.Max, op: ">", word: "max", bad: func(c int) bool { return c > 0 }})
	}

	return sides
}

// finding is a message plus the level it was raised at.
type finding struct {
	msg   Message
	level schema.Level
}

// checker validates one coerced candidate of one parameter.
type checker struct {
	ctx    Context
	p      *schema.Parameter
	vo     values.ValueObject
	labels string
	inWhen bool
}

func newChecker(ctx Context, p *schema.Parameter, vo values.ValueObject) checker {
	return checker{ctx: ctx, p: p, vo: vo, labels: vo.LabelString()}
}

func (c checker) validators(v schema.Validators) []finding {
	var out []finding
	for _, r := range []*schema.Range{v.Range, v.DateRange} {
		if r != nil {
			out = append(out, c.checkRange(r)...)
		}
	}
	if v.Choice != nil {
		out = append(out, c.checkChoice(v.Choice)...)
	}
	if v.When != nil && !c.inWhen {
		out = append(out, c.checkWhen(v.When)...)
	}

	return out
}

func (c checker) message(kind error, format string, args ...any) Message {
	return newMessage(kind, c.p.Name, c.vo.Labels, format, args...)
}

// boundValues returns the value objects a bound compares against and the
// name shown in messages. ok is false when the check is skipped.
func (c checker) boundValues(b *schema.Bound) (vos []values.ValueObject, oth string, ok bool) {
	if b.Ref == schema.RefNone {
		return []values.ValueObject{{Value: b.Value}}, "", true
	}
	if c.ctx.SkipRefs {
		return nil, "", false
	}

	return c.related(b), fmt.Sprint(b.Raw), true
}

// related resolves a reference bound for the candidate. "default" reads the
// owner's defaults; a parameter name reads the batch, then the current
// values, then the defaults, and the first source with a match wins.
func (c checker) related(b *schema.Bound) []values.ValueObject {
	if b.Ref == schema.RefDefault {
		return matchRelated(c.ctx.Defaults[c.p.Name], c.vo)
	}
	for _, src := range [][]values.ValueObject{
		c.ctx.Batch[b.Param],
		c.ctx.current(b.Param),
		c.ctx.Defaults[b.Param],
	} {
		if m := matchRelated(src, c.vo); len(m) > 0 {
			return m
		}
	}

	return nil
}

// matchRelated keeps entries that agree with vo on every label of vo they
// carry. Delete directives are dropped.
func matchRelated(src []values.ValueObject, vo values.ValueObject) []values.ValueObject {
	var out []values.ValueObject
	for _, cand := range src {
		if cand.IsDelete() {
			continue
		}
		agree := true
		for k, want := range vo.Labels {
			if got, ok := cand.Labels[k]; ok && !values.Equal(got, want) {
				agree = false

				break
			}
		}
		if agree {
			out = append(out, cand)
		}
	}

	return out
}

func (c checker) checkRange(r *schema.Range) []finding {
	var out []finding
	for _, side := range rangeSides(r) {
		bounds, oth, ok := c.boundValues(side.bound)
		if !ok {
			continue
		}
		for _, bvo := range bounds {
			if !c.violates(c.vo.Value, bvo.Value, side.bad) {
				continue
			}
			text := strings.TrimSpace(fmt.Sprintf("%s%s %s %s %s %s %s%s",
				c.p.Name, c.labels, values.Format(c.vo.Value), side.op, side.word,
				values.Format(bvo.Value), oth, bvo.LabelString()))
			out = append(out, finding{msg: c.message(ErrRangeViolation, "%s", text), level: r.Level})
		}
	}

	return out
}

// violates reports whether any leaf pair of v and bound satisfies bad.
// Equal-length arrays pair up element-wise; a scalar side is broadcast.
func (c checker) violates(v, bound any, bad func(int) bool) bool {
	va, vArr := v.([]any)
	ba, bArr := bound.([]any)
	switch {
	case vArr && bArr && len(va) == len(ba):
		for i := range va {
			if c.violates(va[i], ba[i], bad) {
				return true
			}
		}

		return false
	case vArr:
		for _, e := range va {
			if c.violates(e, bound, bad) {
				return true
			}
		}

		return false
	case bArr:
		for _, e := range ba {
			if c.violates(v, e, bad) {
				return true
			}
		}

		return false
	}
	cmp, err := compare(c.p.ValueType(), v, bound)

	return err == nil && bad(cmp)
}

func (c checker) checkChoice(ch *schema.Choice) []finding {
	choices := ch.Values
	if ch.Ref != nil {
		related, _, ok := c.boundValues(ch.Ref)
		if !ok {
			return nil
		}
		choices = nil
		for _, r := range related {
			values.Leaves(r.Value, func(leaf any) { choices = append(choices, leaf) })
		}
	}
	list := ""
	if len(choices) < maxListedChoices {
		list = " " + values.Format(choices)
	}
	suffix := ""
	if c.labels != "" {
		suffix = " for labels " + c.labels
	}
	var out []finding
	values.Leaves(c.vo.Value, func(leaf any) {
		if contains(c.p.ValueType(), choices, leaf) {
			return
		}
		m := c.message(ErrChoiceViolation, "%s \"%s\" must be in list of choices%s%s.", c.p.Name, values.Format(leaf), list, suffix)
		out = append(out, finding{msg: m, level: ch.Level})
	})

	return out
}

func (c checker) checkWhen(w *schema.When) []finding {
	if c.ctx.SkipRefs {
		return nil
	}
	for _, side := range []schema.Validators{w.Then, w.Otherwise} {
		for _, b := range refBounds(side) {
			if other := c.refParam(b); other != nil && other.NumberDims > 0 {
				m := c.message(ErrRangeViolation, "%s is validated against %s in an invalid context.", c.p.Name, b.Raw)

				return []finding{{msg: m, level: schema.LevelError}}
			}
		}
	}
	refType := registry.Type(nil)
	if other := c.refParam(w.Param); other != nil {
		refType = other.ValueType()
	}
	oth := fmt.Sprint(w.Param.Raw)
	sub := c
	sub.inWhen = true
	var out []finding
	for _, wvo := range c.related(w.Param) {
		holds := condHolds(refType, w.Op, wvo.Value, w.IsValue)
		branch := w.Otherwise
		if holds {
			branch = w.Then
		}
		verb := condPhrase(w.Op, holds)
		for _, f := range sub.validators(branch) {
			f.msg.Text = fmt.Sprintf("When %s%s %s %s, %s%s value is invalid: %s",
				oth, wvo.LabelString(), verb, values.Format(w.IsValue), c.p.Name, c.labels, f.msg.Text)
			out = append(out, f)
		}
	}

	return out
}

// refParam returns the parameter a reference bound reads.
func (c checker) refParam(b *schema.Bound) *schema.Parameter {
	switch b.Ref {
	case schema.RefDefault:
		return c.p
	case schema.RefParam:
		p, _ := c.ctx.Schema.Param(b.Param)

		return p
	default:
		return nil
	}
}

func refBounds(v schema.Validators) []*schema.Bound {
	var out []*schema.Bound
	for _, r := range []*schema.Range{v.Range, v.DateRange} {
		if r == nil {
			continue
		}
		for _, b := range []*schema.Bound{r.Min, r.Max} {
			if b != nil && b.Ref != schema.RefNone {
				out = append(out, b)
			}
		}
	}
	if v.Choice != nil && v.Choice.Ref != nil {
		out = append(out, v.Choice.Ref)
	}

	return out
}

func condHolds(typ registry.Type, op string, got, is any) bool {
	if op == schema.CondEqualTo && values.Equal(got, is) {
		return true
	}
	var (
		cmp int
		err error
	)
	if typ != nil {
		cmp, err = compare(typ, got, is)
	} else {
		cmp, err = registry.CompareValues(got, is)
	}
	if err != nil {
		return false
	}
	switch op {
	case schema.CondGreaterThan:
		return cmp > 0
	case schema.CondLessThan:
		return cmp < 0
	default:
		return cmp == 0
	}
}

func condPhrase(op string, holds bool) string {
	verb := "is"
	if !holds {
		verb = "is not"
	}
	switch op {
	case schema.CondGreaterThan:
		return verb + " greater than"
	case schema.CondLessThan:
		return verb + " less than"
	default:
		return verb
	}
}
