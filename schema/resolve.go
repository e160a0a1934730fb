// SPDX-License-Identifier: MIT

package schema

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/paramspace/registry"
	"github.com/katalvlaran/paramspace/values"
)

// Resolve binds every type name to reg, coerces literal bounds and turns
// string bounds naming a parameter (or "default") into typed references.
// It is idempotent; a failed Resolve leaves the schema unresolved.
func (s *Schema) Resolve(reg *registry.Registry) error {
	s.resolved = false
	if err := s.reindex(); err != nil {
		return err
	}
	dateType, err := reg.Lookup(registry.TypeDate)
	if err != nil {
		return err
	}

	for _, l := range s.Labels {
		if err = s.resolveLabel(reg, l, dateType); err != nil {
			return err
		}
	}
	for _, m := range s.Members {
		if !reg.Has(m.Type) {
			return wrapName("member", m.Name, fmt.Errorf("%w %q", ErrUnknownType, m.Type))
		}
	}
	if ext := s.Operators.LabelToExtend; ext != "" {
		if _, ok := s.Label(ext); !ok {
			return fmt.Errorf("schema: label_to_extend %q: %w", ext, ErrUnknownReference)
		}
	}

	// types first: when validators need the type of the parameter they reference
	for _, p := range s.Params {
		typ, err := finalize(reg, p.Type, s.literalBounds(p.Validators))
		if err != nil {
			return wrapName("parameter", p.Name, err)
		}
		p.typ = typ
		if typ.Kind() == registry.KindDate && p.Validators.Range != nil && p.Validators.DateRange == nil {
			p.Validators.DateRange, p.Validators.Range = p.Validators.Range, nil
		}
	}
	for i, p := range s.Params {
		if err = s.resolveValidators(&p.Validators, p, i, dateType); err != nil {
			return wrapName("parameter", p.Name, err)
		}
		if err = s.checkValueLabels(p); err != nil {
			return err
		}
		if err = s.resolveExtra(reg, p); err != nil {
			return err
		}
	}
	s.resolved = true

	return nil
}

func finalize(reg *registry.Registry, name string, b registry.Bounds) (registry.Type, error) {
	typ, err := reg.Finalize(name, b)
	if errors.Is(err, registry.ErrUnknownType) {
		return nil, fmt.Errorf("%w %q: %w", ErrUnknownType, name, err)
	}

	return typ, err
}

// refName reports whether raw is a reference: "default" or a parameter name.
func (s *Schema) refName(raw any) (string, bool) {
	str, ok := raw.(string)
	if !ok {
		return "", false
	}
	if str == DefaultRef {
		return str, true
	}

	return str, s.ParamIndex(str) >= 0
}

// literalBounds collects the non-reference bounds handed to partial types.
func (s *Schema) literalBounds(v Validators) registry.Bounds {
	var b registry.Bounds
	if r := v.RangeRule(); r != nil {
		if r.Min != nil {
			if _, ref := s.refName(r.Min.Raw); !ref {
				b.Min = r.Min.Raw
			}
		}
		if r.Max != nil {
			if _, ref := s.refName(r.Max.Raw); !ref {
				b.Max = r.Max.Raw
			}
		}
		b.Step = r.Step
	}
	if v.Choice != nil && v.Choice.Ref == nil {
		b.Choices = v.Choice.Choices
	}

	return b
}

func (s *Schema) resolveLabel(reg *registry.Registry, l *Label, dateType registry.Type) error {
	b := registry.Bounds{}
	if r := l.Validators.RangeRule(); r != nil {
		if r.Min != nil {
			b.Min = r.Min.Raw
		}
		if r.Max != nil {
			b.Max = r.Max.Raw
		}
		b.Step = r.Step
	}
	if c := l.Validators.Choice; c != nil {
		if c.Ref != nil {
			return wrapName("label", l.Name, fmt.Errorf("choices must be a list: %w", ErrInvalidValidator))
		}
		b.Choices = c.Choices
	}
	typ, err := finalize(reg, l.Type, b)
	if err != nil {
		return wrapName("label", l.Name, err)
	}
	l.typ = typ
	if typ.Kind() == registry.KindDate && l.Validators.Range != nil && l.Validators.DateRange == nil {
		l.Validators.DateRange, l.Validators.Range = l.Validators.Range, nil
	}
	for _, r := range []*Range{l.Validators.Range, l.Validators.DateRange} {
		if r == nil {
			continue
		}
		rt := typ
		if r == l.Validators.DateRange {
			rt = dateType
		}
		for _, bound := range []*Bound{r.Min, r.Max} {
			if bound == nil {
				continue
			}
			if bound.Value, err = rt.Coerce(bound.Raw); err != nil {
				return wrapName("label", l.Name, fmt.Errorf("bound %v: %w: %w", bound.Raw, ErrInvalidValidator, err))
			}
			bound.Index = -1
		}
	}
	if c := l.Validators.Choice; c != nil {
		if c.Values, err = coerceAll(typ, c.Choices); err != nil {
			return wrapName("label", l.Name, err)
		}
	}

	return nil
}

func coerceAll(typ registry.Type, raw []any) ([]any, error) {
	out := make([]any, len(raw))
	for i, r := range raw {
		v, err := typ.Coerce(r)
		if err != nil {
			return nil, fmt.Errorf("choice %v: %w: %w", r, ErrInvalidValidator, err)
		}
		out[i] = v
	}

	return out, nil
}

// resolveRef fills b as a reference owned by parameter owner (index oi).
func (s *Schema) resolveRef(b *Bound, owner *Parameter, oi int) error {
	name, ok := s.refName(b.Raw)
	if !ok {
		return fmt.Errorf("%v: %w", b.Raw, ErrUnknownReference)
	}
	if name == DefaultRef {
		b.Ref, b.Param, b.Index = RefDefault, owner.Name, oi
	} else {
		b.Ref, b.Param, b.Index = RefParam, name, s.ParamIndex(name)
	}

	return nil
}

func (s *Schema) resolveValidators(v *Validators, p *Parameter, pi int, dateType registry.Type) error {
	for _, r := range []*Range{v.Range, v.DateRange} {
		if r == nil {
			continue
		}
		rt := p.typ
		if r == v.DateRange {
			rt = dateType
		}
		for _, b := range []*Bound{r.Min, r.Max} {
			if b == nil {
				continue
			}
			if _, ref := s.refName(b.Raw); ref {
				if err := s.resolveRef(b, p, pi); err != nil {
					return err
				}

				continue
			}
			val, err := values.MapLeaves(b.Raw, rt.Coerce)
			if err != nil {
				return fmt.Errorf("bound %v: %w: %w", b.Raw, ErrInvalidValidator, err)
			}
			b.Value, b.Ref, b.Index = val, RefNone, -1
		}
	}
	if c := v.Choice; c != nil {
		if c.Ref != nil {
			if err := s.resolveRef(c.Ref, p, pi); err != nil {
				return err
			}
		} else {
			vals, err := coerceAll(p.typ, c.Choices)
			if err != nil {
				return err
			}
			c.Values = vals
		}
	}
	if w := v.When; w != nil {
		if err := s.resolveRef(w.Param, p, pi); err != nil {
			return fmt.Errorf("when.param: %w", err)
		}
		refType := s.Params[w.Param.Index].typ
		if w.Is != nil {
			isVal, err := refType.Coerce(w.Is)
			if err != nil {
				return fmt.Errorf("when.is %v: %w: %w", w.Is, ErrInvalidValidator, err)
			}
			w.IsValue = isVal
		}
		for _, sub := range []*Validators{&w.Then, &w.Otherwise} {
			if sub.When != nil {
				return fmt.Errorf("nested when: %w", ErrInvalidValidator)
			}
			if err := s.resolveValidators(sub, p, pi, dateType); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Schema) checkValueLabels(p *Parameter) error {
	for _, vo := range p.Value {
		for name := range vo.Labels {
			if _, ok := s.Label(name); !ok {
				return wrapName("parameter", p.Name, fmt.Errorf("%q: %w", name, ErrUnknownLabel))
			}
		}
	}

	return nil
}

func (s *Schema) resolveExtra(reg *registry.Registry, p *Parameter) error {
	for k, raw := range p.Extra {
		var mem *Member
		for _, m := range s.Members {
			if m.Name == k {
				mem = m

				break
			}
		}
		if mem == nil {
			return wrapName("parameter", p.Name, fmt.Errorf("%q: %w", k, ErrUnknownMember))
		}
		if raw == nil || mem.NumberDims > 0 {
			continue
		}
		typ, err := reg.Finalize(mem.Type, registry.Bounds{})
		if err != nil {
			return wrapName("parameter", p.Name, err)
		}
		v, err := typ.Coerce(raw)
		if err != nil {
			return wrapName("parameter", p.Name, fmt.Errorf("member %q: %w: %w", k, ErrUnknownMember, err))
		}
		p.Extra[k] = v
	}

	return nil
}
