// SPDX-License-Identifier: MIT

package schema

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// hclFile is the top-level structure of an HCL schema.
//
//	operators { label_to_extend = "year" }
//	label "year" {
//	  type       = "int"
//	  validators = { range = { min = 2017, max = 2020 } }
//	}
//	parameter "sd" {
//	  title = "Standard deduction"
//	  type  = "int"
//	  value = [{ year = 2017, value = 6350 }]
//	}
type hclFile struct {
	Operators *hclOperators `hcl:"operators,block"`
	Labels    []*hclLabel   `hcl:"label,block"`
	Members   []*hclMember  `hcl:"additional_member,block"`
	Params    []*hclParam   `hcl:"parameter,block"`
}

type hclOperators struct {
	ArrayFirst     bool   `hcl:"array_first,optional"`
	LabelToExtend  string `hcl:"label_to_extend,optional"`
	UsesExtendFunc bool   `hcl:"uses_extend_func,optional"`
}

type hclLabel struct {
	Name       string    `hcl:"name,label"`
	Type       string    `hcl:"type"`
	NumberDims int       `hcl:"number_dims,optional"`
	Validators cty.Value `hcl:"validators,optional"`
}

type hclMember struct {
	Name       string `hcl:"name,label"`
	Type       string `hcl:"type"`
	NumberDims int    `hcl:"number_dims,optional"`
}

type hclParam struct {
	Name        string    `hcl:"name,label"`
	Title       string    `hcl:"title,optional"`
	Description string    `hcl:"description,optional"`
	Notes       string    `hcl:"notes,optional"`
	Type        string    `hcl:"type"`
	NumberDims  int       `hcl:"number_dims,optional"`
	Indexed     bool      `hcl:"indexed,optional"`
	Validators  cty.Value `hcl:"validators,optional"`
	Value       cty.Value `hcl:"value"`
	Remain      hcl.Body  `hcl:",remain"`
}

// LoadHCL parses an HCL schema. Blocks keep their file order; attributes
// inside an object value (validators) are unordered, which they may be.
func LoadHCL(filename string, src []byte) (*Schema, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("schema: parse %s: %w: %w", filename, ErrMalformed, diags)
	}
	var parsed hclFile
	if diags = gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("schema: decode %s: %w: %w", filename, ErrMalformed, diags)
	}

	s := &Schema{}
	if parsed.Operators != nil {
		s.Operators = Operators{
			ArrayFirst:     parsed.Operators.ArrayFirst,
			LabelToExtend:  parsed.Operators.LabelToExtend,
			UsesExtendFunc: parsed.Operators.UsesExtendFunc,
		}
	}
	for _, hl := range parsed.Labels {
		m := map[string]any{"type": hl.Type, "number_dims": hl.NumberDims}
		if err := putNative(m, "validators", hl.Validators); err != nil {
			return nil, wrapName("label", hl.Name, err)
		}
		l, err := labelFromMap(hl.Name, m)
		if err != nil {
			return nil, err
		}
		s.Labels = append(s.Labels, l)
	}
	for _, hm := range parsed.Members {
		s.Members = append(s.Members, &Member{Name: hm.Name, Type: hm.Type, NumberDims: hm.NumberDims})
	}
	for _, hp := range parsed.Params {
		m := map[string]any{
			"title":       hp.Title,
			"description": hp.Description,
			"notes":       hp.Notes,
			"type":        hp.Type,
			"number_dims": hp.NumberDims,
			"indexed":     hp.Indexed,
		}
		if err := putNative(m, "validators", hp.Validators); err != nil {
			return nil, wrapName("parameter", hp.Name, err)
		}
		v, err := ctyToNative(hp.Value)
		if err != nil {
			return nil, wrapName("parameter", hp.Name, err)
		}
		m["value"] = v
		if err = remainAttrs(hp.Remain, m); err != nil {
			return nil, wrapName("parameter", hp.Name, err)
		}
		p, err := parameterFromMap(hp.Name, m)
		if err != nil {
			return nil, err
		}
		s.Params = append(s.Params, p)
	}
	if err := s.reindex(); err != nil {
		return nil, err
	}

	return s, nil
}

func putNative(m map[string]any, key string, v cty.Value) error {
	if v.IsNull() {
		return nil
	}
	native, err := ctyToNative(v)
	if err != nil {
		return err
	}
	m[key] = native

	return nil
}

// remainAttrs evaluates the leftover attributes of a parameter block
// (additional members) into m.
func remainAttrs(body hcl.Body, m map[string]any) error {
	if body == nil {
		return nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return fmt.Errorf("schema: %w: %w", ErrMalformed, diags)
	}
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("schema: attribute %q: %w: %w", name, ErrMalformed, diags)
		}
		native, err := ctyToNative(val)
		if err != nil {
			return fmt.Errorf("schema: attribute %q: %w", name, err)
		}
		m[name] = native
	}

	return nil
}

// ctyToNative converts a cty.Value into plain Go values: strings, bools,
// int64 for whole numbers, float64 otherwise, []any and map[string]any.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == 0 {
				return i, nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("schema: number %s: %w", bf.String(), err)
		}

		return f, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			nv, err := ctyToNative(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, nv)
		}

		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			nv, err := ctyToNative(ev)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", k.AsString(), err)
			}
			out[k.AsString()] = nv
		}

		return out, nil
	default:
		return nil, fmt.Errorf("schema: unsupported value type %s: %w", ty.FriendlyName(), ErrMalformed)
	}
}
