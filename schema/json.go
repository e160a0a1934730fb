// SPDX-License-Identifier: MIT

package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/katalvlaran/paramspace/values"
)

// SchemaKey is the top-level member holding labels, members and operators.
const SchemaKey = "schema"

// member is one key/value pair of a JSON object in document order.
type member struct {
	Key string
	Raw json.RawMessage
}

// decodeObject splits a JSON object into its members, keeping their order.
func decodeObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("schema: %w: %w", ErrMalformed, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("schema: expected object, got %v: %w", tok, ErrMalformed)
	}
	var out []member
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, fmt.Errorf("schema: %w: %w", ErrMalformed, err)
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err = dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("schema: member %q: %w: %w", key, ErrMalformed, err)
		}
		out = append(out, member{Key: key, Raw: raw})
	}
	if _, err = dec.Token(); err != nil {
		return nil, fmt.Errorf("schema: %w: %w", ErrMalformed, err)
	}

	return out, nil
}

// decodeAny decodes with json.Number so integers survive untouched.
func decodeAny(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("schema: %w: %w", ErrMalformed, err)
	}

	return v, nil
}

func decodeMap(data []byte) (map[string]any, error) {
	v, err := decodeAny(data)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema: expected object, got %T: %w", v, ErrMalformed)
	}

	return m, nil
}

// LoadJSON reads a schema document:
//
//	{
//	  "schema": {"labels": {...}, "additional_members": {...}, "operators": {...}},
//	  "<param>": {"title": ..., "type": ..., "validators": {...}, "value": [...]},
//	  ...
//	}
//
// Label and parameter order follow the document.
func LoadJSON(r io.Reader) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("schema: read: %w", err)
	}
	top, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	s := &Schema{}
	for _, m := range top {
		if m.Key == SchemaKey {
			if err = s.decodeHeader(m.Raw); err != nil {
				return nil, err
			}

			continue
		}
		body, err := decodeMap(m.Raw)
		if err != nil {
			return nil, wrapName("parameter", m.Key, err)
		}
		p, err := parameterFromMap(m.Key, body)
		if err != nil {
			return nil, err
		}
		s.Params = append(s.Params, p)
	}
	if err = s.reindex(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Schema) decodeHeader(raw json.RawMessage) error {
	parts, err := decodeObject(raw)
	if err != nil {
		return err
	}
	for _, part := range parts {
		switch part.Key {
		case "labels":
			items, err := decodeObject(part.Raw)
			if err != nil {
				return err
			}
			for _, it := range items {
				m, err := decodeMap(it.Raw)
				if err != nil {
					return wrapName("label", it.Key, err)
				}
				l, err := labelFromMap(it.Key, m)
				if err != nil {
					return err
				}
				s.Labels = append(s.Labels, l)
			}
		case "additional_members":
			items, err := decodeObject(part.Raw)
			if err != nil {
				return err
			}
			for _, it := range items {
				m, err := decodeMap(it.Raw)
				if err != nil {
					return wrapName("member", it.Key, err)
				}
				mem, err := memberFromMap(it.Key, m)
				if err != nil {
					return err
				}
				s.Members = append(s.Members, mem)
			}
		case "operators":
			m, err := decodeMap(part.Raw)
			if err != nil {
				return err
			}
			if s.Operators, err = operatorsFromMap(m); err != nil {
				return err
			}
		default:
			return fmt.Errorf("schema: header member %q: %w", part.Key, ErrMalformed)
		}
	}

	return nil
}

// LoadAdjustment reads an adjustment document:
//
//	{"<param>": <scalar> | [{<label>: v, ..., "value": v-or-null}, ...]}
//
// A scalar becomes one unlabeled value object, which broadcasts on merge.
func LoadAdjustment(r io.Reader) (map[string][]values.ValueObject, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("schema: read: %w", err)
	}
	top, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]values.ValueObject, len(top))
	for _, m := range top {
		raw, err := decodeAny(m.Raw)
		if err != nil {
			return nil, wrapName("parameter", m.Key, err)
		}
		vos, err := ValueObjects(raw)
		if err != nil {
			return nil, wrapName("parameter", m.Key, err)
		}
		out[m.Key] = append(out[m.Key], vos...)
	}

	return out, nil
}

// WriteJSON writes s in the LoadJSON layout. current supplies each
// parameter's values; nil writes the defaults.
func (s *Schema) WriteJSON(w io.Writer, current func(name string) []values.ValueObject) error {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	if err := s.writeHeader(&buf); err != nil {
		return err
	}
	for _, p := range s.Params {
		vos := p.Value
		if current != nil {
			vos = current(p.Name)
		}
		if vos == nil {
			vos = []values.ValueObject{}
		}
		body := []member{}
		add := func(key string, v any) error {
			b, err := json.Marshal(v)
			if err != nil {
				return wrapName("parameter", p.Name, err)
			}
			body = append(body, member{Key: key, Raw: b})

			return nil
		}
		fields := []struct {
			key  string
			v    any
			skip bool
		}{
			{"title", p.Title, false},
			{"description", p.Description, p.Description == ""},
			{"notes", p.Notes, p.Notes == ""},
			{"type", p.Type, false},
			{"number_dims", p.NumberDims, false},
			{"indexed", p.Indexed, !p.Indexed},
			{"validators", p.Validators.toMap(), false},
		}
		for _, f := range fields {
			if f.skip {
				continue
			}
			if err := add(f.key, f.v); err != nil {
				return err
			}
		}
		for _, mem := range s.Members {
			if v, ok := p.Extra[mem.Name]; ok {
				if err := add(mem.Name, v); err != nil {
					return err
				}
			}
		}
		if err := add("value", vos); err != nil {
			return err
		}
		buf.WriteString(",\n")
		writeMembers(&buf, p.Name, body, "  ")
	}
	buf.WriteString("\n}\n")
	_, err := w.Write(buf.Bytes())

	return err
}

func (s *Schema) writeHeader(buf *bytes.Buffer) error {
	var labels, mems []member
	for _, l := range s.Labels {
		b, err := json.Marshal(map[string]any{
			"type":        l.Type,
			"number_dims": l.NumberDims,
			"validators":  l.Validators.toMap(),
		})
		if err != nil {
			return wrapName("label", l.Name, err)
		}
		labels = append(labels, member{Key: l.Name, Raw: b})
	}
	for _, m := range s.Members {
		b, err := json.Marshal(map[string]any{"type": m.Type, "number_dims": m.NumberDims})
		if err != nil {
			return wrapName("member", m.Name, err)
		}
		mems = append(mems, member{Key: m.Name, Raw: b})
	}
	var op any
	if s.Operators.LabelToExtend != "" {
		op = s.Operators.LabelToExtend
	}
	ops, err := json.Marshal(map[string]any{
		"array_first":      s.Operators.ArrayFirst,
		"label_to_extend":  op,
		"uses_extend_func": s.Operators.UsesExtendFunc,
	})
	if err != nil {
		return err
	}

	var lb, mb bytes.Buffer
	writeObject(&lb, labels, "    ")
	writeObject(&mb, mems, "    ")
	writeMembers(buf, SchemaKey, []member{
		{Key: "labels", Raw: lb.Bytes()},
		{Key: "additional_members", Raw: mb.Bytes()},
		{Key: "operators", Raw: ops},
	}, "  ")

	return nil
}

// writeMembers writes `"key": {members}` at the given indent.
func writeMembers(buf *bytes.Buffer, key string, body []member, indent string) {
	k, _ := json.Marshal(key)
	buf.WriteString(indent)
	buf.Write(k)
	buf.WriteString(": ")
	writeObject(buf, body, indent+"  ")
}

// writeObject writes members as an object, one member per line.
func writeObject(buf *bytes.Buffer, body []member, indent string) {
	if len(body) == 0 {
		buf.WriteString("{}")

		return
	}
	buf.WriteString("{\n")
	for i, m := range body {
		k, _ := json.Marshal(m.Key)
		buf.WriteString(indent)
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(m.Raw)
		if i < len(body)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString(indent[:len(indent)-2])
	buf.WriteByte('}')
}
