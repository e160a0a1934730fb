// SPDX-License-Identifier: MIT

package schema

import (
	"github.com/katalvlaran/paramspace/registry"
	"github.com/katalvlaran/paramspace/values"
)

// Operators are schema-level switches; Parameters options may override them.
type Operators struct {
	ArrayFirst     bool
	LabelToExtend  string
	UsesExtendFunc bool
}

// Label is a named dimension of the parameter space.
type Label struct {
	Name       string
	Type       string
	NumberDims int
	Validators Validators

	typ registry.Type
}

// ValueType returns the resolved type, nil before Resolve.
func (l *Label) ValueType() registry.Type { return l.typ }

// Member is an additional typed field declared for every parameter.
type Member struct {
	Name       string
	Type       string
	NumberDims int
}

// Parameter is one named parameter with its default values.
type Parameter struct {
	Name        string
	Title       string
	Description string
	Notes       string
	Type        string
	NumberDims  int
	Indexed     bool
	Validators  Validators
	Value       []values.ValueObject
	// Extra holds additional member values keyed by member name.
	Extra map[string]any

	typ registry.Type
}

// ValueType returns the resolved type, nil before Resolve.
func (p *Parameter) ValueType() registry.Type { return p.typ }

// Schema is the ordered description of a parameter space.
type Schema struct {
	Labels    []*Label
	Members   []*Member
	Operators Operators
	Params    []*Parameter

	labelIdx map[string]int
	paramIdx map[string]int
	resolved bool
}

// reindex rebuilds the name lookups. Duplicate names are reported.
func (s *Schema) reindex() error {
	s.labelIdx = make(map[string]int, len(s.Labels))
	for i, l := range s.Labels {
		if _, dup := s.labelIdx[l.Name]; dup {
			return wrapName("label", l.Name, ErrDuplicateName)
		}
		s.labelIdx[l.Name] = i
	}
	s.paramIdx = make(map[string]int, len(s.Params))
	for i, p := range s.Params {
		if _, dup := s.paramIdx[p.Name]; dup {
			return wrapName("parameter", p.Name, ErrDuplicateName)
		}
		s.paramIdx[p.Name] = i
	}

	return nil
}

func (s *Schema) ensureIndex() {
	if s.paramIdx == nil || len(s.paramIdx) != len(s.Params) || len(s.labelIdx) != len(s.Labels) {
		_ = s.reindex()
	}
}

// Resolved reports whether Resolve succeeded.
func (s *Schema) Resolved() bool { return s.resolved }

// Param returns the parameter called name.
func (s *Schema) Param(name string) (*Parameter, bool) {
	i := s.ParamIndex(name)
	if i < 0 {
		return nil, false
	}

	return s.Params[i], true
}

// ParamIndex returns the declaration index of name, or -1.
func (s *Schema) ParamIndex(name string) int {
	s.ensureIndex()
	i, ok := s.paramIdx[name]
	if !ok {
		return -1
	}

	return i
}

// Label returns the label called name.
func (s *Schema) Label(name string) (*Label, bool) {
	s.ensureIndex()
	i, ok := s.labelIdx[name]
	if !ok {
		return nil, false
	}

	return s.Labels[i], true
}

// LabelNames lists labels in declaration order.
func (s *Schema) LabelNames() []string {
	out := make([]string, len(s.Labels))
	for i, l := range s.Labels {
		out[i] = l.Name
	}

	return out
}

// ParamNames lists parameters in declaration order.
func (s *Schema) ParamNames() []string {
	out := make([]string, len(s.Params))
	for i, p := range s.Params {
		out[i] = p.Name
	}

	return out
}
