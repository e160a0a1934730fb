package registry

import (
	"fmt"
	"sort"
	"sync"
)

// entry is one registered name: either a complete Type or a partial Factory.
type entry struct {
	typ     Type
	factory Factory
}

// Registry maps type names to Type capabilities.
//
// mu guards entries and frozen. Reads take the read lock, so a frozen
// registry can be shared across goroutines.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	frozen  bool
}

// New returns a registry pre-populated with the built-in types.
func New() *Registry {
	r := &Registry{entries: make(map[string]entry, 8)}
	for _, k := range []Kind{KindInt, KindFloat, KindBool, KindStr, KindDate} {
		r.entries[k.String()] = entry{typ: builtin{kind: k}}
	}

	return r
}

// Default returns a fresh, frozen registry with only the built-in types.
func Default() *Registry {
	r := New()
	r.Freeze()

	return r
}

// Register adds a complete custom type under t.Name().
// Errors: ErrFrozen, ErrDuplicateType.
func (r *Registry) Register(t Type) error {
	if t == nil {
		return fmt.Errorf("registry: Register: nil type: %w", ErrUnknownType)
	}

	return r.add(t.Name(), entry{typ: t})
}

// RegisterPartial adds a custom type whose construction is deferred until the
// schema's bounds are known. See Finalize.
func (r *Registry) RegisterPartial(name string, f Factory) error {
	if f == nil {
		return fmt.Errorf("registry: RegisterPartial(%q): nil factory: %w", name, ErrUnknownType)
	}

	return r.add(name, entry{factory: f})
}

func (r *Registry) add(name string, e entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("registry: register %q: %w", name, ErrFrozen)
	}
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("registry: register %q: %w", name, ErrDuplicateType)
	}
	r.entries[name] = e

	return nil
}

// Freeze makes the registry read-only. Idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.frozen
}

// Has reports whether name is registered (complete or partial).
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]

	return ok
}

// IsPartial reports whether name was registered with RegisterPartial.
func (r *Registry) IsPartial(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.entries[name].factory != nil
}

// Lookup returns the complete Type registered under name.
// Partial types return ErrPartialType; unknown names ErrUnknownType.
func (r *Registry) Lookup(name string) (Type, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	switch {
	case !ok:
		return nil, fmt.Errorf("registry: %q: %w", name, ErrUnknownType)
	case e.factory != nil:
		return nil, fmt.Errorf("registry: %q: %w", name, ErrPartialType)
	}

	return e.typ, nil
}

// Finalize returns the Type to use for a label or parameter declared with
// type name and schema bounds b. Partial types are constructed by their
// factory; complete types are returned as registered and b is ignored.
func (r *Registry) Finalize(name string, b Bounds) (Type, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: %q: %w", name, ErrUnknownType)
	}
	if e.factory == nil {
		return e.typ, nil
	}
	t, err := e.factory(b)
	if err != nil {
		return nil, fmt.Errorf("registry: finalize %q: %w", name, err)
	}

	return t, nil
}

// Coerce converts raw to the canonical value of the complete type name.
func (r *Registry) Coerce(name string, raw any) (any, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	return t.Coerce(raw)
}

// Compare orders a and b with the complete type name.
func (r *Registry) Compare(name string, a, b any) (int, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return 0, err
	}

	return t.Compare(a, b)
}

// Names lists registered names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	sort.Strings(out)

	return out
}
