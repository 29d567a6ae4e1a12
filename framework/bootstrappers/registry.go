package bootstrappers

import (
	"fmt"
	"reflect"
)

// LazyBinding maps one bound name to the bootstrapper that registers it.
type LazyBinding struct {
	Name  string
	Class ClassID
}

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry is the catalog of available bootstrappers: the eager ones, always
// dispatched, and the lazy ones keyed by the names they bind.
//
// Instances are memoized, so every lookup of a class id within the
// application's life returns the same bootstrapper.
type Registry struct {
	factories map[ClassID]Factory
	instances map[ClassID]Bootstrapper
	eager     []ClassID
	lazy      []LazyBinding
	lazyIndex map[string]int // bound name → index into lazy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[ClassID]Factory),
		instances: make(map[ClassID]Bootstrapper),
		lazyIndex: make(map[string]int),
	}
}

// Register adds a bootstrapper, routing it to the lazy catalog when its
// instance implements LazyBootstrapper and to the eager list otherwise.
// The instance built for the check is the one later returned by Instance.
func (r *Registry) Register(id ClassID, factory Factory) error {
	if err := r.add(id, factory); err != nil {
		return err
	}
	b, err := r.Instance(id)
	if err != nil {
		delete(r.factories, id)
		return err
	}
	if lazy, ok := b.(LazyBootstrapper); ok {
		r.bindLazy(id, lazy.Bindings())
		return nil
	}
	r.eager = append(r.eager, id)
	return nil
}

// RegisterEager adds a bootstrapper that is always dispatched.
func (r *Registry) RegisterEager(id ClassID, factory Factory) error {
	if err := r.add(id, factory); err != nil {
		return err
	}
	r.eager = append(r.eager, id)
	return nil
}

// RegisterLazy adds a bootstrapper that is dispatched when any of names is
// first resolved. A name already claimed by another bootstrapper is
// reassigned to id and keeps its position.
func (r *Registry) RegisterLazy(id ClassID, factory Factory, names ...string) error {
	if err := r.add(id, factory); err != nil {
		return err
	}
	r.bindLazy(id, names)
	return nil
}

func (r *Registry) add(id ClassID, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("registry: %s: %w", id, ErrNilBootstrapper)
	}
	if _, ok := r.factories[id]; ok {
		return fmt.Errorf("registry: %s: %w", id, ErrDuplicateBootstrapper)
	}
	r.factories[id] = factory
	return nil
}

func (r *Registry) bindLazy(id ClassID, names []string) {
	for _, name := range names {
		if i, ok := r.lazyIndex[name]; ok {
			r.lazy[i].Class = id
			continue
		}
		r.lazyIndex[name] = len(r.lazy)
		r.lazy = append(r.lazy, LazyBinding{Name: name, Class: id})
	}
}

// EagerBootstrappers returns the eager class ids in registration order.
func (r *Registry) EagerBootstrappers() []ClassID {
	return append([]ClassID(nil), r.eager...)
}

// LazyBootstrapperBindings returns the bound-name → class mapping in
// registration order.
func (r *Registry) LazyBootstrapperBindings() []LazyBinding {
	return append([]LazyBinding(nil), r.lazy...)
}

// Instance returns the bootstrapper for id, building it on first use.
func (r *Registry) Instance(id ClassID) (Bootstrapper, error) {
	if b, ok := r.instances[id]; ok {
		return b, nil
	}
	factory, ok := r.factories[id]
	if !ok {
		return nil, fmt.Errorf("registry: %s: %w", id, ErrUnknownBootstrapper)
	}
	b := factory()
	if isNil(b) {
		return nil, fmt.Errorf("registry: %s: %w", id, ErrNilBootstrapper)
	}
	r.instances[id] = b
	return b, nil
}

// isNil reports whether b is nil or wraps a nil pointer, map, slice, func,
// chan or interface.
func isNil(b Bootstrapper) bool {
	if b == nil {
		return true
	}
	switch v := reflect.ValueOf(b); v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
