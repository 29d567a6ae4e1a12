package container

import (
	"fmt"
	"reflect"
	"sync"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory is a function that builds a concrete value from the container.
type Factory func(c *Container) (any, error)

// binding holds a registered factory and whether it is a singleton.
// Bindings are compared by pointer: rebinding a name creates a new record.
type binding struct {
	factory   Factory
	singleton bool
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the IoC container that bootstrappers register their
// bindings into.
//
// It supports:
//   - Bind / Singleton / Instance / Alias
//   - Make / MakeShared / Resolve (generic)
//   - Call (invoke a function with injected arguments)
//   - Circular dependency detection
type Container struct {
	mu sync.RWMutex

	// abstract → binding
	bindings map[string]*binding

	// abstract → resolved shared instance
	instances map[string]any

	// alias → abstract (canonical key)
	aliases map[string]string

	// bindings currently being built, innermost last
	buildStack []*binding
}

// New creates an empty container.
func New() *Container {
	c := &Container{
		bindings:  make(map[string]*binding),
		instances: make(map[string]any),
		aliases:   make(map[string]string),
	}
	// Bind the container to itself so factories can depend on it by name
	c.Instance("container", c)
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient factory. Any previous binding or shared
// instance for abstract is replaced.
//
//	c.Bind("mailer", func(c *container.Container) (any, error) {
//	    return mail.New(), nil
//	})
func (c *Container) Bind(abstract string, factory Factory) {
	c.bind(abstract, factory, false)
}

// Singleton registers a factory whose result is cached after first resolution.
//
//	c.Singleton("cache", func(c *container.Container) (any, error) {
//	    cfg, err := container.Resolve[*config.Config](c, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return cache.New(cfg), nil
//	})
func (c *Container) Singleton(abstract string, factory Factory) {
	c.bind(abstract, factory, true)
}

// Instance registers a pre-built value as the shared instance of abstract.
func (c *Container) Instance(abstract string, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	delete(c.bindings, key)
	c.instances[key] = instance
}

func (c *Container) bind(abstract string, factory Factory, singleton bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)

	// Drop the existing shared instance so it's rebuilt with the new factory
	delete(c.instances, key)
	c.bindings[key] = &binding{factory: factory, singleton: singleton}
}

// Alias registers an alternative name for an abstract.
func (c *Container) Alias(abstract, alias string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if abstract == alias {
		panic(fmt.Sprintf("container: [%s] is aliased to itself", abstract))
	}
	c.aliases[alias] = c.canonical(abstract)
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves an abstract from the container. Singleton bindings and
// instances are shared, other bindings produce a fresh value per call.
func (c *Container) Make(abstract string) (any, error) {
	return c.resolve(abstract, false)
}

// MakeShared resolves an abstract and keeps the result as its shared
// instance, invoking the factory only if none exists yet.
func (c *Container) MakeShared(abstract string) (any, error) {
	return c.resolve(abstract, true)
}

func (c *Container) resolve(abstract string, shared bool) (any, error) {
	c.mu.RLock()
	key := c.canonical(abstract)
	if inst, ok := c.instances[key]; ok {
		c.mu.RUnlock()
		return inst, nil
	}
	b, ok := c.bindings[key]
	c.mu.RUnlock()

	if !ok {
		return nil, &BindingError{Abstract: abstract, Err: ErrNotBound}
	}
	if c.building(b) {
		return nil, &BindingError{Abstract: abstract, Err: ErrCircularDependency}
	}

	instance, err := c.runFactory(b)
	if err != nil {
		return nil, &BindingError{Abstract: abstract, Err: err}
	}

	if shared || b.singleton {
		c.mu.Lock()
		c.instances[key] = instance
		c.mu.Unlock()
	}
	return instance, nil
}

// runFactory executes a factory with b pushed on the build stack.
func (c *Container) runFactory(b *binding) (any, error) {
	c.mu.Lock()
	c.buildStack = append(c.buildStack, b)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.buildStack = c.buildStack[:len(c.buildStack)-1]
		c.mu.Unlock()
	}()

	return b.factory(c)
}

func (c *Container) building(b *binding) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, pending := range c.buildStack {
		if pending == b {
			return true
		}
	}
	return false
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound returns true if an abstract has been registered.
func (c *Container) Bound(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := c.canonical(abstract)
	_, hasBinding := c.bindings[key]
	_, hasInstance := c.instances[key]
	return hasBinding || hasInstance
}

// Resolved returns true if the abstract holds a shared instance.
func (c *Container) Resolved(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.instances[c.canonical(abstract)]
	return ok
}

// Forget removes all registrations for an abstract (binding + instance).
func (c *Container) Forget(abstract string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	delete(c.bindings, key)
	delete(c.instances, key)
}

// Bindings returns all registered abstract keys (for debugging).
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.bindings)+len(c.instances))
	for k := range c.bindings {
		out = append(out, k)
	}
	for k := range c.instances {
		if _, already := c.bindings[k]; !already {
			out = append(out, k)
		}
	}
	return out
}

// canonical resolves an alias to its canonical key (must hold mu).
func (c *Container) canonical(abstract string) string {
	if target, ok := c.aliases[abstract]; ok {
		return target
	}
	return abstract
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, useful as a stable
// abstract key when working with interfaces. Call injects arguments by the
// same key.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "main.UserRepository"
//	c.Singleton(key, factory)
func TypeKey(v any) string {
	return typeKey(reflect.TypeOf(v))
}

func typeKey(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve calls Make and type-asserts the result.
//
//	db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, abstract string) (T, error) {
	var zero T
	instance, err := c.Make(abstract)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, &BindingError{
			Abstract: abstract,
			Err:      fmt.Errorf("resolved to %T, want %s", instance, reflect.TypeOf((*T)(nil)).Elem()),
		}
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on failure. Meant for wiring code
// where a missing binding is a programming error.
func MustResolve[T any](c *Container, abstract string) T {
	typed, err := Resolve[T](c, abstract)
	if err != nil {
		panic(err)
	}
	return typed
}
