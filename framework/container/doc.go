// Package container provides the IoC (Inversion of Control) container that
// bootstrappers register their bindings into.
//
// # Overview
//
// The container maps abstract names to factories. It supports transient
// bindings, singletons, pre-built instances and aliases. Because Go has no
// runtime constructor reflection, auto-wiring is replaced by explicit
// factory functions; Call is the one place arguments are injected, keyed by
// TypeKey of each parameter type.
//
// Every resolution returns an error instead of panicking. Failures are
// reported as *BindingError wrapping ErrNotBound, ErrCircularDependency or
// whatever the factory returned.
//
// # Bindings
//
//	// Transient: new instance every Make()
//	c.Bind("Foo", func(c *container.Container) (any, error) { return &Foo{}, nil })
//
//	// Singleton: created once, reused
//	c.Singleton("cache", func(c *container.Container) (any, error) {
//	    cfg, err := container.Resolve[*Config](c, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return cache.NewRedis(cfg), nil
//	})
//
//	// Pre-built value
//	c.Instance("config", myConfig)
//
//	// Alias
//	c.Alias("cache", "cacheManager")
//
// # Resolving
//
//	raw, err := c.Make("cache")          // honors the binding kind
//	raw, err  = c.MakeShared("cache")    // always caches the result
//	cache, err := container.Resolve[*RedisCache](c, "cache")
//
// # Rebinding from inside a factory
//
// A factory may replace its own binding and then resolve the same name.
// Cycle detection tracks the binding being built, not the name, so the
// second resolution runs the new factory:
//
//	c.Bind("heavy", func(c *container.Container) (any, error) {
//	    c.Singleton("heavy", buildHeavy)
//	    return c.MakeShared("heavy")
//	})
//
// Resolving a binding that is already on the build stack fails with
// ErrCircularDependency.
package container
