package bootstrappers

import "github.com/km-arc/go-kernel/framework/container"

// ClassID names a bootstrapper implementation. The registry resolves it to
// an instance; several lazy bindings may point at the same id.
type ClassID string

// ── Bootstrapper interface ────────────────────────────────────────────────────

// Bootstrapper is a unit of application-startup logic.
//
// RegisterBindings is called first, for every bootstrapper in a dispatch
// pass, before any Run. Run and Shutdown are invoked through
// container.Call.
//
//	type CacheBootstrapper struct{ bootstrappers.BaseBootstrapper }
//
//	func (b *CacheBootstrapper) RegisterBindings(c *container.Container) error {
//	    c.Singleton("cache", func(c *container.Container) (any, error) {
//	        return cache.New(), nil
//	    })
//	    return nil
//	}
type Bootstrapper interface {
	// RegisterBindings binds services into the container.
	// Do NOT resolve other bindings here; use Run() for that.
	RegisterBindings(c *container.Container) error

	// Run is called after the bindings of the whole pass are registered.
	Run(c *container.Container) error

	// Shutdown is called once, in the pre-shutdown phase.
	Shutdown(c *container.Container) error
}

// LazyBootstrapper is a Bootstrapper that is only dispatched when one of
// the names it binds is first resolved.
type LazyBootstrapper interface {
	Bootstrapper

	// Bindings returns the abstract names this bootstrapper registers.
	Bindings() []string
}

// Factory builds a fresh bootstrapper instance.
type Factory func() Bootstrapper

// ── BaseBootstrapper ──────────────────────────────────────────────────────────

// BaseBootstrapper provides no-op implementations of every Bootstrapper
// method. Embed it and only override what you need.
type BaseBootstrapper struct{}

func (BaseBootstrapper) RegisterBindings(_ *container.Container) error { return nil }
func (BaseBootstrapper) Run(_ *container.Container) error              { return nil }
func (BaseBootstrapper) Shutdown(_ *container.Container) error         { return nil }
