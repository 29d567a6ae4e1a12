package app

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/km-arc/go-kernel/framework/bootstrappers"
	"github.com/km-arc/go-kernel/framework/config"
	"github.com/km-arc/go-kernel/framework/container"
	"github.com/km-arc/go-kernel/framework/logging"
	"github.com/km-arc/go-kernel/framework/tasks"
)

// ErrAlreadyStarted is returned by Start on an application that was started before.
var ErrAlreadyStarted = errors.New("application already started")

// Application is the top-level application kernel.
// It embeds the IoC Container so user code can call app.Bind(),
// app.Singleton(), app.Make() directly.
type Application struct {
	*container.Container
	Tasks         *tasks.Dispatcher
	Bootstrappers *bootstrappers.Registry
	Dispatcher    *bootstrappers.Dispatcher
	Config        *config.Config
	Logger        *zap.Logger

	factories map[bootstrappers.ClassID]bootstrappers.Factory
	started   bool
	shutDown  bool
}

// Option customizes New.
type Option func(*Application)

// WithConfig uses cfg instead of loading configuration from the environment.
func WithConfig(cfg *config.Config) Option {
	return func(a *Application) { a.Config = cfg }
}

// WithLogger uses logger instead of building one from the configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Application) { a.Logger = logger }
}

// WithFactories supplies the factory table used to resolve class ids named
// in the bootstrapper manifest (BOOTSTRAP_MANIFEST).
func WithFactories(factories map[bootstrappers.ClassID]bootstrappers.Factory) Option {
	return func(a *Application) { a.factories = factories }
}

// New creates the application: container, task queue, bootstrapper registry
// and dispatcher. Nothing is dispatched until Start.
//
// Bound abstracts:
//   - "config" and TypeKey(*config.Config)
//   - "logger" and TypeKey(*zap.Logger)
//   - "tasks"  and TypeKey(*tasks.Dispatcher)
func New(opts ...Option) (*Application, error) {
	a := &Application{}
	for _, opt := range opts {
		opt(a)
	}

	if a.Config == nil {
		a.Config = config.Load()
	}
	if a.Logger == nil {
		logger, err := logging.New(a.Config.Log)
		if err != nil {
			return nil, err
		}
		a.Logger = logger
	}
	a.Logger = a.Logger.With(zap.String("app", a.Config.App.Name))

	a.Container = container.New()
	a.Tasks = tasks.NewDispatcher(a.Logger)
	a.Bootstrappers = bootstrappers.NewRegistry()
	a.Dispatcher = bootstrappers.NewDispatcher(a.Tasks, a.Container, a.Logger)

	a.share("config", a.Config)
	a.share("logger", a.Logger)
	a.share("tasks", a.Tasks)

	if path := a.Config.Bootstrap.Manifest; path != "" {
		if err := a.LoadManifest(path); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// share binds v under name and under its TypeKey, so injected calls can
// ask for it by type.
func (a *Application) share(name string, v any) {
	a.Instance(name, v)
	a.Instance(container.TypeKey(v), v)
}

// Register adds a bootstrapper to the registry.
func (a *Application) Register(id bootstrappers.ClassID, factory bootstrappers.Factory) error {
	return a.Bootstrappers.Register(id, factory)
}

// LoadManifest registers the bootstrappers listed in the YAML file at path,
// resolved against the WithFactories table.
func (a *Application) LoadManifest(path string) error {
	m, err := bootstrappers.LoadManifest(path)
	if err != nil {
		return err
	}
	return m.Apply(a.Bootstrappers, a.factories)
}

// Start runs the pre-start tasks, dispatches the registered bootstrappers,
// runs the post-start tasks and finally calls fn, if given.
func (a *Application) Start(fn func() error) error {
	if a.started {
		return ErrAlreadyStarted
	}
	a.started = true

	if err := a.Tasks.Dispatch(tasks.PreStart); err != nil {
		return fmt.Errorf("app: pre-start: %w", err)
	}

	a.Dispatcher.ForceEagerLoading(a.Config.Bootstrap.ForceEager)
	if err := a.Dispatcher.Dispatch(a.Bootstrappers); err != nil {
		a.Logger.Error("bootstrapping failed", zap.Error(err))
		return fmt.Errorf("app: start: %w", err)
	}

	if err := a.Tasks.Dispatch(tasks.PostStart); err != nil {
		return fmt.Errorf("app: post-start: %w", err)
	}

	a.Logger.Info("application started",
		zap.String("env", a.Environment()),
		zap.Bool("force_eager", a.Config.Bootstrap.ForceEager))

	if fn != nil {
		return fn()
	}
	return nil
}

// Shutdown runs the pre-shutdown and post-shutdown tasks. Bootstrapper
// Shutdown methods run in the pre-shutdown phase. Both phases always run;
// their errors are returned combined. Calling Shutdown again is a no-op.
func (a *Application) Shutdown() error {
	if a.shutDown {
		return nil
	}
	a.shutDown = true

	err := multierr.Combine(
		a.Tasks.Dispatch(tasks.PreShutdown),
		a.Tasks.Dispatch(tasks.PostShutdown),
	)
	if err != nil {
		a.Logger.Error("application shut down with errors", zap.Error(err))
	} else {
		a.Logger.Info("application shut down")
	}
	_ = a.Logger.Sync()
	return err
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config.App.Env }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsDebug() bool       { return a.Config.App.Debug }
