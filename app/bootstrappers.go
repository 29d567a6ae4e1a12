// Package app holds the sample application's bootstrappers.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-kernel/framework/bootstrappers"
	"github.com/km-arc/go-kernel/framework/config"
	"github.com/km-arc/go-kernel/framework/container"
	"github.com/km-arc/go-kernel/framework/routing"
)

// Class ids of the sample bootstrappers.
const (
	RoutingID bootstrappers.ClassID = "app.routing"
	ServerID  bootstrappers.ClassID = "app.server"
)

// Factories is the factory table for the bootstrapper manifest.
func Factories() map[bootstrappers.ClassID]bootstrappers.Factory {
	return map[bootstrappers.ClassID]bootstrappers.Factory{
		RoutingID: func() bootstrappers.Bootstrapper { return &RoutingBootstrapper{} },
		ServerID:  func() bootstrappers.Bootstrapper { return &ServerBootstrapper{} },
	}
}

// Register adds the sample bootstrappers to reg, for when no manifest is configured.
func Register(reg *bootstrappers.Registry) error {
	factories := Factories()
	for _, id := range []bootstrappers.ClassID{ServerID, RoutingID} {
		if err := reg.Register(id, factories[id]); err != nil {
			return err
		}
	}
	return nil
}

// ── RoutingBootstrapper ───────────────────────────────────────────────────────

// RoutingBootstrapper lazily provides the HTTP router.
//
// Bound abstracts:
//   - "router" → *routing.Router
type RoutingBootstrapper struct {
	bootstrappers.BaseBootstrapper
}

func (b *RoutingBootstrapper) Bindings() []string { return []string{"router"} }

func (b *RoutingBootstrapper) RegisterBindings(c *container.Container) error {
	c.Singleton("router", func(c *container.Container) (any, error) {
		logger, err := container.Resolve[*zap.Logger](c, "logger")
		if err != nil {
			return nil, err
		}
		return routing.New(logger), nil
	})
	return nil
}

// Run registers the application's routes.
func (b *RoutingBootstrapper) Run(c *container.Container) error {
	router, err := container.Resolve[*routing.Router](c, "router")
	if err != nil {
		return err
	}
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return nil
}

// ── ServerBootstrapper ────────────────────────────────────────────────────────

// ShutdownTimeout bounds how long in-flight requests get on shutdown.
const ShutdownTimeout = 5 * time.Second

// ServerBootstrapper provides the HTTP server and stops it gracefully in the
// pre-shutdown phase. It resolves "router" in Run, which dispatches the lazy
// RoutingBootstrapper.
//
// Bound abstracts:
//   - "http.server" → *http.Server
type ServerBootstrapper struct {
	bootstrappers.BaseBootstrapper
	server *http.Server
}

func (b *ServerBootstrapper) RegisterBindings(c *container.Container) error {
	c.Singleton("http.server", func(c *container.Container) (any, error) {
		cfg, err := container.Resolve[*config.Config](c, "config")
		if err != nil {
			return nil, err
		}
		router, err := container.Resolve[*routing.Router](c, "router")
		if err != nil {
			return nil, err
		}
		return &http.Server{
			Addr:              ":" + cfg.App.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}, nil
	})
	return nil
}

func (b *ServerBootstrapper) Run(c *container.Container) error {
	server, err := container.Resolve[*http.Server](c, "http.server")
	if err != nil {
		return err
	}
	b.server = server
	return nil
}

// Shutdown gracefully stops the server if it was started.
func (b *ServerBootstrapper) Shutdown(c *container.Container) error {
	if b.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := b.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
