package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	sample "github.com/km-arc/go-kernel/app"
	"github.com/km-arc/go-kernel/framework/app"
	"github.com/km-arc/go-kernel/framework/container"
)

func main() {
	application, err := app.New(app.WithFactories(sample.Factories())) // loads .env automatically
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	logger := application.Logger
	if application.IsProduction() && application.IsDebug() {
		logger.Warn("APP_DEBUG is enabled in production")
	}

	// Without a manifest, register the sample bootstrappers in code.
	if application.Config.Bootstrap.Manifest == "" {
		if err := sample.Register(application.Bootstrappers); err != nil {
			logger.Fatal("registering bootstrappers", zap.Error(err))
		}
	}

	err = application.Start(func() error {
		server, err := container.Resolve[*http.Server](application.Container, "http.server")
		if err != nil {
			return err
		}

		serveErr := make(chan error, 1)
		go func() {
			logger.Info("listening", zap.String("addr", server.Addr))
			serveErr <- server.ListenAndServe()
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case sig := <-stop:
			logger.Info("signal received", zap.String("signal", sig.String()))
			return nil
		case err := <-serveErr:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	})
	if err != nil {
		logger.Error("application stopped", zap.Error(err))
	}

	if shutdownErr := application.Shutdown(); shutdownErr != nil || err != nil {
		os.Exit(1)
	}
}
