package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hydrostats/tsfit/internal/ext"
	"github.com/hydrostats/tsfit/internal/opt/charts/echarts"
	"github.com/hydrostats/tsfit/internal/opt/charts/gplot"
	"github.com/hydrostats/tsfit/internal/opt/metrics"
)

// HTTP

func addr(from string) (string, error) {
	if strings.HasPrefix(from, "http://") || strings.HasPrefix(from, "https://") {
		return from, nil
	}
	host, port, err := net.SplitHostPort(from)
	if err != nil {
		return "", err
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%s", host, port), nil
}

func runHTTPServer(ctx context.Context, port int, router http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		// Context was cancelled, shut down the HTTP server gracefully
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", slog.Any("err", err))
		} else {
			slog.Debug("HTTP server shut down")
		}
	}()

	slog.Info("starting HTTP server", slog.String("addr", srv.Addr))

	// Start the server (blocking)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err // real error
	}
	return nil
}

// chart backends

var backendRegistrars = map[string]func(*ext.Registry) error{
	echarts.Name: echarts.RegisterWith,
	gplot.Name:   gplot.RegisterWith,
}

// registerBackends registers the configured chart backends in the
// process-wide registry. Registration fails when a backend's rendering
// dependency is unusable in this environment.
func registerBackends(names []string) error {
	for _, name := range names {
		registrar, ok := backendRegistrars[name]
		if !ok {
			return fmt.Errorf("unknown chart backend: %s", name)
		}
		if err := registrar(ext.Default()); err != nil {
			return fmt.Errorf("register backend %q: %w", name, err)
		}
		slog.Debug("chart backend registered", slog.String("backend", name))
	}
	metrics.ExtensionsRegistered.Set(float64(len(ext.Default().Names())))
	return nil
}
