package cmd

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/grafana/dskit/services"
	"github.com/hashmap-kz/storecrypt/pkg/storage"

	"github.com/hydrostats/tsfit/config"
	"github.com/hydrostats/tsfit/internal/opt/httpsrv"
	"github.com/hydrostats/tsfit/internal/opt/jobq"
	"github.com/hydrostats/tsfit/internal/opt/metrics"
	"github.com/hydrostats/tsfit/internal/opt/pipeline"
	"github.com/hydrostats/tsfit/internal/opt/shared"
	"github.com/hydrostats/tsfit/internal/opt/supervisors/rendersuperv"
)

// healthMetricsInterval is how often serve mode refreshes the uptime and
// goroutine gauges.
const healthMetricsInterval = 15 * time.Second

func RunServeMode(cfg *config.Config) {
	var err error
	verbose := strings.EqualFold(cfg.Log.Level, "trace")

	// setup context
	ctx, cancel := context.WithCancel(context.Background())
	ctx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := registerBackends(cfg.Plot.Backends); err != nil {
		log.Fatal(err)
	}

	var stor *storage.TransformingStorage
	if cfg.HasExternalStorageConfigured() {
		stor, err = shared.SetupStorage(archiveDir(cfg))
		if err != nil {
			log.Fatal(err)
		}
		if err := shared.CheckManifest(cfg, cfg.Main.Directory); err != nil {
			log.Fatal(err)
		}
	}

	superv := rendersuperv.NewRenderSupervisor(cfg, &rendersuperv.RenderSupervisorOpts{
		Directory: cfg.Main.Directory,
		Verbose:   verbose,
	}, stor)

	queue := jobq.NewJobQueue(4)
	queue.Start(ctx)

	// fit-and-render pipeline
	pipe := pipeline.NewRenderPipelineService(superv)
	if err := services.StartAndAwaitRunning(ctx, pipe); err != nil {
		log.Fatal(err)
	}

	// Use WaitGroup to wait for all goroutines to finish
	var wg sync.WaitGroup

	// application health gauges
	if cfg.Metrics.Enable {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			ticker := time.NewTicker(healthMetricsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					metrics.AppUptime.Set(time.Since(start).Seconds())
					metrics.Goroutines.Set(float64(runtime.NumGoroutine()))
				}
			}
		}()
	}

	// HTTP server
	wg.Add(1)
	go func() {
		defer wg.Done()

		defer func() {
			if r := recover(); r != nil {
				slog.Error("http server panicked",
					slog.Any("panic", r),
					slog.String("goroutine", "http-server"),
				)
			}
		}()

		handlers := httpsrv.InitHTTPHandlers(&httpsrv.HTTPHandlersOpts{
			Reporter:    superv,
			BaseDir:     cfg.Main.Directory,
			Verbose:     verbose,
			RunningMode: "serve",
			Storage:     stor,
			Queue:       queue,
			RenderFn: func(ctx context.Context, backends []string) {
				if err := superv.RenderAll(ctx, backends); err != nil {
					slog.Error("render failed", slog.Any("err", err))
				}
			},
			Pipeline: pipe,
		})
		if err := runHTTPServer(ctx, cfg.Serve.ListenPort, handlers); err != nil {
			slog.Error("http server failed", slog.Any("err", err))
			cancel()
		}
	}()

	// Wait for signal (context cancellation)
	<-ctx.Done()
	slog.Info("shutting down, waiting for goroutines...")

	if err := services.StopAndAwaitTerminated(context.Background(), pipe); err != nil {
		slog.Error("render pipeline shutdown error", slog.Any("err", err))
	}

	// Wait for all goroutines to finish
	wg.Wait()
	slog.Info("all components shut down cleanly")
}
