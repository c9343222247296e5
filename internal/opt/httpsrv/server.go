package httpsrv

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hashmap-kz/storecrypt/pkg/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hydrostats/tsfit/config"
	"github.com/hydrostats/tsfit/internal/opt/jobq"

	controlCrt "github.com/hydrostats/tsfit/internal/opt/httpsrv/controller"
	controlSvc "github.com/hydrostats/tsfit/internal/opt/httpsrv/service"

	"github.com/hydrostats/tsfit/internal/opt/httpsrv/middleware"

	"golang.org/x/time/rate"
)

type HTTPHandlersOpts struct {
	Reporter    controlSvc.FitReporter
	BaseDir     string
	Verbose     bool
	RunningMode string
	Storage     *storage.TransformingStorage
	Queue       *jobq.JobQueue
	RenderFn    func(ctx context.Context, backends []string)
	Pipeline    controlCrt.PipelineController
}

func InitHTTPHandlers(opts *HTTPHandlersOpts) http.Handler {
	cfg := config.Cfg()
	l := slog.With("component", "rest-api")

	service := controlSvc.NewControlService(&controlSvc.ControlServiceOpts{
		Reporter:    opts.Reporter,
		BaseDir:     opts.BaseDir,
		RunningMode: opts.RunningMode,
		Storage:     opts.Storage,
		Queue:       opts.Queue,
		RenderFn:    opts.RenderFn,
	})
	controller := controlCrt.NewController(service, opts.Pipeline)

	// init middlewares
	loggingMiddleware := middleware.LoggingMiddleware{
		Logger:  l,
		Verbose: opts.Verbose,
	}
	rateLimitMiddleware := middleware.RateLimiterMiddleware{Limiter: rate.NewLimiter(5, 10)}

	// Build middleware chain
	secureChain := middleware.MiddlewareChain(
		middleware.SafeHandlerMiddleware,
		loggingMiddleware.Middleware,
		rateLimitMiddleware.Middleware,
	)
	plainChain := middleware.MiddlewareChain(
		middleware.SafeHandlerMiddleware,
		loggingMiddleware.Middleware,
	)

	// Init handlers
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.Handle("/status", secureChain(http.HandlerFunc(controller.StatusHandler)))
	mux.Handle("POST /render", secureChain(http.HandlerFunc(controller.RenderHandler)))

	mux.Handle("/figures", secureChain(http.HandlerFunc(controller.FiguresListHandler)))
	mux.Handle("/figures/size", secureChain(http.HandlerFunc(controller.FiguresSizeHandler)))
	mux.Handle("/figures/{filename}", plainChain(http.HandlerFunc(controller.FigureDownloadHandler)))

	if opts.Pipeline != nil {
		mux.Handle("POST /pipeline/pause", secureChain(http.HandlerFunc(controller.PausePipeline)))
		mux.Handle("POST /pipeline/resume", secureChain(http.HandlerFunc(controller.ResumePipeline)))
	}

	if cfg.Metrics.Enable {
		l.Debug("enable metric endpoints")

		mux.Handle("/metrics", promhttp.Handler())
	}

	return mux
}
