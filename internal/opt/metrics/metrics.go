package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Fitting metrics
	ModelFitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tsfit_model_fits_total",
		Help: "Total number of model fits performed.",
	})

	ModelFitErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tsfit_model_fit_errors_total",
		Help: "Number of model fits that failed.",
	})

	ModelFitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tsfit_model_fit_duration_seconds",
		Help:    "Duration of a full model fit (grid search plus least squares).",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	// Rendering metrics
	FiguresRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tsfit_figures_rendered_total",
		Help: "Number of figures rendered, partitioned by chart backend.",
	}, []string{"backend"})

	FigureRenderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tsfit_figure_render_errors_total",
		Help: "Figure render failures, partitioned by chart backend.",
	}, []string{"backend"})

	FigureRenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tsfit_figure_render_duration_seconds",
		Help:    "Duration of rendering a single figure to its output file.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
	})

	// Extension registry
	ExtensionsRegistered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tsfit_extensions_registered",
		Help: "Number of chart backends currently registered.",
	})

	// Archive (upload, retain)
	FigureSetsUploaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tsfit_figure_sets_uploaded_total",
		Help: "Number of figure sets archived, partitioned by storage backend.",
	}, []string{"backend"})

	FigureSetsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tsfit_figure_sets_deleted_total",
		Help: "Number of archived figure sets deleted by retention logic.",
	})

	RetentionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tsfit_retention_run_duration_seconds",
		Help:    "Duration of the archive retention cleanup run.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	// Job queue
	RenderJobsQueued = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tsfit_render_jobs_queued",
		Help: "Render jobs currently waiting in the queue.",
	})

	RenderJobsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tsfit_render_jobs_rejected_total",
		Help: "Render jobs rejected because the queue was full.",
	})

	// Application health
	AppUptime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tsfit_app_uptime_seconds",
		Help: "Seconds since the application started.",
	})

	Goroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tsfit_goroutines",
		Help: "Number of current goroutines.",
	})
)
