// Package charts holds what the chart backends share: the host interface
// they consume, default rendering parameters and label helpers. The ext
// registry hands factories an opaque host; backends assert FittedModel on
// it and fail with a clear error when the host does not match.
package charts

import (
	"fmt"
	"time"

	"github.com/hydrostats/tsfit/internal/core/model"
	"github.com/hydrostats/tsfit/internal/core/series"
)

// FittedModel is the host contract the backends read from. *model.Model
// satisfies it. All methods are pure reads.
type FittedModel interface {
	Name() string
	Observed() *series.Series
	Simulated() (*series.Series, error)
	Residuals() (*series.Series, error)
	Parameters() ([]model.Parameter, error)
	Metrics() (model.Metrics, error)
}

// Rendering defaults, applied when Options leave the field zero.
const (
	DefaultWidth  = 900
	DefaultHeight = 500

	// DiagnosticLags is the autocorrelation depth shown in diagnostics.
	DiagnosticLags = 20
	// HistogramBins is the residual histogram resolution.
	HistogramBins = 20
)

// AsFittedModel asserts the opaque host handed over by the registry.
func AsFittedModel(backend string, host any) (FittedModel, error) {
	fm, ok := host.(FittedModel)
	if !ok {
		return nil, fmt.Errorf("%s: host %T does not expose fitted model accessors", backend, host)
	}
	return fm, nil
}

// TimeLabels formats series timestamps for categorical axes.
func TimeLabels(ts []time.Time) []string {
	labels := make([]string, len(ts))
	for i, t := range ts {
		labels[i] = t.UTC().Format("2006-01-02")
	}
	return labels
}

// LagLabels formats 0..n autocorrelation lags.
func LagLabels(n int) []string {
	labels := make([]string, n+1)
	for i := range labels {
		labels[i] = fmt.Sprintf("%d", i)
	}
	return labels
}

// FitSubtitle renders the metrics line shown under figure titles.
func FitSubtitle(m model.Metrics) string {
	return fmt.Sprintf("RMSE=%.4g  R²=%.3f  EVP=%.1f%%", m.RMSE, m.R2, m.EVP)
}

// TitleOrDefault picks the user title or a generated one.
func TitleOrDefault(title, fallback string) string {
	if title != "" {
		return title
	}
	return fallback
}
