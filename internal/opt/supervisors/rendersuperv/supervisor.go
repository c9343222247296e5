package rendersuperv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	st "github.com/hashmap-kz/storecrypt/pkg/storage"
	"github.com/robfig/cron/v3"

	"github.com/hydrostats/tsfit/config"
	"github.com/hydrostats/tsfit/internal/core/model"
	"github.com/hydrostats/tsfit/internal/core/series"
	"github.com/hydrostats/tsfit/internal/ext"
	httpmodel "github.com/hydrostats/tsfit/internal/opt/httpsrv/model"
	"github.com/hydrostats/tsfit/internal/opt/metrics"
)

// figure kinds produced per backend
var figureKinds = []string{"plot", "results", "diagnostics"}

type RenderSupervisorOpts struct {
	Directory string
	Verbose   bool
}

// RenderSupervisor owns the fitted model and produces figure files from
// it. In serve mode it also re-fits and re-renders on a cron schedule and
// archives every produced figure set.
type RenderSupervisor struct {
	l    *slog.Logger
	cfg  *config.Config
	opts *RenderSupervisorOpts
	stor *st.TransformingStorage // nil when archiving is off

	mu sync.RWMutex
	m  *model.Model
}

func NewRenderSupervisor(cfg *config.Config, opts *RenderSupervisorOpts, stor *st.TransformingStorage) *RenderSupervisor {
	return &RenderSupervisor{
		l:    slog.With(slog.String("component", "render-supervisor")),
		cfg:  cfg,
		opts: opts,
		stor: stor,
	}
}

func (u *RenderSupervisor) log() *slog.Logger {
	if u.l != nil {
		return u.l
	}
	return slog.With(slog.String("component", "render-supervisor"))
}

// Backends returns the chart backends configured for this process.
func (u *RenderSupervisor) Backends() []string {
	return u.cfg.Plot.Backends
}

// Model returns the current model instance (may be nil before the first fit).
func (u *RenderSupervisor) Model() *model.Model {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.m
}

func (u *RenderSupervisor) FitStatus() *httpmodel.FitStatus {
	m := u.Model()
	if m == nil {
		return &httpmodel.FitStatus{Fitted: false}
	}

	status := &httpmodel.FitStatus{
		Model:  m.Name(),
		Fitted: m.Fitted(),
	}
	if !m.Fitted() {
		return status
	}

	fittedAt, _ := m.FittedAt()
	status.FittedAt = fittedAt.UTC().Format(time.RFC3339)

	if metr, err := m.Metrics(); err == nil {
		status.RMSE = metr.RMSE
		status.R2 = metr.R2
		status.EVP = metr.EVP
	}
	if params, err := m.Parameters(); err == nil {
		status.Parameters = make(map[string]float64, len(params))
		for _, p := range params {
			status.Parameters[p.Name] = p.Value
		}
	}
	return status
}

// FitModel loads the configured series, fits a fresh model and swaps it in.
func (u *RenderSupervisor) FitModel(ctx context.Context) error {
	start := time.Now()

	obs, err := series.ReadCSV(u.cfg.Model.Observations)
	if err != nil {
		metrics.ModelFitErrors.Inc()
		return fmt.Errorf("read observations: %w", err)
	}

	name := u.cfg.Model.Name
	if name == "" {
		name = obs.Name
	}
	m, err := model.New(obs, model.WithName(name))
	if err != nil {
		metrics.ModelFitErrors.Inc()
		return fmt.Errorf("build model: %w", err)
	}

	for _, sc := range u.cfg.Model.Stresses {
		stress, err := series.ReadCSV(sc.Path)
		if err != nil {
			metrics.ModelFitErrors.Inc()
			return fmt.Errorf("read stress %q: %w", sc.Name, err)
		}
		if err := m.AddStress(sc.Name, stress); err != nil {
			metrics.ModelFitErrors.Inc()
			return fmt.Errorf("add stress %q: %w", sc.Name, err)
		}
	}

	if err := m.Fit(ctx); err != nil {
		metrics.ModelFitErrors.Inc()
		return fmt.Errorf("fit model %q: %w", name, err)
	}

	metrics.ModelFitsTotal.Inc()
	metrics.ModelFitDuration.Observe(time.Since(start).Seconds())

	u.mu.Lock()
	u.m = m
	u.mu.Unlock()

	metr, _ := m.Metrics()
	u.log().Info("model fitted",
		slog.String("model", name),
		slog.Float64("rmse", metr.RMSE),
		slog.Float64("r2", metr.R2),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// RenderAll renders plot, results and diagnostics figures for each backend
// into the output directory, then archives the set if storage is configured.
func (u *RenderSupervisor) RenderAll(ctx context.Context, backends []string) error {
	m := u.Model()
	if m == nil {
		return fmt.Errorf("no fitted model available")
	}
	if len(backends) == 0 {
		backends = u.Backends()
	}

	if err := os.MkdirAll(u.opts.Directory, 0o750); err != nil {
		return err
	}

	written := make([]string, 0, len(backends)*len(figureKinds))
	for _, backend := range backends {
		files, err := u.renderBackend(m, backend)
		if err != nil {
			metrics.FigureRenderErrors.WithLabelValues(backend).Inc()
			u.log().Error("render failed",
				slog.String("backend", backend),
				slog.Any("err", err),
			)
			continue
		}
		written = append(written, files...)
	}
	if len(written) == 0 {
		return fmt.Errorf("no figures were rendered")
	}

	if u.stor != nil {
		if err := u.uploadFigureSet(ctx, written); err != nil {
			return err
		}
		if u.cfg.Serve.Retention.Enable {
			if err := u.retainFigureSets(ctx); err != nil {
				u.log().Error("figure-set retention failed", slog.Any("err", err))
			}
		}
	}
	return nil
}

func (u *RenderSupervisor) renderBackend(m *model.Model, backend string) ([]string, error) {
	ns, err := m.Extension(backend)
	if err != nil {
		return nil, err
	}

	opts := ext.Options{
		Title:  u.cfg.Plot.Title,
		Width:  u.cfg.Plot.Width,
		Height: u.cfg.Plot.Height,
		Format: u.cfg.Plot.Format,
	}

	written := make([]string, 0, len(figureKinds))
	for _, kind := range figureKinds {
		start := time.Now()

		var fig ext.Figure
		switch kind {
		case "plot":
			fig, err = ns.Plot(opts)
		case "results":
			fig, err = ns.Results(opts)
		case "diagnostics":
			fig, err = ns.Diagnostics(opts)
		}
		if err != nil {
			return written, err
		}

		name := figureFileName(m.Name(), kind, backend, u.cfg.Plot.Format)
		path := filepath.Join(u.opts.Directory, name)
		if err := writeFigure(fig, path); err != nil {
			return written, err
		}

		metrics.FiguresRendered.WithLabelValues(backend).Inc()
		metrics.FigureRenderDuration.Observe(time.Since(start).Seconds())
		u.log().Debug("figure rendered",
			slog.String("backend", backend),
			slog.String("path", filepath.ToSlash(path)),
		)
		written = append(written, name)
	}
	return written, nil
}

func writeFigure(fig ext.Figure, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fig.Render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// figureFileName yields e.g. "well-1-plot-echarts.html". HTML backends
// ignore the configured raster format.
func figureFileName(modelName, kind, backend, format string) string {
	fileExt := "png"
	if backend == "echarts" {
		fileExt = "html"
	} else if format != "" {
		fileExt = format
	}
	return fmt.Sprintf("%s-%s-%s.%s", modelName, kind, backend, fileExt)
}

func (u *RenderSupervisor) uploadFigureSet(ctx context.Context, names []string) error {
	ts := time.Now().UTC().Format(figureSetLayout)
	for _, name := range names {
		f, err := os.Open(filepath.Join(u.opts.Directory, name))
		if err != nil {
			return err
		}
		key := filepath.ToSlash(filepath.Join(ts, name))
		err = u.stor.Put(ctx, key, f)
		_ = f.Close()
		if err != nil {
			return err
		}
	}
	metrics.FigureSetsUploaded.WithLabelValues(u.cfg.Storage.Name).Inc()
	u.log().Info("figure set archived",
		slog.String("id", ts),
		slog.Int("files", len(names)),
	)
	return nil
}

func (u *RenderSupervisor) retainFigureSets(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.RetentionDuration.Observe(time.Since(start).Seconds())
	}()

	setIDs, err := u.stor.ListTopLevelDirs(ctx, "")
	if err != nil {
		return err
	}
	if len(setIDs) == 0 {
		return nil
	}

	setsList := make([]string, 0, len(setIDs))
	for k := range setIDs {
		setsList = append(setsList, filepath.Base(k))
	}
	toDelete := filterFigureSetsToDelete(setsList, u.cfg.Serve.Retention.KeepLast)
	if len(toDelete) == 0 {
		return nil
	}

	for dir := range setIDs {
		for _, d := range toDelete {
			if filepath.Base(dir) != d {
				continue
			}
			if err := u.stor.DeleteDir(ctx, dir); err != nil {
				return err
			}
			metrics.FigureSetsDeleted.Inc()
			u.log().Info("figure set deleted", slog.String("path", dir))
		}
	}
	return nil
}

// Run performs the initial fit and render, then (when a cron expression is
// configured) keeps re-fitting and re-rendering on schedule until ctx is
// cancelled.
func (u *RenderSupervisor) Run(ctx context.Context) error {
	if err := u.FitModel(ctx); err != nil {
		return err
	}
	if err := u.RenderAll(ctx, nil); err != nil {
		return err
	}

	if u.cfg.Serve.Cron == "" {
		return nil
	}

	// POSIX compatible cron syntax: "* * * * *". Without support of seconds.
	c := cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
	)))

	_, err := c.AddFunc(u.cfg.Serve.Cron, func() {
		u.log().Info("starting scheduled re-fit")
		if err := u.FitModel(ctx); err != nil {
			u.log().Error("scheduled fit failed", slog.Any("err", err))
			return
		}
		if err := u.RenderAll(ctx, nil); err != nil {
			u.log().Error("scheduled render failed", slog.Any("err", err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron: %w", err)
	}
	c.Start()

	<-ctx.Done()
	c.Stop()
	return nil
}
