// Package gplot is the static image chart backend. It wraps gonum/plot
// and attaches to fitted models through the extension registry under the
// name "gplot". Single-panel figures honor Options.Format ("png" or
// "svg"); multi-panel figures (Results, Diagnostics) are tiled onto a
// raster canvas and always render PNG.
package gplot

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/hydrostats/tsfit/internal/core/series"
	"github.com/hydrostats/tsfit/internal/ext"
	"github.com/hydrostats/tsfit/internal/opt/charts"
)

// Name is the extension name this backend registers under.
const Name = "gplot"

const capability = "gonum.org/v1/plot"

// Register attaches the backend to the process-wide registry.
func Register() error { return RegisterWith(ext.Default()) }

// RegisterWith attaches the backend to a specific registry.
func RegisterWith(r *ext.Registry) error {
	return r.Register(ext.Descriptor{
		Name:       Name,
		Capability: capability,
		Hint:       "go get " + capability,
		Probe:      probe,
		Factory:    factory,
	})
}

// probe verifies canvas construction and font loading. plot.New panics
// when the default font cannot be initialized; that is reported as an
// unavailable capability, not propagated.
func probe() (a ext.Availability) {
	defer func() {
		if r := recover(); r != nil {
			a = ext.Unavailable(fmt.Sprintf("canvas init failed: %v", r))
		}
	}()
	p := plot.New()
	if _, err := p.WriterTo(vg.Points(10), vg.Points(10), "png"); err != nil {
		return ext.Unavailable(fmt.Sprintf("render check failed: %v", err))
	}
	return ext.Available()
}

func factory(host any) (ext.Namespace, error) {
	fm, err := charts.AsFittedModel(Name, host)
	if err != nil {
		return nil, err
	}
	return &namespace{m: fm}, nil
}

type namespace struct {
	m charts.FittedModel
}

// singleFigure renders one plot in the requested format.
type singleFigure struct {
	p      *plot.Plot
	width  vg.Length
	height vg.Length
	format string
}

func (f *singleFigure) Backend() string { return Name }

func (f *singleFigure) Render(w io.Writer) error {
	wt, err := f.p.WriterTo(f.width, f.height, f.format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// tiledFigure renders stacked plots onto one PNG canvas.
type tiledFigure struct {
	plots  []*plot.Plot
	width  vg.Length
	height vg.Length // per panel
}

func (f *tiledFigure) Backend() string { return Name }

func (f *tiledFigure) Render(w io.Writer) error {
	rows := len(f.plots)
	img := vgimg.New(f.width, f.height*vg.Length(rows))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows,
		Cols: 1,
		PadY: vg.Millimeter * 2,
	}

	grid := make([][]*plot.Plot, rows)
	for i, p := range f.plots {
		grid[i] = []*plot.Plot{p}
	}
	canvases := plot.Align(grid, tiles, dc)
	for i, p := range f.plots {
		p.Draw(canvases[i][0])
	}

	png := vgimg.PngCanvas{Canvas: img}
	_, err := png.WriteTo(w)
	return err
}

// Plot renders observed vs simulated series.
func (n *namespace) Plot(o ext.Options) (ext.Figure, error) {
	sim, err := n.m.Simulated()
	if err != nil {
		return nil, err
	}
	obs := n.m.Observed()

	p, err := n.fitPlot(charts.TitleOrDefault(o.Title, n.m.Name()), obs, sim)
	if err != nil {
		return nil, err
	}
	w, h := sizeOf(o)
	return &singleFigure{p: p, width: w, height: h, format: formatOf(o)}, nil
}

// Results renders the fit report: simulation, parameters, residuals.
func (n *namespace) Results(o ext.Options) (ext.Figure, error) {
	sim, err := n.m.Simulated()
	if err != nil {
		return nil, err
	}
	res, err := n.m.Residuals()
	if err != nil {
		return nil, err
	}
	params, err := n.m.Parameters()
	if err != nil {
		return nil, err
	}
	metrics, err := n.m.Metrics()
	if err != nil {
		return nil, err
	}
	obs := n.m.Observed()

	fit, err := n.fitPlot(charts.TitleOrDefault(o.Title, n.m.Name()+" fit"), obs, sim)
	if err != nil {
		return nil, err
	}
	fit.Title.Text += "\n" + charts.FitSubtitle(metrics)

	paramPlot := plot.New()
	paramPlot.Title.Text = "parameters"
	values := make(plotter.Values, len(params))
	names := make([]string, len(params))
	for i, p := range params {
		values[i] = p.Value
		names[i] = p.Name
	}
	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, err
	}
	paramPlot.Add(bars)
	paramPlot.NominalX(names...)

	resPlot, err := n.residualPlot(res)
	if err != nil {
		return nil, err
	}

	w, h := sizeOf(o)
	return &tiledFigure{plots: []*plot.Plot{fit, paramPlot, resPlot}, width: w, height: h}, nil
}

// Diagnostics renders residual trace, autocorrelation and distribution.
func (n *namespace) Diagnostics(o ext.Options) (ext.Figure, error) {
	res, err := n.m.Residuals()
	if err != nil {
		return nil, err
	}

	trace, err := n.residualPlot(res)
	if err != nil {
		return nil, err
	}
	trace.Title.Text = charts.TitleOrDefault(o.Title, n.m.Name()+" residual diagnostics")

	acf := series.ACF(res.V, charts.DiagnosticLags)
	acfPlot := plot.New()
	acfPlot.Title.Text = "autocorrelation"
	acfPlot.X.Label.Text = "lag"
	acfBars, err := plotter.NewBarChart(plotter.Values(acf), vg.Points(8))
	if err != nil {
		return nil, err
	}
	acfPlot.Add(acfBars)
	acfPlot.NominalX(charts.LagLabels(len(acf) - 1)...)

	distPlot := plot.New()
	distPlot.Title.Text = "residual distribution"
	hist, err := plotter.NewHist(plotter.Values(res.V), charts.HistogramBins)
	if err != nil {
		return nil, err
	}
	hist.Normalize(1)
	distPlot.Add(hist)

	mu := stat.Mean(res.V, nil)
	sigma := stat.StdDev(res.V, nil)
	normal := plotter.NewFunction(func(x float64) float64 {
		return series.NormalPDF(mu, sigma, []float64{x})[0]
	})
	distPlot.Add(normal)

	w, h := sizeOf(o)
	return &tiledFigure{plots: []*plot.Plot{trace, acfPlot, distPlot}, width: w, height: h}, nil
}

func (n *namespace) fitPlot(title string, obs, sim *series.Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Legend.Top = true

	err := plotutil.AddLines(p,
		"observed", timeXYs(obs),
		"simulated", timeXYs(sim),
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (n *namespace) residualPlot(res *series.Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "residuals"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	if err := plotutil.AddLines(p, "residuals", timeXYs(res)); err != nil {
		return nil, err
	}
	return p, nil
}

func timeXYs(s *series.Series) plotter.XYs {
	xys := make(plotter.XYs, s.Len())
	for i := range xys {
		xys[i].X = float64(s.T[i].Unix())
		xys[i].Y = s.V[i]
	}
	return xys
}

func sizeOf(o ext.Options) (vg.Length, vg.Length) {
	width := o.Width
	if width <= 0 {
		width = charts.DefaultWidth
	}
	height := o.Height
	if height <= 0 {
		height = charts.DefaultHeight
	}
	// treat option pixels as CSS pixels at 96 dpi
	return vg.Length(width) * vg.Inch / 96, vg.Length(height) * vg.Inch / 96
}

func formatOf(o ext.Options) string {
	if o.Format != "" {
		return o.Format
	}
	return "png"
}
