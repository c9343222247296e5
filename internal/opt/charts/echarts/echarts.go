// Package echarts is the interactive chart backend. It wraps
// go-echarts/v2 and attaches to fitted models through the extension
// registry under the name "echarts". Figures render as self-contained
// HTML pages.
package echarts

import (
	"fmt"
	"io"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/hydrostats/tsfit/internal/core/series"
	"github.com/hydrostats/tsfit/internal/ext"
	"github.com/hydrostats/tsfit/internal/opt/charts"
)

// Name is the extension name this backend registers under.
const Name = "echarts"

const capability = "github.com/go-echarts/go-echarts/v2"

// Register attaches the backend to the process-wide registry. Not called
// automatically; users opt in.
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

// probe verifies the chart engine can actually produce output: template
// or asset breakage shows up here, at registration time, instead of at
// the first plot call.
func probe() ext.Availability {
	line := echarts.NewLine()
	line.SetXAxis([]string{"a"}).AddSeries("probe", []opts.LineData{{Value: 1.0}})
	if err := line.Render(io.Discard); err != nil {
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

// namespace binds the backend's operations to one model instance.
type namespace struct {
	m charts.FittedModel
}

type renderer interface {
	Render(w io.Writer) error
}

// figure wraps a go-echarts chart or page.
type figure struct {
	r renderer
}

func (f *figure) Backend() string          { return Name }
func (f *figure) Render(w io.Writer) error { return f.r.Render(w) }

// Plot renders observed vs simulated series as an interactive line chart.
func (n *namespace) Plot(o ext.Options) (ext.Figure, error) {
	sim, err := n.m.Simulated()
	if err != nil {
		return nil, err
	}
	obs := n.m.Observed()

	line := n.newLine(o, charts.TitleOrDefault(o.Title, n.m.Name()), "")
	line.SetXAxis(charts.TimeLabels(obs.T)).
		AddSeries("observed", lineData(obs.V)).
		AddSeries("simulated", lineData(sim.V))
	return &figure{r: line}, nil
}

// Results renders the fit report page: simulation, parameters, residuals.
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

	fit := n.newLine(o, charts.TitleOrDefault(o.Title, n.m.Name()+" fit"), charts.FitSubtitle(metrics))
	fit.SetXAxis(charts.TimeLabels(obs.T)).
		AddSeries("observed", lineData(obs.V)).
		AddSeries("simulated", lineData(sim.V))

	resChart := n.newLine(o, "residuals", "")
	resChart.SetXAxis(charts.TimeLabels(res.T)).
		AddSeries("residuals", lineData(res.V))

	names := make([]string, len(params))
	values := make([]opts.BarData, len(params))
	for i, p := range params {
		names[i] = p.Name
		values[i] = opts.BarData{Value: p.Value}
	}
	paramChart := n.newBar(o, "parameters", "")
	paramChart.SetXAxis(names).AddSeries("value", values)

	page := components.NewPage()
	page.AddCharts(fit, paramChart, resChart)
	return &figure{r: page}, nil
}

// Diagnostics renders residual diagnostic panels: trace, autocorrelation
// and distribution.
func (n *namespace) Diagnostics(o ext.Options) (ext.Figure, error) {
	res, err := n.m.Residuals()
	if err != nil {
		return nil, err
	}

	trace := n.newLine(o, charts.TitleOrDefault(o.Title, n.m.Name()+" residual diagnostics"), "")
	trace.SetXAxis(charts.TimeLabels(res.T)).
		AddSeries("residuals", lineData(res.V))

	acf := series.ACF(res.V, charts.DiagnosticLags)
	acfChart := n.newBar(o, "autocorrelation", "")
	acfChart.SetXAxis(charts.LagLabels(len(acf) - 1)).
		AddSeries("acf", barData(acf))

	dividers, counts := series.Histogram(res.V, charts.HistogramBins)
	histLabels := make([]string, len(counts))
	for i := range counts {
		center := (dividers[i] + dividers[i+1]) / 2
		histLabels[i] = fmt.Sprintf("%.3g", center)
	}
	histChart := n.newBar(o, "residual distribution", "")
	histChart.SetXAxis(histLabels).AddSeries("count", barData(counts))

	page := components.NewPage()
	page.AddCharts(trace, acfChart, histChart)
	return &figure{r: page}, nil
}

func (n *namespace) newLine(o ext.Options, title, subtitle string) *echarts.Line {
	line := echarts.NewLine()
	line.SetGlobalOptions(globalOpts(o, title, subtitle)...)
	return line
}

func (n *namespace) newBar(o ext.Options, title, subtitle string) *echarts.Bar {
	bar := echarts.NewBar()
	bar.SetGlobalOptions(globalOpts(o, title, subtitle)...)
	return bar
}

func globalOpts(o ext.Options, title, subtitle string) []echarts.GlobalOpts {
	width := o.Width
	if width <= 0 {
		width = charts.DefaultWidth
	}
	height := o.Height
	if height <= 0 {
		height = charts.DefaultHeight
	}
	return []echarts.GlobalOpts{
		echarts.WithInitializationOpts(opts.Initialization{
			Width:  fmt.Sprintf("%dpx", width),
			Height: fmt.Sprintf("%dpx", height),
		}),
		echarts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		echarts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	}
}

func lineData(vs []float64) []opts.LineData {
	data := make([]opts.LineData, len(vs))
	for i, v := range vs {
		data[i] = opts.LineData{Value: v}
	}
	return data
}

func barData(vs []float64) []opts.BarData {
	data := make([]opts.BarData, len(vs))
	for i, v := range vs {
		data[i] = opts.BarData{Value: v}
	}
	return data
}
