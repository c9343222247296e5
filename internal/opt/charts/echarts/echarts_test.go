package echarts

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrostats/tsfit/internal/core/model"
	"github.com/hydrostats/tsfit/internal/core/series"
	"github.com/hydrostats/tsfit/internal/ext"
)

func fittedModel(t *testing.T, reg *ext.Registry) *model.Model {
	t.Helper()

	n := 80
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	ts := make([]time.Time, n)
	rain := make([]float64, n)
	obsV := make([]float64, n)
	level := 0.0
	for i := range ts {
		ts[i] = start.AddDate(0, 0, i)
		if i%7 == 0 {
			rain[i] = 12
		}
		level = 0.8*level + rain[i]
		obsV[i] = 3 + 0.5*level
	}

	obs, err := series.New("head", ts, obsV)
	require.NoError(t, err)
	stress, err := series.New("rain", ts, rain)
	require.NoError(t, err)

	m, err := model.New(obs, model.WithName("well-1"), model.WithRegistry(reg))
	require.NoError(t, err)
	require.NoError(t, m.AddStress("rain", stress))
	require.NoError(t, m.Fit(context.Background()))
	return m
}

func TestRegisterWith_ProbeAvailable(t *testing.T) {
	reg := ext.NewRegistry()
	require.NoError(t, RegisterWith(reg))
	assert.True(t, reg.IsRegistered(Name))
}

func TestPlot_RendersHTML(t *testing.T) {
	reg := ext.NewRegistry()
	require.NoError(t, RegisterWith(reg))
	m := fittedModel(t, reg)

	ns, err := m.Extension(Name)
	require.NoError(t, err)

	fig, err := ns.Plot(ext.Options{Title: "well-1 head", Width: 800, Height: 400})
	require.NoError(t, err)
	assert.Equal(t, Name, fig.Backend())

	var buf bytes.Buffer
	require.NoError(t, fig.Render(&buf))
	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "observed")
	assert.Contains(t, html, "simulated")
	assert.Contains(t, html, "well-1 head")
	assert.Contains(t, html, "800px")
}

func TestResultsAndDiagnostics_RenderPages(t *testing.T) {
	reg := ext.NewRegistry()
	require.NoError(t, RegisterWith(reg))
	m := fittedModel(t, reg)

	ns, err := m.Extension(Name)
	require.NoError(t, err)

	results, err := ns.Results(ext.Options{})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, results.Render(&buf))
	assert.Contains(t, buf.String(), "parameters")
	assert.Contains(t, buf.String(), "rain_gain")

	diag, err := ns.Diagnostics(ext.Options{})
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, diag.Render(&buf))
	assert.Contains(t, buf.String(), "autocorrelation")
}

func TestPlot_UnfittedModelFails(t *testing.T) {
	reg := ext.NewRegistry()
	require.NoError(t, RegisterWith(reg))

	obs, err := series.New("head",
		[]time.Time{time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
		[]float64{1, 2})
	require.NoError(t, err)
	m, err := model.New(obs, model.WithRegistry(reg))
	require.NoError(t, err)

	ns, err := m.Extension(Name)
	require.NoError(t, err)
	_, err = ns.Plot(ext.Options{})
	assert.ErrorIs(t, err, model.ErrNotFitted)
}

func TestFactory_RejectsForeignHost(t *testing.T) {
	_, err := factory(struct{}{})
	assert.Error(t, err)
}
