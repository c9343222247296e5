package gplot

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

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

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
		if i%5 == 0 {
			rain[i] = 8
		}
		level = 0.85*level + rain[i]
		obsV[i] = 2 + 0.4*level
	}

	obs, err := series.New("head", ts, obsV)
	require.NoError(t, err)
	stress, err := series.New("rain", ts, rain)
	require.NoError(t, err)

	m, err := model.New(obs, model.WithName("well-2"), model.WithRegistry(reg))
	require.NoError(t, err)
	require.NoError(t, m.AddStress("rain", stress))
	require.NoError(t, m.Fit(context.Background()))
	return m
}

func TestProbe_Available(t *testing.T) {
	assert.True(t, probe().OK)
}

func TestPlot_RendersPNG(t *testing.T) {
	reg := ext.NewRegistry()
	require.NoError(t, RegisterWith(reg))
	m := fittedModel(t, reg)

	ns, err := m.Extension(Name)
	require.NoError(t, err)

	fig, err := ns.Plot(ext.Options{Width: 640, Height: 360})
	require.NoError(t, err)
	assert.Equal(t, Name, fig.Backend())

	var buf bytes.Buffer
	require.NoError(t, fig.Render(&buf))
	require.Greater(t, buf.Len(), len(pngMagic))
	assert.Equal(t, pngMagic, buf.Bytes()[:len(pngMagic)])
}

func TestPlot_SVGFormat(t *testing.T) {
	reg := ext.NewRegistry()
	require.NoError(t, RegisterWith(reg))
	m := fittedModel(t, reg)

	ns, err := m.Extension(Name)
	require.NoError(t, err)

	fig, err := ns.Plot(ext.Options{Format: "svg"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, fig.Render(&buf))
	assert.Contains(t, buf.String(), "<svg")
}

func TestResultsAndDiagnostics_RenderTiledPNG(t *testing.T) {
	reg := ext.NewRegistry()
	require.NoError(t, RegisterWith(reg))
	m := fittedModel(t, reg)

	ns, err := m.Extension(Name)
	require.NoError(t, err)

	for name, render := range map[string]func(ext.Options) (ext.Figure, error){
		"results":     ns.Results,
		"diagnostics": ns.Diagnostics,
	} {
		fig, err := render(ext.Options{})
		require.NoError(t, err, name)

		var buf bytes.Buffer
		require.NoError(t, fig.Render(&buf), name)
		require.Greater(t, buf.Len(), len(pngMagic), name)
		assert.Equal(t, pngMagic, buf.Bytes()[:len(pngMagic)], name)
	}
}

func TestFactory_RejectsForeignHost(t *testing.T) {
	_, err := factory(42)
	assert.Error(t, err)
}
