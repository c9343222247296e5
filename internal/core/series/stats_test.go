package series

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRMSE(t *testing.T) {
	assert.Equal(t, 0.0, RMSE([]float64{1, 2, 3}, []float64{1, 2, 3}))
	assert.InDelta(t, 1.0, RMSE([]float64{1, 2, 3}, []float64{2, 3, 4}), 1e-12)
	assert.True(t, math.IsNaN(RMSE(nil, nil)))
}

func TestRSquared(t *testing.T) {
	obs := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, RSquared(obs, obs), 1e-12)

	// simulating the mean everywhere explains nothing
	flat := []float64{3, 3, 3, 3, 3}
	assert.InDelta(t, 0.0, RSquared(obs, flat), 1e-12)

	assert.True(t, math.IsNaN(RSquared(flat, obs)), "constant observations have no variance to explain")
}

func TestEVP(t *testing.T) {
	obs := []float64{1, 2, 3, 4, 5}
	zeroRes := []float64{0, 0, 0, 0, 0}
	assert.InDelta(t, 100.0, EVP(obs, zeroRes), 1e-12)

	// residuals as noisy as the signal -> clamped at 0
	assert.Equal(t, 0.0, EVP(obs, []float64{5, 1, 4, 2, 3}))
}

func TestACF(t *testing.T) {
	// alternating series has acf(1) near -1
	x := []float64{1, -1, 1, -1, 1, -1, 1, -1}
	acf := ACF(x, 2)
	assert.InDelta(t, 1.0, acf[0], 1e-12)
	assert.InDelta(t, -0.875, acf[1], 1e-12)

	// constant series: zero autocovariance, all-zero acf
	c := ACF([]float64{2, 2, 2, 2}, 2)
	assert.Equal(t, []float64{0, 0, 0}, c)

	// maxLag clamped to len-1
	assert.Len(t, ACF([]float64{1, 2}, 10), 2)
}

func TestHistogram(t *testing.T) {
	x := []float64{0, 0.1, 0.2, 0.9, 1.0}
	dividers, counts := Histogram(x, 2)
	assert.Len(t, dividers, 3)
	assert.Len(t, counts, 2)
	assert.Equal(t, 5.0, counts[0]+counts[1])
	assert.Equal(t, 3.0, counts[0])

	d, c := Histogram(nil, 3)
	assert.Nil(t, d)
	assert.Nil(t, c)
}

func TestNormalPDF(t *testing.T) {
	ys := NormalPDF(0, 1, []float64{0})
	assert.InDelta(t, 1/math.Sqrt(2*math.Pi), ys[0], 1e-12)

	// non-positive sigma falls back to unit variance rather than NaN
	ys = NormalPDF(0, -1, []float64{0})
	assert.False(t, math.IsNaN(ys[0]))
}
