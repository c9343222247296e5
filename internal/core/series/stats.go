package series

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// RMSE is the root mean squared error between obs and sim.
func RMSE(obs, sim []float64) float64 {
	n := min(len(obs), len(sim))
	if n == 0 {
		return math.NaN()
	}
	var sse float64
	for i := 0; i < n; i++ {
		d := obs[i] - sim[i]
		sse += d * d
	}
	return math.Sqrt(sse / float64(n))
}

// RSquared is the coefficient of determination of sim against obs.
func RSquared(obs, sim []float64) float64 {
	n := min(len(obs), len(sim))
	if n == 0 {
		return math.NaN()
	}
	mean := stat.Mean(obs[:n], nil)
	var sse, sst float64
	for i := 0; i < n; i++ {
		d := obs[i] - sim[i]
		sse += d * d
		m := obs[i] - mean
		sst += m * m
	}
	if sst == 0 {
		return math.NaN()
	}
	return 1 - sse/sst
}

// EVP is the explained variance percentage, the fit metric hydrologists
// usually report: 100 * (var(obs) - var(res)) / var(obs), clamped at 0.
func EVP(obs, res []float64) float64 {
	vobs := stat.Variance(obs, nil)
	if vobs == 0 {
		return math.NaN()
	}
	vres := stat.Variance(res, nil)
	evp := 100 * (vobs - vres) / vobs
	if evp < 0 {
		return 0
	}
	return evp
}

// ACF computes the autocorrelation function of x for lags 0..maxLag.
// Lag 0 is always 1 for non-constant input.
func ACF(x []float64, maxLag int) []float64 {
	n := len(x)
	if maxLag >= n {
		maxLag = n - 1
	}
	out := make([]float64, maxLag+1)
	if n == 0 {
		return out
	}
	mean := stat.Mean(x, nil)
	var c0 float64
	for _, v := range x {
		d := v - mean
		c0 += d * d
	}
	if c0 == 0 {
		return out
	}
	for lag := 0; lag <= maxLag; lag++ {
		var c float64
		for i := lag; i < n; i++ {
			c += (x[i] - mean) * (x[i-lag] - mean)
		}
		out[lag] = c / c0
	}
	return out
}

// Histogram bins x into the given number of equal-width bins and returns
// the bin dividers (bins+1 values) and counts (bins values).
func Histogram(x []float64, bins int) (dividers, counts []float64) {
	if bins <= 0 || len(x) == 0 {
		return nil, nil
	}
	lo := floats.Min(x)
	hi := floats.Max(x)
	if lo == hi {
		hi = lo + 1
	}
	dividers = make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram requires sorted samples strictly inside the divider range
	dividers[len(dividers)-1] = math.Nextafter(hi, math.Inf(1))
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	counts = stat.Histogram(nil, dividers, sorted, nil)
	return dividers, counts
}

// NormalPDF evaluates the density of N(mu, sigma) at each of xs. Used for
// the residual-distribution overlay in diagnostics panels.
func NormalPDF(mu, sigma float64, xs []float64) []float64 {
	if sigma <= 0 {
		sigma = 1
	}
	dist := distuv.Normal{Mu: mu, Sigma: sigma}
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = dist.Prob(x)
	}
	return out
}
