package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/hydrostats/tsfit/internal/core/series"
)

const (
	// minObservations is the smallest series Fit accepts.
	minObservations = 10
	// decayCandidates is the size of the log-spaced decay search grid.
	decayCandidates = 30
	// kernelCutoff truncates the response kernel once its tail drops
	// below this fraction of the initial value.
	kernelCutoff = 1e-2
	// searchSweeps is the number of coordinate-descent passes over the
	// stress terms.
	searchSweeps = 2
	// refineTolerance stops the golden-section refinement once the decay
	// bracket shrinks below this fraction of its upper bound.
	refineTolerance = 1e-4
	// refineMaxIterations bounds the golden-section refinement.
	refineMaxIterations = 48
)

// Fit estimates the model parameters: for every stress an exponential
// response decay (log-spaced grid scan plus golden-section refinement
// between the best candidate's neighbors, coordinate descent when there
// are several stresses) and, per decay combination, offset and gains by
// linear least squares. ctx cancels the search between grid evaluations.
func (m *Model) Fit(ctx context.Context) error {
	n := m.obs.Len()
	if n < minObservations {
		return fmt.Errorf("model: need at least %d observations, have %d", minObservations, n)
	}
	if len(m.stresses) == 0 {
		return errors.New("model: no stress series attached")
	}
	if n < len(m.stresses)+2 {
		return fmt.Errorf("model: %d observations cannot constrain %d stresses", n, len(m.stresses))
	}

	start := time.Now()
	grid := decayGrid(n)

	// start every term at the middle of the grid
	decays := make([]float64, len(m.stresses))
	for i := range decays {
		decays[i] = grid[len(grid)/2]
	}

	var (
		best    *lsqSolution
		bestErr error
	)
	for sweep := 0; sweep < searchSweeps; sweep++ {
		for i := range m.stresses {
			for _, cand := range grid {
				if err := ctx.Err(); err != nil {
					return err
				}
				trial := append([]float64(nil), decays...)
				trial[i] = cand
				sol, err := m.solveGains(trial)
				if err != nil {
					bestErr = err
					continue
				}
				if best == nil || sol.sse < best.sse {
					best = sol
					decays = trial
				}
			}
			if best == nil {
				continue
			}
			// the grid is a coarse log lattice; refine the decay
			// between the best candidate's neighbors
			gi := nearestGridIndex(grid, decays[i])
			lo := grid[max(gi-1, 0)]
			hi := grid[min(gi+1, len(grid)-1)]
			sol, err := m.refineDecay(ctx, decays, i, lo, hi)
			if err != nil {
				return err
			}
			if sol != nil && sol.sse < best.sse {
				best = sol
				decays = append([]float64(nil), sol.decays...)
			}
		}
	}
	if best == nil {
		return fmt.Errorf("model: least squares failed for every decay candidate: %w", bestErr)
	}

	m.apply(best, start)
	slog.Debug("model fitted",
		slog.String("model", m.name),
		slog.Int("observations", n),
		slog.Int("stresses", len(m.stresses)),
		slog.Float64("rmse", m.fit.metrics.RMSE),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}

type lsqSolution struct {
	decays []float64 // steps, per stress
	offset float64
	gains  []float64
	sim    []float64
	sse    float64
}

// solveGains solves the linear subproblem for fixed decay constants:
// obs ≈ d + Σ_i g_i · (stress_i ⊛ kernel(a_i)).
func (m *Model) solveGains(decays []float64) (*lsqSolution, error) {
	n := m.obs.Len()
	cols := len(m.stresses) + 1

	data := make([]float64, n*cols)
	for row := 0; row < n; row++ {
		data[row*cols] = 1 // offset column
	}
	convs := make([][]float64, len(m.stresses))
	for i, st := range m.stresses {
		conv := convolve(st.s.V, expKernel(decays[i], n))
		convs[i] = conv
		for row := 0; row < n; row++ {
			data[row*cols+i+1] = conv[row]
		}
	}

	a := mat.NewDense(n, cols, data)
	b := mat.NewVecDense(n, append([]float64(nil), m.obs.V...))

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return nil, err
	}

	sol := &lsqSolution{
		decays: append([]float64(nil), decays...),
		offset: x.AtVec(0),
		gains:  make([]float64, len(m.stresses)),
		sim:    make([]float64, n),
	}
	for i := range m.stresses {
		sol.gains[i] = x.AtVec(i + 1)
	}
	for row := 0; row < n; row++ {
		v := sol.offset
		for i := range m.stresses {
			v += sol.gains[i] * convs[i][row]
		}
		sol.sim[row] = v
		d := m.obs.V[row] - v
		sol.sse += d * d
	}
	if math.IsNaN(sol.sse) || math.IsInf(sol.sse, 0) {
		return nil, errors.New("non-finite residual sum")
	}
	return sol, nil
}

func (m *Model) apply(sol *lsqSolution, start time.Time) {
	n := m.obs.Len()
	stepDays := m.obs.Step().Hours() / 24
	if stepDays <= 0 {
		stepDays = 1
	}

	params := []Parameter{{Name: "constant_d", Value: sol.offset}}
	for i, st := range m.stresses {
		st.gain = sol.gains[i]
		st.decay = sol.decays[i]
		params = append(params,
			Parameter{Name: st.name + "_gain", Value: st.gain},
			Parameter{Name: st.name + "_a_days", Value: st.decay * stepDays},
		)
	}

	resV := make([]float64, n)
	for i := range resV {
		resV[i] = m.obs.V[i] - sol.sim[i]
	}

	tBase := make([]time.Time, n)
	copy(tBase, m.obs.T)

	m.fit = &fitState{
		params: params,
		sim: &series.Series{
			Name: "simulation",
			T:    tBase,
			V:    sol.sim,
		},
		res: &series.Series{
			Name: "residuals",
			T:    append([]time.Time(nil), tBase...),
			V:    resV,
		},
		metrics: Metrics{
			RMSE: series.RMSE(m.obs.V, sol.sim),
			R2:   series.RSquared(m.obs.V, sol.sim),
			EVP:  series.EVP(m.obs.V, resV),
		},
		fittedAt: start,
	}
}

// refineDecay narrows the decay of stress i inside [lo, hi] by
// golden-section search on the least-squares residual, holding the other
// decays fixed. Returns the best solution found, or nil when every solve
// in the bracket failed.
func (m *Model) refineDecay(ctx context.Context, decays []float64, i int, lo, hi float64) (*lsqSolution, error) {
	const invPhi = 0.6180339887498949

	var best *lsqSolution
	eval := func(a float64) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		trial := append([]float64(nil), decays...)
		trial[i] = a
		sol, err := m.solveGains(trial)
		if err != nil {
			return math.Inf(1), nil
		}
		if best == nil || sol.sse < best.sse {
			best = sol
		}
		return sol.sse, nil
	}

	a, b := lo, hi
	c := b - (b-a)*invPhi
	d := a + (b-a)*invPhi
	fc, err := eval(c)
	if err != nil {
		return nil, err
	}
	fd, err := eval(d)
	if err != nil {
		return nil, err
	}
	for iter := 0; iter < refineMaxIterations && b-a > refineTolerance*b; iter++ {
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - (b-a)*invPhi
			if fc, err = eval(c); err != nil {
				return nil, err
			}
		} else {
			a, c, fc = c, d, fd
			d = a + (b-a)*invPhi
			if fd, err = eval(d); err != nil {
				return nil, err
			}
		}
	}
	return best, nil
}

// nearestGridIndex locates the grid candidate closest to v.
func nearestGridIndex(grid []float64, v float64) int {
	idx := 0
	for i := 1; i < len(grid); i++ {
		if math.Abs(grid[i]-v) < math.Abs(grid[idx]-v) {
			idx = i
		}
	}
	return idx
}

// decayGrid returns log-spaced decay candidates in steps, from one step up
// to a quarter of the series length.
func decayGrid(n int) []float64 {
	lo := 1.0
	hi := float64(n) / 4
	if hi < 2 {
		hi = 2
	}
	grid := make([]float64, decayCandidates)
	ratio := math.Pow(hi/lo, 1/float64(decayCandidates-1))
	v := lo
	for i := range grid {
		grid[i] = v
		v *= ratio
	}
	return grid
}

// expKernel builds exp(-k/a) for k = 0..K-1, truncated at kernelCutoff or
// maxLen, whichever comes first.
func expKernel(a float64, maxLen int) []float64 {
	if a <= 0 {
		a = 1
	}
	k := int(math.Ceil(-a * math.Log(kernelCutoff)))
	if k < 1 {
		k = 1
	}
	if k > maxLen {
		k = maxLen
	}
	kernel := make([]float64, k)
	for i := range kernel {
		kernel[i] = math.Exp(-float64(i) / a)
	}
	return kernel
}

// convolve computes the causal convolution of x with kernel; samples
// before the series start are treated as zero.
func convolve(x, kernel []float64) []float64 {
	out := make([]float64, len(x))
	for t := range x {
		var v float64
		for k := 0; k < len(kernel) && k <= t; k++ {
			v += kernel[k] * x[t-k]
		}
		out[t] = v
	}
	return out
}
