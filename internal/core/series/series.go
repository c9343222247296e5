// Package series holds the time-indexed numeric series the model and the
// chart backends work with: equal-length time/value slices, CSV io and
// the summary statistics used for fit reports and diagnostics.
package series

import (
	"fmt"
	"sort"
	"time"
)

// Series is a named, time-indexed numeric series. T and V always have the
// same length and T is strictly increasing.
type Series struct {
	Name string
	T    []time.Time
	V    []float64
}

// New validates and builds a series. Timestamps must be strictly
// increasing and match the value count.
func New(name string, t []time.Time, v []float64) (*Series, error) {
	if len(t) != len(v) {
		return nil, fmt.Errorf("series %q: %d timestamps vs %d values", name, len(t), len(v))
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("series %q: empty", name)
	}
	for i := 1; i < len(t); i++ {
		if !t[i].After(t[i-1]) {
			return nil, fmt.Errorf("series %q: timestamps not strictly increasing at index %d", name, i)
		}
	}
	return &Series{Name: name, T: t, V: v}, nil
}

func (s *Series) Len() int { return len(s.T) }

// Clone returns a deep copy.
func (s *Series) Clone() *Series {
	t := make([]time.Time, len(s.T))
	v := make([]float64, len(s.V))
	copy(t, s.T)
	copy(v, s.V)
	return &Series{Name: s.Name, T: t, V: v}
}

// Step returns the dominant sampling interval (the median of consecutive
// differences). Zero for single-point series.
func (s *Series) Step() time.Duration {
	if s.Len() < 2 {
		return 0
	}
	diffs := make([]time.Duration, 0, s.Len()-1)
	for i := 1; i < s.Len(); i++ {
		diffs = append(diffs, s.T[i].Sub(s.T[i-1]))
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i] < diffs[j] })
	return diffs[len(diffs)/2]
}

// AlignTo resamples s onto the given time base. Exact timestamp matches
// take the observed value; base points with no match get zero. Used to
// put stress series on the observation grid before convolution.
func (s *Series) AlignTo(base []time.Time) *Series {
	byTime := make(map[int64]float64, s.Len())
	for i, ts := range s.T {
		byTime[ts.Unix()] = s.V[i]
	}
	t := make([]time.Time, len(base))
	v := make([]float64, len(base))
	copy(t, base)
	for i, ts := range base {
		if val, ok := byTime[ts.Unix()]; ok {
			v[i] = val
		}
	}
	return &Series{Name: s.Name, T: t, V: v}
}
