// Package model implements the transfer-function time-series model that
// chart extensions attach to. A model explains an observation series as a
// constant plus the sum of stress series convolved with exponential-decay
// responses; Fit estimates the response parameters.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/hydrostats/tsfit/internal/core/series"
	"github.com/hydrostats/tsfit/internal/ext"
)

// ErrNotFitted is returned by result accessors before a successful Fit.
var ErrNotFitted = errors.New("model is not fitted")

// Parameter is one fitted model parameter.
type Parameter struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Metrics summarizes fit quality.
type Metrics struct {
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
	EVP  float64 `json:"evp"` // explained variance percentage
}

type stressTerm struct {
	name string
	s    *series.Series // aligned to the observation time base

	// fitted
	gain  float64
	decay float64 // response decay constant, in steps
}

type fitState struct {
	params   []Parameter
	sim      *series.Series
	res      *series.Series
	metrics  Metrics
	fittedAt time.Time
}

// Model is the host instance extensions bind to. Construct with New, add
// stresses, Fit, then read results. The model owns its extension binding
// cache; result accessors never mutate fitted state.
type Model struct {
	name     string
	obs      *series.Series
	stresses []*stressTerm

	reg        *ext.Registry
	extensions ext.Cache

	fit *fitState
}

// Option configures a Model at construction time.
type Option func(*Model)

// WithName sets the model name used in reports and figure titles.
func WithName(name string) Option {
	return func(m *Model) { m.name = name }
}

// WithRegistry binds the model to a specific extension registry instead of
// the process-wide default. Used for test isolation.
func WithRegistry(r *ext.Registry) Option {
	return func(m *Model) { m.reg = r }
}

// New builds a model over the given observation series.
func New(obs *series.Series, opts ...Option) (*Model, error) {
	if obs == nil || obs.Len() == 0 {
		return nil, errors.New("model: nil or empty observation series")
	}
	m := &Model{
		name: obs.Name,
		obs:  obs.Clone(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// AddStress attaches a named forcing series. The series is aligned onto
// the observation time base. Adding a stress invalidates a previous fit.
func (m *Model) AddStress(name string, s *series.Series) error {
	if s == nil || s.Len() == 0 {
		return fmt.Errorf("model: stress %q: nil or empty series", name)
	}
	if name == "" {
		name = s.Name
	}
	for _, st := range m.stresses {
		if st.name == name {
			return fmt.Errorf("model: stress %q already added", name)
		}
	}
	m.stresses = append(m.stresses, &stressTerm{
		name: name,
		s:    s.AlignTo(m.obs.T),
	})
	m.fit = nil
	return nil
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Fitted reports whether Fit completed successfully.
func (m *Model) Fitted() bool { return m.fit != nil }

// Observed returns the observation series.
func (m *Model) Observed() *series.Series { return m.obs }

// StressNames returns the attached stress names in insertion order.
func (m *Model) StressNames() []string {
	names := make([]string, len(m.stresses))
	for i, st := range m.stresses {
		names[i] = st.name
	}
	return names
}

// Simulated returns the fitted simulation on the observation time base.
func (m *Model) Simulated() (*series.Series, error) {
	if m.fit == nil {
		return nil, ErrNotFitted
	}
	return m.fit.sim, nil
}

// Residuals returns observed minus simulated.
func (m *Model) Residuals() (*series.Series, error) {
	if m.fit == nil {
		return nil, ErrNotFitted
	}
	return m.fit.res, nil
}

// Parameters returns the fitted parameter table.
func (m *Model) Parameters() ([]Parameter, error) {
	if m.fit == nil {
		return nil, ErrNotFitted
	}
	return m.fit.params, nil
}

// Metrics returns fit quality metrics.
func (m *Model) Metrics() (Metrics, error) {
	if m.fit == nil {
		return Metrics{}, ErrNotFitted
	}
	return m.fit.metrics, nil
}

// FittedAt returns the completion time of the last successful Fit.
func (m *Model) FittedAt() (time.Time, error) {
	if m.fit == nil {
		return time.Time{}, ErrNotFitted
	}
	return m.fit.fittedAt, nil
}

// Extension resolves a registered extension namespace bound to this model.
// The first access per extension constructs the namespace; repeated calls
// return the same object. Registration and unregistration made after the
// model was constructed are honored, since the registry is consulted on
// every call.
func (m *Model) Extension(name string) (ext.Namespace, error) {
	return m.extensions.Resolve(m.registry(), m, name)
}

func (m *Model) registry() *ext.Registry {
	if m.reg != nil {
		return m.reg
	}
	return ext.Default()
}
