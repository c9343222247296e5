package ext

import "io"

// Namespace is a set of chart operations bound to one host instance.
// All operations read the host's fitted state and never mutate it; every
// call produces a fresh figure.
type Namespace interface {
	// Plot renders observed vs simulated series.
	Plot(o Options) (Figure, error)
	// Results renders a multi-panel fit report (simulation, parameters, residuals).
	Results(o Options) (Figure, error)
	// Diagnostics renders residual diagnostic panels (autocorrelation, distribution).
	Diagnostics(o Options) (Figure, error)
}

// Figure is a rendered chart that can be written out in the backend's
// native format (HTML, PNG, ...).
type Figure interface {
	// Backend returns the name of the backend that produced the figure.
	Backend() string
	// Render writes the figure to w.
	Render(w io.Writer) error
}

// Options are optional rendering parameters. Zero values fall back to
// backend defaults.
type Options struct {
	Title  string
	Width  int // pixels
	Height int // pixels
	Format string // backend-specific, e.g. "png" or "svg" for image backends
}

// Factory builds a namespace bound to the given host instance. The
// registry treats the host as opaque; factories assert the interface
// they actually need.
type Factory func(host any) (Namespace, error)

// Descriptor describes one registrable extension.
type Descriptor struct {
	// Name is the extension name used for lookups. Unique per registry;
	// re-registering a name overwrites the previous descriptor.
	Name string
	// Capability identifies the optional dependency the extension wraps
	// (e.g. the backing chart package).
	Capability string
	// Hint is the remediation text included in MissingDependencyError.
	Hint string
	// Probe checks the capability. A nil probe means the capability is
	// compiled in and always available.
	Probe ProbeFunc
	// Factory builds namespaces for host instances.
	Factory Factory
}
