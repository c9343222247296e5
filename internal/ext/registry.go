package ext

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
)

// Registry is a table of registered extensions. It is safe for concurrent
// use. The zero value is not usable; use NewRegistry.
type Registry struct {
	mu    sync.RWMutex
	table map[string]*Descriptor
}

func NewRegistry() *Registry {
	return &Registry{
		table: make(map[string]*Descriptor),
	}
}

// Register validates the descriptor, runs its dependency probe and stores
// it. On a failed probe it returns *MissingDependencyError and leaves the
// registry unchanged. Registering an already-known name overwrites the
// previous descriptor; bindings cached on host instances are invalidated
// on their next access.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return errors.New("ext: register: empty extension name")
	}
	if d.Factory == nil {
		return errors.New("ext: register: nil factory")
	}

	// Probe before taking the lock: a failed registration must not touch
	// the table, and probes are read-only.
	if d.Probe != nil {
		if avail := d.Probe(); !avail.OK {
			return &MissingDependencyError{
				Name:       d.Name,
				Capability: d.Capability,
				Reason:     avail.Reason,
				Hint:       d.Hint,
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.table[d.Name]; exists {
		slog.Debug("overwriting extension registration", slog.String("name", d.Name))
	}
	dd := d
	r.table[d.Name] = &dd
	slog.Debug("registered extension",
		slog.String("name", d.Name),
		slog.String("capability", d.Capability),
	)
	return nil
}

// Unregister removes a registration. Host instances lose access on their
// next lookup, cached bindings included.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.table[name]; !exists {
		return &NotRegisteredError{Name: name}
	}
	delete(r.table, name)
	slog.Debug("unregistered extension", slog.String("name", name))
	return nil
}

// IsRegistered reports whether name has an active registration.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.table[name]
	return ok
}

// Names returns the registered extension names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.table))
	for name := range r.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset clears the registry. Intended for test isolation.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table = make(map[string]*Descriptor)
}

func (r *Registry) lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.table[name]
	return d, ok
}

// defaultRegistry is the process-wide registry. Empty at process start;
// populated only by explicit registration calls.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register registers d in the default registry.
func Register(d Descriptor) error { return defaultRegistry.Register(d) }

// Unregister removes name from the default registry.
func Unregister(name string) error { return defaultRegistry.Unregister(name) }

// IsRegistered reports whether name is registered in the default registry.
func IsRegistered(name string) bool { return defaultRegistry.IsRegistered(name) }

// Reset clears the default registry. Intended for test isolation.
func Reset() { defaultRegistry.Reset() }
