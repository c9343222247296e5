package ext

import "sync"

type binding struct {
	desc *Descriptor
	ns   Namespace
}

// Cache is the per-host-instance binding table. Each host carries one;
// the zero value is ready to use. A binding survives for the life of the
// host unless the extension is re-registered (new descriptor, stale
// binding is rebuilt) or unregistered (lookup fails).
type Cache struct {
	mu    sync.Mutex
	bound map[string]binding
}

// Resolve returns the namespace for name, constructing and caching it on
// first access. Lookups against r happen at call time, so registrations
// made after the host was constructed are visible, and unregistered names
// fail even when a binding was cached earlier.
func (c *Cache) Resolve(r *Registry, host any, name string) (Namespace, error) {
	desc, ok := r.lookup(name)
	if !ok {
		return nil, &UnknownExtensionError{Name: name}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.bound[name]; ok && b.desc == desc {
		return b.ns, nil
	}
	ns, err := desc.Factory(host)
	if err != nil {
		return nil, err
	}
	if c.bound == nil {
		c.bound = make(map[string]binding)
	}
	c.bound[name] = binding{desc: desc, ns: ns}
	return ns, nil
}
