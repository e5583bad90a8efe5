package source

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Registry is an immutable, priority-ordered set of adapters.
type Registry struct {
	adapters []Adapter
	byName   map[string]Adapter
}

// NewRegistry orders adapters by ascending priority. Adapters with equal
// priority keep their registration order.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{byName: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if _, ok := r.byName[a.Name()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAdapter, a.Name())
		}
		r.byName[a.Name()] = a
		r.adapters = append(r.adapters, a)
	}
	sort.SliceStable(r.adapters, func(i, j int) bool {
		return r.adapters[i].Priority() < r.adapters[j].Priority()
	})
	return r, nil
}

// Adapters returns the adapters in walk order.
func (r *Registry) Adapters() []Adapter {
	out := make([]Adapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

// Names returns adapter names in walk order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		names[i] = a.Name()
	}
	return names
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int { return len(r.adapters) }

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAdapter, name)
	}
	return a, nil
}

// Restrict returns a registry holding only the named adapters. Walk order is
// still by priority, not by the order of names.
func (r *Registry) Restrict(names ...string) (*Registry, error) {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := r.byName[n]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAdapter, n)
		}
		keep[n] = true
	}
	var subset []Adapter
	for _, a := range r.adapters {
		if keep[a.Name()] {
			subset = append(subset, a)
		}
	}
	return NewRegistry(subset...)
}

// InferFromURL returns the adapter whose hosts match the URL's host.
func (r *Registry) InferFromURL(raw string) (Adapter, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: cannot infer source from %q", ErrUnknownAdapter, raw)
	}
	host := strings.ToLower(u.Hostname())
	for _, a := range r.adapters {
		hm, ok := a.(HostMatcher)
		if !ok {
			continue
		}
		for _, h := range hm.Hosts() {
			h = strings.ToLower(h)
			if host == h || strings.HasSuffix(host, "."+h) {
				return a, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no source serves %s", ErrUnknownAdapter, host)
}
