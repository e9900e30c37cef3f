// Package handlerregistry tracks the handler factories and static
// URI-to-path mappings a running server dispatches requests against.
package handlerregistry

import "sort"

// Factory builds a handler instance. Handlers are created once, at
// startup, and given a non-owning reference to the relevant ServerConfig
// on every call to Handle rather than at construction time.
type Factory func() interface{}

type entry struct {
	factory Factory
	uriMap  map[string][]string
}

// Registry is an explicit, ordinarily-constructed value rather than a
// package-level singleton: main builds one, registers the handlers into
// it, and resolves from it the handler set the sessions dispatch against;
// the server and its sessions never hold the Registry itself.
type Registry struct {
	entries map[string]*entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// RegisterHandler installs or replaces the factory for name, resetting its
// URI map.
func (r *Registry) RegisterHandler(name string, factory Factory) {
	r.entries[name] = &entry{factory: factory, uriMap: make(map[string][]string)}
}

// RegisterMapping appends relativePath to the ordered path sequence for
// uri under handler name. RegisterHandler must have been called for name
// first.
func (r *Registry) RegisterMapping(name, uri, relativePath string) {
	e, ok := r.entries[name]
	if !ok {
		return
	}
	e.uriMap[uri] = append(e.uriMap[uri], relativePath)
}

// GetFactory returns the factory registered for name, and whether one
// exists.
func (r *Registry) GetFactory(name string) (Factory, bool) {
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.factory, true
}

// GetMap returns the URI-to-paths map registered for name. The returned
// map is a snapshot copy; mutating it does not affect the registry.
func (r *Registry) GetMap(name string) map[string][]string {
	e, ok := r.entries[name]
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(e.uriMap))
	for uri, paths := range e.uriMap {
		cp := make([]string, len(paths))
		copy(cp, paths)
		out[uri] = cp
	}
	return out
}

// GetTypes enumerates every registered handler-type name, sorted for
// deterministic iteration.
func (r *Registry) GetTypes() []string {
	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
