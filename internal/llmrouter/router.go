// Package llmrouter dispatches engine-name strings to backend
// implementations. llmannotate uses it so the pipeline can select an LLM
// provider by name without a type switch per call site; the STT, aligner
// and phoneme clients are injected as interfaces and do not use it.
package llmrouter

import "fmt"

// Router is a generic backend dispatcher mapping engine names to backend
// implementations, with O(1) lookup and a configurable fallback.
type Router[T any] struct {
	backends map[string]T
	fallback string
}

// New creates a router with the given backends and a fallback engine name
// used when the requested engine is not registered.
func New[T any](backends map[string]T, fallback string) *Router[T] {
	return &Router[T]{backends: backends, fallback: fallback}
}

// Route returns the backend for the given engine name, falling back to the
// router's default when engine is unregistered or empty.
func (r *Router[T]) Route(engine string) (T, error) {
	if engine != "" {
		if backend, ok := r.backends[engine]; ok {
			return backend, nil
		}
	}
	if backend, ok := r.backends[r.fallback]; ok {
		return backend, nil
	}
	var zero T
	return zero, fmt.Errorf("no backend registered for engine %q (fallback %q also unregistered)", engine, r.fallback)
}

// Has reports whether the router has a backend registered for engine.
func (r *Router[T]) Has(engine string) bool {
	_, ok := r.backends[engine]
	return ok
}

// Engines returns the names of all registered backends, unordered.
func (r *Router[T]) Engines() []string {
	names := make([]string, 0, len(r.backends))
	for k := range r.backends {
		names = append(names, k)
	}
	return names
}

// Fallback returns the router's configured fallback engine name.
func (r *Router[T]) Fallback() string { return r.fallback }
