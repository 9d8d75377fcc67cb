// core/transform/registry.go
package transform

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Transformer runs on concrete T.
type Transformer[T any] func(T) (T, error)

// Registry holds named transformers per datatype namespace.
type Registry struct {
	mu  sync.RWMutex
	reg map[string]map[string]any // datatype -> name -> Transformer[T] (stored as any)
}

func New() *Registry { return &Registry{reg: map[string]map[string]any{}} }

// Register binds a named transformer for a specific datatype namespace.
func Register[T any](r *Registry, datatype, name string, fn Transformer[T]) error {
	if datatype == "" || name == "" || fn == nil {
		return fmt.Errorf("transform: datatype, name, fn required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.reg[datatype]
	if !ok {
		m = make(map[string]any)
		r.reg[datatype] = m
	}
	if _, dup := m[name]; dup {
		return fmt.Errorf("transform: duplicate %s/%s", datatype, name)
	}
	m[name] = fn
	return nil
}

func MustRegister[T any](r *Registry, datatype, name string, fn Transformer[T]) {
	if err := Register(r, datatype, name, fn); err != nil {
		panic(err)
	}
}

// Has reports whether datatype/name is registered.
func (r *Registry) Has(datatype, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.reg[datatype][name]
	return ok
}

// Names lists the transformers registered for datatype, sorted.
func (r *Registry) Names(datatype string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.reg[datatype]))
	for n := range r.reg[datatype] {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Apply runs the named transformers in order on v, which must be the exact T
// (not *T) the transformers accept. Returns the new T as any.
func (r *Registry) Apply(datatype string, v any, names []string) (any, error) {
	if len(names) == 0 {
		return v, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.reg[datatype]
	if !ok {
		return nil, fmt.Errorf("transform: no registry for %q", datatype)
	}
	cur := v
	for _, n := range names {
		raw, ok := m[n]
		if !ok {
			return nil, fmt.Errorf("transform: %q not found in %q", n, datatype)
		}
		fn := reflect.ValueOf(raw)
		in := reflect.ValueOf(cur)
		if !in.IsValid() || in.Type() != fn.Type().In(0) {
			return nil, fmt.Errorf("transform: type mismatch for %q/%q", datatype, n)
		}
		out := fn.Call([]reflect.Value{in})
		if !out[1].IsNil() {
			return nil, fmt.Errorf("transform %q/%q: %w", datatype, n, out[1].Interface().(error))
		}
		cur = out[0].Interface()
	}
	return cur, nil
}
