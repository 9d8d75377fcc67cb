// core/handlers.go
package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/joeydtaylor/steeze-desk/pkg/route"
	"github.com/joeydtaylor/steeze-desk/pkg/wire"
)

// InprocHandler is the signature for raw in-process handlers.
// 'in' is the raw request body, 'status' is the status code to send.
type InprocHandler func(ctx context.Context, in []byte) (out []byte, status int, err error)

// Handlers maps the names referenced in manifest.toml to callables.
type Handlers struct {
	mu     sync.RWMutex
	funcs  map[string]route.Handler
	inproc map[string]InprocHandler
}

func NewHandlers() *Handlers {
	return &Handlers{
		funcs:  make(map[string]route.Handler),
		inproc: make(map[string]InprocHandler),
	}
}

// Register makes a route handler available under name.
func (h *Handlers) Register(name string, fn route.Handler) error {
	if name == "" || fn == nil {
		return fmt.Errorf("handler name and func required")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, dup := h.funcs[name]; dup {
		return fmt.Errorf("handler %q already registered", name)
	}
	h.funcs[name] = fn
	return nil
}

// RegisterInproc makes a raw handler available under name.
func (h *Handlers) RegisterInproc(name string, fn InprocHandler) error {
	if name == "" || fn == nil {
		return fmt.Errorf("handler name and func required")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, dup := h.inproc[name]; dup {
		return fmt.Errorf("inproc handler %q already registered", name)
	}
	h.inproc[name] = fn
	return nil
}

// Lookup retrieves a route handler by name.
func (h *Handlers) Lookup(name string) (route.Handler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.funcs[name]
	return fn, ok
}

// LookupInproc retrieves a raw handler by name, adapted to a route.Handler.
func (h *Handlers) LookupInproc(name string) (route.Handler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.inproc[name]
	if !ok {
		return nil, false
	}
	return Inproc(fn), true
}

// Names lists every registered name, sorted.
func (h *Handlers) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.funcs)+len(h.inproc))
	for n := range h.funcs {
		out = append(out, n)
	}
	for n := range h.inproc {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Inproc adapts a raw handler: the body goes in untouched and the output is
// returned as a JSON response with the handler's status.
func Inproc(fn InprocHandler) route.Handler {
	return func(ctx context.Context, a *route.Args) (any, error) {
		var body []byte
		if req := a.Request(); req != nil {
			body = req.Body
		}
		out, status, err := fn(ctx, body)
		if err != nil {
			if status >= 400 {
				return nil, &route.StatusError{Status: status, Err: err}
			}
			return nil, err
		}
		if out == nil {
			out = []byte("{}")
		}
		return wire.NewResponse(statusIf(status, 200), "application/json", out), nil
	}
}

func statusIf(s, def int) int {
	if s == 0 {
		return def
	}
	return s
}

// Default is the process-wide handler registry used by Register and Lookup.
var Default = NewHandlers()

// Register adds fn to Default, panicking on duplicates. Meant for init().
func Register(name string, fn route.Handler) {
	if err := Default.Register(name, fn); err != nil {
		panic(err)
	}
}

// RegisterInproc adds a raw handler to Default, panicking on duplicates.
func RegisterInproc(name string, fn InprocHandler) {
	if err := Default.RegisterInproc(name, fn); err != nil {
		panic(err)
	}
}

// Lookup retrieves a handler from Default.
func Lookup(name string) (route.Handler, bool) { return Default.Lookup(name) }
