// Package scheme registers custom URL schemes with the handler factories that
// serve them. The registry must be complete before the engine initializes: the
// engine reads it once and does not accept late registrations, so Freeze is
// called by the host right before engine start.
package scheme

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/joeydtaylor/steeze-desk/pkg/wire"
)

// Handler serves one request for a registered scheme.
type Handler interface {
	Handle(ctx context.Context, req *wire.Request) *wire.Response
}

type HandlerFunc func(ctx context.Context, req *wire.Request) *wire.Response

func (f HandlerFunc) Handle(ctx context.Context, req *wire.Request) *wire.Response { return f(ctx, req) }

// Factory creates the handler the engine uses for a (scheme, domain).
type Factory interface {
	Create(scheme, domain string) Handler
}

type FactoryFunc func(scheme, domain string) Handler

func (f FactoryFunc) Create(scheme, domain string) Handler { return f(scheme, domain) }

// Passthrough is the factory for external schemes: it yields no handler, so
// the engine lets the request go to the network.
var Passthrough Factory = FactoryFunc(func(string, string) Handler { return nil })

// Registration binds a factory to a scheme and domain.
type Registration struct {
	Scheme   string
	Domain   string
	Factory  Factory
	External bool
}

func (r Registration) String() string {
	kind := "internal"
	if r.External {
		kind = "external"
	}
	return fmt.Sprintf("%s://%s (%s)", r.Scheme, r.Domain, kind)
}

// ErrFrozen is returned by RegisterScheme after Freeze.
var ErrFrozen = errors.New("scheme: registry is frozen")

// DuplicateSchemeError is fatal at startup.
type DuplicateSchemeError struct {
	Scheme string
	Domain string
}

func (e *DuplicateSchemeError) Error() string {
	return fmt.Sprintf("scheme %s://%s already registered", e.Scheme, e.Domain)
}

type key struct{ scheme, domain string }

type Registry struct {
	mu     sync.RWMutex
	regs   map[key]Registration
	frozen bool
}

func NewRegistry() *Registry {
	return &Registry{regs: make(map[key]Registration)}
}

func mkKey(scheme, domain string) key {
	return key{strings.ToLower(strings.TrimSpace(scheme)), strings.ToLower(strings.TrimSpace(domain))}
}

// RegisterScheme binds factory to (name, domain).
func (r *Registry) RegisterScheme(name, domain string, factory Factory, external bool) error {
	k := mkKey(name, domain)
	if k.scheme == "" {
		return errors.New("scheme: name is required")
	}
	if factory == nil {
		return fmt.Errorf("scheme %s://%s: factory is required", k.scheme, k.domain)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	if _, dup := r.regs[k]; dup {
		return &DuplicateSchemeError{Scheme: k.scheme, Domain: k.domain}
	}
	r.regs[k] = Registration{Scheme: k.scheme, Domain: k.domain, Factory: factory, External: external}
	return nil
}

// RegisterExternal records a scheme that resolves outside the dispatcher.
func (r *Registry) RegisterExternal(name, domain string, factory Factory) error {
	if factory == nil {
		factory = Passthrough
	}
	return r.RegisterScheme(name, domain, factory, true)
}

// GetFactory returns the factory bound to (name, domain).
func (r *Registry) GetFactory(name, domain string) (Factory, bool) {
	reg, ok := r.Get(name, domain)
	return reg.Factory, ok
}

func (r *Registry) Get(name, domain string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regs[mkKey(name, domain)]
	return reg, ok
}

// IsExternal reports whether (name, domain) is registered as external.
func (r *Registry) IsExternal(name, domain string) bool {
	reg, ok := r.Get(name, domain)
	return ok && reg.External
}

// Match finds the registration for a request URL. A registration with an
// empty domain matches any host of its scheme.
func (r *Registry) Match(rawURL string) (Registration, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Registration{}, false
	}
	if reg, ok := r.Get(u.Scheme, u.Hostname()); ok {
		return reg, true
	}
	return r.Get(u.Scheme, "")
}

// Freeze ends registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Registrations returns every registration sorted by scheme then domain.
func (r *Registry) Registrations() []Registration {
	r.mu.RLock()
	out := make([]Registration, 0, len(r.regs))
	for _, reg := range r.regs {
		out = append(out, reg)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scheme != out[j].Scheme {
			return out[i].Scheme < out[j].Scheme
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

func (r *Registry) Internal() []Registration { return r.filter(false) }
func (r *Registry) External() []Registration { return r.filter(true) }

func (r *Registry) filter(external bool) []Registration {
	var out []Registration
	for _, reg := range r.Registrations() {
		if reg.External == external {
			out = append(out, reg)
		}
	}
	return out
}
