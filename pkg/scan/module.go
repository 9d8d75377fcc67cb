// Package scan turns a module's declared services into a route fragment.
//
// Modules declare their endpoints explicitly through descriptor tables instead
// of being discovered by runtime introspection. Scanning has no side effects:
// the fragment is handed to the provider, which owns merging.
package scan

import (
	"time"

	"github.com/joeydtaylor/steeze-desk/pkg/route"
)

// Module is a loaded code module that exposes services. The host owns it; the
// scanner only borrows it for the duration of a scan.
type Module interface {
	Name() string
	Services() []Service
}

// Service groups endpoints, usually one per controller type.
type Service struct {
	Name string
	// Prefix is prepended to explicit endpoint paths.
	Prefix    string
	Endpoints []Endpoint
}

// Endpoint declares one callable. An empty Path derives one from the service
// and endpoint names; an empty Verb means GET.
type Endpoint struct {
	Name    string
	Path    string
	Verb    route.Verb
	Params  []route.Param
	Handler route.Handler
	Codec   string
	Timeout time.Duration
	Tags    []string
}

// Static is a Module backed by a fixed descriptor table.
type Static struct {
	ModuleName string
	Svcs       []Service
}

func (s Static) Name() string        { return s.ModuleName }
func (s Static) Services() []Service { return s.Svcs }

// NewModule builds a Static module.
func NewModule(name string, services ...Service) Static {
	return Static{ModuleName: name, Svcs: services}
}
