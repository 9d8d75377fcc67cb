// Package route holds the route model and the keyed route table the provider
// merges into. A Table is mutated only while modules are being registered and is
// read-only once dispatch starts.
package route

import (
	"fmt"
	"time"
)

// Route is one callable endpoint.
type Route struct {
	Verb    Verb
	Path    string
	Module  string
	Service string
	Name    string
	Params  []Param
	Handler Handler
	// Codec names the response codec; empty means negotiate.
	Codec   string
	Timeout time.Duration
	Tags    []string
}

// Key is the uniqueness key of a route. Template param names are erased so
// /a/{id} and /a/{name} collide.
type Key struct {
	Verb Verb
	Path string
}

func (k Key) String() string { return string(k.Verb) + " " + k.Path }

func (r Route) Key() Key { return Key{Verb: r.Verb, Path: shape(r.Path)} }

// Origin names the owning module and callable for logs and conflict reports.
func (r Route) Origin() string {
	switch {
	case r.Service != "" && r.Name != "":
		return fmt.Sprintf("%s:%s.%s", r.Module, r.Service, r.Name)
	case r.Name != "":
		return fmt.Sprintf("%s:%s", r.Module, r.Name)
	default:
		return r.Module
	}
}

func (r Route) String() string {
	return fmt.Sprintf("%s %s (%s)", r.Verb, r.Path, r.Origin())
}

// Bound is a resolved route plus the path parameter values of one request.
type Bound struct {
	Route      Route
	PathParams map[string]string
}
