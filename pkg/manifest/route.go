package manifest

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/joeydtaylor/steeze-desk/pkg/route"
)

// HandlerType enumerates the supported handler kinds.
type HandlerType string

const (
	// HandlerFunc names a route.Handler registered with core.Handlers.
	HandlerFunc HandlerType = "func"
	// HandlerInproc names a raw-bytes core.InprocHandler.
	HandlerInproc HandlerType = "inproc"
)

// Route describes a single service endpoint.
type Route struct {
	Name    string      `toml:"name"`
	Path    string      `toml:"path"`
	Method  string      `toml:"method"`
	Policy  Policy      `toml:"policy"`
	Handler HSpec       `toml:"handler"`
	Params  []ParamSpec `toml:"param"`
	Codec   string      `toml:"codec"`
	Tags    []string    `toml:"tags"`
}

type Policy struct {
	TimeoutMS int `toml:"timeout_ms"`
}

type HSpec struct {
	Type HandlerType `toml:"type"`
	Name string      `toml:"name"`
}

type ParamSpec struct {
	Name         string   `toml:"name"`
	Type         string   `toml:"type"`
	Source       string   `toml:"source"`
	Required     bool     `toml:"required"`
	Default      string   `toml:"default"`
	Transformers []string `toml:"transformers"`
}

// normalize path/method/codec/handler/params
func (r *Route) normalize() error {
	if r.Path != "" {
		if !strings.HasPrefix(r.Path, "/") {
			r.Path = "/" + r.Path
		}
		if r.Path != "/" {
			r.Path = path.Clean(r.Path)
		}
	}
	r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
	if r.Method == "" {
		r.Method = "GET"
	}
	r.Codec = strings.ToLower(strings.TrimSpace(r.Codec))
	if r.Handler.Type == "" {
		r.Handler.Type = HandlerFunc
	}
	if r.Name == "" {
		r.Name = r.Handler.Name
	}
	for i := range r.Params {
		p := &r.Params[i]
		p.Name = strings.TrimSpace(p.Name)
		p.Type = strings.TrimSpace(p.Type)
		if p.Type == "" {
			p.Type = string(route.TypeString)
		}
		p.Source = strings.ToLower(strings.TrimSpace(p.Source))
		if p.Source == "" {
			p.Source = string(route.FromQuery)
		}
	}
	return nil
}

// validate fields that are independent of global state.
func (r *Route) validate() error {
	if r.Path == "" && r.Name == "" {
		return errors.New("path or name is required")
	}
	if _, err := route.ParseVerb(r.Method); err != nil {
		return err
	}
	switch r.Handler.Type {
	case HandlerFunc, HandlerInproc:
		if strings.TrimSpace(r.Handler.Name) == "" {
			return errors.New("handler.name is required")
		}
	default:
		return fmt.Errorf("unknown handler type %q", r.Handler.Type)
	}
	if r.Policy.TimeoutMS < 0 {
		return errors.New("policy.timeout_ms must be >= 0")
	}
	for i, p := range r.Params {
		if !route.ParamSource(p.Source).Valid() {
			return fmt.Errorf("param %d: source %q invalid", i, p.Source)
		}
	}
	return nil
}

// RouteParams converts the declared params into route descriptors.
func (r Route) RouteParams() []route.Param {
	if len(r.Params) == 0 {
		return nil
	}
	out := make([]route.Param, 0, len(r.Params))
	for _, p := range r.Params {
		out = append(out, route.Param{
			Name:         p.Name,
			Type:         route.ParamType(p.Type),
			Source:       route.ParamSource(p.Source),
			Required:     p.Required,
			Default:      p.Default,
			Transformers: append([]string(nil), p.Transformers...),
		})
	}
	return out
}
