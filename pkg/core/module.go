package core

import (
	"fmt"
	"time"

	manifest "github.com/joeydtaylor/steeze-desk/pkg/manifest"
	"github.com/joeydtaylor/steeze-desk/pkg/route"
	"github.com/joeydtaylor/steeze-desk/pkg/scan"
)

// ManifestModule is a scan.Module declared in a manifest [[module]] block.
type ManifestModule struct {
	spec manifest.ModuleSpec
	svc  scan.Service
}

// NewManifestModule resolves every handler name against h. An unknown name
// fails here, before any route reaches the scanner.
func NewManifestModule(spec manifest.ModuleSpec, h *Handlers) (*ManifestModule, error) {
	if h == nil {
		h = Default
	}
	svc := scan.Service{Name: spec.Service, Prefix: spec.Prefix}
	for _, rt := range spec.Routes {
		fn, err := resolveHandler(rt.Handler, h)
		if err != nil {
			return nil, fmt.Errorf("module %q route %s %s: %w", spec.Name, rt.Method, rt.Path, err)
		}
		svc.Endpoints = append(svc.Endpoints, scan.Endpoint{
			Name:    rt.Name,
			Path:    rt.Path,
			Verb:    route.Verb(rt.Method),
			Params:  rt.RouteParams(),
			Handler: fn,
			Codec:   rt.Codec,
			Timeout: time.Duration(rt.Policy.TimeoutMS) * time.Millisecond,
			Tags:    append([]string(nil), rt.Tags...),
		})
	}
	return &ManifestModule{spec: spec, svc: svc}, nil
}

func resolveHandler(hs manifest.HSpec, h *Handlers) (route.Handler, error) {
	switch hs.Type {
	case manifest.HandlerInproc:
		if fn, ok := h.LookupInproc(hs.Name); ok {
			return fn, nil
		}
	case manifest.HandlerFunc, "":
		if fn, ok := h.Lookup(hs.Name); ok {
			return fn, nil
		}
	default:
		return nil, fmt.Errorf("unknown handler type %q", hs.Type)
	}
	return nil, fmt.Errorf("handler %q not registered", hs.Name)
}

func (m *ManifestModule) Name() string { return m.spec.Name }

func (m *ManifestModule) Services() []scan.Service { return []scan.Service{m.svc} }

// ManifestModules builds one module per [[module]] block.
func ManifestModules(cfg manifest.Config, h *Handlers) ([]scan.Module, error) {
	out := make([]scan.Module, 0, len(cfg.Modules))
	for _, spec := range cfg.Modules {
		m, err := NewManifestModule(spec, h)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
