package scan

import (
	"fmt"
	"strings"

	"github.com/joeydtaylor/steeze-desk/pkg/route"
	"go.uber.org/zap"
)

// TypeChecker reports whether a non-builtin param type is a registered datatype.
type TypeChecker interface {
	Known(typeName string) bool
}

// Result is the fragment produced from one module.
type Result struct {
	Module   string
	Routes   *route.Table
	Warnings []Warning
}

// Skipped counts endpoints left out of Routes.
func (r Result) Skipped() int {
	n := 0
	for _, w := range r.Warnings {
		if w.Skipped() {
			n++
		}
	}
	return n
}

type Scanner struct {
	types         TypeChecker
	skipThreshold int
	log           *zap.Logger
}

type Option func(*Scanner)

// WithTypes enables datatype params resolved by tc.
func WithTypes(tc TypeChecker) Option { return func(s *Scanner) { s.types = tc } }

// WithSkipThreshold makes a scan fatal once more than n endpoints are skipped.
// A negative n disables the check.
func WithSkipThreshold(n int) Option { return func(s *Scanner) { s.skipThreshold = n } }

func WithLogger(l *zap.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.log = l
		}
	}
}

func New(opts ...Option) *Scanner {
	s := &Scanner{skipThreshold: -1, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scan builds the route fragment for m.
func (s *Scanner) Scan(m Module) (Result, error) {
	if m == nil {
		return Result{}, &ScanError{Kind: ErrNilModule, Detail: "module handle is nil"}
	}
	res := Result{Module: m.Name(), Routes: route.NewTable()}

	for _, svc := range m.Services() {
		for _, ep := range svc.Endpoints {
			r, warn, ok := s.endpoint(res.Module, svc, ep)
			if warn != nil {
				res.Warnings = append(res.Warnings, *warn)
				s.log.Warn("scan warning",
					zap.String("module", res.Module),
					zap.String("kind", string(warn.Kind)),
					zap.String("endpoint", svc.Name+"."+ep.Name),
					zap.String("detail", warn.Detail),
				)
			}
			if !ok {
				continue
			}
			if err := res.Routes.Insert(r); err != nil {
				return res, &ScanError{Module: res.Module, Kind: ErrDuplicateRoute, Detail: r.Key().String(), Err: err}
			}
		}
	}

	if s.skipThreshold >= 0 && res.Skipped() > s.skipThreshold {
		return res, &ScanError{
			Module: res.Module,
			Kind:   ErrSkipThreshold,
			Detail: fmt.Sprintf("%d endpoints skipped, threshold %d", res.Skipped(), s.skipThreshold),
		}
	}
	return res, nil
}

// endpoint derives a Route. ok=false means the endpoint is skipped and warn
// says why; a convention-derived path yields a warning with ok=true.
func (s *Scanner) endpoint(module string, svc Service, ep Endpoint) (route.Route, *Warning, bool) {
	warnf := func(kind WarningKind, format string, a ...any) *Warning {
		return &Warning{Kind: kind, Module: module, Service: svc.Name, Endpoint: ep.Name, Detail: fmt.Sprintf(format, a...)}
	}

	if ep.Handler == nil {
		return route.Route{}, warnf(WarnInvalidEndpoint, "no handler bound"), false
	}
	verb, err := route.ParseVerb(string(ep.Verb))
	if err != nil {
		return route.Route{}, warnf(WarnInvalidEndpoint, "%v", err), false
	}

	var warn *Warning
	p := strings.TrimSpace(ep.Path)
	if p == "" {
		if svc.Name == "" || ep.Name == "" {
			return route.Route{}, warnf(WarnInvalidEndpoint, "no path and no names to derive one"), false
		}
		p = ConventionPath(svc.Name, ep.Name)
		warn = warnf(WarnConventionPath, "derived %s", p)
	} else if svc.Prefix != "" {
		p = strings.TrimRight(svc.Prefix, "/") + "/" + strings.TrimLeft(p, "/")
	}
	p = route.NormalizePath(p)

	if w := s.checkParams(p, ep.Params, warnf); w != nil {
		return route.Route{}, w, false
	}

	return route.Route{
		Verb:    verb,
		Path:    p,
		Module:  module,
		Service: svc.Name,
		Name:    ep.Name,
		Params:  append([]route.Param(nil), ep.Params...),
		Handler: ep.Handler,
		Codec:   strings.ToLower(strings.TrimSpace(ep.Codec)),
		Timeout: ep.Timeout,
		Tags:    ep.Tags,
	}, warn, true
}

func (s *Scanner) checkParams(p string, params []route.Param, warnf func(WarningKind, string, ...any) *Warning) *Warning {
	inPath := map[string]bool{}
	for _, n := range route.PathParams(p) {
		inPath[n] = true
	}
	seen := map[string]bool{}
	wholeBody := 0
	for _, prm := range params {
		if !prm.Source.Valid() {
			return warnf(WarnUnsupportedParam, "param %q: unknown source %q", prm.Name, prm.Source)
		}
		if !prm.Type.Builtin() && (s.types == nil || !s.types.Known(string(prm.Type))) {
			return warnf(WarnUnsupportedParam, "param %q: unsupported type %q", prm.Name, prm.Type)
		}
		if prm.Whole() {
			wholeBody++
			if wholeBody > 1 {
				return warnf(WarnUnsupportedParam, "param %q: more than one whole-body param", prm.Name)
			}
		} else if prm.Name == "" {
			return warnf(WarnUnsupportedParam, "unnamed %s param", prm.Source)
		}
		if prm.Name != "" {
			if seen[prm.Name] {
				return warnf(WarnUnsupportedParam, "param %q declared twice", prm.Name)
			}
			seen[prm.Name] = true
		}
		if prm.Source == route.FromPath && !inPath[prm.Name] {
			return warnf(WarnUnsupportedParam, "param %q: no {%s} segment in %s", prm.Name, prm.Name, p)
		}
		if len(prm.Transformers) > 0 && (prm.Source != route.FromBody || prm.Type.Builtin()) {
			return warnf(WarnUnsupportedParam, "param %q: transformers need a datatype body param", prm.Name)
		}
	}
	return nil
}

// ConventionPath derives /<service>/<endpoint>, both lower-cased.
func ConventionPath(service, endpoint string) string {
	return "/" + strings.ToLower(service) + "/" + strings.ToLower(endpoint)
}
