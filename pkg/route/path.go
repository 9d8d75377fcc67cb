package route

import (
	"path"
	"strings"
)

// NormalizePath returns the canonical path key: leading slash, cleaned, no
// trailing slash, literal segments lower-cased. {param} names keep their case.
func NormalizePath(p string) string {
	p = CleanPath(p)
	if p == "/" {
		return p
	}
	segs := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, s := range segs {
		if !isParamSeg(s) {
			segs[i] = strings.ToLower(s)
		}
	}
	return "/" + strings.Join(segs, "/")
}

// CleanPath is NormalizePath without case folding, used on request paths so
// bound parameter values keep their case.
func CleanPath(p string) string {
	p = strings.TrimSpace(p)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func isParamSeg(s string) bool {
	return len(s) > 2 && strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")
}

// PathParams lists the {name} segments of a templated path in order.
func PathParams(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if isParamSeg(s) {
			out = append(out, s[1:len(s)-1])
		}
	}
	return out
}

// IsTemplate reports whether p contains at least one {param} segment.
func IsTemplate(p string) bool { return len(PathParams(p)) > 0 }

// shape replaces param names with {} so /a/{id} and /a/{name} collide.
func shape(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if isParamSeg(s) {
			segs[i] = "{}"
		}
	}
	return strings.Join(segs, "/")
}

// match binds a cleaned request path against a normalized template. Literal
// segments compare case-insensitively.
func match(tmpl, p string) (map[string]string, bool) {
	ts := strings.Split(tmpl, "/")
	ps := strings.Split(p, "/")
	if len(ts) != len(ps) {
		return nil, false
	}
	var vals map[string]string
	for i, s := range ts {
		if isParamSeg(s) {
			if ps[i] == "" {
				return nil, false
			}
			if vals == nil {
				vals = make(map[string]string)
			}
			vals[s[1:len(s)-1]] = ps[i]
			continue
		}
		if !strings.EqualFold(s, ps[i]) {
			return nil, false
		}
	}
	return vals, true
}

// literals counts non-param segments; higher is more specific.
func literals(p string) int {
	n := 0
	for _, s := range strings.Split(p, "/") {
		if s != "" && !isParamSeg(s) {
			n++
		}
	}
	return n
}
