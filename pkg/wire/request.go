// pkg/wire/request.go
package wire

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Request is one inbound call delivered by the engine's protocol callback.
type Request struct {
	ID     string
	Scheme string
	Domain string
	Method string
	Path   string
	Query  Query
	Header http.Header
	Body   []byte
}

// NewRequest splits rawURL into scheme, domain, path and query.
func NewRequest(method, rawURL string, header http.Header, body []byte) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if header == nil {
		header = http.Header{}
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	return &Request{
		ID:     uuid.NewString(),
		Scheme: strings.ToLower(u.Scheme),
		Domain: strings.ToLower(u.Hostname()),
		Method: normalizeMethod(method),
		Path:   p,
		Query:  FromValues(u.Query()),
		Header: header,
		Body:   body,
	}, nil
}

// URL rebuilds the request target, mostly for logs.
func (r *Request) URL() string {
	u := url.URL{Scheme: r.Scheme, Host: r.Domain, Path: r.Path}
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}
	return u.String()
}

func normalizeMethod(m string) string {
	m = strings.ToUpper(strings.TrimSpace(m))
	if m == "" {
		return http.MethodGet
	}
	return m
}

// Query holds query parameters with lower-cased keys.
type Query map[string][]string

// ParseQuery parses a raw query string; malformed pairs are dropped.
func ParseQuery(raw string) Query {
	v, _ := url.ParseQuery(raw)
	return FromValues(v)
}

func FromValues(v url.Values) Query {
	q := make(Query, len(v))
	for k, vals := range v {
		lk := strings.ToLower(k)
		q[lk] = append(q[lk], vals...)
	}
	return q
}

// Get returns the first value for key, ignoring case.
func (q Query) Get(key string) (string, bool) {
	vals, ok := q[strings.ToLower(key)]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func (q Query) Set(key, value string) {
	q[strings.ToLower(key)] = []string{value}
}

func (q Query) Encode() string {
	return url.Values(q).Encode()
}
