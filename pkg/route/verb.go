package route

import (
	"fmt"
	"strings"
)

// Verb is the HTTP-like method a route answers to.
type Verb string

const (
	GET    Verb = "GET"
	POST   Verb = "POST"
	PUT    Verb = "PUT"
	DELETE Verb = "DELETE"
	ANY    Verb = "ANY"
)

// ParseVerb upper-cases s; empty means GET.
func ParseVerb(s string) (Verb, error) {
	v := Verb(strings.ToUpper(strings.TrimSpace(s)))
	switch v {
	case "":
		return GET, nil
	case GET, POST, PUT, DELETE, ANY:
		return v, nil
	default:
		return "", fmt.Errorf("unsupported verb %q", s)
	}
}
