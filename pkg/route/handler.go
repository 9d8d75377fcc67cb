package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/joeydtaylor/steeze-desk/pkg/wire"
)

// Handler is the host-side callable bound to a route. The result is serialized
// by the dispatcher; returning a *wire.Response bypasses serialization.
type Handler func(ctx context.Context, args *Args) (any, error)

// Args carries the bound parameter values of one request.
type Args struct {
	req    *wire.Request
	values map[string]any
	path   map[string]string
}

func NewArgs(req *wire.Request, values map[string]any, pathParams map[string]string) *Args {
	if values == nil {
		values = map[string]any{}
	}
	return &Args{req: req, values: values, path: pathParams}
}

func (a *Args) Request() *wire.Request { return a.req }

func (a *Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

func (a *Args) Value(name string) any { return a.values[name] }

func (a *Args) String(name string) string {
	s, _ := a.values[name].(string)
	return s
}

func (a *Args) Int(name string) int64 {
	n, _ := a.values[name].(int64)
	return n
}

func (a *Args) Float(name string) float64 {
	f, _ := a.values[name].(float64)
	return f
}

func (a *Args) Bool(name string) bool {
	b, _ := a.values[name].(bool)
	return b
}

func (a *Args) UUID(name string) uuid.UUID {
	id, _ := a.values[name].(uuid.UUID)
	return id
}

func (a *Args) Bytes(name string) []byte {
	switch v := a.values[name].(type) {
	case []byte:
		return v
	case json.RawMessage:
		return v
	}
	return nil
}

// Decode unmarshals a json-typed argument into dst.
func (a *Args) Decode(name string, dst any) error {
	raw := a.Bytes(name)
	if raw == nil {
		return fmt.Errorf("argument %q is not json", name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &InputError{Err: fmt.Errorf("argument %q: %w", name, err)}
	}
	return nil
}

// PathParam returns the raw path segment bound to {name}.
func (a *Args) PathParam(name string) string { return a.path[name] }

// InputError marks a handler failure caused by bad input; the dispatcher maps
// it to a 400 instead of a 500.
type InputError struct{ Err error }

func (e *InputError) Error() string { return "invalid input: " + e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// StatusError lets a handler pick the failure status.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string { return e.Err.Error() }
func (e *StatusError) Unwrap() error { return e.Err }

// Errorf builds a StatusError.
func Errorf(status int, format string, a ...any) error {
	return &StatusError{Status: status, Err: fmt.Errorf(format, a...)}
}

// JSON adapts a typed function: the request body is decoded into In.
func JSON[In any, Out any](fn func(ctx context.Context, in In) (Out, error)) Handler {
	return func(ctx context.Context, a *Args) (any, error) {
		var in In
		if a.req != nil && len(a.req.Body) > 0 {
			if err := json.Unmarshal(a.req.Body, &in); err != nil {
				return nil, &InputError{Err: err}
			}
		}
		return fn(ctx, in)
	}
}

// IsInput reports whether err wraps an InputError.
func IsInput(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
