// Package dispatch turns a resolved route into a response: resolve, bind,
// invoke, serialize. Every failure becomes a structured Response; nothing a
// handler does escapes Dispatch.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-desk/pkg/codec"
	"github.com/joeydtaylor/steeze-desk/pkg/route"
	"github.com/joeydtaylor/steeze-desk/pkg/scheme"
	"github.com/joeydtaylor/steeze-desk/pkg/wire"
)

// Resolver is satisfied by *provider.Provider.
type Resolver interface {
	Resolve(verb route.Verb, path string) (route.Bound, bool)
}

// TypeDecoder is satisfied by *core.Types.
type TypeDecoder interface {
	Decode(name string, data []byte) (any, error)
}

// Transformer is satisfied by *transform.Registry.
type Transformer interface {
	Apply(datatype string, v any, names []string) (any, error)
}

// SchemeChecker is satisfied by *scheme.Registry.
type SchemeChecker interface {
	IsExternal(scheme, domain string) bool
}

// State is the per-request dispatch phase.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateInvoking
	StateResponding
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateInvoking:
		return "invoking"
	case StateResponding:
		return "responding"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Event describes one finished dispatch.
type Event struct {
	Request  *wire.Request
	Route    *route.Route
	Status   int
	Kind     ErrorKind
	Err      error
	Bytes    int
	Duration time.Duration
}

// Observer is notified after every dispatch, on the dispatching goroutine.
type Observer interface {
	Dispatched(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Dispatched(e Event) { f(e) }

type Dispatcher struct {
	resolver   Resolver
	log        *zap.Logger
	timeout    time.Duration
	codecs     *codec.Registry
	types      TypeDecoder
	transforms Transformer
	schemes    SchemeChecker
	observers  []Observer
}

func New(r Resolver, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resolver: r,
		log:      zap.NewNop(),
		codecs:   codec.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Handle implements scheme.Handler.
func (d *Dispatcher) Handle(ctx context.Context, req *wire.Request) *wire.Response {
	return d.Dispatch(ctx, req)
}

// Factory returns a scheme.Factory that serves every (scheme, domain) with d.
func (d *Dispatcher) Factory() scheme.Factory {
	return scheme.FactoryFunc(func(string, string) scheme.Handler { return d })
}

// Dispatch serves one request. It never panics and never returns nil.
func (d *Dispatcher) Dispatch(ctx context.Context, req *wire.Request) *wire.Response {
	start := time.Now()
	if req == nil {
		req = &wire.Request{Method: http.MethodGet, Path: "/"}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var matched *route.Route
	resp, derr := d.serve(ctx, req, &matched)
	if derr != nil {
		resp = errorResponse(derr, req.ID)
		d.logFailure(req, matched, derr)
	}
	if req.ID != "" {
		resp.Header.Set("X-Request-Id", req.ID)
	}
	d.transition(req, StateIdle)

	ev := Event{
		Request:  req,
		Route:    matched,
		Status:   resp.Status,
		Bytes:    len(resp.Body),
		Duration: time.Since(start),
	}
	if derr != nil {
		ev.Kind, ev.Err = derr.Kind, derr
	}
	for _, o := range d.observers {
		d.notify(o, ev)
	}
	return resp
}

// notify shields the response from a panicking observer.
func (d *Dispatcher) notify(o Observer, ev Event) {
	defer func() {
		if v := recover(); v != nil {
			d.log.Error("observer panicked",
				zap.String("request_id", ev.Request.ID),
				zap.Any("panic", v),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	o.Dispatched(ev)
}

func (d *Dispatcher) serve(ctx context.Context, req *wire.Request, matched **route.Route) (*wire.Response, *Error) {
	d.transition(req, StateResolving)
	if d.schemes != nil && req.Scheme != "" && d.schemes.IsExternal(req.Scheme, req.Domain) {
		return nil, errorf(ExternalSchemeError, nil, "%s://%s is handled by the engine", req.Scheme, req.Domain)
	}
	if d.resolver == nil {
		return nil, errorf(ResolutionError, nil, "no routes registered")
	}
	// Methods outside the route verbs (PATCH, HEAD, OPTIONS) can still hit ANY.
	verb, err := route.ParseVerb(req.Method)
	if err != nil {
		verb = route.Verb(strings.ToUpper(strings.TrimSpace(req.Method)))
	}
	b, ok := d.resolver.Resolve(verb, req.Path)
	if !ok {
		return nil, errorf(ResolutionError, nil, "no route for %s %s", verb, req.Path)
	}
	*matched = &b.Route

	args, err := d.bind(req, b)
	if err != nil {
		return nil, classify(err)
	}

	d.transition(req, StateInvoking)
	out, err := d.invoke(ctx, b.Route, args)
	if err != nil {
		return nil, classify(err)
	}

	d.transition(req, StateResponding)
	resp, err := d.serialize(req, b.Route, out)
	if err != nil {
		return nil, errorf(HandlerError, err, "encode response")
	}
	return resp, nil
}

func (d *Dispatcher) transition(req *wire.Request, s State) {
	if ce := d.log.Check(zap.DebugLevel, "dispatch state"); ce != nil {
		ce.Write(zap.String("request_id", req.ID), zap.Stringer("state", s))
	}
}

type result struct {
	out any
	err error
}

// invoke runs the handler with the route or global deadline. With a deadline
// the handler runs on its own goroutine and is abandoned when it fires.
func (d *Dispatcher) invoke(ctx context.Context, r route.Route, args *route.Args) (any, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = d.timeout
	}
	if timeout <= 0 {
		return call(ctx, r.Handler, args)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		out, err := call(ctx, r.Handler, args)
		ch <- result{out: out, err: err}
	}()

	select {
	case res := <-ch:
		return res.out, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errorf(TimeoutError, ctx.Err(), "handler exceeded %s", timeout)
		}
		return nil, errorf(HandlerError, ctx.Err(), "request canceled")
	}
}

type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

func call(ctx context.Context, h route.Handler, args *route.Args) (out any, err error) {
	defer func() {
		if v := recover(); v != nil {
			out, err = nil, &panicError{value: v, stack: debug.Stack()}
		}
	}()
	return h(ctx, args)
}

// serialize encodes a handler result. Codec order: the route's codec, the
// Accept header, then the registry default.
func (d *Dispatcher) serialize(req *wire.Request, r route.Route, out any) (*wire.Response, error) {
	switch v := out.(type) {
	case *wire.Response:
		if v != nil {
			// copy: the handler may hand out a shared response
			cp := *v
			cp.Header = v.Header.Clone()
			if cp.Header == nil {
				cp.Header = http.Header{}
			}
			if cp.Status == 0 {
				cp.Status = http.StatusOK
			}
			return &cp, nil
		}
		out = nil
	case []byte:
		return wire.NewResponse(http.StatusOK, "application/octet-stream", v), nil
	}

	c := d.pickCodec(req, r)
	if out == nil {
		out = map[string]any{}
	}
	body, err := marshal(c, out)
	if err != nil {
		return nil, err
	}
	return wire.NewResponse(http.StatusOK, c.ContentType(), body), nil
}

// marshal recovers panics raised by the result's own marshalers.
func marshal(c codec.Codec, v any) (body []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			body, err = nil, &panicError{value: p, stack: debug.Stack()}
		}
	}()
	return c.Marshal(v)
}

func (d *Dispatcher) pickCodec(req *wire.Request, r route.Route) codec.Codec {
	if r.Codec != "" {
		if c, ok := d.codecs.Get(r.Codec); ok {
			return c
		}
	}
	if accept := req.Header.Get("Accept"); accept != "" {
		if c, ok := d.codecs.ForAccept(accept); ok {
			return c
		}
	}
	return d.codecs.DefaultCodec()
}

func (d *Dispatcher) logFailure(req *wire.Request, matched *route.Route, e *Error) {
	fields := []zap.Field{
		zap.String("request_id", req.ID),
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.String("kind", string(e.Kind)),
		zap.Int("status", e.status()),
	}
	if matched != nil {
		fields = append(fields, zap.String("route", matched.Origin()))
	}
	var pe *panicError
	switch {
	case errors.As(e, &pe):
		d.log.Error("handler panicked", append(fields, zap.Any("panic", pe.value), zap.ByteString("stack", pe.stack))...)
	case e.status() >= 500:
		d.log.Error("dispatch failed", append(fields, zap.Error(e))...)
	default:
		d.log.Debug("dispatch rejected", append(fields, zap.String("reason", strings.TrimSpace(e.Msg)))...)
	}
}
