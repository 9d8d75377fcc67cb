package dispatch

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/joeydtaylor/steeze-desk/pkg/codec"
	"github.com/joeydtaylor/steeze-desk/pkg/route"
	"github.com/joeydtaylor/steeze-desk/pkg/wire"
)

// ErrorKind classifies a per-request failure.
type ErrorKind string

const (
	ResolutionError     ErrorKind = "ResolutionError"
	BindingError        ErrorKind = "BindingError"
	HandlerError        ErrorKind = "HandlerError"
	TimeoutError        ErrorKind = "TimeoutError"
	ExternalSchemeError ErrorKind = "ExternalSchemeError"
)

// Status is the response status a kind maps to.
func (k ErrorKind) Status() int {
	switch k {
	case ResolutionError:
		return http.StatusNotFound
	case BindingError:
		return http.StatusBadRequest
	case TimeoutError:
		return http.StatusGatewayTimeout
	case ExternalSchemeError:
		return http.StatusMisdirectedRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is the only error shape that leaves the dispatcher, and it leaves
// as a Response, never as a Go error.
type Error struct {
	Kind ErrorKind
	// Status overrides Kind.Status() when non-zero.
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) status() int {
	if e.Status != 0 {
		return e.Status
	}
	return e.Kind.Status()
}

func errorf(kind ErrorKind, err error, format string, a ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, a...), Err: err}
}

// classify turns whatever a handler returned into an *Error.
func classify(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	if route.IsInput(err) {
		return &Error{Kind: BindingError, Msg: err.Error(), Err: err}
	}
	var se *route.StatusError
	if errors.As(err, &se) {
		return &Error{Kind: HandlerError, Status: se.Status, Msg: se.Error(), Err: err}
	}
	return &Error{Kind: HandlerError, Msg: err.Error(), Err: err}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Status    int       `json:"status"`
	RequestID string    `json:"request_id,omitempty"`
}

// errorResponse renders e as {"error":{"kind":..,"message":..}}. Always JSON
// so callers can parse failures without content negotiation.
func errorResponse(e *Error, requestID string) *wire.Response {
	status := e.status()
	body, err := codec.JSON.Marshal(errorBody{Error: errorDetail{
		Kind:      e.Kind,
		Message:   e.Msg,
		Status:    status,
		RequestID: requestID,
	}})
	if err != nil {
		return wire.Text(status, e.Msg)
	}
	return wire.NewResponse(status, "application/json", body)
}

// Reject renders a failure for a request that never reached a dispatcher,
// in the same shape Dispatch uses.
func Reject(kind ErrorKind, msg string, req *wire.Request) *wire.Response {
	id := ""
	if req != nil {
		id = req.ID
	}
	return errorResponse(&Error{Kind: kind, Msg: msg}, id)
}
