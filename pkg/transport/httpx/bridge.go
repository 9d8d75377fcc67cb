package httpx

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-desk/pkg/scheme"
	"github.com/joeydtaylor/steeze-desk/pkg/wire"
)

// MaxBodyBytes caps bridge request bodies.
const MaxBodyBytes = 32 << 20

// Bridge exposes one internal (scheme, domain) as a loopback HTTP service, for
// content that cannot use the custom scheme directly (workers, dev servers).
type Bridge struct {
	scheme  string
	domain  string
	handler scheme.Handler
	log     *zap.Logger
}

func NewBridge(schemeName, domain string, h scheme.Handler, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{scheme: schemeName, domain: domain, handler: h, log: log}
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, err.Error(), status)
		return
	}

	id := chimd.GetReqID(r.Context())
	if id == "" {
		id = uuid.NewString()
	}
	req := &wire.Request{
		ID:     id,
		Scheme: b.scheme,
		Domain: b.domain,
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  wire.FromValues(r.URL.Query()),
		Header: r.Header.Clone(),
		Body:   body,
	}
	resp := b.handler.Handle(r.Context(), req)
	if resp == nil {
		http.Error(w, "no response", http.StatusBadGateway)
		return
	}

	h := w.Header()
	for k, v := range resp.Headers() {
		h[k] = v
	}
	h.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.WriteHeader(resp.Status)
	if _, err := w.Write(resp.Body); err != nil {
		b.log.Debug("bridge write failed", zap.String("request_id", id), zap.Error(err))
	}
}

// NewRouter mounts the bridge behind the standard chi middleware. metrics may
// be nil; extra middleware runs after the built-ins.
func NewRouter(b *Bridge, metrics http.Handler, mw ...func(http.Handler) http.Handler) Router {
	r := NewChi()
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat("/ping"))
	r.Use(mw...)
	if metrics != nil {
		r.Get("/metrics", metrics)
	}
	r.Any("/*", b)
	return r
}
