package logger

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-desk/pkg/dispatch"
)

// AccessLog writes one line per dispatched request. It is a dispatch.Observer.
type AccessLog struct {
	log *zap.Logger

	mu        sync.RWMutex
	bodyPaths map[string]struct{}
}

func NewAccessLog(l *zap.Logger) *AccessLog {
	if l == nil {
		l = zap.NewNop()
	}
	return &AccessLog{log: l, bodyPaths: map[string]struct{}{}}
}

func (a *AccessLog) Dispatched(e dispatch.Event) {
	r := e.Request
	fields := []zap.Field{
		zap.String("requestId", r.ID),
		zap.String("scheme", r.Scheme),
		zap.String("domain", r.Domain),
		zap.String("method", r.Method),
		zap.String("uri", r.Path),
		zap.Duration("lat", e.Duration),
		zap.Int("responseSize", e.Bytes),
		zap.Int("status", e.Status),
	}
	if e.Route != nil {
		fields = append(fields, zap.String("route", e.Route.Origin()))
	}
	if e.Kind != "" {
		fields = append(fields, zap.String("errorKind", string(e.Kind)))
	}
	// Redact by default; allowlist small JSON bodies only.
	if a.shouldLogBody(r) {
		fields = append(fields, zap.ByteString("requestData", r.Body))
	}
	a.log.Info("access", append(fields, zap.String("dateTime", time.Now().UTC().Format(time.RFC1123)))...)
}
