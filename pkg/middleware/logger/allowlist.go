package logger

import (
	"net/http"
	"strings"

	"github.com/joeydtaylor/steeze-desk/pkg/wire"
)

// AddBodyLogPaths extends the allowlist of paths whose request bodies are logged.
func (a *AccessLog) AddBodyLogPaths(paths ...string) {
	a.mu.Lock()
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p != "" {
			a.bodyPaths[strings.ToLower(p)] = struct{}{}
		}
	}
	a.mu.Unlock()
}

// Only log small JSON request bodies on allowlisted routes.
func (a *AccessLog) shouldLogBody(r *wire.Request) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return false
	}
	if len(r.Body) == 0 || len(r.Body) > 1<<16 { // 64 KiB cap
		return false
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return false
	}
	a.mu.RLock()
	_, ok := a.bodyPaths[strings.ToLower(r.Path)]
	a.mu.RUnlock()
	return ok
}
