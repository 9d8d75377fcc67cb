package metrics

import (
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Collect produces the bridge middleware that counts HTTP requests.
func (c *Collector) Collect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			if _, skip := c.skip[r.URL.Path]; skip {
				return
			}
			c.bridgeRequests.WithLabelValues(strconv.Itoa(ww.Status()), r.Method).Inc()
		}()
		next.ServeHTTP(ww, r)
	})
}
