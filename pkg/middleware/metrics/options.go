package metrics

import "strings"

type Option func(*Collector)

// WithSkipPaths extends the bridge paths that are not counted (default keeps
// only "/metrics").
func WithSkipPaths(paths ...string) Option {
	return func(c *Collector) {
		for _, p := range paths {
			p = strings.TrimSpace(p)
			if p != "" {
				c.skip[p] = struct{}{}
			}
		}
	}
}
