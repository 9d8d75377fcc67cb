package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joeydtaylor/steeze-desk/pkg/dispatch"
	"github.com/joeydtaylor/steeze-desk/pkg/route"
	"github.com/joeydtaylor/steeze-desk/pkg/scan"
)

// unmatched labels requests that resolved to no route, keeping the route
// label bounded.
const unmatched = "unmatched"

// Collector owns the shell's prometheus collectors.
type Collector struct {
	responseTime      *prometheus.HistogramVec
	totalDispatches   *prometheus.CounterVec
	totalDispatchErrs *prometheus.CounterVec
	scanWarnings      *prometheus.CounterVec
	mergeConflicts    prometheus.Counter
	bridgeRequests    *prometheus.CounterVec

	skip map[string]struct{}
}

// NewCollector registers every collector on reg.
func NewCollector(reg prometheus.Registerer, opts ...Option) (*Collector, error) {
	c := &Collector{
		responseTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispatch_response_time_seconds",
				Help:    "dispatch latency by route.",
				Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"route"},
		),
		totalDispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_dispatches", Help: "dispatched requests by code, verb and route"},
			[]string{"code", "verb", "route"},
		),
		totalDispatchErrs: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_dispatch_errors", Help: "failed dispatches by error kind"},
			[]string{"kind"},
		),
		scanWarnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_scan_warnings", Help: "route scan warnings by module and kind"},
			[]string{"module", "kind"},
		),
		mergeConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "total_route_merge_conflicts", Help: "routes dropped because the key was already registered"},
		),
		bridgeRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_bridge_requests", Help: "http bridge requests by code and method"},
			[]string{"code", "method"},
		),
		skip: map[string]struct{}{"/metrics": {}},
	}
	for _, o := range opts {
		o(c)
	}
	for _, col := range []prometheus.Collector{
		c.responseTime, c.totalDispatches, c.totalDispatchErrs,
		c.scanWarnings, c.mergeConflicts, c.bridgeRequests,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Dispatched implements dispatch.Observer.
func (c *Collector) Dispatched(e dispatch.Event) {
	label := unmatched
	if e.Route != nil {
		label = e.Route.Path
	}
	verb := ""
	if e.Request != nil {
		verb = e.Request.Method
	}
	c.totalDispatches.WithLabelValues(strconv.Itoa(e.Status), verb, label).Inc()
	c.responseTime.WithLabelValues(label).Observe(e.Duration.Seconds())
	if e.Kind != "" {
		c.totalDispatchErrs.WithLabelValues(string(e.Kind)).Inc()
	}
}

// MergeConflict implements provider.ConflictObserver.
func (c *Collector) MergeConflict(route.MergeConflict) { c.mergeConflicts.Inc() }

// ScanWarning counts one scanner warning.
func (c *Collector) ScanWarning(w scan.Warning) {
	c.scanWarnings.WithLabelValues(w.Module, string(w.Kind)).Inc()
}
