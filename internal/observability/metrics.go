package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineCollector bundles the Prometheus metrics emitted by the point-field
// engine: render-loop cost, visible point counts, and the selection query
// life cycle.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	VisiblePoints  prometheus.Gauge
	FrameDuration  prometheus.Histogram
	BufferRebuilds prometheus.Counter
	HoverChanges   prometheus.Counter

	QueriesDispatched *prometheus.CounterVec
	QueriesApplied    prometheus.Counter
	QueriesStale      prometheus.Counter
	QueriesFailed     prometheus.Counter
}

// NewEngineCollector registers the engine metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	visible, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pointfield_visible_points",
		Help: "Current number of points in the render buffer.",
	}), "pointfield_visible_points")
	if err != nil {
		return nil, err
	}

	frames := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pointfield_frame_duration_seconds",
		Help:    "Per-frame engine step cost in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066, 0.1},
	})
	frames, err = registerHistogram(reg, frames, "pointfield_frame_duration_seconds")
	if err != nil {
		return nil, err
	}

	rebuilds, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pointfield_buffer_rebuilds_total",
		Help: "Total point buffer rebuilds triggered by dirty inputs.",
	}), "pointfield_buffer_rebuilds_total")
	if err != nil {
		return nil, err
	}

	hovers, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pointfield_hover_changes_total",
		Help: "Total hover target changes emitted.",
	}), "pointfield_hover_changes_total")
	if err != nil {
		return nil, err
	}

	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pointfield_queries_dispatched_total",
		Help: "Selection queries dispatched to the geometry worker, labeled by geometry kind.",
	}, []string{"kind"})
	dispatched, err = registerCounterVec(reg, dispatched, "pointfield_queries_dispatched_total")
	if err != nil {
		return nil, err
	}

	applied, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pointfield_queries_applied_total",
		Help: "Selection query responses applied to the selection set.",
	}), "pointfield_queries_applied_total")
	if err != nil {
		return nil, err
	}

	stale, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pointfield_queries_stale_total",
		Help: "Selection query responses discarded because their correlation id was superseded.",
	}), "pointfield_queries_stale_total")
	if err != nil {
		return nil, err
	}

	failed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pointfield_queries_failed_total",
		Help: "Selection queries degraded to an empty result because the worker was unavailable.",
	}), "pointfield_queries_failed_total")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:          gatherer,
		VisiblePoints:     visible,
		FrameDuration:     frames,
		BufferRebuilds:    rebuilds,
		HoverChanges:      hovers,
		QueriesDispatched: dispatched,
		QueriesApplied:    applied,
		QueriesStale:      stale,
		QueriesFailed:     failed,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *EngineCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return g, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
