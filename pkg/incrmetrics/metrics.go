// Package incrmetrics exports Prometheus metrics for an incr graph.
//
// The Collector implements incr.Observer; attach it at graph
// construction:
//
//	col := incrmetrics.New(incrmetrics.WithNamespace("myapp"))
//	g := incr.NewGraph(incr.WithObserver(col))
//
// Expose the metrics with promhttp as usual.
package incrmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/incr-dev/incr/pkg/incr"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "incr").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for compute durations.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the compute-duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "incr",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector is an incr.Observer that exports graph activity as
// Prometheus metrics.
type Collector struct {
	nodesTotal      *prometheus.CounterVec
	writesTotal     prometheus.Counter
	invalidations   prometheus.Counter
	recomputesTotal *prometheus.CounterVec
	computeDuration prometheus.Histogram
	computeErrors   prometheus.Counter
	cacheHits       prometheus.Counter
	validations     prometheus.Counter
	pullDuration    prometheus.Histogram
}

// New creates a collector and registers its metrics.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)
	return &Collector{
		nodesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_created_total",
			Help:        "Total nodes created, by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		writesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "source_writes_total",
			Help:        "Total source writes that changed a value",
			ConstLabels: config.ConstLabels,
		}),

		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "invalidations_total",
			Help:        "Total nodes marked stale by invalidation walks",
			ConstLabels: config.ConstLabels,
		}),

		recomputesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recomputes_total",
			Help:        "Total compute function runs, by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		computeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "compute_duration_seconds",
			Help:        "Compute function duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		computeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "compute_errors_total",
			Help:        "Total compute function failures",
			ConstLabels: config.ConstLabels,
		}),

		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cache_hits_total",
			Help:        "Total derived reads served from the memoized value",
			ConstLabels: config.ConstLabels,
		}),

		validations: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "validations_total",
			Help:        "Total stale nodes cleaned by version checks without recomputing",
			ConstLabels: config.ConstLabels,
		}),

		pullDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pull_duration_seconds",
			Help:        "Top-level pull duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// Observe implements incr.Observer.
func (c *Collector) Observe(e incr.Event) {
	switch ev := e.(type) {
	case incr.NodeCreated:
		c.nodesTotal.WithLabelValues(ev.Kind.String()).Inc()
	case incr.SourceWrite:
		c.writesTotal.Inc()
	case incr.NodeInvalidated:
		c.invalidations.Inc()
	case incr.Recomputed:
		result := "unchanged"
		if ev.Changed {
			result = "changed"
		}
		c.recomputesTotal.WithLabelValues(result).Inc()
		c.computeDuration.Observe(ev.Duration.Seconds())
	case incr.ComputeFailed:
		c.computeErrors.Inc()
	case incr.CacheHit:
		c.cacheHits.Inc()
	case incr.Validated:
		c.validations.Inc()
	case incr.PullFinished:
		c.pullDuration.Observe(ev.Duration.Seconds())
	}
}
