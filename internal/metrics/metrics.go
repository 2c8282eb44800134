// Package metrics holds the Prometheus collectors for one engine instance.
//
// Each Collector owns its own registry, so tests and multiple engines in
// one process never collide on registration.
package metrics

import (
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/fluxsocial/socialdna/internal/errs"
)

// Namespace prefixes every metric name.
const Namespace = "socialdna"

// OutcomeOK labels a successful operation.
const OutcomeOK = "ok"

// Collector holds all Prometheus metrics for the engine.
//
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	operations       *prometheus.CounterVec
	admissionDenied  *prometheus.CounterVec
	traversalVisited prometheus.Histogram
	frontierSize     prometheus.Histogram
}

// New creates a Collector with a fresh registry.
func New() *Collector {
	registry := prometheus.NewRegistry()

	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Engine operations by component, operation and outcome",
		},
		[]string{"component", "op", "outcome"},
	)

	admissionDenied := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "admission_denied_total",
			Help:      "Link creations rejected by admission control",
		},
		[]string{"reason"},
	)

	frontierSize := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "traversal_frontier_size",
			Help:      "Size of the final frontier returned by n-th level traversals",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	traversalVisited := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "traversal_visited_nodes",
			Help:      "Identities visited by one n-th level traversal",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	registry.MustRegister(operations, admissionDenied, frontierSize, traversalVisited)

	return &Collector{
		registry:         registry,
		operations:       operations,
		admissionDenied:  admissionDenied,
		traversalVisited: traversalVisited,
		frontierSize:     frontierSize,
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Observe counts one operation with its outcome derived from err.
func (c *Collector) Observe(component, op string, err error) {
	if c == nil {
		return
	}
	c.operations.WithLabelValues(component, op, Outcome(err)).Inc()
}

// AdmissionDenied counts one admission rejection.
func (c *Collector) AdmissionDenied(reason string) {
	if c == nil {
		return
	}
	c.admissionDenied.WithLabelValues(reason).Inc()
}

// Traversal records the result size and visited count of one traversal.
func (c *Collector) Traversal(frontier, visited int) {
	if c == nil {
		return
	}
	c.frontierSize.Observe(float64(frontier))
	c.traversalVisited.Observe(float64(visited))
}

// WriteText writes every metric in the Prometheus text exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	if c == nil {
		return nil
	}
	families, err := c.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// Outcome maps err to a low-cardinality label value.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if code := errs.CodeOf(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}
