// Package prometheus exports romgo operation metrics to Prometheus.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements romgo.MetricsCollector.
type Collector struct {
	latency *prometheus.HistogramVec
	ops     *prometheus.CounterVec
	domains *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
// A nil reg registers with the default registry.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "romgo",
			Name:      "operation_duration_seconds",
			Help:      "Duration of basis builds, loads, reconstructions and projections.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "romgo",
			Name:      "operations_total",
			Help:      "Operations by kind and outcome.",
		}, []string{"op", "status"}),
		domains: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "romgo",
			Name:      "blocks",
			Help:      "Blocks (domains or datasets) handled per successful operation.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}, []string{"op"}),
	}
	for _, m := range []prometheus.Collector{c.latency, c.ops, c.domains} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) record(op string, n int, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.latency.WithLabelValues(op, status).Observe(d.Seconds())
	c.ops.WithLabelValues(op, status).Inc()
	if err == nil {
		c.domains.WithLabelValues(op).Observe(float64(n))
	}
}

// RecordBuild implements romgo.MetricsCollector.
func (c *Collector) RecordBuild(domains int, d time.Duration, err error) {
	c.record("build", domains, d, err)
}

// RecordLoad implements romgo.MetricsCollector.
func (c *Collector) RecordLoad(domains int, d time.Duration, err error) {
	c.record("load", domains, d, err)
}

// RecordReconstruct implements romgo.MetricsCollector.
func (c *Collector) RecordReconstruct(blocks int, d time.Duration, err error) {
	c.record("reconstruct", blocks, d, err)
}

// RecordProject implements romgo.MetricsCollector.
func (c *Collector) RecordProject(datasets int, d time.Duration, err error) {
	c.record("project", datasets, d, err)
}
