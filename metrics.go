package romgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems. A
// Prometheus implementation lives in metrics/prometheus.
type MetricsCollector interface {
	// RecordBuild is called after each basis build. domains is the number
	// of blocks written.
	RecordBuild(domains int, duration time.Duration, err error)

	// RecordLoad is called after each basis load.
	RecordLoad(domains int, duration time.Duration, err error)

	// RecordReconstruct is called after each reconstruction. blocks is the
	// number of coefficient files expanded.
	RecordReconstruct(blocks int, duration time.Duration, err error)

	// RecordProject is called after each projection call.
	RecordProject(datasets int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordReconstruct(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordProject(int, time.Duration, error)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	BuildCount            atomic.Int64
	BuildErrors           atomic.Int64
	BuildDomains          atomic.Int64
	BuildTotalNanos       atomic.Int64
	LoadCount             atomic.Int64
	LoadErrors            atomic.Int64
	ReconstructCount      atomic.Int64
	ReconstructErrors     atomic.Int64
	ReconstructBlocks     atomic.Int64
	ReconstructTotalNanos atomic.Int64
	ProjectCount          atomic.Int64
	ProjectErrors         atomic.Int64
	ProjectDatasets       atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(domains int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.BuildDomains.Add(int64(domains))
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(domains int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordReconstruct implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReconstruct(blocks int, duration time.Duration, err error) {
	b.ReconstructCount.Add(1)
	b.ReconstructTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReconstructErrors.Add(1)
		return
	}
	b.ReconstructBlocks.Add(int64(blocks))
}

// RecordProject implements MetricsCollector.
func (b *BasicMetricsCollector) RecordProject(datasets int, duration time.Duration, err error) {
	b.ProjectCount.Add(1)
	if err != nil {
		b.ProjectErrors.Add(1)
		return
	}
	b.ProjectDatasets.Add(int64(datasets))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:          b.BuildCount.Load(),
		BuildErrors:         b.BuildErrors.Load(),
		BuildDomains:        b.BuildDomains.Load(),
		BuildAvgNanos:       avg(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
		LoadCount:           b.LoadCount.Load(),
		LoadErrors:          b.LoadErrors.Load(),
		ReconstructCount:    b.ReconstructCount.Load(),
		ReconstructErrors:   b.ReconstructErrors.Load(),
		ReconstructBlocks:   b.ReconstructBlocks.Load(),
		ReconstructAvgNanos: avg(b.ReconstructTotalNanos.Load(), b.ReconstructCount.Load()),
		ProjectCount:        b.ProjectCount.Load(),
		ProjectErrors:       b.ProjectErrors.Load(),
		ProjectDatasets:     b.ProjectDatasets.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount          int64
	BuildErrors         int64
	BuildDomains        int64
	BuildAvgNanos       int64
	LoadCount           int64
	LoadErrors          int64
	ReconstructCount    int64
	ReconstructErrors   int64
	ReconstructBlocks   int64
	ReconstructAvgNanos int64
	ProjectCount        int64
	ProjectErrors       int64
	ProjectDatasets     int64
}
