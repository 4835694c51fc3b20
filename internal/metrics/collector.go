// Package metrics aggregates per-request latencies and outcomes across one
// or more test cycles.
package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector records per-request metrics in a thread-safe manner. Records are
// only read after they reach a terminal state, but repeat cycles and
// reporting may overlap, so the collector still locks.
type Collector struct {
	mu              sync.Mutex
	hist            *hdrhistogram.Histogram
	successes       int64
	failures        int64
	minLatency      time.Duration
	maxLatency      time.Duration
	sumLatency      time.Duration
	failuresByProxy map[string]int64
	cycles          int64
	start           time.Time
}

// Stats represents aggregated metrics.
type Stats struct {
	Total       int64         `json:"total"`
	Successes   int64         `json:"successes"`
	Failures    int64         `json:"failures"`
	Cycles      int64         `json:"cycles"`
	MinLatency  time.Duration `json:"-"`
	MaxLatency  time.Duration `json:"-"`
	MeanLatency time.Duration `json:"-"`
	P50Latency  time.Duration `json:"-"`
	P90Latency  time.Duration `json:"-"`
	P99Latency  time.Duration `json:"-"`
	Duration    time.Duration `json:"-"`

	// JSON-friendly millisecond fields.
	MinLatencyMs    float64          `json:"min_latency_ms"`
	MaxLatencyMs    float64          `json:"max_latency_ms"`
	MeanLatencyMs   float64          `json:"mean_latency_ms"`
	P50LatencyMs    float64          `json:"p50_latency_ms"`
	P90LatencyMs    float64          `json:"p90_latency_ms"`
	P99LatencyMs    float64          `json:"p99_latency_ms"`
	DurationMs      float64          `json:"duration_ms"`
	FailuresByProxy map[string]int64 `json:"failures_by_proxy,omitempty"`
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:            h,
		failuresByProxy: make(map[string]int64),
		start:           time.Now(),
	}
}

// Start marks the beginning of the test run for elapsed-time calculations.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

// RecordRequest records one finished request: its latency, whether it
// failed, and the proxy endpoint it went through.
func (c *Collector) RecordRequest(proxy string, latency time.Duration, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if latency > 0 {
		us := latency.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}
	c.sumLatency += latency

	if c.minLatency == 0 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}

	if failed {
		c.failures++
		if proxy == "" {
			proxy = "(direct)"
		}
		c.failuresByProxy[proxy]++
	} else {
		c.successes++
	}
}

// RecordCycle increments the completed-cycle count.
func (c *Collector) RecordCycle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cycles++
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.successes + c.failures
	stats := Stats{
		Total:      total,
		Successes:  c.successes,
		Failures:   c.failures,
		Cycles:     c.cycles,
		MinLatency: c.minLatency,
		MaxLatency: c.maxLatency,
	}

	if total > 0 {
		stats.MeanLatency = time.Duration(int64(c.sumLatency) / total)
	}

	if c.hist.TotalCount() > 0 {
		stats.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P90Latency = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		stats.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.MinLatencyMs = float64(stats.MinLatency) / float64(time.Millisecond)
	stats.MaxLatencyMs = float64(stats.MaxLatency) / float64(time.Millisecond)
	stats.MeanLatencyMs = float64(stats.MeanLatency) / float64(time.Millisecond)
	stats.P50LatencyMs = float64(stats.P50Latency) / float64(time.Millisecond)
	stats.P90LatencyMs = float64(stats.P90Latency) / float64(time.Millisecond)
	stats.P99LatencyMs = float64(stats.P99Latency) / float64(time.Millisecond)

	stats.Duration = elapsed
	stats.DurationMs = float64(elapsed) / float64(time.Millisecond)

	if len(c.failuresByProxy) > 0 {
		stats.FailuresByProxy = make(map[string]int64, len(c.failuresByProxy))
		for proxy, count := range c.failuresByProxy {
			stats.FailuresByProxy[proxy] = count
		}
	}

	return stats
}

// Elapsed returns the time since Start.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start)
}
