// Package stats tracks span flow statistics: volume per operation, unique
// trace cardinality, and first-seen operation names.
package stats

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/axiomhq/hyperloglog"
	"github.com/bits-and-blooms/bloom/v3"
	"github.com/szibis/telemetry-pipeline/internal/logging"
	"github.com/szibis/telemetry-pipeline/internal/record"
)

// expectedOperations sizes the first-seen bloom filter.
const expectedOperations = 100000

// Collector aggregates span statistics. Trace cardinality is estimated with
// HyperLogLog sketches (~12KB each) so memory stays bounded regardless of
// trace volume.
type Collector struct {
	// mu is a full mutex, not RWMutex: Estimate() may mutate sketch
	// internals (sparse to dense promotion), so reads need the write lock.
	mu sync.Mutex

	// Per-operation stats: span name -> opStats
	operations map[string]*opStats

	totalSpans   uint64
	totalErrors  uint64
	uniqueTraces *hyperloglog.Sketch

	// seenNames answers "have we seen this operation before" without
	// keeping every name. A false positive only suppresses a log line.
	seenNames *bloom.BloomFilter
}

type opStats struct {
	spans  uint64
	errors uint64
	traces *hyperloglog.Sketch
}

// OperationStats is a point-in-time snapshot for one span name.
type OperationStats struct {
	Name   string
	Spans  uint64
	Errors uint64
	Traces uint64
}

// NewCollector creates a span stats collector.
func NewCollector() *Collector {
	return &Collector{
		operations:   make(map[string]*opStats),
		uniqueTraces: hyperloglog.New(),
		seenNames:    bloom.NewWithEstimates(expectedOperations, 0.01),
	}
}

// Observe records a finished span.
func (c *Collector) Observe(sr *record.SpanRecord) {
	tid := sr.TraceID

	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalSpans++
	if sr.Status.Code == record.StatusError {
		c.totalErrors++
	}
	c.uniqueTraces.Insert(tid[:])

	os, ok := c.operations[sr.Name]
	if !ok {
		os = &opStats{traces: hyperloglog.New()}
		c.operations[sr.Name] = os
		if !c.seenNames.TestAndAdd([]byte(sr.Name)) {
			logging.Debug("new operation observed", logging.F("operation", sr.Name))
		}
	}
	os.spans++
	if sr.Status.Code == record.StatusError {
		os.errors++
	}
	os.traces.Insert(tid[:])
}

// GlobalStats returns the aggregate counters and trace cardinality estimate.
func (c *Collector) GlobalStats() (spans, errors, uniqueTraces uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalSpans, c.totalErrors, c.uniqueTraces.Estimate()
}

// Operations returns a snapshot of per-operation stats sorted by span count
// descending, ties broken by name.
func (c *Collector) Operations() []OperationStats {
	c.mu.Lock()
	out := make([]OperationStats, 0, len(c.operations))
	for name, os := range c.operations {
		out = append(out, OperationStats{
			Name:   name,
			Spans:  os.spans,
			Errors: os.errors,
			Traces: os.traces.Estimate(),
		})
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Spans != out[j].Spans {
			return out[i].Spans > out[j].Spans
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// StartPeriodicLogging logs global stats every interval until the context is
// cancelled. Cardinality sketches are reset hourly so the estimates stay
// meaningful for long-running processes.
func (c *Collector) StartPeriodicLogging(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	resetTicker := time.NewTicker(time.Hour)
	defer resetTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			spans, errs, traces := c.GlobalStats()
			logging.Info("span stats", logging.F(
				"spans_total", spans,
				"errors_total", errs,
				"unique_traces", traces,
				"operations", c.operationCount(),
			))
		case <-resetTicker.C:
			c.ResetCardinality()
		}
	}
}

func (c *Collector) operationCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.operations)
}

// ResetCardinality clears the trace cardinality sketches while keeping span
// counters intact.
func (c *Collector) ResetCardinality() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uniqueTraces = hyperloglog.New()
	for _, os := range c.operations {
		os.traces = hyperloglog.New()
	}
}

// ServeHTTP exposes the collector state in Prometheus text format.
func (c *Collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	spans, errs, traces := c.GlobalStats()
	ops := c.Operations()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	fmt.Fprintf(w, "# HELP telemetry_pipeline_spans_observed_total Total number of finished spans observed\n")
	fmt.Fprintf(w, "# TYPE telemetry_pipeline_spans_observed_total counter\n")
	fmt.Fprintf(w, "telemetry_pipeline_spans_observed_total %d\n", spans)

	fmt.Fprintf(w, "# HELP telemetry_pipeline_span_errors_total Total number of spans finished with error status\n")
	fmt.Fprintf(w, "# TYPE telemetry_pipeline_span_errors_total counter\n")
	fmt.Fprintf(w, "telemetry_pipeline_span_errors_total %d\n", errs)

	fmt.Fprintf(w, "# HELP telemetry_pipeline_unique_traces Estimated number of distinct trace IDs observed\n")
	fmt.Fprintf(w, "# TYPE telemetry_pipeline_unique_traces gauge\n")
	fmt.Fprintf(w, "telemetry_pipeline_unique_traces %d\n", traces)

	fmt.Fprintf(w, "# HELP telemetry_pipeline_operations Number of distinct operation names observed\n")
	fmt.Fprintf(w, "# TYPE telemetry_pipeline_operations gauge\n")
	fmt.Fprintf(w, "telemetry_pipeline_operations %d\n", len(ops))

	fmt.Fprintf(w, "# HELP telemetry_pipeline_operation_spans_total Spans observed per operation\n")
	fmt.Fprintf(w, "# TYPE telemetry_pipeline_operation_spans_total counter\n")
	for _, op := range ops {
		fmt.Fprintf(w, "telemetry_pipeline_operation_spans_total{operation=%q} %d\n", op.Name, op.Spans)
	}

	fmt.Fprintf(w, "# HELP telemetry_pipeline_operation_traces Estimated distinct traces per operation\n")
	fmt.Fprintf(w, "# TYPE telemetry_pipeline_operation_traces gauge\n")
	for _, op := range ops {
		fmt.Fprintf(w, "telemetry_pipeline_operation_traces{operation=%q} %d\n", op.Name, op.Traces)
	}
}
