package stats

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/szibis/telemetry-pipeline/internal/record"
)

func span(traceID byte, name string, code record.StatusCode) *record.SpanRecord {
	return &record.SpanRecord{
		TraceID: record.TraceID{traceID},
		SpanID:  record.SpanID{0x01},
		Name:    name,
		Status:  record.Status{Code: code},
	}
}

func TestObserveCountsSpansAndErrors(t *testing.T) {
	c := NewCollector()
	c.Observe(span(1, "checkout", record.StatusUnset))
	c.Observe(span(1, "checkout", record.StatusError))
	c.Observe(span(2, "payment", record.StatusOK))

	spans, errs, traces := c.GlobalStats()
	if spans != 3 {
		t.Errorf("spans = %d, want 3", spans)
	}
	if errs != 1 {
		t.Errorf("errors = %d, want 1", errs)
	}
	if traces != 2 {
		t.Errorf("unique traces = %d, want 2", traces)
	}
}

func TestOperationsSnapshot(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 5; i++ {
		c.Observe(span(byte(i), "checkout", record.StatusUnset))
	}
	c.Observe(span(1, "payment", record.StatusError))

	ops := c.Operations()
	if len(ops) != 2 {
		t.Fatalf("operations = %d, want 2", len(ops))
	}
	if ops[0].Name != "checkout" || ops[0].Spans != 5 {
		t.Errorf("top operation = %+v", ops[0])
	}
	if ops[0].Traces != 5 {
		t.Errorf("checkout traces = %d, want 5", ops[0].Traces)
	}
	if ops[1].Name != "payment" || ops[1].Errors != 1 {
		t.Errorf("second operation = %+v", ops[1])
	}
}

func TestUniqueTraceEstimateAccuracy(t *testing.T) {
	c := NewCollector()
	const n = 10000
	for i := 0; i < n; i++ {
		sr := &record.SpanRecord{Name: "op"}
		copy(sr.TraceID[:], fmt.Sprintf("%016d", i))
		c.Observe(sr)
	}

	_, _, traces := c.GlobalStats()
	// HLL precision 14 has roughly 0.8% standard error; allow 5%.
	if traces < n*95/100 || traces > n*105/100 {
		t.Errorf("unique traces = %d, want within 5%% of %d", traces, n)
	}
}

func TestResetCardinalityKeepsCounters(t *testing.T) {
	c := NewCollector()
	c.Observe(span(1, "checkout", record.StatusUnset))
	c.Observe(span(2, "checkout", record.StatusUnset))

	c.ResetCardinality()

	spans, _, traces := c.GlobalStats()
	if spans != 2 {
		t.Errorf("spans = %d, want 2 (counters survive reset)", spans)
	}
	if traces != 0 {
		t.Errorf("unique traces = %d, want 0 after reset", traces)
	}
	ops := c.Operations()
	if len(ops) != 1 || ops[0].Spans != 2 || ops[0].Traces != 0 {
		t.Errorf("operations = %+v", ops)
	}
}

func TestServeHTTPExposition(t *testing.T) {
	c := NewCollector()
	c.Observe(span(1, "checkout", record.StatusError))

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest("GET", "/stats", nil))

	body := rec.Body.String()
	wantLines := []string{
		"telemetry_pipeline_spans_observed_total 1",
		"telemetry_pipeline_span_errors_total 1",
		"telemetry_pipeline_unique_traces 1",
		"telemetry_pipeline_operations 1",
		`telemetry_pipeline_operation_spans_total{operation="checkout"} 1`,
	}
	for _, want := range wantLines {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q:\n%s", want, body)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
}
