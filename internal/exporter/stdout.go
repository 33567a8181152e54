package exporter

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/szibis/telemetry-pipeline/internal/record"
)

// StdoutSpanExporter writes one JSON object per span to a writer. Intended
// for debugging and the load generator's dry-run mode.
type StdoutSpanExporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStdoutSpanExporter creates a stdout span exporter.
func NewStdoutSpanExporter(w io.Writer) *StdoutSpanExporter {
	return &StdoutSpanExporter{w: w}
}

type stdoutSpan struct {
	TraceID    string                 `json:"trace_id"`
	SpanID     string                 `json:"span_id"`
	ParentID   string                 `json:"parent_span_id,omitempty"`
	Name       string                 `json:"name"`
	Kind       string                 `json:"kind"`
	StartTime  string                 `json:"start_time"`
	EndTime    string                 `json:"end_time"`
	Status     string                 `json:"status,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	Events     int                    `json:"events,omitempty"`
	Links      int                    `json:"links,omitempty"`
}

// Export writes the batch as JSON lines.
func (e *StdoutSpanExporter) Export(_ context.Context, batch []*record.SpanRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	enc := json.NewEncoder(e.w)
	for _, sr := range batch {
		out := stdoutSpan{
			TraceID:   sr.TraceID.String(),
			SpanID:    sr.SpanID.String(),
			Name:      sr.Name,
			Kind:      sr.Kind.String(),
			StartTime: sr.StartTime.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			EndTime:   sr.EndTime.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		}
		if sr.ParentSpanID.IsValid() {
			out.ParentID = sr.ParentSpanID.String()
		}
		if sr.Status.Code == record.StatusError {
			out.Status = sr.Status.Message
		}
		if sr.Attributes != nil && sr.Attributes.Len() > 0 {
			out.Attributes = make(map[string]interface{}, sr.Attributes.Len())
			for kv := range sr.Attributes.All() {
				out.Attributes[kv.Key] = kv.Value.Any()
			}
		}
		if sr.Events != nil {
			out.Events = sr.Events.Len()
		}
		if sr.Links != nil {
			out.Links = sr.Links.Len()
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown is a no-op for the stdout exporter.
func (e *StdoutSpanExporter) Shutdown(context.Context) error { return nil }

// StdoutLogExporter writes one JSON object per log record to a writer.
// It filters below MinSeverity, implementing the pipeline's severity
// short-circuit.
type StdoutLogExporter struct {
	mu          sync.Mutex
	w           io.Writer
	minSeverity record.Severity
}

// NewStdoutLogExporter creates a stdout log exporter emitting records at or
// above min.
func NewStdoutLogExporter(w io.Writer, min record.Severity) *StdoutLogExporter {
	return &StdoutLogExporter{w: w, minSeverity: min}
}

// Enabled lets the pipeline skip building records below the threshold.
func (e *StdoutLogExporter) Enabled(s record.Severity) bool {
	return s >= e.minSeverity
}

type stdoutLog struct {
	Timestamp  string                 `json:"timestamp"`
	Severity   string                 `json:"severity"`
	Body       interface{}            `json:"body"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	TraceID    string                 `json:"trace_id,omitempty"`
	SpanID     string                 `json:"span_id,omitempty"`
}

// Export writes the batch as JSON lines, skipping records below the
// severity threshold.
func (e *StdoutLogExporter) Export(_ context.Context, batch []*record.LogRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	enc := json.NewEncoder(e.w)
	for _, lr := range batch {
		if lr.Severity < e.minSeverity {
			continue
		}
		out := stdoutLog{
			Timestamp: lr.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			Severity:  lr.Severity.String(),
			Body:      lr.Body.Any(),
		}
		if lr.Attributes != nil && lr.Attributes.Len() > 0 {
			out.Attributes = make(map[string]interface{}, lr.Attributes.Len())
			for kv := range lr.Attributes.All() {
				out.Attributes[kv.Key] = kv.Value.Any()
			}
		}
		if lr.TraceID.IsValid() {
			out.TraceID = lr.TraceID.String()
		}
		if lr.SpanID.IsValid() {
			out.SpanID = lr.SpanID.String()
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown is a no-op for the stdout exporter.
func (e *StdoutLogExporter) Shutdown(context.Context) error { return nil }
