package generator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/szibis/telemetry-pipeline/internal/idgen"
	"github.com/szibis/telemetry-pipeline/internal/provider"
	"github.com/szibis/telemetry-pipeline/internal/record"
	"github.com/szibis/telemetry-pipeline/internal/sampling"
)

type captureSpans struct {
	mu    sync.Mutex
	spans []*record.SpanRecord
}

func (c *captureSpans) OnEnd(sr *record.SpanRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spans = append(c.spans, sr)
}

func (c *captureSpans) ForceFlush(context.Context) error { return nil }
func (c *captureSpans) Shutdown(context.Context) error   { return nil }

func (c *captureSpans) all() []*record.SpanRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*record.SpanRecord(nil), c.spans...)
}

type captureLogs struct {
	mu   sync.Mutex
	logs []*record.LogRecord
}

func (c *captureLogs) OnEnd(lr *record.LogRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, lr)
}

func (c *captureLogs) ForceFlush(context.Context) error { return nil }
func (c *captureLogs) Shutdown(context.Context) error   { return nil }

type severityGate struct {
	min record.Severity
}

func (g severityGate) Enabled(s record.Severity) bool { return s >= g.min }

func TestEmitTraceProducesRootAndChild(t *testing.T) {
	spans := &captureSpans{}
	p := provider.New(
		provider.WithSampler(sampling.AlwaysOn()),
		provider.WithSpanProcessor(spans),
	)
	g := New(p, Config{Rate: 1}, 1)

	g.EmitTrace(time.Now())

	got := spans.all()
	if len(got) != 2 {
		t.Fatalf("spans = %d, want 2 (child + root)", len(got))
	}
	child, root := got[0], got[1]
	if child.TraceID != root.TraceID {
		t.Error("child and root have different trace ids")
	}
	if child.ParentSpanID != root.SpanID {
		t.Error("child parent id does not point at root")
	}
	if root.ParentSpanID.IsValid() {
		t.Error("root has a parent span id")
	}
	if !root.EndTime.After(root.StartTime) {
		t.Error("root end time not after start time")
	}
	if root.Attributes == nil || root.Attributes.Len() == 0 {
		t.Error("root span has no attributes")
	}
}

func TestEmitTraceAlwaysOffProducesNothing(t *testing.T) {
	spans := &captureSpans{}
	logs := &captureLogs{}
	p := provider.New(
		provider.WithSampler(sampling.AlwaysOff()),
		provider.WithSpanProcessor(spans),
		provider.WithLogProcessor(logs),
	)
	g := New(p, Config{Rate: 1, LogsPerSpan: 3}, 1)

	g.EmitTrace(time.Now())

	if len(spans.all()) != 0 {
		t.Errorf("spans = %d, want 0", len(spans.all()))
	}
	if len(logs.logs) != 0 {
		t.Errorf("logs = %d, want 0", len(logs.logs))
	}
}

func TestChildInheritsParentDecision(t *testing.T) {
	// ParentBased(AlwaysOff): the root is dropped, so the child must be too,
	// even though the wrapped root sampler never sees the child.
	spans := &captureSpans{}
	p := provider.New(
		provider.WithSampler(sampling.ParentBased(sampling.AlwaysOff())),
		provider.WithSpanProcessor(spans),
	)
	g := New(p, Config{Rate: 1}, 1)

	for i := 0; i < 50; i++ {
		g.EmitTrace(time.Now())
	}

	if len(spans.all()) != 0 {
		t.Errorf("spans = %d, want 0 with ParentBased(AlwaysOff)", len(spans.all()))
	}
}

func TestErrorRatio(t *testing.T) {
	spans := &captureSpans{}
	p := provider.New(
		provider.WithSampler(sampling.AlwaysOn()),
		provider.WithSpanProcessor(spans),
	)
	g := New(p, Config{Rate: 1, ErrorRatio: 1.0}, 1)

	g.EmitTrace(time.Now())

	for _, sr := range spans.all() {
		if sr.Status.Code != record.StatusError {
			t.Errorf("span %q status = %v, want error", sr.Name, sr.Status.Code)
		}
	}
}

func TestLogsPerSpan(t *testing.T) {
	logs := &captureLogs{}
	p := provider.New(
		provider.WithSampler(sampling.AlwaysOn()),
		provider.WithLogProcessor(logs),
	)
	g := New(p, Config{Rate: 1, LogsPerSpan: 3}, 1)

	g.EmitTrace(time.Now())

	if len(logs.logs) != 3 {
		t.Fatalf("logs = %d, want 3", len(logs.logs))
	}
	for _, lr := range logs.logs {
		if !lr.TraceID.IsValid() || !lr.SpanID.IsValid() {
			t.Error("log record missing trace/span correlation")
		}
		if lr.Body.Str == "" {
			t.Error("log record has empty body")
		}
	}
}

func TestLogEnablerSkipsFilteredSeverities(t *testing.T) {
	logs := &captureLogs{}
	p := provider.New(
		provider.WithSampler(sampling.AlwaysOn()),
		provider.WithLogProcessor(logs),
		provider.WithLogEnabler(severityGate{min: record.SeverityError}),
	)
	// ErrorRatio 0 keeps every log at info, below the gate.
	g := New(p, Config{Rate: 1, LogsPerSpan: 5, ErrorRatio: 0}, 1)

	g.EmitTrace(time.Now())

	if len(logs.logs) != 0 {
		t.Errorf("logs = %d, want all filtered", len(logs.logs))
	}
}

func TestFixedSeedIsDeterministic(t *testing.T) {
	run := func() []string {
		spans := &captureSpans{}
		p := provider.New(
			provider.WithSampler(sampling.AlwaysOn()),
			provider.WithIDGenerator(idgen.NewWithSeed(42)),
			provider.WithSpanProcessor(spans),
		)
		g := New(p, Config{Rate: 1}, 42)
		for i := 0; i < 20; i++ {
			g.EmitTrace(time.Unix(0, int64(i)*int64(time.Second)))
		}
		var names []string
		for _, sr := range spans.all() {
			names = append(names, sr.Name+" "+sr.TraceID.String())
		}
		return names
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("run lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("run diverges at %d: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	spans := &captureSpans{}
	p := provider.New(
		provider.WithSampler(sampling.AlwaysOn()),
		provider.WithSpanProcessor(spans),
	)
	g := New(p, Config{Rate: 1000}, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := g.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(spans.all()) == 0 {
		t.Error("Run produced no spans before cancel")
	}
}
