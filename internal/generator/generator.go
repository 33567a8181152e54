// Package generator produces synthetic traces and logs and feeds them
// through a provider, for load-testing collectors and exporters.
package generator

import (
	"context"
	"math/rand"
	"time"

	"github.com/szibis/telemetry-pipeline/internal/provider"
	"github.com/szibis/telemetry-pipeline/internal/record"
	"github.com/szibis/telemetry-pipeline/internal/sampling"
)

// Config holds per-worker generation settings.
type Config struct {
	// Rate is the number of traces generated per second.
	Rate float64
	// ErrorRatio is the fraction of spans finished with an error status.
	ErrorRatio float64
	// LogsPerSpan is the number of log records emitted per span.
	LogsPerSpan int
}

// operation is a synthetic span template.
type operation struct {
	name string
	kind record.SpanKind
}

var operations = []operation{
	{"GET /api/orders", record.KindServer},
	{"POST /api/orders", record.KindServer},
	{"GET /api/products/{id}", record.KindServer},
	{"db.query orders", record.KindClient},
	{"db.query inventory", record.KindClient},
	{"cache.get session", record.KindClient},
	{"queue.publish order-events", record.KindProducer},
	{"queue.consume order-events", record.KindConsumer},
	{"render-invoice", record.KindInternal},
}

var logBodies = []string{
	"request accepted",
	"order validated",
	"inventory reserved",
	"payment authorized",
	"response sent",
}

// Generator emits one synthetic trace per tick: a root span, a child span
// inheriting the root's sampling decision, and the configured number of log
// records. Each Generator owns its RNG and is driven by a single goroutine.
type Generator struct {
	provider *provider.Provider
	cfg      Config
	rng      *rand.Rand
}

// New creates a generator. The seed fixes the RNG so tests can replay a run.
func New(p *provider.Provider, cfg Config, seed int64) *Generator {
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	return &Generator{
		provider: p,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Run generates traces at the configured rate until ctx is cancelled.
func (g *Generator) Run(ctx context.Context) error {
	interval := time.Duration(float64(time.Second) / g.cfg.Rate)
	if interval < time.Microsecond {
		interval = time.Microsecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			g.EmitTrace(now)
		}
	}
}

// EmitTrace produces one root span, one child span and the configured log
// records, ending at now.
func (g *Generator) EmitTrace(now time.Time) {
	op := operations[g.rng.Intn(len(operations))]
	traceID, rootID := g.provider.IDGenerator().NewIDs()

	rootResult := g.provider.ShouldSample(sampling.Parameters{
		TraceID: traceID,
		Name:    op.name,
		Kind:    op.kind,
	})
	recordDecision("root", rootResult.Decision)

	rootSampled := rootResult.Decision.Sampled()
	childOp := operations[g.rng.Intn(len(operations))]
	childResult := g.provider.ShouldSample(sampling.Parameters{
		ParentSampled: &rootSampled,
		TraceID:       traceID,
		Name:          childOp.name,
		Kind:          childOp.kind,
	})
	recordDecision("child", childResult.Decision)

	rootStart := now.Add(-time.Duration(1+g.rng.Intn(100)) * time.Millisecond)

	if childResult.Decision.Recorded() {
		childID := g.provider.IDGenerator().NewSpanID(traceID)
		child := g.buildSpan(traceID, childID, rootID, childOp, childResult.Attributes,
			rootStart.Add(time.Millisecond), now.Add(-time.Millisecond))
		g.provider.EndSpan(child)
		g.emitLogs(traceID, childID, now)
	}

	if rootResult.Decision.Recorded() {
		root := g.buildSpan(traceID, rootID, record.SpanID{}, op, rootResult.Attributes,
			rootStart, now)
		g.provider.EndSpan(root)
	}
}

func (g *Generator) buildSpan(traceID record.TraceID, spanID, parentID record.SpanID,
	op operation, samplerAttrs []record.KeyValue, start, end time.Time) *record.SpanRecord {

	limits := g.provider.Limits()
	attrs := limits.NewAttributes()
	attrs.Put(record.String("peer.service", "backend"))
	attrs.Put(record.Int64("request.size", int64(g.rng.Intn(4096))))
	attrs.Put(record.Bool("synthetic", true))
	for _, kv := range samplerAttrs {
		attrs.Put(kv)
	}

	events := limits.NewEvents()
	events.Push(record.Event{
		Name: "processing.start",
		Time: start,
	})

	status := record.Status{Code: record.StatusOK}
	if g.rng.Float64() < g.cfg.ErrorRatio {
		status = record.Status{Code: record.StatusError, Message: "upstream timeout"}
		events.Push(record.Event{
			Name: "exception",
			Time: end,
			Attributes: []record.KeyValue{
				record.String("exception.type", "TimeoutError"),
			},
		})
	}

	return &record.SpanRecord{
		TraceID:      traceID,
		SpanID:       spanID,
		ParentSpanID: parentID,
		Name:         op.name,
		Kind:         op.kind,
		StartTime:    start,
		EndTime:      end,
		Status:       status,
		Attributes:   attrs,
		Events:       events,
		Links:        limits.NewLinks(),
	}
}

func (g *Generator) emitLogs(traceID record.TraceID, spanID record.SpanID, now time.Time) {
	for i := 0; i < g.cfg.LogsPerSpan; i++ {
		sev := record.SeverityInfo
		if g.rng.Float64() < g.cfg.ErrorRatio {
			sev = record.SeverityError
		}
		if !g.provider.LogEnabled(sev) {
			logsSkipped.Inc()
			continue
		}
		attrs := g.provider.Limits().NewAttributes()
		attrs.Put(record.String("worker", "generator"))
		g.provider.EmitLog(&record.LogRecord{
			Timestamp:         now,
			ObservedTimestamp: now,
			Severity:          sev,
			SeverityText:      sev.String(),
			Body:              record.StringValue(logBodies[g.rng.Intn(len(logBodies))]),
			Attributes:        attrs,
			TraceID:           traceID,
			SpanID:            spanID,
		})
		logsEmitted.Inc()
	}
}
