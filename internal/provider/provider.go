// Package provider ties the pipeline together: one Provider owns the
// sampler, the id generator, the record limits, the resource, and the
// ordered list of processors that receive finished records. It is an
// explicit dependency handed to instrumentation, not a process-wide
// singleton; replacing a provider means building a new one and shutting
// the old one down.
package provider

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/szibis/telemetry-pipeline/internal/idgen"
	"github.com/szibis/telemetry-pipeline/internal/logging"
	"github.com/szibis/telemetry-pipeline/internal/record"
	"github.com/szibis/telemetry-pipeline/internal/sampling"
)

// ErrAlreadyShutdown is returned by ForceFlush and Shutdown after the
// provider has been shut down.
var ErrAlreadyShutdown = errors.New("provider already shut down")

// SpanProcessor receives finished spans. OnEnd must never block.
type SpanProcessor interface {
	OnEnd(sr *record.SpanRecord)
	ForceFlush(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// LogProcessor receives emitted log records. OnEnd must never block.
type LogProcessor interface {
	OnEnd(lr *record.LogRecord)
	ForceFlush(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// LogEnabler lets the provider skip building log records the exporter
// would filter out anyway.
type LogEnabler interface {
	Enabled(s record.Severity) bool
}

// SpanObserver is called for every sampled span handed to EndSpan, before
// the processors see it.
type SpanObserver func(sr *record.SpanRecord)

// Provider is the pipeline registry. All fields are fixed at construction;
// the only state transition is Shutdown.
type Provider struct {
	sampler    sampling.Sampler
	idGen      idgen.Generator
	limits     record.Limits
	resource   *record.Resource
	spanProcs  []SpanProcessor
	logProcs   []LogProcessor
	logEnabler LogEnabler
	observers  []SpanObserver

	shutdownOnce sync.Once
	stopped      atomic.Bool
}

// Option configures a Provider.
type Option func(*Provider)

// WithSampler sets the sampler. Default is ParentBased(AlwaysOn).
func WithSampler(s sampling.Sampler) Option {
	return func(p *Provider) { p.sampler = s }
}

// WithIDGenerator sets the trace/span id generator.
func WithIDGenerator(g idgen.Generator) Option {
	return func(p *Provider) { p.idGen = g }
}

// WithLimits sets the per-record collection limits.
func WithLimits(l record.Limits) Option {
	return func(p *Provider) { p.limits = l }
}

// WithResource sets the resource attached to every record.
func WithResource(r *record.Resource) Option {
	return func(p *Provider) { p.resource = r }
}

// WithSpanProcessor appends a span processor. Processors receive finished
// spans in registration order.
func WithSpanProcessor(sp SpanProcessor) Option {
	return func(p *Provider) { p.spanProcs = append(p.spanProcs, sp) }
}

// WithLogProcessor appends a log processor.
func WithLogProcessor(lp LogProcessor) Option {
	return func(p *Provider) { p.logProcs = append(p.logProcs, lp) }
}

// WithLogEnabler sets the severity gate consulted by LogEnabled.
func WithLogEnabler(e LogEnabler) Option {
	return func(p *Provider) { p.logEnabler = e }
}

// WithSpanObserver appends a span observer.
func WithSpanObserver(o SpanObserver) Option {
	return func(p *Provider) { p.observers = append(p.observers, o) }
}

// New creates a provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		limits: record.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.sampler == nil {
		p.sampler = sampling.ParentBased(sampling.AlwaysOn())
	}
	if p.idGen == nil {
		p.idGen = idgen.New()
	}
	if p.resource == nil {
		p.resource = record.NewResource()
	}
	return p
}

// Sampler returns the configured sampler.
func (p *Provider) Sampler() sampling.Sampler { return p.sampler }

// IDGenerator returns the configured id generator.
func (p *Provider) IDGenerator() idgen.Generator { return p.idGen }

// Limits returns the per-record collection limits.
func (p *Provider) Limits() record.Limits { return p.limits }

// Resource returns the shared resource.
func (p *Provider) Resource() *record.Resource { return p.resource }

// ShouldSample runs the sampling decision for a record about to start.
func (p *Provider) ShouldSample(params sampling.Parameters) sampling.Result {
	return p.sampler.ShouldSample(params)
}

// EndSpan hands a finished span to every span processor. It never blocks
// and is a counted no-op after shutdown.
func (p *Provider) EndSpan(sr *record.SpanRecord) {
	if p.stopped.Load() {
		spansDroppedAfterShutdown.Inc()
		return
	}
	if sr.Resource == nil {
		sr.Resource = p.resource
	}
	for _, o := range p.observers {
		o(sr)
	}
	for _, sp := range p.spanProcs {
		sp.OnEnd(sr)
	}
}

// EmitLog hands a log record to every log processor. It never blocks and
// is a counted no-op after shutdown.
func (p *Provider) EmitLog(lr *record.LogRecord) {
	if p.stopped.Load() {
		logsDroppedAfterShutdown.Inc()
		return
	}
	if lr.Resource == nil {
		lr.Resource = p.resource
	}
	for _, lp := range p.logProcs {
		lp.OnEnd(lr)
	}
}

// LogEnabled reports whether a log record at the given severity would
// survive the pipeline. Callers use it to skip record construction.
func (p *Provider) LogEnabled(s record.Severity) bool {
	if p.stopped.Load() {
		return false
	}
	if p.logEnabler == nil {
		return true
	}
	return p.logEnabler.Enabled(s)
}

// ForceFlush flushes every processor and returns the joined errors.
func (p *Provider) ForceFlush(ctx context.Context) error {
	if p.stopped.Load() {
		return ErrAlreadyShutdown
	}
	var errs []error
	for _, sp := range p.spanProcs {
		errs = append(errs, sp.ForceFlush(ctx))
	}
	for _, lp := range p.logProcs {
		errs = append(errs, lp.ForceFlush(ctx))
	}
	return errors.Join(errs...)
}

// Shutdown stops accepting records and shuts every processor down in
// registration order. Safe to call twice: the second call returns
// ErrAlreadyShutdown without touching the processors again.
func (p *Provider) Shutdown(ctx context.Context) error {
	err := ErrAlreadyShutdown
	p.shutdownOnce.Do(func() {
		p.stopped.Store(true)
		var errs []error
		for _, sp := range p.spanProcs {
			errs = append(errs, sp.Shutdown(ctx))
		}
		for _, lp := range p.logProcs {
			errs = append(errs, lp.Shutdown(ctx))
		}
		err = errors.Join(errs...)
		if err != nil {
			logging.Error("provider shutdown finished with errors", logging.F("error", err.Error()))
		}
	})
	return err
}
