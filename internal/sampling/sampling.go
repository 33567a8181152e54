// Package sampling decides, from data available at record start, whether a
// record is worth the cost of full recording and export. Samplers are pure
// decision engines: they never block, never panic, and resolve any internal
// error to Drop plus a diagnostic log.
package sampling

import (
	"encoding/binary"
	"fmt"

	"github.com/szibis/telemetry-pipeline/internal/logging"
	"github.com/szibis/telemetry-pipeline/internal/record"
)

// Decision is the outcome of a sampling evaluation.
type Decision int

const (
	// Drop means the record is neither recorded nor exported.
	Drop Decision = iota
	// RecordOnly means the record is recorded for local processors but not
	// exported, and the sampled flag does not propagate to children.
	RecordOnly
	// RecordAndSample means the record is recorded and exported, and the
	// sampled flag propagates to children.
	RecordAndSample
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case RecordOnly:
		return "record_only"
	case RecordAndSample:
		return "record_and_sample"
	default:
		return "drop"
	}
}

// Sampled reports whether the decision propagates the sampled flag.
func (d Decision) Sampled() bool { return d == RecordAndSample }

// Recorded reports whether the record should be fully populated.
func (d Decision) Recorded() bool { return d == RecordOnly || d == RecordAndSample }

// Result carries the decision plus attributes the sampler wants merged into
// the record (keys unique, insertion order irrelevant).
type Result struct {
	Decision   Decision
	Attributes []record.KeyValue
}

// Parameters is the information available to a sampler before the record is
// populated.
type Parameters struct {
	// ParentSampled is the parent span's sampled flag, or nil when the span
	// is a trace root.
	ParentSampled *bool
	// ParentRemote reports whether the parent arrived from another process.
	ParentRemote bool
	TraceID      record.TraceID
	Name         string
	Kind         record.SpanKind
	Attributes   []record.KeyValue
	Links        []record.Link
}

// Sampler gates whether a record is fully recorded.
type Sampler interface {
	ShouldSample(p Parameters) Result
	Description() string
}

type alwaysOn struct{}

// AlwaysOn returns a sampler that samples every record.
func AlwaysOn() Sampler { return alwaysOn{} }

func (alwaysOn) ShouldSample(Parameters) Result {
	recordDecision("always_on", RecordAndSample)
	return Result{Decision: RecordAndSample}
}

func (alwaysOn) Description() string { return "AlwaysOnSampler" }

type alwaysOff struct{}

// AlwaysOff returns a sampler that drops every record.
func AlwaysOff() Sampler { return alwaysOff{} }

func (alwaysOff) ShouldSample(Parameters) Result {
	recordDecision("always_off", Drop)
	return Result{Decision: Drop}
}

func (alwaysOff) Description() string { return "AlwaysOffSampler" }

type traceIDRatio struct {
	ratio string
	bound uint64
}

// TraceIDRatio returns a sampler that samples a deterministic fraction of
// traces. The decision is a pure function of the trace id, so every process
// seeing the same trace reaches the same decision. The ratio is clamped to
// [0, 1]; 0 behaves as AlwaysOff and 1 as AlwaysOn.
func TraceIDRatio(ratio float64) Sampler {
	if ratio >= 1 {
		return AlwaysOn()
	}
	if ratio <= 0 {
		return AlwaysOff()
	}
	return traceIDRatio{
		ratio: fmt.Sprintf("%g", ratio),
		bound: uint64(ratio * (1 << 63)),
	}
}

func (s traceIDRatio) ShouldSample(p Parameters) Result {
	// The low 8 bytes of the trace id, shifted into [0, 2^63), compared
	// against ratio * 2^63. Fixed-width suffix keeps the decision stable
	// across processes regardless of how the id was generated.
	x := binary.BigEndian.Uint64(p.TraceID[8:16]) >> 1
	d := Drop
	if x < s.bound {
		d = RecordAndSample
	}
	recordDecision("traceidratio", d)
	return Result{Decision: d}
}

func (s traceIDRatio) Description() string {
	return fmt.Sprintf("TraceIDRatioBased{%s}", s.ratio)
}

type parentBased struct {
	root Sampler
}

// ParentBased returns a sampler that inherits the parent span's decision when
// one exists and delegates trace roots to root. Every span of a trace ends up
// with the root's decision unless a remote parent overrides it.
func ParentBased(root Sampler) Sampler {
	return parentBased{root: root}
}

func (s parentBased) ShouldSample(p Parameters) Result {
	if s.root == nil {
		logging.Error("parent-based sampler has no root sampler, dropping", logging.F(
			"trace_id", p.TraceID.String(),
		))
		recordDecision("parent_based", Drop)
		return Result{Decision: Drop}
	}
	if p.ParentSampled == nil {
		return s.root.ShouldSample(p)
	}
	d := Drop
	if *p.ParentSampled {
		d = RecordAndSample
	}
	recordDecision("parent_based", d)
	return Result{Decision: d}
}

func (s parentBased) Description() string {
	root := "nil"
	if s.root != nil {
		root = s.root.Description()
	}
	return fmt.Sprintf("ParentBased{root:%s}", root)
}
