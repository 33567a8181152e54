// Package record defines the immutable finished-record model handed to the
// export pipeline: trace identity, span and log snapshots, and the bounded
// evicting collections that cap per-record memory.
package record

import (
	"encoding/hex"
	"time"
)

// TraceID is a 16-byte trace identifier.
type TraceID [16]byte

// IsValid reports whether the trace id is non-zero.
func (t TraceID) IsValid() bool {
	return t != TraceID{}
}

// String returns the hex representation of the trace id.
func (t TraceID) String() string {
	return hex.EncodeToString(t[:])
}

// SpanID is an 8-byte span identifier.
type SpanID [8]byte

// IsValid reports whether the span id is non-zero.
func (s SpanID) IsValid() bool {
	return s != SpanID{}
}

// String returns the hex representation of the span id.
func (s SpanID) String() string {
	return hex.EncodeToString(s[:])
}

// SpanKind describes the relationship between a span and its parents/children.
type SpanKind int

const (
	KindInternal SpanKind = iota
	KindServer
	KindClient
	KindProducer
	KindConsumer
)

// String returns the span kind name.
func (k SpanKind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	case KindProducer:
		return "producer"
	case KindConsumer:
		return "consumer"
	default:
		return "internal"
	}
}

// StatusCode represents the status of a finished span.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// Status is the final status of a span.
type Status struct {
	Code    StatusCode
	Message string
}

// ValueKind discriminates the Value union.
type ValueKind int

const (
	KindString ValueKind = iota
	KindBool
	KindInt64
	KindFloat64
	KindStringSlice
)

// Value is a typed attribute value. The zero value is an empty string.
type Value struct {
	Kind  ValueKind
	Str   string
	Int   int64
	Float float64
	Bool  bool
	Slice []string
}

// StringValue returns a string Value.
func StringValue(v string) Value { return Value{Kind: KindString, Str: v} }

// BoolValue returns a bool Value.
func BoolValue(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// Int64Value returns an int64 Value.
func Int64Value(v int64) Value { return Value{Kind: KindInt64, Int: v} }

// Float64Value returns a float64 Value.
func Float64Value(v float64) Value { return Value{Kind: KindFloat64, Float: v} }

// StringSliceValue returns a string-slice Value.
func StringSliceValue(v []string) Value { return Value{Kind: KindStringSlice, Slice: v} }

// Any returns the value as an interface{} for JSON encoding and logging.
func (v Value) Any() interface{} {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt64:
		return v.Int
	case KindFloat64:
		return v.Float
	case KindStringSlice:
		return v.Slice
	default:
		return v.Str
	}
}

// KeyValue is a single attribute.
type KeyValue struct {
	Key   string
	Value Value
}

// String creates a string attribute.
func String(k, v string) KeyValue { return KeyValue{Key: k, Value: StringValue(v)} }

// Bool creates a bool attribute.
func Bool(k string, v bool) KeyValue { return KeyValue{Key: k, Value: BoolValue(v)} }

// Int64 creates an int64 attribute.
func Int64(k string, v int64) KeyValue { return KeyValue{Key: k, Value: Int64Value(v)} }

// Float64 creates a float64 attribute.
func Float64(k string, v float64) KeyValue { return KeyValue{Key: k, Value: Float64Value(v)} }

// Event is a timestamped annotation on a span.
type Event struct {
	Name              string
	Time              time.Time
	Attributes        []KeyValue
	DroppedAttributes uint32
}

// Link points to a span in this or another trace.
type Link struct {
	TraceID           TraceID
	SpanID            SpanID
	Attributes        []KeyValue
	DroppedAttributes uint32
}

// Resource describes the entity producing telemetry (service name, version, ...).
// It is shared by all records of one provider and never mutated after creation.
type Resource struct {
	Attributes []KeyValue
}

// NewResource creates a resource from attributes.
func NewResource(attrs ...KeyValue) *Resource {
	return &Resource{Attributes: attrs}
}

// SpanRecord is the immutable snapshot of a span at completion time. Once a
// record is handed to the pipeline the application must not retain a mutable
// reference; the pipeline owns it until the export call returns.
type SpanRecord struct {
	TraceID      TraceID
	SpanID       SpanID
	ParentSpanID SpanID
	Name         string
	Kind         SpanKind
	StartTime    time.Time
	EndTime      time.Time
	Status       Status
	Attributes   *AttributeSet
	Events       *EvictQueue[Event]
	Links        *EvictQueue[Link]
	Resource     *Resource
}

// Severity is an OTEL-aligned log severity number.
type Severity int

const (
	SeverityTrace Severity = 1
	SeverityDebug Severity = 5
	SeverityInfo  Severity = 9
	SeverityWarn  Severity = 13
	SeverityError Severity = 17
	SeverityFatal Severity = 21
)

// String returns the severity text.
func (s Severity) String() string {
	switch {
	case s >= SeverityFatal:
		return "FATAL"
	case s >= SeverityError:
		return "ERROR"
	case s >= SeverityWarn:
		return "WARN"
	case s >= SeverityInfo:
		return "INFO"
	case s >= SeverityDebug:
		return "DEBUG"
	default:
		return "TRACE"
	}
}

// LogRecord is the immutable snapshot of a log entry at emission time.
type LogRecord struct {
	Timestamp         time.Time
	ObservedTimestamp time.Time
	Severity          Severity
	SeverityText      string
	Body              Value
	Attributes        *AttributeSet
	TraceID           TraceID
	SpanID            SpanID
	Resource          *Resource
}
