package exporter

import (
	"time"

	"github.com/szibis/telemetry-pipeline/internal/record"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
)

const scopeName = "github.com/szibis/telemetry-pipeline"

// encodeSpans converts a finished-span batch to OTLP resource spans, grouping
// records by their shared resource in order of first appearance.
func encodeSpans(batch []*record.SpanRecord) []*tracepb.ResourceSpans {
	var out []*tracepb.ResourceSpans
	index := make(map[*record.Resource]*tracepb.ScopeSpans)

	for _, sr := range batch {
		scope, ok := index[sr.Resource]
		if !ok {
			scope = &tracepb.ScopeSpans{
				Scope: &commonpb.InstrumentationScope{Name: scopeName},
			}
			index[sr.Resource] = scope
			out = append(out, &tracepb.ResourceSpans{
				Resource:   encodeResource(sr.Resource),
				ScopeSpans: []*tracepb.ScopeSpans{scope},
			})
		}
		scope.Spans = append(scope.Spans, encodeSpan(sr))
	}
	return out
}

func encodeSpan(sr *record.SpanRecord) *tracepb.Span {
	tid, sid := sr.TraceID, sr.SpanID
	s := &tracepb.Span{
		TraceId:           tid[:],
		SpanId:            sid[:],
		Name:              sr.Name,
		Kind:              encodeKind(sr.Kind),
		StartTimeUnixNano: timeToNanos(sr.StartTime),
		EndTimeUnixNano:   timeToNanos(sr.EndTime),
		Status:            encodeStatus(sr.Status),
	}
	if sr.ParentSpanID.IsValid() {
		pid := sr.ParentSpanID
		s.ParentSpanId = pid[:]
	}
	if sr.Attributes != nil {
		s.Attributes = encodeKeyValues(sr.Attributes.Slice())
		s.DroppedAttributesCount = sr.Attributes.Dropped()
	}
	if sr.Events != nil {
		for _, ev := range sr.Events.Slice() {
			s.Events = append(s.Events, &tracepb.Span_Event{
				Name:                   ev.Name,
				TimeUnixNano:           timeToNanos(ev.Time),
				Attributes:             encodeKeyValues(ev.Attributes),
				DroppedAttributesCount: ev.DroppedAttributes,
			})
		}
		s.DroppedEventsCount = sr.Events.Dropped()
	}
	if sr.Links != nil {
		for _, ln := range sr.Links.Slice() {
			ltid, lsid := ln.TraceID, ln.SpanID
			s.Links = append(s.Links, &tracepb.Span_Link{
				TraceId:                ltid[:],
				SpanId:                 lsid[:],
				Attributes:             encodeKeyValues(ln.Attributes),
				DroppedAttributesCount: ln.DroppedAttributes,
			})
		}
		s.DroppedLinksCount = sr.Links.Dropped()
	}
	return s
}

// encodeLogs converts a log batch to OTLP resource logs, grouping by resource.
func encodeLogs(batch []*record.LogRecord) []*logspb.ResourceLogs {
	var out []*logspb.ResourceLogs
	index := make(map[*record.Resource]*logspb.ScopeLogs)

	for _, lr := range batch {
		scope, ok := index[lr.Resource]
		if !ok {
			scope = &logspb.ScopeLogs{
				Scope: &commonpb.InstrumentationScope{Name: scopeName},
			}
			index[lr.Resource] = scope
			out = append(out, &logspb.ResourceLogs{
				Resource:  encodeResource(lr.Resource),
				ScopeLogs: []*logspb.ScopeLogs{scope},
			})
		}
		scope.LogRecords = append(scope.LogRecords, encodeLog(lr))
	}
	return out
}

func encodeLog(lr *record.LogRecord) *logspb.LogRecord {
	out := &logspb.LogRecord{
		TimeUnixNano:         timeToNanos(lr.Timestamp),
		ObservedTimeUnixNano: timeToNanos(lr.ObservedTimestamp),
		SeverityNumber:       logspb.SeverityNumber(lr.Severity),
		SeverityText:         lr.SeverityText,
		Body:                 encodeValue(lr.Body),
	}
	if lr.Attributes != nil {
		out.Attributes = encodeKeyValues(lr.Attributes.Slice())
		out.DroppedAttributesCount = lr.Attributes.Dropped()
	}
	if lr.TraceID.IsValid() {
		tid := lr.TraceID
		out.TraceId = tid[:]
	}
	if lr.SpanID.IsValid() {
		sid := lr.SpanID
		out.SpanId = sid[:]
	}
	return out
}

func encodeResource(r *record.Resource) *resourcepb.Resource {
	if r == nil {
		return &resourcepb.Resource{}
	}
	return &resourcepb.Resource{Attributes: encodeKeyValues(r.Attributes)}
}

func encodeKeyValues(kvs []record.KeyValue) []*commonpb.KeyValue {
	if len(kvs) == 0 {
		return nil
	}
	out := make([]*commonpb.KeyValue, 0, len(kvs))
	for _, kv := range kvs {
		out = append(out, &commonpb.KeyValue{
			Key:   kv.Key,
			Value: encodeValue(kv.Value),
		})
	}
	return out
}

func encodeValue(v record.Value) *commonpb.AnyValue {
	switch v.Kind {
	case record.KindBool:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: v.Bool}}
	case record.KindInt64:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: v.Int}}
	case record.KindFloat64:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: v.Float}}
	case record.KindStringSlice:
		vals := make([]*commonpb.AnyValue, 0, len(v.Slice))
		for _, s := range v.Slice {
			vals = append(vals, &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: s}})
		}
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_ArrayValue{
			ArrayValue: &commonpb.ArrayValue{Values: vals},
		}}
	default:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: v.Str}}
	}
}

func encodeKind(k record.SpanKind) tracepb.Span_SpanKind {
	switch k {
	case record.KindServer:
		return tracepb.Span_SPAN_KIND_SERVER
	case record.KindClient:
		return tracepb.Span_SPAN_KIND_CLIENT
	case record.KindProducer:
		return tracepb.Span_SPAN_KIND_PRODUCER
	case record.KindConsumer:
		return tracepb.Span_SPAN_KIND_CONSUMER
	default:
		return tracepb.Span_SPAN_KIND_INTERNAL
	}
}

func encodeStatus(st record.Status) *tracepb.Status {
	out := &tracepb.Status{Message: st.Message}
	switch st.Code {
	case record.StatusOK:
		out.Code = tracepb.Status_STATUS_CODE_OK
	case record.StatusError:
		out.Code = tracepb.Status_STATUS_CODE_ERROR
	default:
		out.Code = tracepb.Status_STATUS_CODE_UNSET
	}
	return out
}

func timeToNanos(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	return uint64(t.UnixNano())
}
