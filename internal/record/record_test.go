package record

import (
	"os"
	"testing"
)

func TestTraceIDValidity(t *testing.T) {
	var zero TraceID
	if zero.IsValid() {
		t.Error("zero trace id reported valid")
	}
	id := TraceID{0x01}
	if !id.IsValid() {
		t.Error("non-zero trace id reported invalid")
	}
	if got := id.String(); got != "01000000000000000000000000000000" {
		t.Errorf("String() = %q", got)
	}
}

func TestSpanIDValidity(t *testing.T) {
	var zero SpanID
	if zero.IsValid() {
		t.Error("zero span id reported valid")
	}
	id := SpanID{0xab, 0xcd}
	if got := id.String(); got != "abcd000000000000" {
		t.Errorf("String() = %q", got)
	}
}

func TestValueAny(t *testing.T) {
	tests := []struct {
		v    Value
		want interface{}
	}{
		{StringValue("s"), "s"},
		{BoolValue(true), true},
		{Int64Value(42), int64(42)},
		{Float64Value(1.5), 1.5},
	}
	for _, tt := range tests {
		if got := tt.v.Any(); got != tt.want {
			t.Errorf("Any() = %v, want %v", got, tt.want)
		}
	}
}

func TestSeverityString(t *testing.T) {
	tests := []struct {
		s    Severity
		want string
	}{
		{SeverityTrace, "TRACE"},
		{SeverityDebug, "DEBUG"},
		{SeverityInfo, "INFO"},
		{SeverityInfo + 2, "INFO"},
		{SeverityWarn, "WARN"},
		{SeverityError, "ERROR"},
		{SeverityFatal, "FATAL"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Severity(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestDefaultLimits(t *testing.T) {
	l := DefaultLimits()
	if l.AttributeCountLimit != DefaultAttributeCountLimit {
		t.Errorf("AttributeCountLimit = %d, want %d", l.AttributeCountLimit, DefaultAttributeCountLimit)
	}
	if l.EventCountLimit != DefaultEventCountLimit {
		t.Errorf("EventCountLimit = %d, want %d", l.EventCountLimit, DefaultEventCountLimit)
	}
	if l.LinkCountLimit != DefaultLinkCountLimit {
		t.Errorf("LinkCountLimit = %d, want %d", l.LinkCountLimit, DefaultLinkCountLimit)
	}
}

func TestLimitsEnvOverride(t *testing.T) {
	os.Setenv("OTEL_SPAN_ATTRIBUTE_COUNT_LIMIT", "7")
	os.Setenv("OTEL_SPAN_EVENT_COUNT_LIMIT", "notanumber")
	defer os.Unsetenv("OTEL_SPAN_ATTRIBUTE_COUNT_LIMIT")
	defer os.Unsetenv("OTEL_SPAN_EVENT_COUNT_LIMIT")

	l := DefaultLimits()
	if l.AttributeCountLimit != 7 {
		t.Errorf("AttributeCountLimit = %d, want 7", l.AttributeCountLimit)
	}
	if l.EventCountLimit != DefaultEventCountLimit {
		t.Errorf("malformed env must fall back to default, got %d", l.EventCountLimit)
	}
}

func TestLimitsConstructors(t *testing.T) {
	l := Limits{AttributeCountLimit: 3, EventCountLimit: 2, LinkCountLimit: 1}
	attrs := l.NewAttributes()
	if attrs.Cap() != 3 {
		t.Errorf("attrs cap = %d, want 3", attrs.Cap())
	}
	events := l.NewEvents()
	if events.Cap() != 2 {
		t.Errorf("events cap = %d, want 2", events.Cap())
	}
	links := l.NewLinks()
	if links.Cap() != 1 {
		t.Errorf("links cap = %d, want 1", links.Cap())
	}
}
