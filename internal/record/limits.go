package record

import (
	"os"
	"strconv"
)

// Default per-record collection capacities. These match the OTEL SDK
// specification defaults.
const (
	DefaultAttributeCountLimit = 128
	DefaultEventCountLimit     = 128
	DefaultLinkCountLimit      = 128
)

// Limits caps the size of the per-record bounded collections. A single
// pathological record (e.g. a loop emitting thousands of attributes) must
// not be able to exhaust memory.
type Limits struct {
	// AttributeCountLimit caps span and log attribute sets.
	AttributeCountLimit int
	// EventCountLimit caps the span event queue.
	EventCountLimit int
	// LinkCountLimit caps the span link queue.
	LinkCountLimit int
}

// DefaultLimits returns the default limits, overridable via the
// OTEL_SPAN_*_COUNT_LIMIT environment variables.
func DefaultLimits() Limits {
	l := Limits{
		AttributeCountLimit: DefaultAttributeCountLimit,
		EventCountLimit:     DefaultEventCountLimit,
		LinkCountLimit:      DefaultLinkCountLimit,
	}
	l.AttributeCountLimit = envInt("OTEL_SPAN_ATTRIBUTE_COUNT_LIMIT", l.AttributeCountLimit)
	l.EventCountLimit = envInt("OTEL_SPAN_EVENT_COUNT_LIMIT", l.EventCountLimit)
	l.LinkCountLimit = envInt("OTEL_SPAN_LINK_COUNT_LIMIT", l.LinkCountLimit)
	return l
}

// NewAttributes creates an attribute set sized by the limits.
func (l Limits) NewAttributes() *AttributeSet {
	return NewAttributeSet(l.AttributeCountLimit)
}

// NewEvents creates an event queue sized by the limits.
func (l Limits) NewEvents() *EvictQueue[Event] {
	return NewEvictQueue[Event](l.EventCountLimit)
}

// NewLinks creates a link queue sized by the limits.
func (l Limits) NewLinks() *EvictQueue[Link] {
	return NewEvictQueue[Link](l.LinkCountLimit)
}

// envInt reads a non-negative integer environment variable, returning def
// when unset or malformed.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
