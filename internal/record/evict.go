package record

import "iter"

// EvictQueue is a fixed-capacity FIFO collection. When a push would exceed
// capacity the oldest element is evicted and counted; eviction is a silent,
// expected outcome, never an error, so instrumentation can never fail or
// block the instrumented program.
//
// EvictQueue is owned by a single record and is not safe for concurrent use.
type EvictQueue[T any] struct {
	capacity int
	items    []T
	dropped  uint32
}

// NewEvictQueue creates a queue holding at most capacity elements.
// A capacity <= 0 means the queue drops everything.
func NewEvictQueue[T any](capacity int) *EvictQueue[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &EvictQueue[T]{capacity: capacity}
}

// Push appends an item, evicting the oldest element if the queue is full.
func (q *EvictQueue[T]) Push(item T) {
	if q.capacity == 0 {
		q.dropped++
		return
	}
	if len(q.items) == q.capacity {
		copy(q.items, q.items[1:])
		q.items[len(q.items)-1] = item
		q.dropped++
		return
	}
	q.items = append(q.items, item)
}

// Len returns the current number of elements.
func (q *EvictQueue[T]) Len() int { return len(q.items) }

// Cap returns the configured capacity.
func (q *EvictQueue[T]) Cap() int { return q.capacity }

// Dropped returns the total number of evicted elements. Monotonic, never reset.
func (q *EvictQueue[T]) Dropped() uint32 { return q.dropped }

// Slice returns a copy of the current contents in insertion order.
func (q *EvictQueue[T]) Slice() []T {
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

// All returns an iterator over the current contents in insertion order.
// The sequence is finite and restartable; mutating the queue during
// iteration is not supported.
func (q *EvictQueue[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range q.items {
			if !yield(item) {
				return
			}
		}
	}
}

// AttributeSet is the keyed variant of EvictQueue: a fixed-capacity attribute
// collection with unique keys. Inserting a duplicate key replaces the value
// in place (last write wins) without consuming a capacity slot; inserting a
// new key into a full set evicts the oldest key.
//
// AttributeSet is owned by a single record and is not safe for concurrent use.
type AttributeSet struct {
	capacity int
	kvs      []KeyValue
	index    map[string]int
	dropped  uint32
}

// NewAttributeSet creates an attribute set holding at most capacity keys.
func NewAttributeSet(capacity int) *AttributeSet {
	if capacity < 0 {
		capacity = 0
	}
	return &AttributeSet{
		capacity: capacity,
		index:    make(map[string]int),
	}
}

// Put inserts or replaces an attribute.
func (s *AttributeSet) Put(kv KeyValue) {
	if i, ok := s.index[kv.Key]; ok {
		s.kvs[i] = kv
		return
	}
	if s.capacity == 0 {
		s.dropped++
		return
	}
	if len(s.kvs) == s.capacity {
		delete(s.index, s.kvs[0].Key)
		copy(s.kvs, s.kvs[1:])
		s.kvs = s.kvs[:len(s.kvs)-1]
		for i := range s.kvs {
			s.index[s.kvs[i].Key] = i
		}
		s.dropped++
	}
	s.index[kv.Key] = len(s.kvs)
	s.kvs = append(s.kvs, kv)
}

// PutAll inserts every attribute in order.
func (s *AttributeSet) PutAll(kvs []KeyValue) {
	for _, kv := range kvs {
		s.Put(kv)
	}
}

// Get returns the value for a key.
func (s *AttributeSet) Get(key string) (Value, bool) {
	if i, ok := s.index[key]; ok {
		return s.kvs[i].Value, true
	}
	return Value{}, false
}

// Len returns the current number of attributes.
func (s *AttributeSet) Len() int { return len(s.kvs) }

// Cap returns the configured capacity.
func (s *AttributeSet) Cap() int { return s.capacity }

// Dropped returns the total number of evicted attributes. Monotonic, never reset.
func (s *AttributeSet) Dropped() uint32 { return s.dropped }

// Slice returns a copy of the current attributes in insertion order.
func (s *AttributeSet) Slice() []KeyValue {
	out := make([]KeyValue, len(s.kvs))
	copy(out, s.kvs)
	return out
}

// All returns an iterator over the current attributes in insertion order.
func (s *AttributeSet) All() iter.Seq[KeyValue] {
	return func(yield func(KeyValue) bool) {
		for _, kv := range s.kvs {
			if !yield(kv) {
				return
			}
		}
	}
}
