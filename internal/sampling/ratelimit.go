package sampling

import (
	"fmt"
	"sync"
	"time"

	"github.com/szibis/telemetry-pipeline/internal/logging"
)

// RateLimiting is a leaky-bucket sampler: it admits at most perSecond records
// per second on average, with bursts capped at bucketSize, regardless of trace
// identity. Unlike the other samplers it is stateful and mutex-guarded since
// records finish on arbitrary goroutines.
type RateLimiting struct {
	mu         sync.Mutex
	perSecond  float64
	bucketSize float64
	available  float64
	last       time.Time

	// now is the clock, injectable for tests.
	now func() time.Time
}

// NewRateLimiting creates a leaky-bucket sampler. The bucket starts full.
// perSecond <= 0 disables admission entirely once the initial bucket drains.
func NewRateLimiting(perSecond, bucketSize float64) *RateLimiting {
	if bucketSize < 1 {
		bucketSize = 1
	}
	s := &RateLimiting{
		perSecond:  perSecond,
		bucketSize: bucketSize,
		available:  bucketSize,
		now:        time.Now,
	}
	s.last = s.now()
	return s
}

// ShouldSample consumes one token when available, otherwise replenishes from
// elapsed wall-clock time and re-checks. A clock that appears to run backward
// is a warning condition and the record is sampled anyway: failing closed
// would silently suppress telemetry for as long as the anomaly lasts.
func (s *RateLimiting) ShouldSample(p Parameters) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.available >= 1 {
		s.available--
		recordDecision("rate_limiting", RecordAndSample)
		return Result{Decision: RecordAndSample}
	}

	now := s.now()
	elapsed := now.Sub(s.last)
	if elapsed < 0 {
		logging.Warn("rate limiting sampler observed clock rewind, sampling anyway", logging.F(
			"elapsed_ms", elapsed.Milliseconds(),
			"trace_id", p.TraceID.String(),
		))
		s.last = now
		recordDecision("rate_limiting", RecordAndSample)
		return Result{Decision: RecordAndSample}
	}

	s.available += elapsed.Seconds() * s.perSecond
	if s.available > s.bucketSize {
		s.available = s.bucketSize
	}
	s.last = now

	if s.available >= 1 {
		s.available--
		recordDecision("rate_limiting", RecordAndSample)
		return Result{Decision: RecordAndSample}
	}
	recordDecision("rate_limiting", Drop)
	return Result{Decision: Drop}
}

// Description returns the sampler description.
func (s *RateLimiting) Description() string {
	return fmt.Sprintf("RateLimiting{%g/s,bucket:%g}", s.perSecond, s.bucketSize)
}
