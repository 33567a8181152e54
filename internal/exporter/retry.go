package exporter

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/szibis/telemetry-pipeline/internal/logging"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a call without
// reaching the backend.
var ErrCircuitOpen = errors.New("export circuit breaker open")

// Target is any batch sink a wrapper can decorate.
type Target[T any] interface {
	Export(ctx context.Context, batch []T) error
	Shutdown(ctx context.Context) error
}

// RetryConfig holds retry and circuit breaker settings.
type RetryConfig struct {
	// MaxAttempts is the total number of export attempts (default 3).
	MaxAttempts int
	// InitialInterval is the first backoff delay (default 200ms).
	InitialInterval time.Duration
	// MaxInterval caps the backoff delay (default 5s).
	MaxInterval time.Duration
	// Multiplier grows the delay between attempts (default 2.0).
	Multiplier float64
	// CircuitMaxFailures opens the breaker after this many consecutive
	// failed batches; 0 disables the breaker.
	CircuitMaxFailures int
	// CircuitResetTimeout is how long the breaker stays open before a probe.
	CircuitResetTimeout time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 200 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 5 * time.Second
	}
	if c.Multiplier <= 1 {
		c.Multiplier = 2.0
	}
	if c.CircuitResetTimeout <= 0 {
		c.CircuitResetTimeout = 30 * time.Second
	}
	return c
}

// Retry decorates an exporter with bounded backoff retry and a circuit
// breaker. Retry lives in the exporter, not the pipeline: the batch processor
// never re-queues a batch, so this wrapper is the only place a failed batch
// gets a second chance.
type Retry[T any] struct {
	next Target[T]
	cfg  RetryConfig
	cb   *CircuitBreaker

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRetry wraps next with retry behavior.
func NewRetry[T any](next Target[T], cfg RetryConfig) *Retry[T] {
	cfg = cfg.withDefaults()
	return &Retry[T]{
		next: next,
		cfg:  cfg,
		cb:   NewCircuitBreaker(cfg.CircuitMaxFailures, cfg.CircuitResetTimeout),
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Export attempts the batch up to MaxAttempts times with jittered exponential
// backoff. Non-retryable errors (client errors, auth) fail immediately.
func (r *Retry[T]) Export(ctx context.Context, batch []T) error {
	if !r.cb.Allow() {
		recordExportError("retry", ErrorTypeUnknown)
		return ErrCircuitOpen
	}

	interval := r.cfg.InitialInterval
	var err error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		err = r.next.Export(ctx, batch)
		if err == nil {
			r.cb.RecordSuccess()
			return nil
		}

		var exportErr *ExportError
		if errors.As(err, &exportErr) && !exportErr.IsRetryable() {
			break
		}
		if attempt == r.cfg.MaxAttempts {
			break
		}

		logging.Warn("export attempt failed, backing off", logging.F(
			"attempt", attempt,
			"error", err.Error(),
			"backoff", interval.String(),
		))
		if !r.sleep(ctx, r.jitter(interval)) {
			err = ctx.Err()
			break
		}
		interval = time.Duration(float64(interval) * r.cfg.Multiplier)
		if interval > r.cfg.MaxInterval {
			interval = r.cfg.MaxInterval
		}
	}

	r.cb.RecordFailure()
	return err
}

// Shutdown shuts the wrapped exporter down.
func (r *Retry[T]) Shutdown(ctx context.Context) error {
	return r.next.Shutdown(ctx)
}

// CircuitState exposes the breaker state for tests and diagnostics.
func (r *Retry[T]) CircuitState() CircuitState {
	return r.cb.State()
}

// jitter spreads the delay across [0.5d, 1.5d) to avoid thundering herds.
func (r *Retry[T]) jitter(d time.Duration) time.Duration {
	r.mu.Lock()
	f := 0.5 + r.rng.Float64()
	r.mu.Unlock()
	return time.Duration(float64(d) * f)
}

func (r *Retry[T]) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
