package exporter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// flakyTarget fails the first failures calls, then succeeds.
type flakyTarget struct {
	mu        sync.Mutex
	failures  int
	err       error
	calls     int
	shutdowns atomic.Int32
}

func (f *flakyTarget) Export(ctx context.Context, batch []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func (f *flakyTarget) Shutdown(ctx context.Context) error {
	f.shutdowns.Add(1)
	return nil
}

func (f *flakyTarget) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	target := &flakyTarget{failures: 2, err: &ExportError{Err: errors.New("boom"), Type: ErrorTypeNetwork}}
	r := NewRetry[int](target, fastRetryConfig())

	if err := r.Export(context.Background(), []int{1}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if got := target.callCount(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	target := &flakyTarget{failures: 10, err: &ExportError{Err: errors.New("boom"), Type: ErrorTypeServerError}}
	r := NewRetry[int](target, fastRetryConfig())

	err := r.Export(context.Background(), []int{1})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if got := target.callCount(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestRetryNonRetryableFailsFast(t *testing.T) {
	target := &flakyTarget{failures: 10, err: &ExportError{Err: errors.New("bad request"), Type: ErrorTypeClientError}}
	r := NewRetry[int](target, fastRetryConfig())

	err := r.Export(context.Background(), []int{1})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := target.callCount(); got != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on client error)", got)
	}
}

func TestRetryContextCancelStopsBackoff(t *testing.T) {
	target := &flakyTarget{failures: 10, err: &ExportError{Err: errors.New("boom"), Type: ErrorTypeNetwork}}
	cfg := fastRetryConfig()
	cfg.InitialInterval = time.Minute
	r := NewRetry[int](target, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Export(ctx, []int{1}) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Export did not return after cancellation")
	}
}

func TestRetryCircuitOpensAndRecovers(t *testing.T) {
	target := &flakyTarget{failures: 3, err: &ExportError{Err: errors.New("boom"), Type: ErrorTypeServerError}}
	cfg := fastRetryConfig()
	cfg.MaxAttempts = 1
	cfg.CircuitMaxFailures = 2
	cfg.CircuitResetTimeout = 20 * time.Millisecond
	r := NewRetry[int](target, cfg)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := r.Export(ctx, []int{1}); err == nil {
			t.Fatal("expected failure")
		}
	}
	if r.CircuitState() != CircuitOpen {
		t.Fatalf("state = %v, want open", r.CircuitState())
	}

	// Rejected without touching the target while open.
	before := target.callCount()
	if err := r.Export(ctx, []int{1}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("error = %v, want ErrCircuitOpen", err)
	}
	if target.callCount() != before {
		t.Error("open circuit must not reach the target")
	}

	// After the reset timeout, a probe goes through. The target fails it
	// once more (third failure), reopening the circuit.
	time.Sleep(30 * time.Millisecond)
	if err := r.Export(ctx, []int{1}); err == nil {
		t.Fatal("expected probe failure")
	}
	if r.CircuitState() != CircuitOpen {
		t.Fatalf("state after failed probe = %v, want open", r.CircuitState())
	}

	// Next probe succeeds and closes the circuit.
	time.Sleep(30 * time.Millisecond)
	if err := r.Export(ctx, []int{1}); err != nil {
		t.Fatalf("probe export: %v", err)
	}
	if r.CircuitState() != CircuitClosed {
		t.Errorf("state = %v, want closed", r.CircuitState())
	}
}

func TestRetryShutdownPassthrough(t *testing.T) {
	target := &flakyTarget{}
	r := NewRetry[int](target, fastRetryConfig())
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if target.shutdowns.Load() != 1 {
		t.Error("Shutdown must reach the wrapped exporter")
	}
}

func TestRetryJitterBounds(t *testing.T) {
	r := NewRetry[int](&flakyTarget{}, fastRetryConfig())
	base := 100 * time.Millisecond
	for i := 0; i < 1000; i++ {
		d := r.jitter(base)
		if d < base/2 || d >= base*3/2 {
			t.Fatalf("jitter(%v) = %v outside [%v, %v)", base, d, base/2, base*3/2)
		}
	}
}
