package processor

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// The background task must exit on shutdown and leave no goroutines behind.
func TestShutdownLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	exp := &mockExporter{}
	p, err := New[int]("spans", exp, Config{
		MaxQueueSize:       64,
		MaxExportBatchSize: 16,
		ScheduledDelay:     10 * time.Millisecond,
		ExportTimeout:      time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 100; i++ {
		p.OnEnd(i)
	}
	if err := p.ForceFlush(context.Background()); err != nil {
		t.Fatalf("ForceFlush: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
