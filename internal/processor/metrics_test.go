package processor

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, cv *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("get counter: %v", err)
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.Counter.GetValue()
}

func TestQueueFullIncrementsDropCounter(t *testing.T) {
	exp := &mockExporter{}
	p, err := New[int]("metrics-drop", exp, Config{
		MaxQueueSize:       4,
		MaxExportBatchSize: 4,
		ScheduledDelay:     time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Shutdown(context.Background())

	before := counterValue(t, droppedRecordsTotal, "metrics-drop", "queue_full")

	// Stall the loop so the queue cannot drain, then overfill it.
	exp.block = make(chan struct{})
	exp.started = make(chan struct{}, 1)
	for i := 0; i < 4; i++ {
		p.OnEnd(i)
	}
	<-exp.started
	for i := 0; i < 6; i++ {
		p.OnEnd(100 + i)
	}
	dropped := p.DroppedRecords()
	close(exp.block)

	if dropped == 0 {
		t.Fatal("no records dropped with a stalled queue")
	}
	after := counterValue(t, droppedRecordsTotal, "metrics-drop", "queue_full")
	if got := after - before; got != float64(dropped) {
		t.Errorf("drop counter delta = %v, want %d", got, dropped)
	}
}

func TestExportCountersTrackBatches(t *testing.T) {
	exp := &mockExporter{}
	p, err := New[int]("metrics-export", exp, Config{
		MaxQueueSize:       64,
		MaxExportBatchSize: 8,
		ScheduledDelay:     time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}

	batchesBefore := counterValue(t, exportBatchesTotal, "metrics-export")
	recordsBefore := counterValue(t, exportRecordsTotal, "metrics-export")

	for i := 0; i < 16; i++ {
		p.OnEnd(i)
	}
	waitFor(t, 2*time.Second, func() bool { return exp.batchCount() == 2 })
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := counterValue(t, exportBatchesTotal, "metrics-export") - batchesBefore; got != 2 {
		t.Errorf("batch counter delta = %v, want 2", got)
	}
	if got := counterValue(t, exportRecordsTotal, "metrics-export") - recordsBefore; got != 16 {
		t.Errorf("record counter delta = %v, want 16", got)
	}
}
