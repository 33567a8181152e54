// Package processor implements the batch pipeline between finished records
// and an exporter: a bounded queue fed by arbitrary producer goroutines and a
// single background task that stages, batches, and flushes on a timer, on
// batch size, or on demand. Backpressure is resolved by shedding load:
// producers never block and never see an error.
package processor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/szibis/telemetry-pipeline/internal/logging"
)

// ErrAlreadyShutdown is returned by ForceFlush and Shutdown after the
// processor has terminated.
var ErrAlreadyShutdown = errors.New("processor already shut down")

// ErrTimeout is returned to ForceFlush and Shutdown callers whose completion
// signal did not fire within the export timeout.
var ErrTimeout = errors.New("processor operation timed out")

// Exporter is the pipeline's view of a backend sink. Export receives
// ownership of the batch and must respect the context deadline; the processor
// never calls Export concurrently with itself, but abandons calls that outlive
// the export timeout. Shutdown is called at most once, after the final export.
type Exporter[T any] interface {
	Export(ctx context.Context, batch []T) error
	Shutdown(ctx context.Context) error
}

type msgKind int

const (
	msgEnqueue msgKind = iota
	msgFlush
	msgShutdown
)

// message is the unit placed on the internal queue. done is a one-shot
// completion signal, fulfilled exactly once by the background task for flush
// and shutdown messages.
type message[T any] struct {
	kind msgKind
	rec  T
	done chan struct{}
}

// Processor accepts finished records from arbitrary goroutines and delivers
// them to an exporter in bounded batches.
type Processor[T any] struct {
	name     string
	cfg      Config
	exporter Exporter[T]

	queue chan message[T]

	stopped  atomic.Bool
	dropped  atomic.Uint64
	stopOnce sync.Once
	loopDone chan struct{}
}

// New creates a processor and starts its background task. name labels the
// processor in metrics and logs (e.g. "spans", "logs").
func New[T any](name string, exp Exporter[T], cfg Config) (*Processor[T], error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Processor[T]{
		name:     name,
		cfg:      cfg,
		exporter: exp,
		queue:    make(chan message[T], cfg.MaxQueueSize),
		loopDone: make(chan struct{}),
	}
	go p.loop()
	return p, nil
}

// OnEnd hands a finished record to the pipeline. It never blocks and never
// returns an error: when the queue is full or the processor is shut down the
// record is dropped and counted.
func (p *Processor[T]) OnEnd(rec T) {
	if p.stopped.Load() {
		p.dropped.Add(1)
		droppedRecordsTotal.WithLabelValues(p.name, "shutdown").Inc()
		return
	}
	select {
	case p.queue <- message[T]{kind: msgEnqueue, rec: rec}:
	default:
		p.dropped.Add(1)
		droppedRecordsTotal.WithLabelValues(p.name, "queue_full").Inc()
	}
}

// DroppedRecords returns the total number of records shed by OnEnd.
func (p *Processor[T]) DroppedRecords() uint64 {
	return p.dropped.Load()
}

// ForceFlush exports everything staged so far and blocks the caller until the
// flush completes, the context is done, or the export timeout elapses. The
// background task is never blocked by a caller.
func (p *Processor[T]) ForceFlush(ctx context.Context) error {
	if p.stopped.Load() {
		return ErrAlreadyShutdown
	}
	done := make(chan struct{})
	msg := message[T]{kind: msgFlush, done: done}

	timer := time.NewTimer(p.cfg.ExportTimeout)
	defer timer.Stop()

	select {
	case p.queue <- msg:
	case <-p.loopDone:
		return ErrAlreadyShutdown
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTimeout
	}

	select {
	case <-done:
		return nil
	case <-p.loopDone:
		return ErrAlreadyShutdown
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTimeout
	}
}

// Shutdown flushes staged records, shuts the exporter down, and terminates
// the background task. New records are dropped from the moment Shutdown is
// called. Safe to call twice: the second call returns ErrAlreadyShutdown
// without blocking.
func (p *Processor[T]) Shutdown(ctx context.Context) error {
	err := ErrAlreadyShutdown
	p.stopOnce.Do(func() {
		p.stopped.Store(true)

		done := make(chan struct{})
		msg := message[T]{kind: msgShutdown, done: done}

		timer := time.NewTimer(p.cfg.ExportTimeout)
		defer timer.Stop()

		// The queue may be momentarily full of records enqueued before the
		// stop flag flipped; the background task is draining it, so a bounded
		// blocking send is safe here.
		select {
		case p.queue <- msg:
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-timer.C:
			err = ErrTimeout
			return
		}

		select {
		case <-p.loopDone:
			err = nil
		case <-ctx.Done():
			err = ctx.Err()
		case <-timer.C:
			err = ErrTimeout
		}
	})
	return err
}

// loop is the single background task. It owns the staging buffer, the ticker,
// and the exporter handle exclusively; no external synchronization applies to
// them.
func (p *Processor[T]) loop() {
	defer close(p.loopDone)

	ticker := time.NewTicker(p.cfg.ScheduledDelay)
	defer ticker.Stop()

	batch := make([]T, 0, p.cfg.MaxExportBatchSize)

	for {
		select {
		case msg := <-p.queue:
			switch msg.kind {
			case msgEnqueue:
				batch = append(batch, msg.rec)
				if len(batch) >= p.cfg.MaxExportBatchSize {
					batch = p.export(batch)
				}
			case msgFlush:
				// Flush exports whatever is staged and signals completion
				// regardless of the export outcome.
				batch = p.export(batch)
				close(msg.done)
			case msgShutdown:
				batch = p.drain(batch)
				batch = p.export(batch)
				p.shutdownExporter()
				close(msg.done)
				return
			}
			queueLength.WithLabelValues(p.name).Set(float64(len(p.queue)))
		case <-ticker.C:
			batch = p.export(batch)
		}
	}
}

// drain empties the queue of records enqueued before shutdown, exporting full
// batches as they accumulate.
func (p *Processor[T]) drain(batch []T) []T {
	for {
		select {
		case msg := <-p.queue:
			switch msg.kind {
			case msgEnqueue:
				batch = append(batch, msg.rec)
				if len(batch) >= p.cfg.MaxExportBatchSize {
					batch = p.export(batch)
				}
			case msgFlush:
				batch = p.export(batch)
				close(msg.done)
			}
		default:
			return batch
		}
	}
}

// export hands the staged batch to the exporter, racing the call against the
// export timeout. On timeout the result is abandoned, not awaited: a
// well-behaved exporter notices the context deadline and returns, but even
// one that does not cannot stall the pipeline. Failures are diagnostics, not
// retries; the batch is never re-queued at this layer. Returns a fresh
// staging buffer.
func (p *Processor[T]) export(batch []T) []T {
	if len(batch) == 0 {
		return batch
	}

	toSend := batch
	fresh := make([]T, 0, p.cfg.MaxExportBatchSize)

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.ExportTimeout)
	defer cancel()

	start := time.Now()
	result := make(chan error, 1)
	go func() {
		result <- p.exporter.Export(ctx, toSend)
	}()

	exportBatchesTotal.WithLabelValues(p.name).Inc()
	exportRecordsTotal.WithLabelValues(p.name).Add(float64(len(toSend)))

	select {
	case err := <-result:
		exportDurationSeconds.WithLabelValues(p.name).Observe(time.Since(start).Seconds())
		if err != nil {
			exportErrorsTotal.WithLabelValues(p.name, "failed").Inc()
			logging.Error("export failed", logging.F(
				"processor", p.name,
				"error", err.Error(),
				"batch_size", len(toSend),
			))
		}
	case <-ctx.Done():
		exportErrorsTotal.WithLabelValues(p.name, "timeout").Inc()
		logging.Error("export timed out, abandoning result", logging.F(
			"processor", p.name,
			"timeout", p.cfg.ExportTimeout.String(),
			"batch_size", len(toSend),
		))
	}

	return fresh
}

func (p *Processor[T]) shutdownExporter() {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.ExportTimeout)
	defer cancel()
	if err := p.exporter.Shutdown(ctx); err != nil {
		logging.Error("exporter shutdown failed", logging.F(
			"processor", p.name,
			"error", err.Error(),
		))
	}
}
