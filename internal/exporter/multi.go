package exporter

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Multi fans a batch out to several backends concurrently. Each target still
// sees serialized Export calls (the processor serializes, and Multi waits for
// all targets before returning). The first error is returned after every
// target has been attempted.
type Multi[T any] struct {
	targets []Target[T]
}

// NewMulti creates a fanout exporter over the given targets.
func NewMulti[T any](targets ...Target[T]) *Multi[T] {
	return &Multi[T]{targets: targets}
}

// Export sends the batch to every target concurrently.
func (m *Multi[T]) Export(ctx context.Context, batch []T) error {
	if len(m.targets) == 1 {
		return m.targets[0].Export(ctx, batch)
	}
	// Plain group, not WithContext: one failing backend must not cancel the
	// delivery to the others.
	var g errgroup.Group
	for _, t := range m.targets {
		g.Go(func() error {
			return t.Export(ctx, batch)
		})
	}
	return g.Wait()
}

// Shutdown shuts every target down, returning the first error.
func (m *Multi[T]) Shutdown(ctx context.Context) error {
	var g errgroup.Group
	for _, t := range m.targets {
		g.Go(func() error {
			return t.Shutdown(ctx)
		})
	}
	return g.Wait()
}
