package volley

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate bounds the number of requests in flight. It is the only contended
// mutable state in the pipeline: at most limit holders exist at any instant
// and every waiter is eventually admitted as units are released.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate builds a gate admitting up to limit concurrent holders.
func NewGate(limit int64) *Gate {
	if limit < 1 {
		panic("volley: gate limit must be at least 1")
	}
	return &Gate{sem: semaphore.NewWeighted(limit)}
}

// Acquire blocks until a unit is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// Release returns a unit. Releasing without a matching acquire is a
// programming error.
func (g *Gate) Release() {
	g.sem.Release(1)
}
