package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Limiter bounds the number of simultaneously in-flight operations to a
// fixed ceiling. It is safe for concurrent use and may be shared by
// several orchestrators when they should compete for the same capacity.
//
// The limiter only coordinates admission; it knows nothing about
// business-level success or failure and cannot itself fail after
// construction.
type Limiter struct {
	slots   chan struct{}
	ceiling int
	waiting atomic.Int64
}

// NewLimiter creates a limiter with the given concurrency ceiling.
func NewLimiter(ceiling int) (*Limiter, error) {
	if ceiling <= 0 {
		return nil, fmt.Errorf("concurrency ceiling must be positive, got %d", ceiling)
	}

	return &Limiter{
		slots:   make(chan struct{}, ceiling),
		ceiling: ceiling,
	}, nil
}

// Acquire blocks until a slot is free or the context is done. On
// success it returns a Permit whose Release must be called exactly once;
// Release is idempotent so deferred cleanup on every exit path is safe.
func (l *Limiter) Acquire(ctx context.Context) (*Permit, error) {
	l.waiting.Add(1)
	defer l.waiting.Add(-1)

	select {
	case l.slots <- struct{}{}:
		return &Permit{limiter: l}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Status returns a snapshot of the limiter's slot accounting. Total is
// the configured ceiling, Active the slots currently held, Pending the
// callers blocked in Acquire.
func (l *Limiter) Status() Status {
	return Status{
		Total:   l.ceiling,
		Active:  len(l.slots),
		Pending: int(l.waiting.Load()),
	}
}

// Ceiling returns the configured concurrency ceiling.
func (l *Limiter) Ceiling() int {
	return l.ceiling
}

// Permit represents one held limiter slot.
type Permit struct {
	limiter *Limiter
	once    sync.Once
}

// Release returns the slot. Calling Release more than once has no
// effect beyond the first call.
func (p *Permit) Release() {
	p.once.Do(func() {
		<-p.limiter.slots
	})
}
