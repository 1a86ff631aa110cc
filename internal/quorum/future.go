package quorum

import (
	"context"
	"sync"
)

// Future is a single-assignment boolean result.
type Future struct {
	once sync.Once
	done chan struct{}
	ok   bool
}

// NewFuture creates an unresolved future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved creates a future already resolved to ok.
func Resolved(ok bool) *Future {
	f := NewFuture()
	f.Resolve(ok)
	return f
}

// Resolve sets the result. Only the first call has an effect.
func (f *Future) Resolve(ok bool) {
	f.once.Do(func() {
		f.ok = ok
		close(f.done)
	})
}

// Done is closed once the future is resolved.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result returns the value and whether it is available yet.
func (f *Future) Result() (ok, ready bool) {
	select {
	case <-f.done:
		return f.ok, true
	default:
		return false, false
	}
}

// Wait blocks until the future resolves or ctx is done.
func (f *Future) Wait(ctx context.Context) (bool, error) {
	select {
	case <-f.done:
		return f.ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// All resolves once every future has resolved, to the AND of their results.
// It never resolves early on a false input, and an empty list resolves true.
func All(futures []*Future) *Future {
	if len(futures) == 0 {
		return Resolved(true)
	}

	out := NewFuture()

	go func() {
		ok := true

		for _, f := range futures {
			<-f.done
			ok = ok && f.ok
		}

		out.Resolve(ok)
	}()

	return out
}
