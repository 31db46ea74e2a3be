package services

import (
	"context"
	"sync"

	apperrors "github.com/savelydental/Savely/pkg/errors"
)

// FetchGuard makes sure only the most recent fetch for a key delivers its
// result. Starting a fetch cancels the one in flight for the same key, and a
// fetch that is no longer the latest when it returns yields ErrSuperseded.
type FetchGuard struct {
	mu       sync.Mutex
	next     uint64
	inflight map[string]*guardedFetch
}

type guardedFetch struct {
	seq    uint64
	cancel context.CancelFunc
}

// NewFetchGuard creates an empty guard
func NewFetchGuard() *FetchGuard {
	return &FetchGuard{inflight: make(map[string]*guardedFetch)}
}

func (g *FetchGuard) begin(ctx context.Context, key string) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	if prev, ok := g.inflight[key]; ok {
		prev.cancel()
	}
	g.next++
	g.inflight[key] = &guardedFetch{seq: g.next, cancel: cancel}
	return ctx, g.next
}

// finish releases the fetch and reports whether it was still the latest one
func (g *FetchGuard) finish(key string, seq uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	current, ok := g.inflight[key]
	if !ok || current.seq != seq {
		return false
	}
	current.cancel()
	delete(g.inflight, key)
	return true
}

// InFlight returns the number of keys with a running fetch
func (g *FetchGuard) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inflight)
}

// RunLatest runs fn under the guard for key
func RunLatest[T any](ctx context.Context, g *FetchGuard, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	fetchCtx, seq := g.begin(ctx, key)
	result, err := fn(fetchCtx)

	if !g.finish(key, seq) {
		var zero T
		return zero, apperrors.ErrSuperseded
	}
	return result, err
}
