// Package errgroup provides an adapter with golang.org/x/sync/errgroup
// semantics that runs its functions on a pool instead of spawning a
// goroutine per call. It eases incremental migration without pulling
// errgroup into the core library.
package errgroup

import (
	"context"
	"sync"

	"github.com/liliilli/kannon/pool"
)

// Group is an errgroup-like wrapper over a pool. The zero value is not
// usable; construct one with [WithContext].
type Group struct {
	p      *pool.Pool
	cancel context.CancelCauseFunc

	mu      sync.Mutex
	handles []*pool.TaskHandle

	errOnce sync.Once
	err     error
}

// WithContext creates a Group whose functions run on p. The returned
// context is canceled the first time a function passed to Go fails, with
// that error as the cause.
func WithContext(ctx context.Context, p *pool.Pool) (*Group, context.Context) {
	ctx, cancel := context.WithCancelCause(ctx)
	return &Group{p: p, cancel: cancel}, ctx
}

// Go submits f to the pool. The first f to return a non-nil error
// cancels the group context and determines the error Wait returns.
// If the pool has shut down, the submission error takes that role.
func (g *Group) Go(f func() error) {
	if f == nil {
		return
	}
	h, err := g.p.Spawn(func(context.Context) error {
		if err := f(); err != nil {
			g.setErr(err)
			return err
		}
		return nil
	})
	if err != nil {
		g.setErr(err)
		return
	}
	g.mu.Lock()
	g.handles = append(g.handles, h)
	g.mu.Unlock()
}

// Wait blocks until every submitted function has returned, then cancels
// the group context and reports the first error.
func (g *Group) Wait() error {
	g.mu.Lock()
	handles := g.handles
	g.handles = nil
	g.mu.Unlock()
	for _, h := range handles {
		// A panic or a shutdown drop surfaces here rather than inside f.
		if err := h.Join(); err != nil {
			g.setErr(err)
		}
	}
	g.cancel(nil)
	return g.err
}

func (g *Group) setErr(err error) {
	g.errOnce.Do(func() {
		g.err = err
		g.cancel(err)
	})
}
