package pool

import (
	"context"
	"sync"
	"sync/atomic"
)

// scopeState is the shared state of one structured region: an outstanding
// counter, the spawn sequence, and the recorded failures. It is updated by
// whichever workers execute the scope's tasks.
type scopeState struct {
	c   *core
	ctx context.Context

	pending atomic.Int64
	seq     atomic.Int64

	mu       sync.Mutex
	failures []scopeFailure

	// quiet receives a signal when pending drops to zero. Buffered so a
	// completing worker never blocks on a joiner that is busy helping.
	quiet chan struct{}
}

// Scope spawns tasks into one structured region. The [Pool.Scope] callback
// receives a Scope bound to the calling goroutine; each task spawned via
// [Scope.Spawn] receives a Scope bound to its executing worker, so nested
// spawns go to that worker's local deque and run in LIFO order.
type Scope struct {
	s *scopeState
	w *worker
}

// Go spawns a leaf task under the scope.
func (sc *Scope) Go(fn func(context.Context) error) {
	if fn == nil {
		return
	}
	sc.add(&task{fn: fn})
}

// Spawn spawns a task that may itself spawn further tasks under the same
// scope through the Scope it receives.
func (sc *Scope) Spawn(fn func(context.Context, *Scope) error) {
	if fn == nil {
		return
	}
	sc.add(&task{spawnFn: fn})
}

func (sc *Scope) add(t *task) {
	t.scope = sc.s
	t.seq = sc.s.seq.Add(1)
	sc.s.pending.Add(1)
	sc.s.c.schedule(t, sc.w)
}

// taskDone records a task's terminal state and releases the joiner when
// the scope drains.
func (s *scopeState) taskDone(t *task, err error) {
	if err != nil {
		s.mu.Lock()
		s.failures = append(s.failures, scopeFailure{seq: t.seq, err: err})
		s.mu.Unlock()
	}
	if s.pending.Add(-1) == 0 {
		select {
		case s.quiet <- struct{}{}:
		default:
		}
	}
}

func (s *scopeState) result() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.failures) == 0 {
		return nil
	}
	return newScopeError(s.failures)
}
