package pool

import (
	"context"
	"sync/atomic"
)

// Task cell states.
const (
	taskPending int32 = iota
	taskRunning
	taskDone
)

// task is the heap-allocated cell for one unit of work. A cell is owned
// by exactly one queue, or one executing worker, at any instant; ownership
// transfers on dequeue or steal. Exactly one of fn and spawnFn is set.
type task struct {
	fn      func(context.Context) error
	spawnFn func(context.Context, *Scope) error

	// scope is the owning scope, nil for handle-only tasks.
	scope *scopeState
	// handle receives the outcome, nil for scope tasks.
	handle *TaskHandle
	// seq is the spawn order within the owning scope.
	seq int64

	state atomic.Int32
}

// run executes the cell's function at most once, converting a panic into
// a *PanicError at the execution boundary. sc is the scope view bound to
// the executing worker, nil for handle-only tasks.
func (t *task) run(ctx context.Context, sc *Scope) (err error) {
	if !t.state.CompareAndSwap(taskPending, taskRunning) {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
		t.state.Store(taskDone)
	}()
	if t.spawnFn != nil {
		return t.spawnFn(ctx, sc)
	}
	return t.fn(ctx)
}
