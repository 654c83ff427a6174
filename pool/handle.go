package pool

import "context"

// TaskHandle is the caller-held reference to one spawned task's outcome.
type TaskHandle struct {
	done chan struct{}
	err  error
}

// Join blocks until the task has reached a terminal state and returns its
// outcome: nil, the task's error, a [*PanicError] if it panicked, or
// [ErrPoolClosed] if the pool shut down before the task ran.
func (h *TaskHandle) Join() error {
	<-h.done
	return h.err
}

// Done returns a channel closed when the task reaches a terminal state.
func (h *TaskHandle) Done() <-chan struct{} {
	return h.done
}

// complete publishes the outcome. Called exactly once per task.
func (h *TaskHandle) complete(err error) {
	h.err = err
	close(h.done)
}

// Result is the typed outcome of a task submitted via [Submit].
type Result[T any] struct {
	h   *TaskHandle
	val T
}

// Submit spawns fn on p and returns a typed handle to its result.
func Submit[T any](p *Pool, fn func(context.Context) (T, error)) (*Result[T], error) {
	if fn == nil {
		return nil, ErrNilTask
	}
	r := &Result[T]{}
	h, err := p.Spawn(func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		// Published before the handle completes; Join observes it through
		// the handle's close.
		r.val = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.h = h
	return r, nil
}

// Join blocks until the task completes and returns its value and error.
// On error the value is the zero value of T.
func (r *Result[T]) Join() (T, error) {
	err := r.h.Join()
	if err != nil {
		var zero T
		return zero, err
	}
	return r.val, nil
}

// Done returns a channel closed when the task reaches a terminal state.
func (r *Result[T]) Done() <-chan struct{} {
	return r.h.Done()
}
