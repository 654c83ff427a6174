package pool

import "time"

// Observer receives scheduler lifecycle events. Implementations must be
// safe for concurrent use; hooks run on worker goroutines and must not
// block or panic.
type Observer interface {
	PoolStarted(workers int)
	PoolShutdown()

	// TaskStarted fires when a worker begins executing a task. worker is
	// the worker index, or -1 when a joining caller executes the task.
	TaskStarted(worker int)
	TaskFinished(d time.Duration, err error, panicked bool)
	// TaskStolen fires when a task is taken from a peer's deque.
	TaskStolen(victim int)

	ScopeOpened()
	ScopeJoined(wait time.Duration)
}

type nopObserver struct{}

func (nopObserver) PoolStarted(int)                        {}
func (nopObserver) PoolShutdown()                          {}
func (nopObserver) TaskStarted(int)                        {}
func (nopObserver) TaskFinished(time.Duration, error, bool) {}
func (nopObserver) TaskStolen(int)                         {}
func (nopObserver) ScopeOpened()                           {}
func (nopObserver) ScopeJoined(time.Duration)              {}
