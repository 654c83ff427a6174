package pool

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
)

// ErrInvalidWorkers is returned by [New] when the worker count is not positive.
var ErrInvalidWorkers = errors.New("pool: worker count must be positive")

// ErrPoolClosed is returned when a task is submitted after [Pool.Shutdown]
// has been initiated, and by a second call to Shutdown. Tasks that were
// still queued when the pool shut down complete their handles with this
// error as well.
var ErrPoolClosed = errors.New("pool: pool is closed")

// ErrNilTask is returned when a nil function is submitted.
var ErrNilTask = errors.New("pool: task must not be nil")

// PanicError wraps a value recovered from a panicking task together with
// the stack trace captured at the point of the panic. Panics never cross
// a worker boundary; they surface as a *PanicError when the task's handle
// or scope is joined.
type PanicError struct {
	// Value is the original value passed to panic().
	Value any

	// Stack is the goroutine stack trace at the point of panic.
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("pool: task panicked: %v\n\n%s", e.Value, e.Stack)
}

func newPanicError(v any) *PanicError {
	// runtime.Stack truncates gracefully if the buffer is too small.
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{Value: v, Stack: string(buf[:n])}
}

// ScopeError aggregates failures from tasks spawned under one scope.
// The primary error is the failure of the earliest-spawned failed task;
// every failure remains retrievable via [ScopeError.Failures].
type ScopeError struct {
	first    error
	failures []error
}

func (e *ScopeError) Error() string {
	if len(e.failures) == 1 {
		return fmt.Sprintf("pool: scope failed: %v", e.first)
	}
	return fmt.Sprintf("pool: scope failed (%d tasks): first: %v", len(e.failures), e.first)
}

// First returns the failure of the earliest-spawned failed task.
func (e *ScopeError) First() error { return e.first }

// Failures returns every task failure in spawn order.
func (e *ScopeError) Failures() []error { return e.failures }

// Unwrap exposes all failures to errors.Is and errors.As.
func (e *ScopeError) Unwrap() []error { return e.failures }

// scopeFailure pairs a task failure with the task's spawn sequence number
// so the primary error is deterministic regardless of completion order.
type scopeFailure struct {
	seq int64
	err error
}

func newScopeError(failures []scopeFailure) *ScopeError {
	sort.Slice(failures, func(i, j int) bool { return failures[i].seq < failures[j].seq })
	errs := make([]error, len(failures))
	for i, f := range failures {
		errs[i] = f.err
	}
	return &ScopeError{first: errs[0], failures: errs}
}
