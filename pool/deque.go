package pool

import "sync/atomic"

// stealOutcome reports the result of one steal attempt.
type stealOutcome int

const (
	// stealEmpty means the deque held no task.
	stealEmpty stealOutcome = iota
	// stealRetry means the attempt lost a race with the owner or another
	// stealer; the caller may retry a bounded number of times.
	stealRetry
	// stealOK means a task was taken.
	stealOK
)

// deque is a bounded Chase-Lev work-stealing deque. The owning worker
// pushes and pops at the tail (LIFO); any other worker may take from the
// head (FIFO). head only ever advances; a CAS on head arbitrates between
// stealers and an owner pop of the last element, so a task is dequeued
// at most once.
type deque struct {
	head atomic.Int64
	tail atomic.Int64
	buf  []atomic.Pointer[task]
	mask int64
}

// newDeque creates a deque with the given capacity, rounded up to a
// power of two.
func newDeque(capacity int) *deque {
	n := 1
	for n < capacity {
		n <<= 1
	}
	return &deque{buf: make([]atomic.Pointer[task], n), mask: int64(n - 1)}
}

// push appends a task at the owner end. It reports false when the deque
// is full; the caller spills to the injector. Owner only.
func (d *deque) push(t *task) bool {
	b := d.tail.Load()
	h := d.head.Load()
	if b-h >= int64(len(d.buf)) {
		return false
	}
	d.buf[b&d.mask].Store(t)
	d.tail.Store(b + 1)
	return true
}

// pop removes the most recently pushed task. Owner only.
func (d *deque) pop() *task {
	b := d.tail.Load() - 1
	d.tail.Store(b)
	h := d.head.Load()
	if h > b {
		// Empty; restore the canonical empty state.
		d.tail.Store(h)
		return nil
	}
	t := d.buf[b&d.mask].Load()
	if b > h {
		return t
	}
	// Single element left: race the stealers for it.
	if !d.head.CompareAndSwap(h, h+1) {
		t = nil
	}
	d.tail.Store(h + 1)
	return t
}

// steal takes the oldest task from the steal end. Safe from any worker.
func (d *deque) steal() (*task, stealOutcome) {
	h := d.head.Load()
	b := d.tail.Load()
	if h >= b {
		return nil, stealEmpty
	}
	t := d.buf[h&d.mask].Load()
	if !d.head.CompareAndSwap(h, h+1) {
		return nil, stealRetry
	}
	return t, stealOK
}

// size reports the approximate number of queued tasks.
func (d *deque) size() int {
	n := d.tail.Load() - d.head.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}
