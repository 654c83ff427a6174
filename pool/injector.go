package pool

import "sync"

// injector is the shared FIFO for tasks submitted from outside any worker
// and for local-deque overflow. Workers drain it only when their own deque
// is empty, so externally submitted root tasks are not starved. A growable
// ring under a mutex; the queue is never held locked across a task run.
type injector struct {
	mu     sync.Mutex
	buf    []*task
	head   int
	n      int
	sealed bool
}

func newInjector() *injector {
	return &injector{buf: make([]*task, 64)}
}

// push enqueues a task. It reports false once the injector has been
// sealed by shutdown; the task must then be accounted for by the caller.
func (q *injector) push(t *task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.sealed {
		return false
	}
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = t
	q.n++
	return true
}

// pop dequeues the oldest task, or nil.
func (q *injector) pop() *task {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.n == 0 {
		return nil
	}
	t := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return t
}

// seal stops the injector from accepting tasks. Called once at shutdown,
// before the leftover drain, so no submission can slip past the drain.
func (q *injector) seal() {
	q.mu.Lock()
	q.sealed = true
	q.mu.Unlock()
}

func (q *injector) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

func (q *injector) grow() {
	next := make([]*task, len(q.buf)*2)
	for i := 0; i < q.n; i++ {
		next[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = next
	q.head = 0
}
