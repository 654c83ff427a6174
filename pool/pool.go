package pool

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Pool is a fixed-size work-stealing executor. Construct one with [New],
// submit work with [Pool.Spawn] or [Pool.Scope], and tear it down with
// [Pool.Shutdown]. A Pool that becomes unreachable without an explicit
// Shutdown is shut down by a GC cleanup so worker goroutines do not leak,
// but relying on that forfeits the error result; call Shutdown.
type Pool struct {
	c *core
}

// core holds the shared scheduler state. Worker goroutines reference the
// core, not the Pool handle, so the handle can be collected independently.
type core struct {
	opts    Options
	log     zerolog.Logger
	obs     Observer
	inj     *injector
	workers []*worker
	sleep   wakeList

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	stop   chan struct{}
	closed atomic.Bool

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	stolen    atomic.Int64
	dropped   atomic.Int64
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Workers    int   // worker count, fixed at creation
	Submitted  int64 // tasks accepted for execution
	Completed  int64 // tasks that reached a terminal state by running
	Failed     int64 // completed tasks whose outcome was an error
	Stolen     int64 // tasks taken from a peer's deque
	Dropped    int64 // queued tasks accounted with ErrPoolClosed at shutdown
	QueueDepth int   // tasks waiting in the injector and local deques
}

// New creates a pool with n worker goroutines. The workers start
// immediately and run until [Pool.Shutdown].
func New(n int, opts ...Option) (*Pool, error) {
	if n <= 0 {
		return nil, ErrInvalidWorkers
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	obs := o.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &core{
		opts:   o,
		log:    o.Logger,
		obs:    obs,
		inj:    newInjector(),
		ctx:    ctx,
		cancel: cancel,
		stop:   make(chan struct{}),
	}
	c.workers = make([]*worker, n)
	for i := range c.workers {
		c.workers[i] = newWorker(i, c, o.QueueCapacity)
	}
	c.wg.Add(n)
	for _, w := range c.workers {
		go w.run()
	}

	c.log.Debug().Int("workers", n).Msg("pool started")
	obs.PoolStarted(n)

	p := &Pool{c: c}
	// Workers keep the core reachable, not the handle: when the handle is
	// collected without Shutdown the cleanup stops the workers.
	runtime.AddCleanup(p, func(c *core) { _ = c.shutdown() }, c)
	return p, nil
}

// NewAuto creates a pool sized to the available parallelism.
func NewAuto(opts ...Option) (*Pool, error) {
	return New(runtime.GOMAXPROCS(0), opts...)
}

// Spawn submits fn for execution and returns a handle to its outcome.
// It never blocks. After shutdown has been initiated it returns
// [ErrPoolClosed].
func (p *Pool) Spawn(fn func(context.Context) error) (*TaskHandle, error) {
	return p.c.spawn(fn)
}

// Scope runs fn with a new scope and blocks until every task spawned
// under the scope, transitively included, has completed. The calling
// goroutine executes pool tasks while it waits. If any spawned task
// failed, Scope returns a [*ScopeError] whose primary failure is the
// earliest-spawned one.
func (p *Pool) Scope(ctx context.Context, fn func(*Scope)) error {
	return p.c.scope(ctx, fn)
}

// Shutdown stops the workers and joins their goroutines. Tasks already
// running finish; tasks still queued do not run and are accounted for by
// completing their handles and scopes with [ErrPoolClosed]. A second call
// returns [ErrPoolClosed].
func (p *Pool) Shutdown() error {
	return p.c.shutdown()
}

// Stats returns a snapshot of pool counters. Safe to call concurrently.
func (p *Pool) Stats() Stats {
	return p.c.stats()
}

func (c *core) stopping() bool {
	return c.closed.Load()
}

func (c *core) spawn(fn func(context.Context) error) (*TaskHandle, error) {
	if fn == nil {
		return nil, ErrNilTask
	}
	if c.closed.Load() {
		return nil, ErrPoolClosed
	}
	h := &TaskHandle{done: make(chan struct{})}
	t := &task{fn: fn, handle: h}
	if !c.inj.push(t) {
		return nil, ErrPoolClosed
	}
	c.submitted.Add(1)
	c.sleep.wakeOne()
	return h, nil
}

func (c *core) scope(ctx context.Context, fn func(*Scope)) error {
	if fn == nil {
		return ErrNilTask
	}
	if c.closed.Load() {
		return ErrPoolClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s := &scopeState{c: c, ctx: ctx, quiet: make(chan struct{}, 1)}
	c.obs.ScopeOpened()
	fn(&Scope{s: s})

	start := time.Now()
	c.join(s)
	c.obs.ScopeJoined(time.Since(start))
	return s.result()
}

// join blocks until the scope's outstanding count reaches zero. The
// joiner participates in scheduling: it drains the injector and steals
// from workers instead of idling.
func (c *core) join(s *scopeState) {
	for s.pending.Load() > 0 {
		if t := c.poll(); t != nil {
			c.runTask(t, nil)
			continue
		}
		select {
		case <-s.quiet:
		case <-time.After(defaultMinParkDelay):
		}
	}
}

// poll takes one task on behalf of a non-worker goroutine.
func (c *core) poll() *task {
	if t := c.inj.pop(); t != nil {
		return t
	}
	for _, w := range c.workers {
		for attempt := 0; attempt < stealRetries; attempt++ {
			t, outcome := w.dq.steal()
			if outcome == stealOK {
				c.stolen.Add(1)
				c.obs.TaskStolen(w.id)
				return t
			}
			if outcome == stealEmpty {
				break
			}
		}
	}
	return nil
}

// schedule enqueues a scope-spawned task. Tasks spawned from a worker go
// to its local deque (LIFO) and spill to the injector when full; tasks
// spawned from outside go straight to the injector. If the pool shut
// down in the meantime the task is accounted for immediately.
func (c *core) schedule(t *task, w *worker) {
	c.submitted.Add(1)
	if w != nil && w.dq.push(t) {
		c.sleep.wakeOne()
		return
	}
	if !c.inj.push(t) {
		c.discard(t)
		return
	}
	c.sleep.wakeOne()
}

// runTask executes one task cell and records its outcome. w is nil when
// a joining caller runs the task.
func (c *core) runTask(t *task, w *worker) {
	workerID := -1
	var sc *Scope
	if t.scope != nil {
		sc = &Scope{s: t.scope, w: w}
	}
	ctx := c.ctx
	if t.scope != nil && t.scope.ctx != nil {
		ctx = t.scope.ctx
	}
	if w != nil {
		workerID = w.id
	}

	c.obs.TaskStarted(workerID)
	start := time.Now()
	err := t.run(ctx, sc)
	elapsed := time.Since(start)

	// Counters and observer hooks land before the task is marked done so
	// a joiner that returns observes every finished task's accounting.
	c.completed.Add(1)
	var pe *PanicError
	panicked := errors.As(err, &pe)
	if err != nil {
		c.failed.Add(1)
		c.log.Debug().Err(err).Bool("panicked", panicked).Msg("task failed")
	}
	c.obs.TaskFinished(elapsed, err, panicked)

	if t.scope != nil {
		t.scope.taskDone(t, err)
	}
	if t.handle != nil {
		t.handle.complete(err)
	}
}

// discard accounts for a task that will never run because the pool shut
// down while it was queued.
func (c *core) discard(t *task) {
	c.dropped.Add(1)
	c.log.Warn().Msg("task dropped at shutdown")
	if t.scope != nil {
		t.scope.taskDone(t, ErrPoolClosed)
	}
	if t.handle != nil {
		t.handle.complete(ErrPoolClosed)
	}
}

func (c *core) shutdown() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrPoolClosed
	}
	close(c.stop)
	c.sleep.wakeAll()
	c.wg.Wait()
	c.cancel()

	// No worker is alive past this point: seal the injector and account
	// for everything still queued so no join can hang.
	c.inj.seal()
	for {
		t := c.inj.pop()
		if t == nil {
			break
		}
		c.discard(t)
	}
	for _, w := range c.workers {
		for {
			t, outcome := w.dq.steal()
			if outcome == stealEmpty {
				break
			}
			if outcome == stealRetry {
				continue
			}
			c.discard(t)
		}
	}

	c.log.Debug().Int64("dropped", c.dropped.Load()).Msg("pool shut down")
	c.obs.PoolShutdown()
	return nil
}

func (c *core) stats() Stats {
	depth := c.inj.len()
	for _, w := range c.workers {
		depth += w.dq.size()
	}
	return Stats{
		Workers:    len(c.workers),
		Submitted:  c.submitted.Load(),
		Completed:  c.completed.Load(),
		Failed:     c.failed.Load(),
		Stolen:     c.stolen.Load(),
		Dropped:    c.dropped.Load(),
		QueueDepth: depth,
	}
}
