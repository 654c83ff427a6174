package pool

import (
	"math/rand/v2"
	"runtime"
	"sync"
	"time"
)

// wakeList tracks parked workers so new work can wake them immediately.
// Modeled as a register/wake list rather than a broadcast so one injected
// task wakes exactly one worker.
type wakeList struct {
	mu      sync.Mutex
	waiters []chan struct{}
}

// register adds ch to the wait list. The channel must be buffered with
// capacity 1 and drained before registering again.
func (l *wakeList) register(ch chan struct{}) {
	l.mu.Lock()
	l.waiters = append(l.waiters, ch)
	l.mu.Unlock()
}

// cancel removes ch if it is still registered.
func (l *wakeList) cancel(ch chan struct{}) {
	l.mu.Lock()
	for i, w := range l.waiters {
		if w == ch {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			break
		}
	}
	l.mu.Unlock()
}

// wakeOne signals the longest-parked waiter, if any.
func (l *wakeList) wakeOne() {
	l.mu.Lock()
	var ch chan struct{}
	if len(l.waiters) > 0 {
		ch = l.waiters[0]
		l.waiters = l.waiters[1:]
	}
	l.mu.Unlock()
	if ch != nil {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// wakeAll signals every waiter. Used by shutdown.
func (l *wakeList) wakeAll() {
	l.mu.Lock()
	waiters := l.waiters
	l.waiters = nil
	l.mu.Unlock()
	for _, ch := range waiters {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// worker is one scheduling loop bound to a goroutine for the pool's
// lifetime. It holds only an index and a back-reference into the core;
// the core is the sole owner of worker state.
type worker struct {
	id   int
	c    *core
	dq   *deque
	rng  *rand.Rand
	park chan struct{}
}

func newWorker(id int, c *core, queueCap int) *worker {
	return &worker{
		id:   id,
		c:    c,
		dq:   newDeque(queueCap),
		rng:  rand.New(rand.NewPCG(rand.Uint64(), uint64(id)+1)),
		park: make(chan struct{}, 1),
	}
}

// run is the scheduling loop: pop local, poll the injector, steal from
// peers in a fresh random order, spin, then park with capped exponential
// backoff until new work arrives or the pool shuts down.
func (w *worker) run() {
	defer w.c.wg.Done()
	w.c.log.Debug().Int("worker", w.id).Msg("worker started")

	idle := 0
	delay := defaultMinParkDelay
	for {
		if w.c.stopping() {
			w.c.log.Debug().Int("worker", w.id).Msg("worker stopping")
			return
		}

		t := w.dq.pop()
		if t == nil {
			t = w.sweep()
		}
		if t != nil {
			idle = 0
			delay = defaultMinParkDelay
			w.c.runTask(t, w)
			continue
		}

		idle++
		if idle <= w.c.opts.SpinCycles {
			runtime.Gosched()
			continue
		}
		idle = 0

		// Park. Re-sweep after registering so a task pushed between the
		// failed sweep and registration cannot be missed.
		select {
		case <-w.park:
		default:
		}
		w.c.sleep.register(w.park)
		if t := w.sweep(); t != nil {
			w.c.sleep.cancel(w.park)
			delay = defaultMinParkDelay
			w.c.runTask(t, w)
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-w.park:
			timer.Stop()
		case <-timer.C:
			w.c.sleep.cancel(w.park)
		case <-w.c.stop:
			timer.Stop()
			w.c.sleep.cancel(w.park)
			w.c.log.Debug().Int("worker", w.id).Msg("worker stopping")
			return
		}
		delay *= 2
		if delay > w.c.opts.MaxParkDelay {
			delay = w.c.opts.MaxParkDelay
		}
	}
}

// sweep polls the injector first, then attempts to steal from every peer
// in a fresh random permutation.
func (w *worker) sweep() *task {
	if t := w.c.inj.pop(); t != nil {
		return t
	}
	return w.stealPeers()
}

func (w *worker) stealPeers() *task {
	workers := w.c.workers
	for _, i := range w.rng.Perm(len(workers)) {
		victim := workers[i]
		if victim == w {
			continue
		}
		for attempt := 0; attempt < stealRetries; attempt++ {
			t, outcome := victim.dq.steal()
			if outcome == stealOK {
				w.c.stolen.Add(1)
				w.c.obs.TaskStolen(victim.id)
				return t
			}
			if outcome == stealEmpty {
				break
			}
			runtime.Gosched()
		}
	}
	return nil
}
