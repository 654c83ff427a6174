package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestStressManySubmitters drives the pool with 100k trivial tasks from
// several external goroutines and verifies no task is lost or duplicated.
func TestStressManySubmitters(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	p, err := New(8)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Shutdown()

	const submitters = 4
	const perSubmitter = 25_000
	const total = submitters * perSubmitter

	ran := atomic.Int64{}
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(submitters)
	for i := 0; i < submitters; i++ {
		go func() {
			defer wg.Done()
			handles := make([]*TaskHandle, 0, perSubmitter)
			for j := 0; j < perSubmitter; j++ {
				h, err := p.Spawn(func(_ context.Context) error {
					ran.Add(1)
					return nil
				})
				if err != nil {
					t.Error(err)
					return
				}
				handles = append(handles, h)
			}
			for _, h := range handles {
				if err := h.Join(); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(60 * time.Second):
		t.Fatal("stress run did not terminate in time")
	}
	if got := ran.Load(); got != total {
		t.Fatalf("expected %d executions, got %d", total, got)
	}
	if got := p.Stats().Completed; got != total {
		t.Fatalf("expected %d completions, got %d", total, got)
	}
}

// TestStressScopeChurn opens many scopes concurrently, each spawning
// nested tasks, and verifies every scope drains.
func TestStressScopeChurn(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	p, err := New(8)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Shutdown()

	const scopes = 32
	const tasksPerScope = 200

	ran := atomic.Int64{}
	var wg sync.WaitGroup
	wg.Add(scopes)
	for i := 0; i < scopes; i++ {
		go func() {
			defer wg.Done()
			err := p.Scope(context.Background(), func(s *Scope) {
				for j := 0; j < tasksPerScope; j++ {
					s.Spawn(func(_ context.Context, child *Scope) error {
						ran.Add(1)
						child.Go(func(_ context.Context) error {
							ran.Add(1)
							return nil
						})
						return nil
					})
				}
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	want := int64(scopes * tasksPerScope * 2)
	if got := ran.Load(); got != want {
		t.Fatalf("expected %d executions, got %d", want, got)
	}
}

// TestStealingFairness starves every worker locally and verifies that all
// injected tasks are eventually executed.
func TestStealingFairness(t *testing.T) {
	t.Parallel()
	p, err := New(4)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Shutdown()

	const m = 64
	ran := atomic.Int64{}
	handles := make([]*TaskHandle, 0, m)
	for i := 0; i < m; i++ {
		h, err := p.Spawn(func(_ context.Context) error {
			ran.Add(1)
			time.Sleep(time.Millisecond)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		handles = append(handles, h)
	}

	deadline := time.After(30 * time.Second)
	for _, h := range handles {
		select {
		case <-h.Done():
		case <-deadline:
			t.Fatal("injected tasks starved")
		}
	}
	if got := ran.Load(); got != m {
		t.Fatalf("expected %d executions, got %d", m, got)
	}
}
