package graph

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"

	"github.com/liliilli/kannon/pool"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestPool(t *testing.T) *pool.Pool {
	t.Helper()
	p, err := pool.New(4)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Shutdown() })
	return p
}

func TestGroupValidation(t *testing.T) {
	t.Parallel()
	m := NewManager()
	if _, err := m.NewGroup(""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	g, err := m.NewGroup("g")
	if err != nil {
		t.Fatal(err)
	}
	if err := g.NewTask("", func(context.Context) error { return nil }); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := g.NewTask("t", nil); !errors.Is(err, ErrNilTask) {
		t.Fatalf("expected ErrNilTask, got %v", err)
	}
}

func TestChainValidation(t *testing.T) {
	t.Parallel()
	m := NewManager()
	a, _ := m.NewGroup("a")
	b, _ := m.NewGroup("b")

	if err := a.Precede(nil); !errors.Is(err, ErrNilGroup) {
		t.Fatalf("expected ErrNilGroup, got %v", err)
	}
	if err := a.Precede(a); !errors.Is(err, ErrSelfChain) {
		t.Fatalf("expected ErrSelfChain, got %v", err)
	}
	if err := a.Precede(b); err != nil {
		t.Fatal(err)
	}
	if err := a.Precede(b); !errors.Is(err, ErrDuplicateChain) {
		t.Fatalf("expected ErrDuplicateChain, got %v", err)
	}
	// The reverse direction is the same chain seen from the other side.
	if err := b.Precede(a); !errors.Is(err, ErrDuplicateChain) {
		t.Fatalf("expected ErrDuplicateChain, got %v", err)
	}
}

func TestBuildRejectsEmptyAndCycles(t *testing.T) {
	t.Parallel()
	if _, err := NewManager().Build(); !errors.Is(err, ErrNoGroups) {
		t.Fatalf("expected ErrNoGroups, got %v", err)
	}

	m := NewManager()
	a, _ := m.NewGroup("a")
	b, _ := m.NewGroup("b")
	c, _ := m.NewGroup("c")
	if err := a.Precede(b); err != nil {
		t.Fatal(err)
	}
	if err := b.Precede(c); err != nil {
		t.Fatal(err)
	}
	if err := c.Precede(a); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Build(); !errors.Is(err, ErrCyclicChain) {
		t.Fatalf("expected ErrCyclicChain, got %v", err)
	}
}

// TestRunOrderedCascade mirrors a three-stage chain: third -> second ->
// first. Tasks in a later stage must observe every effect of earlier
// stages.
func TestRunOrderedCascade(t *testing.T) {
	t.Parallel()
	p := newTestPool(t)
	m := NewManager()

	var mu sync.Mutex
	value := 0

	first, _ := m.NewGroup("first")
	second, _ := m.NewGroup("second")
	third, _ := m.NewGroup("third")

	if err := first.NewTask("check", func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		if value != 180-45 {
			return errors.New("stage order violated")
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := second.NewTask("add", func(context.Context) error {
		mu.Lock()
		value += 180
		mu.Unlock()
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := third.NewTask("sub", func(context.Context) error {
		mu.Lock()
		value -= 45
		mu.Unlock()
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	// second runs before first, third before second.
	if err := second.Precede(first); err != nil {
		t.Fatal(err)
	}
	if err := third.Precede(second); err != nil {
		t.Fatal(err)
	}

	topo, err := m.Build()
	if err != nil {
		t.Fatal(err)
	}
	if got := topo.TaskCount(); got != 3 {
		t.Fatalf("expected 3 tasks, got %d", got)
	}
	if err := topo.Run(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunEmptyGroupReleasesSuccessors(t *testing.T) {
	t.Parallel()
	p := newTestPool(t)
	m := NewManager()

	empty, _ := m.NewGroup("empty")
	tail, _ := m.NewGroup("tail")
	ran := atomic.Bool{}
	if err := tail.NewTask("t", func(context.Context) error {
		ran.Store(true)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := empty.Precede(tail); err != nil {
		t.Fatal(err)
	}

	topo, err := m.Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := topo.Run(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran.Load() {
		t.Fatal("successor of an empty group never ran")
	}
}

func TestRunFailureDoesNotStrandSuccessors(t *testing.T) {
	t.Parallel()
	p := newTestPool(t)
	m := NewManager()

	head, _ := m.NewGroup("head")
	tail, _ := m.NewGroup("tail")
	boom := errors.New("boom")
	if err := head.NewTask("fails", func(context.Context) error { return boom }); err != nil {
		t.Fatal(err)
	}
	ran := atomic.Bool{}
	if err := tail.NewTask("runs", func(context.Context) error {
		ran.Store(true)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := head.Precede(tail); err != nil {
		t.Fatal(err)
	}

	topo, err := m.Build()
	if err != nil {
		t.Fatal(err)
	}
	err = topo.Run(context.Background(), p)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom in aggregate, got %v", err)
	}
	if !strings.Contains(err.Error(), `group "head" task "fails"`) {
		t.Fatalf("expected group/task attribution, got %v", err)
	}
	if !ran.Load() {
		t.Fatal("downstream group was stranded by an upstream failure")
	}
}

func TestRunRepeatable(t *testing.T) {
	t.Parallel()
	p := newTestPool(t)
	m := NewManager()

	g, _ := m.NewGroup("g")
	runs := atomic.Int64{}
	if err := g.NewTask("t", func(context.Context) error {
		runs.Add(1)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	topo, err := m.Build()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if err := topo.Run(context.Background(), p); err != nil {
			t.Fatal(err)
		}
	}
	if got := runs.Load(); got != 10 {
		t.Fatalf("expected 10 runs, got %d", got)
	}
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	t.Parallel()
	p := newTestPool(t)
	m := NewManager()

	g, _ := m.NewGroup("g")
	entered := make(chan struct{})
	release := make(chan struct{})
	if err := g.NewTask("t", func(context.Context) error {
		close(entered)
		<-release
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	topo, err := m.Build()
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- topo.Run(context.Background(), p) }()
	<-entered

	if err := topo.Run(context.Background(), p); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

// TestRunDiamond exercises a diamond dependency: both middle groups must
// drain before the join group runs.
func TestRunDiamond(t *testing.T) {
	t.Parallel()
	p := newTestPool(t)
	m := NewManager()

	src, _ := m.NewGroup("src")
	left, _ := m.NewGroup("left")
	right, _ := m.NewGroup("right")
	sink, _ := m.NewGroup("sink")

	middle := atomic.Int64{}
	addMiddle := func(g *Group) {
		_ = g.NewTask("mid", func(context.Context) error {
			middle.Add(1)
			return nil
		})
	}
	_ = src.NewTask("seed", func(context.Context) error { return nil })
	addMiddle(left)
	addMiddle(right)
	_ = sink.NewTask("join", func(context.Context) error {
		if middle.Load() != 2 {
			return errors.New("sink ran before both branches drained")
		}
		return nil
	})

	for _, err := range []error{
		src.Precede(left), src.Precede(right),
		left.Precede(sink), right.Precede(sink),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}

	topo, err := m.Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := topo.Run(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
