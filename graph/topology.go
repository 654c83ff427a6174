package graph

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/liliilli/kannon/pool"
)

// Topology is an executable snapshot of a manager's groups. Building
// validates the precedence relation; later changes to the manager do not
// affect an already-built topology. A topology may be run repeatedly,
// but not concurrently with itself.
type Topology struct {
	nodes   []*node
	roots   []*node
	running atomic.Bool
}

// node is one group frozen for execution. remTasks and remPreds are the
// countdown counters the scheduler cascades on: a group drains when
// remTasks reaches zero, and a successor is released when its remPreds
// reaches zero.
type node struct {
	name     string
	tasks    []groupTask
	succs    []*node
	numPreds int64

	remTasks atomic.Int64
	remPreds atomic.Int64
}

// Build snapshots the manager's groups into a topology. It fails with
// [ErrNoGroups] when the manager is empty and [ErrCyclicChain] when the
// precedence relation contains a cycle.
func (m *Manager) Build() (*Topology, error) {
	m.mu.Lock()
	groups := slices.Clone(m.groups)
	m.mu.Unlock()
	if len(groups) == 0 {
		return nil, ErrNoGroups
	}

	byGroup := make(map[*Group]*node, len(groups))
	nodes := make([]*node, 0, len(groups))
	for _, g := range groups {
		g.mu.Lock()
		n := &node{
			name:  g.name,
			tasks: append([]groupTask(nil), g.tasks...),
		}
		g.mu.Unlock()
		byGroup[g] = n
		nodes = append(nodes, n)
	}
	for _, g := range groups {
		g.mu.Lock()
		n := byGroup[g]
		for _, s := range g.succs {
			if sn, ok := byGroup[s]; ok {
				n.succs = append(n.succs, sn)
				sn.numPreds++
			}
		}
		g.mu.Unlock()
	}

	if err := checkAcyclic(nodes); err != nil {
		return nil, err
	}

	t := &Topology{nodes: nodes}
	for _, n := range nodes {
		if n.numPreds == 0 {
			t.roots = append(t.roots, n)
		}
	}
	return t, nil
}

// checkAcyclic runs Kahn's algorithm over the frozen nodes.
func checkAcyclic(nodes []*node) error {
	indeg := make(map[*node]int64, len(nodes))
	for _, n := range nodes {
		indeg[n] = n.numPreds
	}
	queue := make([]*node, 0, len(nodes))
	for _, n := range nodes {
		if indeg[n] == 0 {
			queue = append(queue, n)
		}
	}
	seen := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		seen++
		for _, s := range n.succs {
			indeg[s]--
			if indeg[s] == 0 {
				queue = append(queue, s)
			}
		}
	}
	if seen != len(nodes) {
		return ErrCyclicChain
	}
	return nil
}

// TaskCount returns the total number of tasks across all groups.
func (t *Topology) TaskCount() int {
	total := 0
	for _, n := range t.nodes {
		total += len(n.tasks)
	}
	return total
}

// Run executes the topology on p and blocks until every group has
// drained. Groups with no predecessors are seeded first; each finished
// group releases its successors. Failures do not stop the cascade:
// every reachable task still runs, and the scope's aggregated error is
// returned, with each failure attributed to its group and task.
func (t *Topology) Run(ctx context.Context, p *pool.Pool) error {
	if !t.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer t.running.Store(false)

	for _, n := range t.nodes {
		n.remTasks.Store(int64(len(n.tasks)))
		n.remPreds.Store(n.numPreds)
	}

	return p.Scope(ctx, func(s *pool.Scope) {
		for _, root := range t.roots {
			release(root, s)
		}
	})
}

// release spawns every task of a ready group, or cascades directly for
// an empty group so its successors are not blocked.
func release(n *node, s *pool.Scope) {
	if len(n.tasks) == 0 {
		groupDone(n, s)
		return
	}
	for _, gt := range n.tasks {
		s.Spawn(func(ctx context.Context, child *pool.Scope) error {
			// The cascade must run even when the task fails or panics so
			// downstream groups are never stranded.
			defer func() {
				if n.remTasks.Add(-1) == 0 {
					groupDone(n, child)
				}
			}()
			if err := gt.fn(ctx); err != nil {
				return fmt.Errorf("graph: group %q task %q: %w", n.name, gt.name, err)
			}
			return nil
		})
	}
}

func groupDone(n *node, s *pool.Scope) {
	for _, succ := range n.succs {
		if succ.remPreds.Add(-1) == 0 {
			release(succ, s)
		}
	}
}
