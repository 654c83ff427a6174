package graph

import (
	"context"
	"slices"
	"sync"
)

// Manager owns a set of task groups. Groups are created through the
// manager and chained to each other with [Group.Precede] and
// [Group.Succeed]; [Manager.Build] snapshots them into an executable
// [Topology].
type Manager struct {
	mu     sync.Mutex
	groups []*Group
	nextID int
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// NewGroup creates a group with the given name. Names may be duplicated
// across groups but must not be empty.
func (m *Manager) NewGroup(name string) (*Group, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g := &Group{id: m.nextID, name: name}
	m.nextID++
	m.groups = append(m.groups, g)
	return g, nil
}

// Groups returns the manager's groups in creation order.
func (m *Manager) Groups() []*Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.groups)
}

// Group is a named set of tasks that execute together once every
// predecessor group has drained. Tasks within a group carry no mutual
// ordering.
type Group struct {
	id   int
	name string

	mu    sync.Mutex
	tasks []groupTask
	succs []*Group
	preds []*Group
}

type groupTask struct {
	name string
	fn   func(context.Context) error
}

// Name returns the group's name.
func (g *Group) Name() string { return g.name }

// NewTask adds a task to the group. Task names may be duplicated but
// must not be empty.
func (g *Group) NewTask(name string, fn func(context.Context) error) error {
	if name == "" {
		return ErrEmptyName
	}
	if fn == nil {
		return ErrNilTask
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks = append(g.tasks, groupTask{name: name, fn: fn})
	return nil
}

// Precede chains this group before other: other will not start until
// this group has drained.
func (g *Group) Precede(other *Group) error {
	return chain(g, other)
}

// Succeed chains this group after other: this group will not start until
// other has drained.
func (g *Group) Succeed(other *Group) error {
	return chain(other, g)
}

// chain records that before precedes after. Both group locks are taken
// in id order so concurrent chaining cannot deadlock.
func chain(before, after *Group) error {
	if before == nil || after == nil {
		return ErrNilGroup
	}
	if before == after {
		return ErrSelfChain
	}
	first, second := before, after
	if second.id < first.id {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if slices.Contains(before.succs, after) || slices.Contains(before.preds, after) {
		return ErrDuplicateChain
	}
	before.succs = append(before.succs, after)
	after.preds = append(after.preds, before)
	return nil
}
