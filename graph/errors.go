package graph

import "errors"

var (
	// ErrEmptyName is returned when a group or task name is empty.
	ErrEmptyName = errors.New("graph: name must not be empty")

	// ErrNilTask is returned when a nil task function is added.
	ErrNilTask = errors.New("graph: task must not be nil")

	// ErrNilGroup is returned when a chain target is nil.
	ErrNilGroup = errors.New("graph: group must not be nil")

	// ErrSelfChain is returned when a group is chained to itself.
	ErrSelfChain = errors.New("graph: cannot chain a group to itself")

	// ErrDuplicateChain is returned when the two groups are already chained.
	ErrDuplicateChain = errors.New("graph: groups are already chained")

	// ErrNoGroups is returned by Build when the manager holds no groups.
	ErrNoGroups = errors.New("graph: no groups to build")

	// ErrCyclicChain is returned by Build when the precedence relation
	// contains a cycle.
	ErrCyclicChain = errors.New("graph: precedence chain contains a cycle")

	// ErrAlreadyRunning is returned by Run when the topology is already
	// being executed.
	ErrAlreadyRunning = errors.New("graph: topology is already running")
)
