// Package pool implements a fixed-size work-stealing task executor.
// Each worker owns a local LIFO deque; idle workers take externally
// submitted tasks from a shared injector queue or steal from peers.
// Scopes provide a join point for groups of spawned tasks and propagate
// the first failure in spawn order.
package pool
