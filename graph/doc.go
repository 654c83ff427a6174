// Package graph organizes tasks into named groups chained by precedence
// relations and executes whole topologies on a pool. Groups with no
// predecessors run first; a group's successors are released once every
// task in the group has finished.
package graph
