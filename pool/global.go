package pool

import "sync"

// The process-wide pool is created on first use and torn down only by an
// explicit [ShutdownDefault], keeping its lifecycle testable.
var (
	defaultMu   sync.Mutex
	defaultPool *Pool
)

// Default returns the process-wide pool, creating it on first use with
// the available parallelism.
func Default() *Pool {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultPool == nil {
		// NewAuto only fails on a non-positive worker count, which
		// GOMAXPROCS never reports.
		defaultPool, _ = NewAuto()
	}
	return defaultPool
}

// ShutdownDefault shuts down the process-wide pool, if one was created.
// A later [Default] call creates a fresh pool.
func ShutdownDefault() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultPool == nil {
		return nil
	}
	err := defaultPool.Shutdown()
	defaultPool = nil
	return err
}
