package otel

import "time"

// Nop is a no-op pool.Observer. It stands in for an OpenTelemetry-backed
// observer without adding the SDK dependency.
type Nop struct{}

// NewNop returns a no-op observer.
func NewNop() *Nop { return &Nop{} }

func (*Nop) PoolStarted(int)                         {}
func (*Nop) PoolShutdown()                           {}
func (*Nop) TaskStarted(int)                         {}
func (*Nop) TaskFinished(time.Duration, error, bool) {}
func (*Nop) TaskStolen(int)                          {}
func (*Nop) ScopeOpened()                            {}
func (*Nop) ScopeJoined(time.Duration)               {}
