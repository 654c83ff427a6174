// Package zlog logs pool scheduler events through zerolog.
package zlog

import (
	"time"

	"github.com/rs/zerolog"
)

// Observer implements pool.Observer by emitting one structured log event
// per scheduler hook. Task-level events log at debug so a production
// logger only sees pool lifecycle and failures.
type Observer struct {
	log zerolog.Logger
}

// New wraps log in an observer.
func New(log zerolog.Logger) *Observer {
	return &Observer{log: log}
}

func (o *Observer) PoolStarted(workers int) {
	o.log.Info().Int("workers", workers).Msg("pool started")
}

func (o *Observer) PoolShutdown() {
	o.log.Info().Msg("pool shut down")
}

func (o *Observer) TaskStarted(worker int) {
	o.log.Debug().Int("worker", worker).Msg("task started")
}

func (o *Observer) TaskFinished(d time.Duration, err error, panicked bool) {
	switch {
	case panicked:
		o.log.Error().Dur("dur", d).Err(err).Msg("task panicked")
	case err != nil:
		o.log.Warn().Dur("dur", d).Err(err).Msg("task failed")
	default:
		o.log.Debug().Dur("dur", d).Msg("task finished")
	}
}

func (o *Observer) TaskStolen(victim int) {
	o.log.Debug().Int("victim", victim).Msg("task stolen")
}

func (o *Observer) ScopeOpened() {
	o.log.Debug().Msg("scope opened")
}

func (o *Observer) ScopeJoined(wait time.Duration) {
	o.log.Debug().Dur("wait", wait).Msg("scope joined")
}
