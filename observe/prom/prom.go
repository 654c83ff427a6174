// Package prom exports pool scheduler events as Prometheus metrics.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Observer implements pool.Observer on top of Prometheus collectors.
// All hooks are cheap atomic updates and safe for concurrent use.
type Observer struct {
	workers      prometheus.Gauge
	tasksActive  prometheus.Gauge
	tasksTotal   *prometheus.CounterVec
	taskDuration prometheus.Histogram
	stealsTotal  prometheus.Counter
	scopesTotal  prometheus.Counter
	joinWait     prometheus.Histogram
}

// New registers the pool collectors with reg and returns the observer.
// Pass prometheus.DefaultRegisterer to use the default registry.
func New(reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)
	return &Observer{
		workers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "kannon",
			Subsystem: "pool",
			Name:      "workers",
			Help:      "Number of running worker goroutines.",
		}),
		tasksActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "kannon",
			Subsystem: "pool",
			Name:      "tasks_active",
			Help:      "Tasks currently executing.",
		}),
		tasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kannon",
			Subsystem: "pool",
			Name:      "tasks_total",
			Help:      "Finished tasks partitioned by result.",
		}, []string{"result"}),
		taskDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kannon",
			Subsystem: "pool",
			Name:      "task_duration_seconds",
			Help:      "Task execution time.",
			Buckets:   prometheus.ExponentialBuckets(10e-6, 4, 12),
		}),
		stealsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kannon",
			Subsystem: "pool",
			Name:      "steals_total",
			Help:      "Tasks taken from a peer worker's queue.",
		}),
		scopesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kannon",
			Subsystem: "pool",
			Name:      "scopes_total",
			Help:      "Scopes opened.",
		}),
		joinWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kannon",
			Subsystem: "pool",
			Name:      "scope_join_wait_seconds",
			Help:      "Time a caller spent joining a scope.",
			Buckets:   prometheus.ExponentialBuckets(10e-6, 4, 12),
		}),
	}
}

func (o *Observer) PoolStarted(workers int) { o.workers.Set(float64(workers)) }
func (o *Observer) PoolShutdown()           { o.workers.Set(0) }

func (o *Observer) TaskStarted(int) { o.tasksActive.Inc() }

func (o *Observer) TaskFinished(d time.Duration, err error, panicked bool) {
	o.tasksActive.Dec()
	o.taskDuration.Observe(d.Seconds())
	switch {
	case panicked:
		o.tasksTotal.WithLabelValues("panic").Inc()
	case err != nil:
		o.tasksTotal.WithLabelValues("error").Inc()
	default:
		o.tasksTotal.WithLabelValues("ok").Inc()
	}
}

func (o *Observer) TaskStolen(int) { o.stealsTotal.Inc() }

func (o *Observer) ScopeOpened() { o.scopesTotal.Inc() }

func (o *Observer) ScopeJoined(wait time.Duration) { o.joinWait.Observe(wait.Seconds()) }
