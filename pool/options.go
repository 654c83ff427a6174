package pool

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultSpinCycles   = 32
	defaultMinParkDelay = 50 * time.Microsecond
	defaultMaxParkDelay = time.Millisecond
	defaultQueueCap     = 256

	// stealRetries bounds how often a contended steal is retried before
	// the victim is treated as empty for this sweep.
	stealRetries = 4
)

// Option configures a [Pool].
type Option func(*Options)

// Options holds pool tuning knobs. Zero values select the documented
// defaults.
type Options struct {
	// SpinCycles is the number of yield-and-resweep iterations an idle
	// worker performs before parking. Default 32.
	SpinCycles int

	// MaxParkDelay caps the exponential backoff of a parked worker's
	// periodic wake. Default 1ms. The initial delay is 50µs.
	MaxParkDelay time.Duration

	// QueueCapacity is the per-worker local deque capacity, rounded up
	// to a power of two. Overflow spills to the injector. Default 256.
	QueueCapacity int

	// Observer receives scheduler lifecycle events. Default none.
	Observer Observer

	// Logger receives worker lifecycle and dropped-task events.
	// Default zerolog.Nop(): task failures stay silent unless joined,
	// observed via Observer, or surfaced through this logger.
	Logger zerolog.Logger
}

func defaultOptions() Options {
	return Options{
		SpinCycles:    defaultSpinCycles,
		MaxParkDelay:  defaultMaxParkDelay,
		QueueCapacity: defaultQueueCap,
		Logger:        zerolog.Nop(),
	}
}

// WithSpinCycles sets how long an idle worker spins before parking.
func WithSpinCycles(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.SpinCycles = n
		}
	}
}

// WithMaxParkDelay caps the backoff delay of parked workers.
func WithMaxParkDelay(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.MaxParkDelay = d
		}
	}
}

// WithQueueCapacity sets the per-worker local deque capacity.
func WithQueueCapacity(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.QueueCapacity = n
		}
	}
}

// WithObserver registers obs for scheduler lifecycle events.
func WithObserver(obs Observer) Option {
	return func(o *Options) { o.Observer = obs }
}

// WithLogger sets the pool's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Options) { o.Logger = log }
}
