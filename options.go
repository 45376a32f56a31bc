package arctic

import (
	"log/slog"
	"time"
)

// Option configures a single AddCTI or RemoveCTI call.
//
// Example:
//
//	out, err := arctic.AddCTI(img, parallel, nil,
//	    arctic.WithWorkers(8),
//	    arctic.WithVerbosity(2))
type Option func(*options)

// options holds the per-call settings that never affect computed values.
type options struct {
	workers   int
	verbosity int
	logger    *slog.Logger
	recorder  Recorder
}

// defaultOptions returns the default call options.
func defaultOptions() options {
	return options{
		workers:   0, // GOMAXPROCS
		verbosity: 1,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithWorkers sets how many goroutines clock independent columns.
// Zero or negative uses GOMAXPROCS; 1 clocks every column on the caller's
// goroutine. Results do not depend on the worker count.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithVerbosity sets the diagnostic level for this call: 0 silent,
// 1 standard, 2 extra detail.
func WithVerbosity(v int) Option {
	return func(o *options) {
		o.verbosity = v
	}
}

// WithLogger overrides the package sink logger (see SetLogger) for this call.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRecorder attaches a Recorder that receives one ClockingStats per
// clocking direction.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// Direction names the axis charge is clocked along.
type Direction int

const (
	// Parallel clocking moves charge down columns toward the serial register.
	Parallel Direction = iota
	// Serial clocking moves charge along rows through the serial register.
	Serial
)

// String returns "parallel" or "serial".
func (d Direction) String() string {
	switch d {
	case Parallel:
		return "parallel"
	case Serial:
		return "serial"
	default:
		return "unknown"
	}
}

// ClockingStats summarises one clocking direction over one image.
type ClockingStats struct {
	Direction     Direction
	Rows          int
	Columns       int
	ExpressPasses int
	// Transfers counts trap-manager updates, one per phase per clock step.
	Transfers int64
	Duration  time.Duration
}

// Recorder receives clocking statistics. Implementations must be safe for
// use by concurrent AddCTI calls.
type Recorder interface {
	RecordClocking(stats ClockingStats)
}
