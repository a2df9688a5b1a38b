// Package engine drives a bounded-depth sequential write workload through an
// io_uring style ring: it keeps the ring filled up to the configured depth,
// interleaves data-sync barriers, reaps completions and accounts for them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ehrlich-b/go-uringbench/internal/constants"
	"github.com/ehrlich-b/go-uringbench/internal/interfaces"
	"github.com/ehrlich-b/go-uringbench/internal/logging"
	"github.com/ehrlich-b/go-uringbench/internal/telemetry"
	"github.com/ehrlich-b/go-uringbench/internal/uring"
)

// Config wires a single run
type Config struct {
	Ring   uring.Ring
	Target interfaces.Target
	Buffer []byte // payload of every write; its length is the write unit

	// FixedFile addresses the target as registered file index 0
	FixedFile bool
	// FixedBuffer writes from registered buffer index 0; Buffer must be that buffer
	FixedBuffer bool

	Depth       int
	SyncCadence int // barrier after every N-th write, 0 disables
	Backoff     Backoff

	Interval time.Duration    // telemetry sample interval
	Sink     telemetry.Sink   // nil discards samples
	Clock    func() time.Time // nil uses time.Now
	Observer Observer
	Logger   *logging.Logger
}

// Engine runs one workload. It is single-use and not safe for concurrent use.
type Engine struct {
	cfg      Config
	ring     uring.Ring
	fd       int
	budget   *Budget
	tracker  *Tracker
	barriers BarrierPolicy
	backoff  *Backoff
	meter    *telemetry.Meter
	observer Observer
	logger   *logging.Logger
	now      func() time.Time

	inflight    map[uint64]descriptor
	seq         uint64 // next token
	writes      uint64 // writes issued, drives barrier cadence
	unsubmitted int    // prepared but not yet taken by Submit
	owedBarrier bool   // barrier due but no SQE was free for it

	result Result
	ran    bool
}

// New validates cfg and creates an engine
func New(cfg Config) (*Engine, error) {
	if cfg.Ring == nil {
		return nil, fmt.Errorf("%w: ring is required", ErrConfig)
	}
	if cfg.Target == nil {
		return nil, fmt.Errorf("%w: target is required", ErrConfig)
	}
	if len(cfg.Buffer) == 0 {
		return nil, fmt.Errorf("%w: write buffer is empty", ErrConfig)
	}
	if cfg.Depth < 1 || cfg.Depth > constants.MaxQueueDepth {
		return nil, fmt.Errorf("%w: depth %d outside [1, %d]", ErrConfig, cfg.Depth, constants.MaxQueueDepth)
	}
	if cfg.SyncCadence < 0 {
		return nil, fmt.Errorf("%w: negative sync cadence %d", ErrConfig, cfg.SyncCadence)
	}
	if cfg.Target.Size() < 0 {
		return nil, fmt.Errorf("%w: negative extent %d", ErrConfig, cfg.Target.Size())
	}

	tracker, err := NewTracker(uint64(cfg.Target.Size()), uint64(len(cfg.Buffer)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	if cfg.Interval <= 0 {
		cfg.Interval = constants.DefaultTelemetryInterval
	}
	if cfg.Sink == nil {
		cfg.Sink = telemetry.NopSink{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Observer == nil {
		cfg.Observer = NoOpObserver{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}

	e := &Engine{
		cfg:     cfg,
		ring:    cfg.Ring,
		fd:      cfg.Target.Fd(),
		budget:  NewBudget(cfg.Depth),
		tracker: tracker,
		barriers: BarrierPolicy{
			Cadence: cfg.SyncCadence,
			Durable: cfg.Target.Durable(),
		},
		backoff:  &cfg.Backoff,
		observer: cfg.Observer,
		logger:   cfg.Logger,
		now:      cfg.Clock,
		inflight: make(map[uint64]descriptor, cfg.Depth),
	}
	if cfg.FixedFile {
		e.fd = 0
	}
	return e, nil
}

// Run issues writes until the extent is covered and every operation has
// completed. Cancelling ctx stops new submissions; in-flight operations are
// still reaped before Run returns the partial result and ctx's error. The
// result is always non-nil.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.ran {
		return nil, fmt.Errorf("%w: engine already ran", ErrConfig)
	}
	e.ran = true

	start := e.now()
	e.meter = telemetry.NewMeter(e.cfg.Interval, e.now)

	var runErr error
	for {
		if ctx.Err() != nil && e.tracker.HasNext() {
			e.logger.Info("stopping early", "cursor", e.tracker.Cursor(), "outstanding", e.budget.Outstanding())
			e.tracker.Stop()
			runErr = ctx.Err()
		}

		if e.tracker.State(e.budget.Outstanding()) >= StateDone {
			break
		}

		exhausted, progressed, err := e.fill()
		if err != nil {
			return e.finish(start, err)
		}
		if exhausted {
			e.result.ExhaustedPasses++
			if progressed {
				e.backoff.Reset()
			}
			if err := e.backoff.Wait(); err != nil {
				return e.finish(start, fmt.Errorf("%w after %d consecutive passes", err, e.backoff.Attempts()-1))
			}
		} else if progressed {
			e.backoff.Reset()
		}

		if e.submitted() > 0 {
			if err := e.reap(); err != nil {
				return e.finish(start, err)
			}
		}
	}

	if e.tracker.State(0) == StateDone {
		e.logger.Info("all writes completed", "pos", e.tracker.Cursor())
	}
	return e.finish(start, runErr)
}

// submitted is the number of operations the ring has actually been handed
func (e *Engine) submitted() int {
	return e.budget.Outstanding() - e.unsubmitted
}

func (e *Engine) finish(start time.Time, err error) (*Result, error) {
	if s, ok := e.meter.Flush(); ok {
		e.cfg.Sink.Emit(s)
	}
	e.result.Elapsed = e.now().Sub(start)
	e.result.Cursor = e.tracker.Cursor()
	e.result.MaxOutstanding = e.budget.HighWater()
	e.result.State = e.tracker.State(e.budget.Outstanding())
	result := e.result
	result.OpErrors = append([]OpError(nil), e.result.OpErrors...)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		e.logger.Error("run aborted", "error", err, "outstanding", e.budget.Outstanding())
	}
	return &result, err
}

// Outstanding returns the number of operations submitted but not completed
func (e *Engine) Outstanding() int { return e.budget.Outstanding() }

// State returns the current run state
func (e *Engine) State() State { return e.tracker.State(e.budget.Outstanding()) }
