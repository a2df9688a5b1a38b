// Package uringbench runs a bounded-depth sequential write benchmark through
// io_uring: a target extent is covered with fixed-size writes, interleaved
// with periodic data-sync barriers, while per-interval IOPS and throughput
// are reported.
package uringbench

import (
	"context"
	"fmt"
	"time"

	"github.com/ehrlich-b/go-uringbench/backend"
	"github.com/ehrlich-b/go-uringbench/internal/constants"
	"github.com/ehrlich-b/go-uringbench/internal/engine"
	"github.com/ehrlich-b/go-uringbench/internal/interfaces"
	"github.com/ehrlich-b/go-uringbench/internal/logging"
	"github.com/ehrlich-b/go-uringbench/internal/target"
	"github.com/ehrlich-b/go-uringbench/internal/telemetry"
	"github.com/ehrlich-b/go-uringbench/internal/uring"
)

// Re-exported engine types
type (
	OpError         = engine.OpError
	OpKind          = engine.Kind
	RunState        = engine.State
	TelemetrySample = telemetry.Sample
	TelemetrySink   = telemetry.Sink
	Sink            = interfaces.Sink
	OpStatus        = uring.OpStatus
)

const (
	OpWrite = engine.KindWrite
	OpSync  = engine.KindSync

	StateRunning  = engine.StateRunning
	StateDraining = engine.StateDraining
	StateDone     = engine.StateDone
	StateStopped  = engine.StateStopped
)

// Params contains parameters for a benchmark run
type Params struct {
	// Target file and extent
	Path      string
	Size      int64 // Extent in bytes (default: 10GiB)
	BlockSize int   // Write unit in bytes (default: 64KiB)

	// Workload shape
	QueueDepth  int // Operations in flight (default: 1024)
	SyncCadence int // Barrier after every N-th write, 0 disables (default: 1024)

	// Target open mode
	Create      bool // Create the file if missing
	Truncate    bool // Truncate on open
	Preallocate bool // fallocate the extent before writing
	Direct      bool // O_DIRECT; block size must be a multiple of 512
	DSync       bool // O_DSYNC
	NoAtime     bool // O_NOATIME

	// Ring setup
	SQPoll       bool // Kernel submission polling thread
	IOPoll       bool // Busy-poll completions (requires O_DIRECT capable device)
	FixedFiles   bool // Register the target as fixed file 0
	FixedBuffers bool // Register the write unit as fixed buffer 0
	Probe        bool // Log the kernel opcode report before the run
	RingKind     string

	// Exhaustion handling
	MaxRetries      int // Consecutive exhausted passes before giving up, 0 is unlimited
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration

	// Reporting
	TelemetryInterval time.Duration

	// Simulate runs against an in-memory ring instead of the kernel
	Simulate bool
}

// DefaultParams returns default run parameters for the given target path
func DefaultParams(path string) Params {
	return Params{
		Path:        path,
		Size:        constants.DefaultExtentSize,
		BlockSize:   constants.DefaultBlockSize,
		QueueDepth:  constants.DefaultQueueDepth,
		SyncCadence: constants.DefaultSyncCadence,

		Create:      true,
		Preallocate: true,
		Direct:      true,
		NoAtime:     true,

		RingKind: string(uring.KindGiouring),

		MaxRetries:      constants.DefaultMaxRetries,
		RetryBackoff:    constants.DefaultRetryBackoff,
		MaxRetryBackoff: constants.DefaultMaxRetryBackoff,

		TelemetryInterval: constants.DefaultTelemetryInterval,
	}
}

// Validate checks the parameters for consistency
func (p Params) Validate() error {
	invalid := func(format string, args ...any) error {
		return NewError("VALIDATE", ErrCodeInvalidParameters, fmt.Sprintf(format, args...))
	}
	switch {
	case p.Path == "" && !p.Simulate:
		return invalid("target path is required")
	case p.Size <= 0:
		return invalid("size must be positive, got %d", p.Size)
	case p.BlockSize <= 0:
		return invalid("block size must be positive, got %d", p.BlockSize)
	case p.Direct && p.BlockSize%constants.DirectIOBlockMultiple != 0:
		return invalid("block size %d is not a multiple of %d required by O_DIRECT",
			p.BlockSize, constants.DirectIOBlockMultiple)
	case p.Size%int64(p.BlockSize) != 0:
		return invalid("size %d is not a multiple of block size %d", p.Size, p.BlockSize)
	case p.QueueDepth < 1 || p.QueueDepth > constants.MaxQueueDepth:
		return invalid("queue depth %d outside [1, %d]", p.QueueDepth, constants.MaxQueueDepth)
	case p.SyncCadence < 0:
		return invalid("sync cadence must not be negative, got %d", p.SyncCadence)
	case p.MaxRetries < 0:
		return invalid("max retries must not be negative, got %d", p.MaxRetries)
	case p.RetryBackoff < 0 || p.MaxRetryBackoff < 0:
		return invalid("retry backoff must not be negative")
	case p.RingKind != "" && p.RingKind != string(uring.KindGiouring) && p.RingKind != string(uring.KindIceber):
		return invalid("unknown ring kind %q", p.RingKind)
	}
	return nil
}

// Options contains collaborators for a run
type Options struct {
	// Logger for run messages (if nil, uses the default logger)
	Logger *logging.Logger

	// Observer receives every completion (in addition to the built-in metrics)
	Observer Observer

	// Telemetry receives interval samples (in addition to the log)
	Telemetry TelemetrySink

	// SimSink receives simulated writes and barriers; nil counts and discards
	SimSink Sink

	// Sleep replaces time.Sleep for exhaustion backoff
	Sleep func(time.Duration)
}

// RunResult is the outcome of a run
type RunResult struct {
	engine.Result

	Metrics MetricsSnapshot
	Probe   []OpStatus // Kernel opcode report, if requested
	Setup   time.Duration
}

// Errs converts the recorded per-operation failures into structured errors
func (r *RunResult) Errs() []error {
	errs := make([]error, 0, len(r.OpErrors))
	for _, op := range r.OpErrors {
		errs = append(errs, NewOpError(op))
	}
	return errs
}

// simTarget stands in for a file when the ring is simulated
type simTarget struct {
	size    int64
	durable bool
}

func (s simTarget) Fd() int       { return -1 }
func (s simTarget) Size() int64   { return s.size }
func (s simTarget) Durable() bool { return s.durable }
func (s simTarget) Close() error  { return nil }

// Run opens the target, sets up the ring and drives the write workload to
// completion. Every resource acquired here is released before Run returns,
// on every path. Cancelling ctx drains in-flight operations and returns the
// partial result with an ErrCancelled error.
//
// Example:
//
//	params := uringbench.DefaultParams("/mnt/nvme/bench.dat")
//	params.Size = 1 << 30
//	res, err := uringbench.Run(ctx, params, nil)
func Run(ctx context.Context, params Params, options *Options) (*RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if options == nil {
		options = &Options{}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.WithRun(params.Path)

	setupStart := time.Now()

	tgt, err := openTarget(params)
	if err != nil {
		return nil, WrapError("OPEN", err)
	}
	defer closeLogged(logger, "target", tgt.Close)

	buf, err := target.NewBuffer(params.BlockSize, constants.FillByte)
	if err != nil {
		return nil, WrapError("ALLOC_BUFFER", err)
	}
	defer closeLogged(logger, "buffer", buf.Close)

	ring, err := newRing(params, options)
	if err != nil {
		return nil, WrapError("SETUP_RING", err)
	}
	defer closeLogged(logger, "ring", ring.Close)

	result := &RunResult{}

	if params.FixedFiles {
		if err := ring.RegisterFiles([]int{tgt.Fd()}); err != nil {
			return nil, WrapError("REGISTER_FILES", err)
		}
		logger.Info("registered fixed file")
	}
	if params.FixedBuffers {
		if err := ring.RegisterBuffers([][]byte{buf.Bytes()}); err != nil {
			return nil, WrapError("REGISTER_BUFFERS", err)
		}
		logger.Info("registered fixed buffer", "bytes", buf.Len())
	}
	if params.Probe {
		report, err := probeRing(ring)
		if err != nil {
			logger.Warn("probe failed", "error", err)
		} else {
			result.Probe = report
			logReport(logger, report)
		}
	}

	metrics := NewMetrics()
	var observer Observer = NewMetricsObserver(metrics)
	if options.Observer != nil {
		observer = multiObserver{observer, options.Observer}
	}

	var sink TelemetrySink = telemetry.LogSink{Logger: logger}
	if options.Telemetry != nil {
		sink = telemetry.MultiSink{sink, options.Telemetry}
	}

	eng, err := engine.New(engine.Config{
		Ring:        ring,
		Target:      tgt,
		Buffer:      buf.Bytes(),
		FixedFile:   params.FixedFiles,
		FixedBuffer: params.FixedBuffers,
		Depth:       params.QueueDepth,
		SyncCadence: params.SyncCadence,
		Backoff: engine.Backoff{
			Initial:     params.RetryBackoff,
			Max:         params.MaxRetryBackoff,
			MaxAttempts: params.MaxRetries,
			Sleep:       options.Sleep,
		},
		Interval: params.TelemetryInterval,
		Sink:     sink,
		Observer: observer,
		Logger:   logger,
	})
	if err != nil {
		return nil, WrapError("SETUP_ENGINE", err)
	}
	result.Setup = time.Since(setupStart)
	logger.Info("starting writes",
		"size", params.Size,
		"block_size", params.BlockSize,
		"depth", params.QueueDepth,
		"sync_cadence", params.SyncCadence,
		"durable", tgt.Durable())

	metrics.Reset()
	res, runErr := eng.Run(ctx)
	metrics.Stop()

	result.Result = *res
	result.Metrics = metrics.Snapshot()
	if runErr != nil {
		return result, WrapError("RUN", runErr)
	}
	return result, nil
}

// openTarget opens the real file, or a stand-in when simulating
func openTarget(params Params) (interfaces.Target, error) {
	if params.Simulate {
		return simTarget{size: params.Size, durable: params.DSync || params.Direct}, nil
	}
	return target.Open(target.Options{
		Path:        params.Path,
		Size:        params.Size,
		Create:      params.Create,
		Truncate:    params.Truncate,
		Preallocate: params.Preallocate,
		Direct:      params.Direct,
		DSync:       params.DSync,
		NoAtime:     params.NoAtime,
	})
}

// newRing creates the kernel ring, or a simulated one
func newRing(params Params, options *Options) (uring.Ring, error) {
	if params.Simulate {
		sink := options.SimSink
		if sink == nil {
			sink = backend.NewNull()
		}
		return uring.NewSim(uring.SimConfig{
			Entries: uint32(params.QueueDepth),
			Sink:    sink,
		}), nil
	}

	var flags uint32
	if params.SQPoll {
		flags |= uring.SetupSQPoll
	}
	if params.IOPoll {
		flags |= uring.SetupIOPoll
	}
	return uring.NewRing(uring.Kind(params.RingKind), uring.Config{
		Entries: uint32(params.QueueDepth),
		Flags:   flags,
	})
}

func closeLogged(logger *logging.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Warn("close failed", "resource", what, "error", err)
	}
}
