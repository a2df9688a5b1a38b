package constants

import "time"

// Default run configuration
const (
	// DefaultQueueDepth is the default number of operations kept in flight
	DefaultQueueDepth = 1024

	// MaxQueueDepth is the largest depth accepted for a ring
	MaxQueueDepth = 32768

	// DefaultBlockSize is the default write unit size in bytes (64KB)
	DefaultBlockSize = 64 * 1024

	// DefaultExtentSize is the default total bytes written per run (10GB)
	DefaultExtentSize = 10 << 30

	// DefaultSyncCadence issues a data-sync barrier after every N writes
	DefaultSyncCadence = 1024

	// BufferAlignment is the alignment of the write unit buffer, required for O_DIRECT
	BufferAlignment = 4096

	// DirectIOBlockMultiple is the smallest block size granularity allowed with O_DIRECT
	DirectIOBlockMultiple = 512

	// FillByte is the constant payload written by every operation
	FillByte = 1

	// MaxRecordedOpErrors bounds the per-operation failures kept for diagnosis
	MaxRecordedOpErrors = 64

	// DefaultMaxRetries is the number of consecutive exhausted passes tolerated (0 = unlimited)
	DefaultMaxRetries = 1000
)

// Timing constants
const (
	// DefaultTelemetryInterval is the wall-clock cadence of telemetry samples
	DefaultTelemetryInterval = time.Second

	// DefaultRetryBackoff is the first sleep after the ring runs out of SQEs
	DefaultRetryBackoff = time.Millisecond

	// DefaultMaxRetryBackoff caps the exponential backoff
	DefaultMaxRetryBackoff = time.Second

	// SlowFillThreshold is the fill pass duration above which the pass is logged
	SlowFillThreshold = 10 * time.Microsecond

	// LargeReapThreshold is the completions-per-pass count above which the pass is logged
	LargeReapThreshold = 10
)
