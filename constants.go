package uringbench

import "github.com/ehrlich-b/go-uringbench/internal/constants"

// Re-export constants for public API
const (
	DefaultQueueDepth        = constants.DefaultQueueDepth
	MaxQueueDepth            = constants.MaxQueueDepth
	DefaultBlockSize         = constants.DefaultBlockSize
	DefaultExtentSize        = constants.DefaultExtentSize
	DefaultSyncCadence       = constants.DefaultSyncCadence
	DefaultMaxRetries        = constants.DefaultMaxRetries
	DefaultTelemetryInterval = constants.DefaultTelemetryInterval
	DefaultRetryBackoff      = constants.DefaultRetryBackoff
	DefaultMaxRetryBackoff   = constants.DefaultMaxRetryBackoff
	BufferAlignment          = constants.BufferAlignment
)
