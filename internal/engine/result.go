package engine

import (
	"fmt"
	"syscall"
	"time"
)

// Kind is the type of an in-flight operation
type Kind uint8

const (
	KindWrite Kind = iota
	KindSync
)

func (k Kind) String() string {
	switch k {
	case KindWrite:
		return "WRITE"
	case KindSync:
		return "SYNC"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// descriptor is what the engine remembers about one in-flight operation
type descriptor struct {
	kind      Kind
	offset    uint64
	length    uint32
	submitted time.Time
}

// OpError records one failed or short operation
type OpError struct {
	Token     uint64
	Kind      Kind
	Offset    uint64
	Requested uint32
	Written   uint32        // bytes confirmed, for short writes
	Errno     syscall.Errno // zero for short writes
}

func (e OpError) Error() string {
	if e.Errno != 0 {
		return fmt.Sprintf("%s token=%d offset=%d: %v", e.Kind, e.Token, e.Offset, e.Errno)
	}
	return fmt.Sprintf("%s token=%d offset=%d: short write %d of %d bytes",
		e.Kind, e.Token, e.Offset, e.Written, e.Requested)
}

// Result summarises a run. It is valid even when Run returns an error.
type Result struct {
	BytesWritten uint64 // bytes confirmed by write completions
	OpsCompleted uint64 // completions observed, failed ones included
	Errors       uint64 // failed writes, failed barriers and short writes

	WritesSubmitted uint64
	SyncsSubmitted  uint64
	WritesCompleted uint64 // successful, short included
	SyncsCompleted  uint64 // successful
	FailedWrites    uint64
	FailedSyncs     uint64
	ShortWrites     uint64
	SkippedBarriers uint64 // due but impossible to issue

	ExhaustedPasses uint64
	MaxOutstanding  int
	Cursor          uint64
	State           State
	Elapsed         time.Duration

	// OpErrors holds the first failures of the run, bounded in length
	OpErrors []OpError
}

// Clean reports whether the run covered its extent without a single error
func (r *Result) Clean() bool {
	return r.Errors == 0 && r.State == StateDone
}

// Throughput returns confirmed bytes per second over the run
func (r *Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.BytesWritten) / r.Elapsed.Seconds()
}

// IOPS returns successful completions per second over the run
func (r *Result) IOPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.WritesCompleted+r.SyncsCompleted) / r.Elapsed.Seconds()
}
