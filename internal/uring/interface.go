// Package uring provides the asynchronous submission/completion transport
// used by the write engine
package uring

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/ehrlich-b/go-uringbench/internal/logging"
)

// Kernel values from include/uapi/linux/io_uring.h
const (
	SetupIOPoll uint32 = 1 << 0 // IORING_SETUP_IOPOLL
	SetupSQPoll uint32 = 1 << 1 // IORING_SETUP_SQPOLL

	sqeFixedFile  uint8  = 1 << 0 // IOSQE_FIXED_FILE
	fsyncDatasync uint32 = 1 << 0 // IORING_FSYNC_DATASYNC
)

var (
	// ErrQueueFull is returned by Prepare* when the submission queue has no free entry
	ErrQueueFull = errors.New("uring: no free submission queue entry")

	// ErrClosed is returned after Close
	ErrClosed = errors.New("uring: ring closed")

	// ErrNotSupported is returned when the requested ring flavour is not built in
	ErrNotSupported = errors.New("uring: ring implementation not available")
)

// Ring is the submission/completion transport. Implementations are not safe
// for concurrent use; the engine drives them from a single goroutine.
type Ring interface {
	// PrepareWrite stages a write. It returns ErrQueueFull when no SQE is free.
	PrepareWrite(w Write) error

	// PrepareSync stages a data-sync barrier. It returns ErrQueueFull when no SQE is free.
	PrepareSync(s Sync) error

	// Submit hands every staged entry to the kernel and returns how many were taken
	Submit() (int, error)

	// WaitCompletion blocks until one completion is available
	WaitCompletion() (Completion, error)

	// PeekCompletion returns a completion if one is already available, without blocking
	PeekCompletion() (Completion, bool, error)

	// RegisterFiles registers fixed file descriptors; index i refers to fds[i]
	RegisterFiles(fds []int) error

	// RegisterBuffers registers fixed buffers; index i refers to bufs[i]
	RegisterBuffers(bufs [][]byte) error

	// Probe reports which opcodes the kernel supports
	Probe() (*Probe, error)

	// Close tears the ring down and releases registered resources
	Close() error
}

// Write describes one write operation
type Write struct {
	Token  uint64 // correlation token returned with the completion
	FD     int    // raw fd, or the registered index when FixedFile is set
	Buf    []byte // payload; must stay untouched until completion
	Offset uint64

	FixedFile   bool
	FixedBuffer bool
	BufIndex    int // registered buffer index when FixedBuffer is set
}

// Sync describes one data-sync barrier
type Sync struct {
	Token     uint64
	FD        int
	FixedFile bool
	DataOnly  bool // fdatasync semantics
}

// Completion is one finished operation
type Completion struct {
	Token uint64
	Res   int32 // bytes for writes, 0 for syncs, negative errno on failure
}

// Err returns the errno carried by a failed completion, or nil
func (c Completion) Err() error {
	if c.Res >= 0 {
		return nil
	}
	return syscall.Errno(-c.Res)
}

// Config contains configuration for creating a ring
type Config struct {
	Entries uint32 // Number of entries in the submission queue
	Flags   uint32 // SetupSQPoll, SetupIOPoll
}

// Kind names a ring implementation
type Kind string

const (
	KindGiouring Kind = "giouring"
	KindIceber   Kind = "iceber"
)

// NewRing creates a ring of the given kind
func NewRing(kind Kind, config Config) (Ring, error) {
	logger := logging.Default()
	logger.Debug("creating io_uring", "kind", string(kind), "entries", config.Entries,
		"flags", fmt.Sprintf("0x%x", config.Flags))

	var (
		ring Ring
		err  error
	)
	switch kind {
	case KindGiouring, "":
		ring, err = NewGiouringRing(config)
	case KindIceber:
		ring, err = NewIceberRing(config)
	default:
		err = fmt.Errorf("unknown ring kind %q", kind)
	}
	if err != nil {
		logger.Error("failed to create io_uring", "error", err)
		return nil, err
	}

	logger.Info("created io_uring", "kind", string(kind), "entries", config.Entries)
	return ring, nil
}

// IsTransient reports whether a submit error means "try again later"
// rather than a broken ring
func IsTransient(err error) bool {
	return errors.Is(err, ErrQueueFull) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.EINTR)
}
