//go:build linux

package uring

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"github.com/pawelgaczynski/giouring"
)

// giRing implements Ring on top of pawelgaczynski/giouring
type giRing struct {
	ring   *giouring.Ring
	config Config
	closed bool
}

// NewGiouringRing sets up a kernel io_uring with the requested depth and mode flags
func NewGiouringRing(config Config) (Ring, error) {
	ring := giouring.NewRing()
	if err := ring.QueueInit(config.Entries, config.Flags); err != nil {
		return nil, fmt.Errorf("io_uring_setup failed: %w", err)
	}
	return &giRing{ring: ring, config: config}, nil
}

func (r *giRing) PrepareWrite(w Write) error {
	if r.closed {
		return ErrClosed
	}
	if len(w.Buf) == 0 {
		return fmt.Errorf("uring: empty write buffer")
	}
	sqe := r.ring.GetSQE()
	if sqe == nil {
		return ErrQueueFull
	}

	addr := uintptr(unsafe.Pointer(&w.Buf[0]))
	if w.FixedBuffer {
		sqe.PrepareWriteFixed(w.FD, addr, uint32(len(w.Buf)), w.Offset, w.BufIndex)
	} else {
		sqe.PrepareWrite(w.FD, addr, uint32(len(w.Buf)), w.Offset)
	}
	// prepareRW leaves OpcodeFlags from the slot's previous entry in place.
	// After an fsync that is IORING_FSYNC_DATASYNC, which a write reads as
	// RWF_HIPRI and fails with EINVAL.
	sqe.OpcodeFlags = 0
	if w.FixedFile {
		sqe.Flags |= sqeFixedFile
	}
	sqe.UserData = w.Token
	return nil
}

func (r *giRing) PrepareSync(s Sync) error {
	if r.closed {
		return ErrClosed
	}
	sqe := r.ring.GetSQE()
	if sqe == nil {
		return ErrQueueFull
	}

	var flags uint32
	if s.DataOnly {
		flags = fsyncDatasync
	}
	sqe.PrepareFsync(s.FD, flags)
	if s.FixedFile {
		sqe.Flags |= sqeFixedFile
	}
	sqe.UserData = s.Token
	return nil
}

func (r *giRing) Submit() (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	n, err := r.ring.Submit()
	if err != nil {
		return int(n), fmt.Errorf("io_uring_enter failed: %w", err)
	}
	return int(n), nil
}

func (r *giRing) WaitCompletion() (Completion, error) {
	if r.closed {
		return Completion{}, ErrClosed
	}
	for {
		cqe, err := r.ring.WaitCQE()
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		if err != nil {
			return Completion{}, fmt.Errorf("wait cqe: %w", err)
		}
		c := Completion{Token: cqe.UserData, Res: cqe.Res}
		r.ring.CQESeen(cqe)
		return c, nil
	}
}

func (r *giRing) PeekCompletion() (Completion, bool, error) {
	if r.closed {
		return Completion{}, false, ErrClosed
	}
	cqe, err := r.ring.PeekCQE()
	if errors.Is(err, syscall.EAGAIN) || (err == nil && cqe == nil) {
		return Completion{}, false, nil
	}
	if err != nil {
		return Completion{}, false, fmt.Errorf("peek cqe: %w", err)
	}
	c := Completion{Token: cqe.UserData, Res: cqe.Res}
	r.ring.CQESeen(cqe)
	return c, true, nil
}

func (r *giRing) RegisterFiles(fds []int) error {
	if _, err := r.ring.RegisterFiles(fds); err != nil {
		return fmt.Errorf("register files: %w", err)
	}
	return nil
}

func (r *giRing) RegisterBuffers(bufs [][]byte) error {
	iovecs := make([]syscall.Iovec, 0, len(bufs))
	for _, b := range bufs {
		if len(b) == 0 {
			return fmt.Errorf("register buffers: empty buffer")
		}
		iov := syscall.Iovec{Base: &b[0]}
		iov.SetLen(len(b))
		iovecs = append(iovecs, iov)
	}
	if _, err := r.ring.RegisterBuffers(iovecs); err != nil {
		return fmt.Errorf("register buffers: %w", err)
	}
	return nil
}

func (r *giRing) Probe() (*Probe, error) {
	probe, err := r.ring.GetProbeRing()
	if err != nil {
		return nil, fmt.Errorf("probe ring: %w", err)
	}
	return NewProbe(probe.IsSupported), nil
}

func (r *giRing) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.ring.QueueExit()
	return nil
}
