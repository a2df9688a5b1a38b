//go:build linux && iceber

package uring

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/iceber/iouring-go"
	iouring_syscall "github.com/iceber/iouring-go/syscall"
)

// iceRing implements Ring using iceber/iouring-go. Requests are handed to the
// kernel as they are prepared and completions arrive on a channel, so Submit
// only reports how many went out since the last call. Fixed resources are not
// supported.
type iceRing struct {
	ring     *iouring.IOURing
	results  chan iouring.Result
	config   Config
	inflight int
	handed   int
}

// NewIceberRing creates a ring backed by iceber/iouring-go
func NewIceberRing(config Config) (Ring, error) {
	params := &iouring_syscall.IOURingParams{}
	if config.Flags&SetupIOPoll != 0 {
		params.Flags |= iouring_syscall.IORING_SETUP_IOPOLL
	}
	// WithParams replaces the params, so it must come before WithSQPoll
	opts := []iouring.IOURingOption{iouring.WithParams(params)}
	if config.Flags&SetupSQPoll != 0 {
		opts = append(opts, iouring.WithSQPoll())
	}
	ring, err := iouring.New(uint(config.Entries), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create io_uring: %w", err)
	}
	return &iceRing{
		ring:    ring,
		results: make(chan iouring.Result, 2*config.Entries),
		config:  config,
	}, nil
}

func (r *iceRing) submit(prep iouring.PrepRequest, token uint64) error {
	if r.inflight >= int(r.config.Entries) {
		return ErrQueueFull
	}
	if _, err := r.ring.SubmitRequest(prep.WithInfo(token), r.results); err != nil {
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EBUSY) {
			return ErrQueueFull
		}
		if errors.Is(err, iouring.ErrIOURingClosed) {
			return ErrClosed
		}
		return fmt.Errorf("submit request: %w", err)
	}
	r.inflight++
	r.handed++
	return nil
}

func (r *iceRing) PrepareWrite(w Write) error {
	if w.FixedFile || w.FixedBuffer {
		return ErrNotSupported
	}
	return r.submit(iouring.Pwrite(w.FD, w.Buf, w.Offset), w.Token)
}

func (r *iceRing) PrepareSync(s Sync) error {
	if s.FixedFile {
		return ErrNotSupported
	}
	prep := iouring.Fsync(s.FD)
	if s.DataOnly {
		prep = iouring.Fdatasync(s.FD)
	}
	return r.submit(prep, s.Token)
}

func (r *iceRing) Submit() (int, error) {
	n := r.handed
	r.handed = 0
	return n, nil
}

func (r *iceRing) complete(res iouring.Result) (Completion, error) {
	token, ok := res.GetRequestInfo().(uint64)
	if !ok {
		return Completion{}, fmt.Errorf("completion without token (%T)", res.GetRequestInfo())
	}
	r.inflight--

	if err := res.Err(); err != nil {
		var errno syscall.Errno
		if errors.As(err, &errno) {
			return Completion{Token: token, Res: -int32(errno)}, nil
		}
		if errors.Is(err, iouring.ErrRequestCanceled) {
			return Completion{Token: token, Res: -int32(syscall.ECANCELED)}, nil
		}
		return Completion{Token: token, Res: -int32(syscall.EIO)}, nil
	}
	// fsync results carry no value
	if res.Opcode() == iouring_syscall.IORING_OP_FSYNC {
		return Completion{Token: token}, nil
	}
	n, err := res.ReturnInt()
	if err != nil {
		return Completion{}, fmt.Errorf("write result: %w", err)
	}
	return Completion{Token: token, Res: int32(n)}, nil
}

func (r *iceRing) WaitCompletion() (Completion, error) {
	res, ok := <-r.results
	if !ok {
		return Completion{}, ErrClosed
	}
	return r.complete(res)
}

func (r *iceRing) PeekCompletion() (Completion, bool, error) {
	select {
	case res, ok := <-r.results:
		if !ok {
			return Completion{}, false, ErrClosed
		}
		c, err := r.complete(res)
		return c, err == nil, err
	default:
		return Completion{}, false, nil
	}
}

func (r *iceRing) RegisterFiles(fds []int) error       { return ErrNotSupported }
func (r *iceRing) RegisterBuffers(bufs [][]byte) error { return ErrNotSupported }

func (r *iceRing) Probe() (*Probe, error) {
	return nil, ErrNotSupported
}

func (r *iceRing) Close() error {
	return r.ring.Close()
}
