package uring

import (
	"errors"
	"fmt"
	"sync"
	"syscall"

	"github.com/ehrlich-b/go-uringbench/internal/interfaces"
)

// ErrSimIdle is returned by a simulated blocking wait with nothing in flight,
// which on a real ring would hang forever
var ErrSimIdle = errors.New("uring: wait with no operation in flight")

// SimOp is an operation seen by the simulated ring
type SimOp struct {
	Token       uint64
	Sync        bool
	Offset      uint64
	Length      uint32
	FixedFile   bool
	FixedBuffer bool
}

// SimEventType classifies a trace entry
type SimEventType int

const (
	SimPrepare SimEventType = iota // SQE filled
	SimSubmit                      // staged entries handed to the "kernel"
	SimReap                        // completion handed back to the caller
)

// SimEvent is one entry of the ring trace
type SimEvent struct {
	Type  SimEventType
	Token uint64 // unset for SimSubmit
	Sync  bool
	Count int // entries taken, for SimSubmit
}

// SimConfig controls the simulated ring
type SimConfig struct {
	// Entries is the submission queue capacity (unsubmitted entries)
	Entries uint32

	// Sink receives write payloads and barriers when they complete, if set
	Sink interfaces.Sink

	// Result may rewrite the completion result of an operation. res is the
	// value the ring would report on its own.
	Result func(op SimOp, res int32) int32

	// Exhaust makes the n-th Prepare call (1-based) fail with ErrQueueFull
	Exhaust func(n int) bool

	// PerWait is the number of in-flight operations that become complete on
	// each blocking wait. Zero completes everything in flight.
	PerWait int

	// Reverse completes operations newest-first
	Reverse bool

	// WaitErr makes the n-th WaitCompletion call (1-based) fail
	WaitErr func(n int) error

	// SubmitErr makes the n-th Submit call (1-based) fail
	SubmitErr func(n int) error

	// Supported opcodes reported by Probe; nil reports NOP, FSYNC, WRITE and WRITE_FIXED
	Supported []uint8
}

// Sim is a deterministic, single-threaded ring used by tests and dry runs
type Sim struct {
	mu sync.Mutex

	config   SimConfig
	staged   []pending
	inflight []pending
	ready    []Completion

	files   []int
	buffers [][]byte

	prepares int
	submits  int
	waits    int
	maxOut   int
	closed   bool

	ops   []SimOp
	trace []SimEvent
}

type pending struct {
	op  SimOp
	buf []byte
}

// NewSim creates a simulated ring
func NewSim(config SimConfig) *Sim {
	if config.Entries == 0 {
		config.Entries = 128
	}
	return &Sim{config: config}
}

func (s *Sim) outstanding() int {
	return len(s.staged) + len(s.inflight) + len(s.ready)
}

func (s *Sim) stage(p pending) error {
	if s.closed {
		return ErrClosed
	}
	s.prepares++
	if s.config.Exhaust != nil && s.config.Exhaust(s.prepares) {
		return ErrQueueFull
	}
	if len(s.staged) >= int(s.config.Entries) {
		return ErrQueueFull
	}

	s.staged = append(s.staged, p)
	s.ops = append(s.ops, p.op)
	s.trace = append(s.trace, SimEvent{Type: SimPrepare, Token: p.op.Token, Sync: p.op.Sync})
	if out := s.outstanding(); out > s.maxOut {
		s.maxOut = out
	}
	return nil
}

// PrepareWrite implements Ring
func (s *Sim) PrepareWrite(w Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op := SimOp{
		Token:       w.Token,
		Offset:      w.Offset,
		Length:      uint32(len(w.Buf)),
		FixedFile:   w.FixedFile,
		FixedBuffer: w.FixedBuffer,
	}
	buf := w.Buf
	if w.FixedBuffer && w.BufIndex >= 0 && w.BufIndex < len(s.buffers) {
		buf = s.buffers[w.BufIndex][:len(w.Buf)]
	}
	return s.stage(pending{op: op, buf: buf})
}

// PrepareSync implements Ring
func (s *Sim) PrepareSync(sy Sync) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stage(pending{op: SimOp{Token: sy.Token, Sync: true, FixedFile: sy.FixedFile}})
}

// Submit implements Ring
func (s *Sim) Submit() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	s.submits++
	if s.config.SubmitErr != nil {
		if err := s.config.SubmitErr(s.submits); err != nil {
			return 0, err
		}
	}

	n := len(s.staged)
	s.inflight = append(s.inflight, s.staged...)
	s.staged = s.staged[:0]
	if n > 0 {
		s.trace = append(s.trace, SimEvent{Type: SimSubmit, Count: n})
	}
	return n, nil
}

// complete runs an in-flight operation against the sink and computes its result
func (s *Sim) complete(p pending) Completion {
	var res int32
	switch {
	case p.op.FixedFile && len(s.files) == 0:
		res = -int32(syscall.EBADF)
	case p.op.FixedBuffer && len(s.buffers) == 0:
		res = -int32(syscall.EFAULT)
	case p.op.Sync:
		if s.config.Sink != nil {
			if err := s.config.Sink.Sync(); err != nil {
				res = -int32(syscall.EIO)
			}
		}
	default:
		res = int32(p.op.Length)
		if s.config.Sink != nil {
			n, err := s.config.Sink.WriteAt(p.buf, int64(p.op.Offset))
			switch {
			case err != nil && n == 0:
				res = -int32(syscall.ENOSPC)
			default:
				res = int32(n)
			}
		}
	}
	if s.config.Result != nil {
		res = s.config.Result(p.op, res)
	}
	return Completion{Token: p.op.Token, Res: res}
}

// advance moves up to PerWait in-flight operations to the ready list
func (s *Sim) advance() {
	n := len(s.inflight)
	if s.config.PerWait > 0 && s.config.PerWait < n {
		n = s.config.PerWait
	}
	for i := 0; i < n; i++ {
		var p pending
		if s.config.Reverse {
			p = s.inflight[len(s.inflight)-1]
			s.inflight = s.inflight[:len(s.inflight)-1]
		} else {
			p = s.inflight[0]
			s.inflight = s.inflight[1:]
		}
		s.ready = append(s.ready, s.complete(p))
	}
}

func (s *Sim) pop() Completion {
	c := s.ready[0]
	s.ready = s.ready[1:]
	s.trace = append(s.trace, SimEvent{Type: SimReap, Token: c.Token})
	return c
}

// WaitCompletion implements Ring
func (s *Sim) WaitCompletion() (Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Completion{}, ErrClosed
	}
	s.waits++
	if s.config.WaitErr != nil {
		if err := s.config.WaitErr(s.waits); err != nil {
			return Completion{}, err
		}
	}
	if len(s.ready) == 0 {
		s.advance()
	}
	if len(s.ready) == 0 {
		return Completion{}, ErrSimIdle
	}
	return s.pop(), nil
}

// PeekCompletion implements Ring
func (s *Sim) PeekCompletion() (Completion, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Completion{}, false, ErrClosed
	}
	if len(s.ready) == 0 {
		return Completion{}, false, nil
	}
	return s.pop(), true, nil
}

// RegisterFiles implements Ring
func (s *Sim) RegisterFiles(fds []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(fds) == 0 {
		return fmt.Errorf("register files: %w", syscall.EINVAL)
	}
	s.files = append([]int(nil), fds...)
	return nil
}

// RegisterBuffers implements Ring
func (s *Sim) RegisterBuffers(bufs [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(bufs) == 0 {
		return fmt.Errorf("register buffers: %w", syscall.EINVAL)
	}
	s.buffers = append([][]byte(nil), bufs...)
	return nil
}

// Probe implements Ring
func (s *Sim) Probe() (*Probe, error) {
	supported := s.config.Supported
	if supported == nil {
		supported = []uint8{OpNop, OpFsync, OpWriteFixed, OpWrite}
	}
	set := make(map[uint8]bool, len(supported))
	for _, op := range supported {
		set[op] = true
	}
	return NewProbe(func(op uint8) bool { return set[op] }), nil
}

// Close implements Ring
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Ops returns every prepared operation in preparation order
func (s *Sim) Ops() []SimOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SimOp(nil), s.ops...)
}

// Trace returns the event log
func (s *Sim) Trace() []SimEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SimEvent(nil), s.trace...)
}

// MaxOutstanding returns the highest number of operations the ring held at once
func (s *Sim) MaxOutstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxOut
}

// Outstanding returns the number of operations not yet reaped
func (s *Sim) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outstanding()
}

// Closed reports whether Close was called
func (s *Sim) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

var _ Ring = (*Sim)(nil)
