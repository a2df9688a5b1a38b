package engine

import (
	"fmt"
	"syscall"

	"github.com/ehrlich-b/go-uringbench/internal/constants"
	"github.com/ehrlich-b/go-uringbench/internal/uring"
)

// reap blocks for one completion, then drains whatever else is ready
// without blocking
func (e *Engine) reap() error {
	prev := e.budget.Outstanding()

	c, err := e.ring.WaitCompletion()
	if err != nil {
		return fmt.Errorf("%w: wait: %w", ErrTransport, err)
	}
	if err := e.complete(c); err != nil {
		return err
	}
	reaped := 1

	for e.submitted() > 0 {
		c, ok, err := e.ring.PeekCompletion()
		if err != nil {
			return fmt.Errorf("%w: peek: %w", ErrTransport, err)
		}
		if !ok {
			break
		}
		if err := e.complete(c); err != nil {
			return err
		}
		reaped++
	}

	if reaped >= constants.LargeReapThreshold {
		e.logger.Debug("reaped", "count", reaped, "prev", prev)
	}
	return nil
}

// complete accounts for one completion and releases its budget slot
func (e *Engine) complete(c uring.Completion) error {
	d, ok := e.inflight[c.Token]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownToken, c.Token)
	}
	delete(e.inflight, c.Token)
	e.budget.Release()
	e.result.OpsCompleted++
	latency := uint64(e.now().Sub(d.submitted).Nanoseconds())

	switch d.kind {
	case KindWrite:
		e.completeWrite(c, d, latency)
	case KindSync:
		e.completeSync(c, d, latency)
	}

	if s, ok := e.meter.Tick(); ok {
		e.cfg.Sink.Emit(s)
	}
	return nil
}

func (e *Engine) completeWrite(c uring.Completion, d descriptor, latency uint64) {
	if c.Res < 0 {
		errno := syscall.Errno(-c.Res)
		e.result.FailedWrites++
		e.result.Errors++
		e.record(OpError{Token: c.Token, Kind: KindWrite, Offset: d.offset, Requested: d.length, Errno: errno})
		e.observer.ObserveWrite(0, latency, false)
		e.logger.WithOp(c.Token, KindWrite.String()).Warn("write failed", "offset", d.offset, "error", errno)
		return
	}

	written := uint64(c.Res)
	e.result.WritesCompleted++
	e.result.BytesWritten += written
	e.meter.Record(written)

	if written < uint64(d.length) {
		e.result.ShortWrites++
		e.result.Errors++
		e.record(OpError{Token: c.Token, Kind: KindWrite, Offset: d.offset, Requested: d.length, Written: uint32(written)})
		e.observer.ObserveShortWrite(uint64(d.length), written)
		e.observer.ObserveWrite(written, latency, false)
		e.logger.WithOp(c.Token, KindWrite.String()).Warn("short write",
			"offset", d.offset, "requested", d.length, "written", written)
		return
	}
	e.observer.ObserveWrite(written, latency, true)
}

func (e *Engine) completeSync(c uring.Completion, d descriptor, latency uint64) {
	if c.Res < 0 {
		errno := syscall.Errno(-c.Res)
		e.result.FailedSyncs++
		e.result.Errors++
		e.record(OpError{Token: c.Token, Kind: KindSync, Offset: d.offset, Errno: errno})
		e.observer.ObserveSync(latency, false)
		e.logger.WithOp(c.Token, KindSync.String()).Warn("sync failed", "pos", d.offset, "error", errno)
		return
	}
	e.result.SyncsCompleted++
	e.meter.Record(0)
	e.observer.ObserveSync(latency, true)
}

func (e *Engine) record(op OpError) {
	if len(e.result.OpErrors) < constants.MaxRecordedOpErrors {
		e.result.OpErrors = append(e.result.OpErrors, op)
	}
}
