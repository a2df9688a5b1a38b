package engine

import (
	"errors"
	"fmt"

	"github.com/ehrlich-b/go-uringbench/internal/constants"
	"github.com/ehrlich-b/go-uringbench/internal/uring"
)

// fill runs one submission pass: it prepares writes (and the barriers they
// trigger) until the budget is full, the extent is covered or the ring has
// no free entry, then submits everything staged. exhausted reports that the
// ring ran out of entries or refused a submit; progressed that at least one
// operation was prepared or handed to the ring.
func (e *Engine) fill() (exhausted, progressed bool, err error) {
	start := e.now()
	before := e.budget.Outstanding()

	if e.owedBarrier {
		switch {
		case !e.tracker.HasNext():
			// draining never submits
			e.owedBarrier = false
			e.result.SkippedBarriers++
		case !e.budget.Full():
			ok, err := e.prepareBarrier()
			if err != nil {
				return false, false, err
			}
			if !ok {
				exhausted = true
			} else {
				e.owedBarrier = false
				progressed = true
			}
		}
	}

	for !exhausted && !e.owedBarrier && e.tracker.HasNext() && !e.budget.Full() {
		due := e.barriers.Due(e.writes + 1)
		skip := due && e.budget.Depth() < 2 // no room for a barrier beside its write
		if skip {
			due = false
		}
		if due && e.budget.Free() < 2 {
			break
		}

		ok, err := e.prepareWrite()
		if err != nil {
			return false, progressed, err
		}
		if !ok {
			exhausted = true
			break
		}
		progressed = true
		if skip {
			e.result.SkippedBarriers++
		}

		if due {
			ok, err := e.prepareBarrier()
			if err != nil {
				return false, progressed, err
			}
			if !ok {
				e.owedBarrier = true
				exhausted = true
			}
		}
	}

	if e.unsubmitted > 0 {
		n, err := e.ring.Submit()
		if n > 0 {
			progressed = true
			e.unsubmitted -= n
			if e.unsubmitted < 0 {
				e.unsubmitted = 0
			}
		}
		if err != nil {
			if !uring.IsTransient(err) {
				return false, progressed, fmt.Errorf("%w: submit: %w", ErrTransport, err)
			}
			e.logger.Debug("submit deferred", "error", err, "staged", e.unsubmitted)
			exhausted = true
		}
	}

	e.observer.ObserveInFlight(uint32(e.budget.Outstanding()))
	if took := e.now().Sub(start); took >= constants.SlowFillThreshold {
		e.logger.Debug("filling io depth",
			"outstanding", e.budget.Outstanding(),
			"added", e.budget.Outstanding()-before,
			"us", took.Microseconds())
	}
	return exhausted, progressed, nil
}

// prepareWrite stages the next write. It returns false without side effects
// when the ring has no free entry.
func (e *Engine) prepareWrite() (bool, error) {
	token := e.seq
	offset := e.tracker.Cursor()
	err := e.ring.PrepareWrite(uring.Write{
		Token:       token,
		FD:          e.fd,
		Buf:         e.cfg.Buffer,
		Offset:      offset,
		FixedFile:   e.cfg.FixedFile,
		FixedBuffer: e.cfg.FixedBuffer,
		BufIndex:    0,
	})
	if errors.Is(err, uring.ErrQueueFull) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: prepare write: %w", ErrTransport, err)
	}

	e.tracker.Advance()
	e.seq++
	e.writes++
	e.reserve(token, descriptor{
		kind:      KindWrite,
		offset:    offset,
		length:    uint32(len(e.cfg.Buffer)),
		submitted: e.now(),
	})
	e.result.WritesSubmitted++
	return true, nil
}

// prepareBarrier stages a data-sync barrier covering every write issued so far
func (e *Engine) prepareBarrier() (bool, error) {
	token := e.seq
	err := e.ring.PrepareSync(uring.Sync{
		Token:     token,
		FD:        e.fd,
		FixedFile: e.cfg.FixedFile,
		DataOnly:  true,
	})
	if errors.Is(err, uring.ErrQueueFull) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: prepare sync: %w", ErrTransport, err)
	}

	e.seq++
	e.reserve(token, descriptor{
		kind:      KindSync,
		offset:    e.tracker.Cursor(),
		submitted: e.now(),
	})
	e.result.SyncsSubmitted++
	return true, nil
}

func (e *Engine) reserve(token uint64, d descriptor) {
	if !e.budget.TryReserve() {
		panic(fmt.Sprintf("engine: no budget for token %d", token))
	}
	e.inflight[token] = d
	e.unsubmitted++
}
