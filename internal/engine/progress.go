package engine

import "fmt"

// State is the run state derived from the cursor and outstanding count
type State int

const (
	StateRunning  State = iota // cursor below the extent end
	StateDraining              // no more writes to issue, operations still in flight
	StateDone                  // extent fully issued and nothing outstanding
	StateStopped               // stopped early and nothing outstanding
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateDraining:
		return "DRAINING"
	case StateDone:
		return "DONE"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Tracker owns the write cursor: the next offset handed to a new write.
// The cursor tracks issued, not completed, bytes.
type Tracker struct {
	extent  uint64
	unit    uint64
	cursor  uint64
	stopped bool
}

// NewTracker creates a tracker for an extent written in unit-sized pieces
func NewTracker(extent, unit uint64) (*Tracker, error) {
	if unit == 0 {
		return nil, fmt.Errorf("write unit must be positive")
	}
	if extent%unit != 0 {
		return nil, fmt.Errorf("extent %d is not a multiple of write unit %d", extent, unit)
	}
	return &Tracker{extent: extent, unit: unit}, nil
}

// HasNext reports whether another write may be issued
func (t *Tracker) HasNext() bool {
	return !t.stopped && t.cursor < t.extent
}

// Advance returns the offset for the next write and moves the cursor by one unit
func (t *Tracker) Advance() uint64 {
	if !t.HasNext() {
		panic("engine: cursor advanced past the extent")
	}
	off := t.cursor
	t.cursor += t.unit
	return off
}

// Stop ends issuing early; the run drains what is in flight
func (t *Tracker) Stop() { t.stopped = true }

// Cursor returns the next offset to issue
func (t *Tracker) Cursor() uint64 { return t.cursor }

// Extent returns the end of the target extent
func (t *Tracker) Extent() uint64 { return t.extent }

// Unit returns the write unit size
func (t *Tracker) Unit() uint64 { return t.unit }

// State returns the run state for the given outstanding count
func (t *Tracker) State(outstanding int) State {
	switch {
	case t.HasNext():
		return StateRunning
	case outstanding > 0:
		return StateDraining
	case t.cursor == t.extent:
		return StateDone
	default:
		return StateStopped
	}
}
