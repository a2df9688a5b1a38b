package engine

import "fmt"

// Budget counts operations submitted but not yet completed against a fixed
// depth. The engine drives it from one goroutine, so it is not locked.
type Budget struct {
	depth       int
	outstanding int
	highWater   int
}

// NewBudget creates a budget with the given capacity
func NewBudget(depth int) *Budget {
	if depth < 1 {
		panic(fmt.Sprintf("engine: budget depth must be positive, got %d", depth))
	}
	return &Budget{depth: depth}
}

// TryReserve takes one slot if any is free
func (b *Budget) TryReserve() bool {
	if b.outstanding >= b.depth {
		return false
	}
	b.outstanding++
	if b.outstanding > b.highWater {
		b.highWater = b.outstanding
	}
	return true
}

// Release returns one slot. Releasing an empty budget is a programming error.
func (b *Budget) Release() {
	if b.outstanding == 0 {
		panic("engine: budget released with no operation outstanding")
	}
	b.outstanding--
}

// Outstanding returns the number of reserved slots
func (b *Budget) Outstanding() int { return b.outstanding }

// Free returns the number of unreserved slots
func (b *Budget) Free() int { return b.depth - b.outstanding }

// Full reports whether no slot is free
func (b *Budget) Full() bool { return b.outstanding >= b.depth }

// Depth returns the capacity
func (b *Budget) Depth() int { return b.depth }

// HighWater returns the most slots ever reserved at once
func (b *Budget) HighWater() int { return b.highWater }
