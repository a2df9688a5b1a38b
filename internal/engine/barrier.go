package engine

// BarrierPolicy decides when a data-sync barrier follows a write
type BarrierPolicy struct {
	Cadence int  // barrier after every Cadence-th write; 0 disables
	Durable bool // target already makes writes durable, barriers are redundant
}

// Enabled reports whether the policy will ever ask for a barrier
func (p BarrierPolicy) Enabled() bool {
	return !p.Durable && p.Cadence > 0
}

// Due reports whether the write with the given 1-based ordinal triggers a barrier
func (p BarrierPolicy) Due(ordinal uint64) bool {
	return p.Enabled() && ordinal > 0 && ordinal%uint64(p.Cadence) == 0
}
