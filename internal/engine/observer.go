package engine

// Observer receives per-operation events from a run. Calls come from the
// engine goroutine, one at a time.
type Observer interface {
	ObserveWrite(bytes uint64, latencyNs uint64, success bool)
	ObserveSync(latencyNs uint64, success bool)
	ObserveShortWrite(requested, written uint64)
	ObserveInFlight(outstanding uint32)
}

// NoOpObserver discards every event
type NoOpObserver struct{}

func (NoOpObserver) ObserveWrite(uint64, uint64, bool) {}
func (NoOpObserver) ObserveSync(uint64, bool)          {}
func (NoOpObserver) ObserveShortWrite(uint64, uint64)  {}
func (NoOpObserver) ObserveInFlight(uint32)            {}

var _ Observer = NoOpObserver{}
