package uringbench

import "sync"

// MockObserver records every observed event for verification in tests
type MockObserver struct {
	mu sync.Mutex

	writes       int
	failedWrites int
	writeBytes   uint64
	syncs        int
	failedSyncs  int
	shortWrites  int
	maxInFlight  uint32
	latencies    []uint64
}

// NewMockObserver creates an empty recording observer
func NewMockObserver() *MockObserver {
	return &MockObserver{}
}

// ObserveWrite implements Observer
func (m *MockObserver) ObserveWrite(bytes uint64, latencyNs uint64, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	m.writeBytes += bytes
	if !success {
		m.failedWrites++
	}
	m.latencies = append(m.latencies, latencyNs)
}

// ObserveSync implements Observer
func (m *MockObserver) ObserveSync(latencyNs uint64, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.syncs++
	if !success {
		m.failedSyncs++
	}
	m.latencies = append(m.latencies, latencyNs)
}

// ObserveShortWrite implements Observer
func (m *MockObserver) ObserveShortWrite(requested, written uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shortWrites++
}

// ObserveInFlight implements Observer
func (m *MockObserver) ObserveInFlight(outstanding uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if outstanding > m.maxInFlight {
		m.maxInFlight = outstanding
	}
}

// Testing utility methods

// CallCounts returns the number of events of each kind
func (m *MockObserver) CallCounts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]int{
		"write":        m.writes,
		"failed_write": m.failedWrites,
		"sync":         m.syncs,
		"failed_sync":  m.failedSyncs,
		"short_write":  m.shortWrites,
	}
}

// WriteBytes returns the bytes reported by write completions
func (m *MockObserver) WriteBytes() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeBytes
}

// MaxInFlight returns the highest outstanding count observed
func (m *MockObserver) MaxInFlight() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// Latencies returns every recorded latency in completion order
func (m *MockObserver) Latencies() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint64(nil), m.latencies...)
}

// Reset clears all recorded events
func (m *MockObserver) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes = 0
	m.failedWrites = 0
	m.writeBytes = 0
	m.syncs = 0
	m.failedSyncs = 0
	m.shortWrites = 0
	m.maxInFlight = 0
	m.latencies = nil
}

// Compile-time interface check
var _ Observer = (*MockObserver)(nil)
