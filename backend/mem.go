// Package backend provides in-memory sinks for simulated benchmark runs
package backend

import (
	"fmt"
	"sync"

	"github.com/ehrlich-b/go-uringbench/internal/interfaces"
)

// Memory provides a RAM-backed sink that keeps every written byte so a
// simulated run can be verified afterwards
type Memory struct {
	data  []byte
	size  int64
	syncs int
	mu    sync.RWMutex
}

// NewMemory creates a new memory sink of the specified size
func NewMemory(size int64) *Memory {
	return &Memory{
		data: make([]byte, size),
		size: size,
	}
}

// ReadAt reads back previously written bytes
func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if off >= m.size {
		return 0, nil
	}

	// Calculate how much we can actually read
	available := m.size - off
	if int64(len(p)) > available {
		p = p[:available]
	}

	n := copy(p, m.data[off:off+int64(len(p))])
	return n, nil
}

// WriteAt implements the Sink interface. A write that crosses the end of
// the sink is truncated and reported as short, without an error.
func (m *Memory) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if off >= m.size {
		return 0, fmt.Errorf("write beyond end of sink")
	}

	// Calculate how much we can actually write
	available := m.size - off
	if int64(len(p)) > available {
		p = p[:available]
	}

	n := copy(m.data[off:off+int64(len(p))], p)
	return n, nil
}

// Size implements the SizedSink interface
func (m *Memory) Size() int64 {
	return m.size
}

// Sync implements the Sink interface
func (m *Memory) Sync() error {
	m.mu.Lock()
	m.syncs++
	m.mu.Unlock()
	return nil
}

// Syncs returns the number of barriers applied to the sink
func (m *Memory) Syncs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.syncs
}

// Stats returns sink statistics
func (m *Memory) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"type":      "memory",
		"size":      m.size,
		"allocated": len(m.data),
		"syncs":     m.syncs,
	}
}

// Compile-time interface checks
var (
	_ interfaces.Sink      = (*Memory)(nil)
	_ interfaces.SizedSink = (*Memory)(nil)
)
