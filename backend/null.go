package backend

import (
	"sync/atomic"

	"github.com/ehrlich-b/go-uringbench/internal/interfaces"
)

// Null is a sink that discards data and only counts it. It lets the
// simulator run extents far larger than available memory.
type Null struct {
	bytes  atomic.Uint64
	writes atomic.Uint64
	syncs  atomic.Uint64
}

// NewNull creates a counting sink
func NewNull() *Null {
	return &Null{}
}

// WriteAt implements the Sink interface
func (n *Null) WriteAt(p []byte, off int64) (int, error) {
	n.bytes.Add(uint64(len(p)))
	n.writes.Add(1)
	return len(p), nil
}

// Sync implements the Sink interface
func (n *Null) Sync() error {
	n.syncs.Add(1)
	return nil
}

// Bytes returns the total bytes accepted
func (n *Null) Bytes() uint64 { return n.bytes.Load() }

// Writes returns the number of writes accepted
func (n *Null) Writes() uint64 { return n.writes.Load() }

// Syncs returns the number of barriers accepted
func (n *Null) Syncs() uint64 { return n.syncs.Load() }

var _ interfaces.Sink = (*Null)(nil)
