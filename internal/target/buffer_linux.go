//go:build linux

package target

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Buffer is the write unit: a page-aligned anonymous mapping that every
// write reads from. Its content is fixed before the run starts.
type Buffer struct {
	data []byte
}

// NewBuffer maps size bytes and fills them with fill
func NewBuffer(size int, fill byte) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("buffer size must be positive, got %d", size)
	}
	// Anonymous mappings are page aligned, which satisfies O_DIRECT
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate write buffer: %w", err)
	}
	for i := range data {
		data[i] = fill
	}
	return &Buffer{data: data}, nil
}

// Bytes returns the buffer contents
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the buffer size
func (b *Buffer) Len() int { return len(b.data) }

// Close unmaps the buffer. No operation may reference it afterwards.
func (b *Buffer) Close() error {
	if b.data == nil {
		return nil
	}
	err := unix.Munmap(b.data)
	b.data = nil
	if err != nil {
		return fmt.Errorf("failed to unmap write buffer: %w", err)
	}
	return nil
}
