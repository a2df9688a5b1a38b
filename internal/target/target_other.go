//go:build !linux

// Package target owns the file and buffer a benchmark run writes with
package target

import (
	"errors"
	"os"
	"time"
)

var errUnsupported = errors.New("target: only supported on linux")

// Options controls how the target file is opened
type Options struct {
	Path        string
	Size        int64
	Create      bool
	Truncate    bool
	Preallocate bool
	Direct      bool
	DSync       bool
	NoAtime     bool
	Mode        os.FileMode
}

// File is an open target
type File struct {
	FallocateTime time.Duration
}

// Open is only supported on linux
func Open(opts Options) (*File, error) { return nil, errUnsupported }

func (f *File) Fd() int       { return -1 }
func (f *File) Size() int64   { return 0 }
func (f *File) Path() string  { return "" }
func (f *File) Durable() bool { return false }
func (f *File) Direct() bool  { return false }
func (f *File) Close() error  { return nil }

// Buffer is the write unit
type Buffer struct{ data []byte }

// NewBuffer allocates a plain heap buffer
func NewBuffer(size int, fill byte) (*Buffer, error) {
	if size <= 0 {
		return nil, errors.New("target: buffer size must be positive")
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = fill
	}
	return &Buffer{data: data}, nil
}

func (b *Buffer) Bytes() []byte { return b.data }
func (b *Buffer) Len() int      { return len(b.data) }
func (b *Buffer) Close() error  { b.data = nil; return nil }
