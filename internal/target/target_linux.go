//go:build linux

// Package target owns the file and buffer a benchmark run writes with
package target

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-uringbench/internal/interfaces"
	"github.com/ehrlich-b/go-uringbench/internal/logging"
)

// Options controls how the target file is opened
type Options struct {
	Path        string
	Size        int64 // target extent in bytes
	Create      bool
	Truncate    bool
	Preallocate bool // fallocate the whole extent before the run
	Direct      bool // O_DIRECT
	DSync       bool // O_DSYNC
	NoAtime     bool // O_NOATIME
	Mode        os.FileMode
}

// File is an open target. It implements interfaces.Target.
type File struct {
	fd    int
	path  string
	size  int64
	flags int

	// FallocateTime is how long pre-allocation took, zero if skipped
	FallocateTime time.Duration
}

// Open opens (and optionally creates, truncates and pre-allocates) the target file
func Open(opts Options) (*File, error) {
	logger := logging.Default().WithRun(opts.Path)

	flags := unix.O_RDWR | unix.O_CLOEXEC
	if opts.Create {
		flags |= unix.O_CREAT
	}
	if opts.Truncate {
		flags |= unix.O_TRUNC
	}
	if opts.Direct {
		flags |= unix.O_DIRECT
	}
	if opts.DSync {
		flags |= unix.O_DSYNC
	}
	if opts.NoAtime {
		flags |= unix.O_NOATIME
	}
	mode := opts.Mode
	if mode == 0 {
		mode = 0o770
	}

	fd, err := unix.Open(opts.Path, flags, uint32(mode.Perm()))
	if err == unix.EPERM && opts.NoAtime {
		// O_NOATIME needs file ownership or CAP_FOWNER
		logger.Warn("O_NOATIME not permitted, retrying without it")
		flags &^= unix.O_NOATIME
		fd, err = unix.Open(opts.Path, flags, uint32(mode.Perm()))
	}
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: opts.Path, Err: err}
	}
	logger.Info("opened target", "flags", fmt.Sprintf("0x%x", flags))

	f := &File{fd: fd, path: opts.Path, size: opts.Size, flags: flags}

	if opts.Preallocate && opts.Size > 0 {
		start := time.Now()
		if err := unix.Fallocate(fd, 0, 0, opts.Size); err != nil {
			unix.Close(fd)
			return nil, &os.PathError{Op: "fallocate", Path: opts.Path, Err: err}
		}
		f.FallocateTime = time.Since(start)
		logger.Info("fallocate complete", "bytes", opts.Size, "us", f.FallocateTime.Microseconds())
	}

	return f, nil
}

// Fd implements interfaces.Target
func (f *File) Fd() int { return f.fd }

// Size implements interfaces.Target
func (f *File) Size() int64 { return f.size }

// Path returns the file path
func (f *File) Path() string { return f.path }

// Durable implements interfaces.Target. O_DSYNC makes each write durable;
// O_DIRECT bypasses the page cache and is treated the same way.
func (f *File) Durable() bool {
	return f.flags&unix.O_DSYNC != 0 || f.flags&unix.O_DIRECT != 0
}

// Direct reports whether the file was opened with O_DIRECT
func (f *File) Direct() bool { return f.flags&unix.O_DIRECT != 0 }

// Close implements interfaces.Target
func (f *File) Close() error {
	if f.fd < 0 {
		return nil
	}
	err := unix.Close(f.fd)
	f.fd = -1
	if err != nil {
		return &os.PathError{Op: "close", Path: f.path, Err: err}
	}
	return nil
}

var _ interfaces.Target = (*File)(nil)
