//go:build integration && linux

package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/go-uringbench"
	"github.com/ehrlich-b/go-uringbench/internal/logging"
)

// requireRing skips the test if the kernel refuses to create the ring
func requireRing(t *testing.T, kind string) {
	t.Helper()
	if _, err := uringbench.ProbeKernel(kind, false); err != nil {
		t.Skipf("io_uring (%s) not available: %v", kind, err)
	}
}

func fileParams(t *testing.T, kind string) uringbench.Params {
	params := uringbench.DefaultParams(filepath.Join(t.TempDir(), "bench.dat"))
	params.Size = 4 << 20
	params.BlockSize = 4096
	params.QueueDepth = 32
	params.SyncCadence = 16
	// tmpfs rejects O_DIRECT
	params.Direct = false
	params.NoAtime = false
	params.RingKind = kind
	params.TelemetryInterval = 10 * time.Millisecond
	return params
}

func quiet() *uringbench.Options {
	return &uringbench.Options{Logger: logging.Nop()}
}

func assertFilled(t *testing.T, path string, size int64) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, int(size))
	assert.True(t, bytes.Equal(data, bytes.Repeat([]byte{1}, int(size))), "file not filled with the constant byte")
}

func TestIntegrationSequentialWrite(t *testing.T) {
	for _, kind := range []string{"giouring", "iceber"} {
		t.Run(kind, func(t *testing.T) {
			requireRing(t, kind)
			params := fileParams(t, kind)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			res, err := uringbench.Run(ctx, params, quiet())
			require.NoError(t, err)
			assert.True(t, res.Clean(), "errors: %v", res.Errs())
			assert.Equal(t, uint64(params.Size), res.BytesWritten)
			assert.Equal(t, uint64(params.Size/4096), res.WritesCompleted)
			assert.Equal(t, uint64(params.Size/4096/16), res.SyncsCompleted)
			assert.LessOrEqual(t, res.MaxOutstanding, params.QueueDepth)

			assertFilled(t, params.Path, params.Size)
		})
	}
}

func TestIntegrationFixedResources(t *testing.T) {
	requireRing(t, "giouring")
	params := fileParams(t, "giouring")
	params.FixedFiles = true
	params.FixedBuffers = true
	params.Probe = true

	res, err := uringbench.Run(context.Background(), params, quiet())
	if uringbench.IsCode(err, uringbench.ErrCodeKernelNotSupported) {
		t.Skipf("registration not supported: %v", err)
	}
	require.NoError(t, err)
	assert.True(t, res.Clean())
	assert.NotEmpty(t, res.Probe)

	assertFilled(t, params.Path, params.Size)
}

func TestIntegrationDSyncSkipsBarriers(t *testing.T) {
	requireRing(t, "giouring")
	params := fileParams(t, "giouring")
	params.DSync = true

	res, err := uringbench.Run(context.Background(), params, quiet())
	require.NoError(t, err)
	assert.Zero(t, res.SyncsSubmitted)
	assert.Equal(t, uint64(params.Size), res.BytesWritten)
}

// cancelAfter cancels the run once the given number of writes completed
type cancelAfter struct {
	uringbench.NoOpObserver
	writes int
	cancel context.CancelFunc
}

func (c *cancelAfter) ObserveWrite(uint64, uint64, bool) {
	c.writes--
	if c.writes == 0 {
		c.cancel()
	}
}

func TestIntegrationCancel(t *testing.T) {
	for _, kind := range []string{"giouring", "iceber"} {
		t.Run(kind, func(t *testing.T) {
			requireRing(t, kind)
			params := fileParams(t, kind)
			params.Size = 64 << 20

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			opts := quiet()
			opts.Observer = &cancelAfter{writes: 64, cancel: cancel}

			res, err := uringbench.Run(ctx, params, opts)
			require.ErrorIs(t, err, uringbench.ErrCancelled)
			require.NotNil(t, res)
			assert.Equal(t, uringbench.StateStopped, res.State)
			assert.Zero(t, res.Errors, "errors: %v", res.Errs())
			assert.Less(t, res.BytesWritten, uint64(params.Size))
			// every submitted operation was reaped before Run returned
			assert.Equal(t, res.WritesSubmitted, res.WritesCompleted)
			assert.Equal(t, res.SyncsSubmitted, res.SyncsCompleted)
		})
	}
}

func TestIntegrationDenseBarriers(t *testing.T) {
	for _, kind := range []string{"giouring", "iceber"} {
		t.Run(kind, func(t *testing.T) {
			requireRing(t, kind)
			params := fileParams(t, kind)
			params.Size = 1 << 20
			params.QueueDepth = 4
			params.SyncCadence = 2

			res, err := uringbench.Run(context.Background(), params, quiet())
			require.NoError(t, err)
			assert.True(t, res.Clean(), "errors: %v", res.Errs())
			assert.Equal(t, uint64(params.Size), res.BytesWritten)
			assert.Equal(t, uint64(params.Size/4096/2), res.SyncsCompleted)
			assert.Zero(t, res.FailedWrites)
			assert.LessOrEqual(t, res.MaxOutstanding, 4)

			assertFilled(t, params.Path, params.Size)
		})
	}
}

func TestIntegrationFixedDenseBarriers(t *testing.T) {
	requireRing(t, "giouring")
	params := fileParams(t, "giouring")
	params.Size = 1 << 20
	params.QueueDepth = 2
	params.SyncCadence = 1
	params.FixedFiles = true
	params.FixedBuffers = true

	res, err := uringbench.Run(context.Background(), params, quiet())
	if uringbench.IsCode(err, uringbench.ErrCodeKernelNotSupported) {
		t.Skipf("registration not supported: %v", err)
	}
	require.NoError(t, err)
	assert.True(t, res.Clean(), "errors: %v", res.Errs())
	assert.Equal(t, uint64(params.Size/4096), res.SyncsCompleted)

	assertFilled(t, params.Path, params.Size)
}

func TestIntegrationMissingDirectory(t *testing.T) {
	params := fileParams(t, "giouring")
	params.Path = filepath.Join(t.TempDir(), "missing", "bench.dat")

	_, err := uringbench.Run(context.Background(), params, quiet())
	require.Error(t, err)
	assert.True(t, uringbench.IsCode(err, uringbench.ErrCodeNotFound), "got %v", err)
}
