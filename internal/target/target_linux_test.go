//go:build linux

package target

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatePreallocate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data0")

	f, err := Open(Options{Path: path, Size: 1 << 20, Create: true, Preallocate: true, NoAtime: true})
	require.NoError(t, err)
	defer f.Close()

	assert.GreaterOrEqual(t, f.Fd(), 0)
	assert.Equal(t, int64(1<<20), f.Size())
	assert.Equal(t, path, f.Path())
	assert.False(t, f.Durable())

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), st.Size(), "fallocate extends the file")
}

func TestOpenMissingWithoutCreate(t *testing.T) {
	_, err := Open(Options{Path: filepath.Join(t.TempDir(), "absent"), Size: 4096})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDurableModes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dsync")
	f, err := Open(Options{Path: path, Size: 4096, Create: true, DSync: true})
	require.NoError(t, err)
	defer f.Close()

	assert.True(t, f.Durable())
	assert.False(t, f.Direct())
}

func TestCloseIsIdempotent(t *testing.T) {
	f, err := Open(Options{Path: filepath.Join(t.TempDir(), "c"), Size: 4096, Create: true})
	require.NoError(t, err)

	require.NoError(t, f.Close())
	assert.NoError(t, f.Close())
	assert.Equal(t, -1, f.Fd())
}

func TestBufferAlignedAndFilled(t *testing.T) {
	b, err := NewBuffer(16384, 1)
	require.NoError(t, err)

	data := b.Bytes()
	require.Len(t, data, 16384)
	assert.Equal(t, 16384, b.Len())
	for i, v := range data {
		if v != 1 {
			t.Fatalf("byte %d = %d, want 1", i, v)
		}
	}
	assert.Zero(t, uintptrOf(data)%4096, "buffer must be page aligned")

	require.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}

func TestBufferRejectsZeroSize(t *testing.T) {
	_, err := NewBuffer(0, 1)
	assert.Error(t, err)
}

func uintptrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}
