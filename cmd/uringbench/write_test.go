package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/go-uringbench"
)

func TestWriteFlagsResolve(t *testing.T) {
	f := &writeFlags{params: uringbench.DefaultParams("")}
	f.size, f.blockSize = "1M", "4K"
	f.buffered = true
	f.params.Simulate = true
	p, err := f.resolve()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), p.Size)
	assert.Equal(t, 4096, p.BlockSize)
	assert.False(t, p.Direct)
	assert.True(t, p.NoAtime)

	f.params.Simulate = false
	_, err = f.resolve()
	assert.Error(t, err, "path required without --simulate")
}

func TestWriteCommandSimulated(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--quiet", "write", "--simulate", "--size", "256K", "--block", "4K",
		"--depth", "8", "--sync-every", "4", "--buffered", "sim.dat"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "state:       DONE")
	assert.Contains(t, out.String(), "64 writes, 16 barriers")
	assert.Contains(t, out.String(), "errors:      0")
}
