package telemetry

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/go-uringbench/internal/logging"
)

type manualClock struct{ t time.Time }

func (c *manualClock) Now() time.Time          { return c.t }
func (c *manualClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMeterEmitsAfterInterval(t *testing.T) {
	clock := &manualClock{t: time.Unix(1000, 0)}
	m := NewMeter(time.Second, clock.Now)

	for i := 0; i < 10; i++ {
		m.Record(4096)
	}

	clock.Advance(time.Second)
	_, ok := m.Tick()
	assert.False(t, ok, "exactly one interval has not exceeded it")

	clock.Advance(time.Second)
	s, ok := m.Tick()
	require.True(t, ok)
	assert.Equal(t, uint64(10), s.Ops)
	assert.Equal(t, uint64(40960), s.Bytes)
	assert.Equal(t, 2*time.Second, s.Interval)
	assert.InDelta(t, 5.0, s.IOPS, 1e-9)
	assert.InDelta(t, 20480.0, s.Throughput, 1e-9)

	// counters reset after each sample
	clock.Advance(2 * time.Second)
	s, ok = m.Tick()
	require.True(t, ok)
	assert.Zero(t, s.Ops)
	assert.Zero(t, s.Bytes)
}

func TestMeterFlush(t *testing.T) {
	clock := &manualClock{t: time.Unix(0, 0)}
	m := NewMeter(time.Second, clock.Now)

	_, ok := m.Flush()
	assert.False(t, ok)

	m.Record(1 << 20)
	clock.Advance(500 * time.Millisecond)
	s, ok := m.Flush()
	require.True(t, ok)
	assert.Equal(t, uint64(1), s.Ops)
	assert.InDelta(t, 2.0, s.MiBps(), 1e-9)
}

func TestChanSinkDropsWhenFull(t *testing.T) {
	c := NewChanSink(1)
	c.Emit(Sample{Ops: 1})
	c.Emit(Sample{Ops: 2})

	assert.Equal(t, uint64(1), c.Dropped())
	s := <-c.C()
	assert.Equal(t, uint64(1), s.Ops)

	c.Close()
	_, open := <-c.C()
	assert.False(t, open)
}

func TestMultiSinkAndLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.Config{
		Level:   logging.LevelInfo,
		Output:  &buf,
		Sync:    true,
		NoColor: true,
	})
	stream := NewChanSink(4)

	sink := MultiSink{LogSink{Logger: logger}, stream, nil, NopSink{}}
	sink.Emit(Sample{Ops: 42, Bytes: 3 << 20, Interval: time.Second})

	assert.True(t, strings.Contains(buf.String(), "iops=42"), buf.String())
	assert.True(t, strings.Contains(buf.String(), "mib_s=3"), buf.String())
	assert.Len(t, stream.C(), 1)
}
