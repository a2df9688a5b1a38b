// Package telemetry turns completion counts into periodic IOPS and
// throughput samples
package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/ehrlich-b/go-uringbench/internal/logging"
)

// Sample is one telemetry interval
type Sample struct {
	Timestamp  time.Time     // end of the interval
	Interval   time.Duration // wall-clock length of the interval
	Ops        uint64        // successful completions in the interval
	Bytes      uint64        // bytes confirmed written in the interval
	IOPS       float64       // Ops per second
	Throughput float64       // Bytes per second
}

// MiBps returns the throughput in MiB per second
func (s Sample) MiBps() float64 {
	return s.Throughput / (1024 * 1024)
}

// Sink consumes samples. Emit is called from the engine goroutine and
// must not block.
type Sink interface {
	Emit(Sample)
}

// Meter accumulates per-interval counters and cuts a sample once more than
// interval wall-clock time has passed since the previous one
type Meter struct {
	interval time.Duration
	now      func() time.Time
	last     time.Time
	ops      uint64
	bytes    uint64
}

// NewMeter creates a meter. A nil clock uses time.Now.
func NewMeter(interval time.Duration, now func() time.Time) *Meter {
	if now == nil {
		now = time.Now
	}
	return &Meter{interval: interval, now: now, last: now()}
}

// Record counts one successful completion carrying bytes
func (m *Meter) Record(bytes uint64) {
	m.ops++
	m.bytes += bytes
}

// Tick returns a sample and resets the interval counters when the interval
// has elapsed
func (m *Meter) Tick() (Sample, bool) {
	now := m.now()
	if now.Sub(m.last) <= m.interval {
		return Sample{}, false
	}
	return m.cut(now), true
}

// Flush returns whatever the current partial interval holds
func (m *Meter) Flush() (Sample, bool) {
	if m.ops == 0 && m.bytes == 0 {
		return Sample{}, false
	}
	return m.cut(m.now()), true
}

func (m *Meter) cut(now time.Time) Sample {
	elapsed := now.Sub(m.last)
	s := Sample{
		Timestamp: now,
		Interval:  elapsed,
		Ops:       m.ops,
		Bytes:     m.bytes,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		s.IOPS = float64(m.ops) / secs
		s.Throughput = float64(m.bytes) / secs
	}
	m.ops, m.bytes = 0, 0
	m.last = now
	return s
}

// LogSink writes each sample to a logger
type LogSink struct {
	Logger *logging.Logger
}

// Emit implements Sink
func (l LogSink) Emit(s Sample) {
	logger := l.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger.Info("throughput",
		"iops", s.Ops,
		"mib_s", int64(s.Bytes/1024/1024),
		"interval_ms", s.Interval.Milliseconds())
}

// ChanSink streams samples over a buffered channel, dropping samples when
// the reader falls behind
type ChanSink struct {
	ch      chan Sample
	dropped atomic.Uint64
}

// NewChanSink creates a stream with room for size pending samples
func NewChanSink(size int) *ChanSink {
	return &ChanSink{ch: make(chan Sample, size)}
}

// Emit implements Sink
func (c *ChanSink) Emit(s Sample) {
	select {
	case c.ch <- s:
	default:
		c.dropped.Add(1)
	}
}

// C returns the receive side of the stream
func (c *ChanSink) C() <-chan Sample { return c.ch }

// Close ends the stream; Emit must not be called afterwards
func (c *ChanSink) Close() { close(c.ch) }

// Dropped returns the number of samples discarded because the channel was full
func (c *ChanSink) Dropped() uint64 { return c.dropped.Load() }

// MultiSink fans a sample out to several sinks
type MultiSink []Sink

// Emit implements Sink
func (m MultiSink) Emit(s Sample) {
	for _, sink := range m {
		if sink != nil {
			sink.Emit(s)
		}
	}
}

// NopSink discards samples
type NopSink struct{}

// Emit implements Sink
func (NopSink) Emit(Sample) {}

var (
	_ Sink = LogSink{}
	_ Sink = (*ChanSink)(nil)
	_ Sink = MultiSink(nil)
	_ Sink = NopSink{}
)
