package uringbench

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds.
// Buckets cover from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks per-operation statistics of a benchmark run
type Metrics struct {
	// Operation counters
	WriteOps atomic.Uint64 // Write completions, failed ones included
	SyncOps  atomic.Uint64 // Barrier completions, failed ones included

	// Byte counters
	WriteBytes atomic.Uint64 // Bytes confirmed by write completions

	// Error counters
	WriteErrors atomic.Uint64 // Failed or short writes
	ShortWrites atomic.Uint64 // Writes that confirmed fewer bytes than requested
	ShortBytes  atomic.Uint64 // Bytes requested but not confirmed by short writes
	SyncErrors  atomic.Uint64 // Failed barriers

	// In-flight statistics, sampled after every submission pass
	InFlightTotal atomic.Uint64
	InFlightCount atomic.Uint64
	MaxInFlight   atomic.Uint32

	// Performance tracking
	TotalLatencyNs atomic.Uint64 // Cumulative submit-to-completion latency
	OpCount        atomic.Uint64 // Operations with a recorded latency

	// Latency histogram buckets (cumulative counts)
	// Each bucket[i] contains the count of operations with latency <= LatencyBuckets[i]
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	// Run lifecycle
	StartTime atomic.Int64 // UnixNano
	StopTime  atomic.Int64 // UnixNano
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordWrite records a write completion
func (m *Metrics) RecordWrite(bytes uint64, latencyNs uint64, success bool) {
	m.WriteOps.Add(1)
	m.WriteBytes.Add(bytes)
	if !success {
		m.WriteErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordShortWrite records the shortfall of a short write. The write itself
// is recorded separately through RecordWrite.
func (m *Metrics) RecordShortWrite(requested, written uint64) {
	m.ShortWrites.Add(1)
	if requested > written {
		m.ShortBytes.Add(requested - written)
	}
}

// RecordSync records a barrier completion
func (m *Metrics) RecordSync(latencyNs uint64, success bool) {
	m.SyncOps.Add(1)
	if !success {
		m.SyncErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordInFlight records the outstanding operation count
func (m *Metrics) RecordInFlight(depth uint32) {
	m.InFlightTotal.Add(uint64(depth))
	m.InFlightCount.Add(1)

	for {
		current := m.MaxInFlight.Load()
		if depth <= current {
			break
		}
		if m.MaxInFlight.CompareAndSwap(current, depth) {
			break
		}
	}
}

// recordLatency records operation latency and updates histogram
func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)

	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the run as finished
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time copy of Metrics with derived rates
type MetricsSnapshot struct {
	WriteOps    uint64
	SyncOps     uint64
	WriteBytes  uint64
	WriteErrors uint64
	ShortWrites uint64
	ShortBytes  uint64
	SyncErrors  uint64

	AvgInFlight float64
	MaxInFlight uint32

	AvgLatencyNs uint64
	ElapsedNs    uint64

	// Latency percentiles (in nanoseconds)
	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	// Histogram bucket counts (cumulative)
	LatencyHistogram [numLatencyBuckets]uint64

	// Computed statistics
	WriteIOPS      float64
	SyncIOPS       float64
	WriteBandwidth float64 // Bytes per second
	TotalOps       uint64
	ErrorRate      float64 // Percentage of failed operations
}

// Snapshot creates a point-in-time snapshot of metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		WriteOps:    m.WriteOps.Load(),
		SyncOps:     m.SyncOps.Load(),
		WriteBytes:  m.WriteBytes.Load(),
		WriteErrors: m.WriteErrors.Load(),
		ShortWrites: m.ShortWrites.Load(),
		ShortBytes:  m.ShortBytes.Load(),
		SyncErrors:  m.SyncErrors.Load(),
		MaxInFlight: m.MaxInFlight.Load(),
	}
	snap.TotalOps = snap.WriteOps + snap.SyncOps

	if count := m.InFlightCount.Load(); count > 0 {
		snap.AvgInFlight = float64(m.InFlightTotal.Load()) / float64(count)
	}

	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = m.TotalLatencyNs.Load() / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.ElapsedNs = uint64(stopTime - startTime)
	} else {
		snap.ElapsedNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.ElapsedNs > 0 {
		secs := float64(snap.ElapsedNs) / 1e9
		snap.WriteIOPS = float64(snap.WriteOps) / secs
		snap.SyncIOPS = float64(snap.SyncOps) / secs
		snap.WriteBandwidth = float64(snap.WriteBytes) / secs
	}

	if snap.TotalOps > 0 {
		snap.ErrorRate = float64(snap.WriteErrors+snap.SyncErrors) / float64(snap.TotalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile (0.0-1.0)
// using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset resets all counters and restarts the clock
func (m *Metrics) Reset() {
	m.WriteOps.Store(0)
	m.SyncOps.Store(0)
	m.WriteBytes.Store(0)
	m.WriteErrors.Store(0)
	m.ShortWrites.Store(0)
	m.ShortBytes.Store(0)
	m.SyncErrors.Store(0)
	m.InFlightTotal.Store(0)
	m.InFlightCount.Store(0)
	m.MaxInFlight.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection. Methods are called from the
// engine goroutine.
type Observer interface {
	// ObserveWrite is called for each write completion
	ObserveWrite(bytes uint64, latencyNs uint64, success bool)

	// ObserveSync is called for each barrier completion
	ObserveSync(latencyNs uint64, success bool)

	// ObserveShortWrite is called when a write confirms fewer bytes than requested
	ObserveShortWrite(requested, written uint64)

	// ObserveInFlight is called after each submission pass
	ObserveInFlight(outstanding uint32)
}

// NoOpObserver is a no-op implementation of Observer
type NoOpObserver struct{}

func (NoOpObserver) ObserveWrite(uint64, uint64, bool) {}
func (NoOpObserver) ObserveSync(uint64, bool)          {}
func (NoOpObserver) ObserveShortWrite(uint64, uint64)  {}
func (NoOpObserver) ObserveInFlight(uint32)            {}

// MetricsObserver implements Observer using the built-in Metrics
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveWrite(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordWrite(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveSync(latencyNs uint64, success bool) {
	o.metrics.RecordSync(latencyNs, success)
}

func (o *MetricsObserver) ObserveShortWrite(requested, written uint64) {
	o.metrics.RecordShortWrite(requested, written)
}

func (o *MetricsObserver) ObserveInFlight(outstanding uint32) {
	o.metrics.RecordInFlight(outstanding)
}

// multiObserver fans events out to several observers
type multiObserver []Observer

func (m multiObserver) ObserveWrite(bytes uint64, latencyNs uint64, success bool) {
	for _, o := range m {
		o.ObserveWrite(bytes, latencyNs, success)
	}
}

func (m multiObserver) ObserveSync(latencyNs uint64, success bool) {
	for _, o := range m {
		o.ObserveSync(latencyNs, success)
	}
}

func (m multiObserver) ObserveShortWrite(requested, written uint64) {
	for _, o := range m {
		o.ObserveShortWrite(requested, written)
	}
}

func (m multiObserver) ObserveInFlight(outstanding uint32) {
	for _, o := range m {
		o.ObserveInFlight(outstanding)
	}
}

// Compile-time interface check
var (
	_ Observer = (*MetricsObserver)(nil)
	_ Observer = NoOpObserver{}
	_ Observer = multiObserver(nil)
)
