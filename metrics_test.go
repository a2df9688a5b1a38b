package uringbench

import (
	"testing"
	"time"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	if snap.TotalOps != 0 {
		t.Errorf("Expected 0 initial ops, got %d", snap.TotalOps)
	}

	m.RecordWrite(4096, 1000000, true)  // full write, 1ms
	m.RecordWrite(2048, 2000000, false) // short write, 2ms
	m.RecordShortWrite(4096, 2048)
	m.RecordSync(500000, false) // failed barrier

	snap = m.Snapshot()

	if snap.WriteOps != 2 {
		t.Errorf("Expected 2 write ops, got %d", snap.WriteOps)
	}
	if snap.SyncOps != 1 {
		t.Errorf("Expected 1 sync op, got %d", snap.SyncOps)
	}

	// confirmed bytes of short writes still count
	if snap.WriteBytes != 4096+2048 {
		t.Errorf("Expected %d write bytes, got %d", 4096+2048, snap.WriteBytes)
	}
	if snap.ShortWrites != 1 || snap.ShortBytes != 2048 {
		t.Errorf("Expected 1 short write missing 2048 bytes, got %d/%d", snap.ShortWrites, snap.ShortBytes)
	}
	if snap.WriteErrors != 1 {
		t.Errorf("Expected 1 write error, got %d", snap.WriteErrors)
	}
	if snap.SyncErrors != 1 {
		t.Errorf("Expected 1 sync error, got %d", snap.SyncErrors)
	}

	expectedErrorRate := float64(2) / float64(3) * 100.0
	if snap.ErrorRate < expectedErrorRate-0.1 || snap.ErrorRate > expectedErrorRate+0.1 {
		t.Errorf("Expected error rate ~%.1f%%, got %.1f%%", expectedErrorRate, snap.ErrorRate)
	}
}

func TestMetricsInFlight(t *testing.T) {
	m := NewMetrics()

	m.RecordInFlight(10)
	m.RecordInFlight(20)
	m.RecordInFlight(15)

	snap := m.Snapshot()

	if snap.MaxInFlight != 20 {
		t.Errorf("Expected max in-flight 20, got %d", snap.MaxInFlight)
	}

	expectedAvg := float64(10+20+15) / 3.0
	if snap.AvgInFlight < expectedAvg-0.1 || snap.AvgInFlight > expectedAvg+0.1 {
		t.Errorf("Expected avg in-flight %.1f, got %.1f", expectedAvg, snap.AvgInFlight)
	}
}

func TestMetricsLatency(t *testing.T) {
	m := NewMetrics()

	m.RecordWrite(1024, 1000000, true) // 1ms
	m.RecordSync(2000000, true)        // 2ms

	snap := m.Snapshot()

	expectedAvgNs := uint64(1500000)
	if snap.AvgLatencyNs != expectedAvgNs {
		t.Errorf("Expected avg latency %d ns, got %d ns", expectedAvgNs, snap.AvgLatencyNs)
	}
}

func TestMetricsStop(t *testing.T) {
	m := NewMetrics()

	time.Sleep(10 * time.Millisecond)
	m.Stop()
	snap := m.Snapshot()
	if snap.ElapsedNs < 10*1000000 {
		t.Errorf("Expected elapsed >= 10ms, got %d ns", snap.ElapsedNs)
	}

	time.Sleep(5 * time.Millisecond)
	snap2 := m.Snapshot()
	if snap2.ElapsedNs != snap.ElapsedNs {
		t.Errorf("Elapsed changed after stop: %d -> %d", snap.ElapsedNs, snap2.ElapsedNs)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()

	m.RecordWrite(2048, 2000000, true)
	m.RecordSync(1000, true)
	m.RecordInFlight(10)

	if snap := m.Snapshot(); snap.TotalOps == 0 {
		t.Error("Expected some operations before reset")
	}

	m.Reset()

	snap := m.Snapshot()
	if snap.TotalOps != 0 {
		t.Errorf("Expected 0 ops after reset, got %d", snap.TotalOps)
	}
	if snap.WriteBytes != 0 {
		t.Errorf("Expected 0 bytes after reset, got %d", snap.WriteBytes)
	}
	if snap.MaxInFlight != 0 {
		t.Errorf("Expected 0 max in-flight after reset, got %d", snap.MaxInFlight)
	}
}

func TestObserver(t *testing.T) {
	observer := NoOpObserver{}
	observer.ObserveWrite(1024, 1000000, true)
	observer.ObserveSync(1000000, true)
	observer.ObserveShortWrite(1024, 512)
	observer.ObserveInFlight(10)

	m := NewMetrics()
	metricsObserver := NewMetricsObserver(m)
	mock := NewMockObserver()
	fan := multiObserver{metricsObserver, mock}

	fan.ObserveWrite(2048, 2000000, true)
	fan.ObserveSync(1000000, true)
	fan.ObserveShortWrite(4096, 2048)
	fan.ObserveInFlight(7)

	snap := m.Snapshot()
	if snap.WriteOps != 1 || snap.SyncOps != 1 {
		t.Errorf("Expected 1 write and 1 sync from observer, got %d/%d", snap.WriteOps, snap.SyncOps)
	}
	if snap.WriteBytes != 2048 {
		t.Errorf("Expected 2048 write bytes from observer, got %d", snap.WriteBytes)
	}
	if snap.MaxInFlight != 7 {
		t.Errorf("Expected max in-flight 7, got %d", snap.MaxInFlight)
	}

	counts := mock.CallCounts()
	if counts["write"] != 1 || counts["sync"] != 1 || counts["short_write"] != 1 {
		t.Errorf("mock observer counts = %v", counts)
	}
	if mock.MaxInFlight() != 7 {
		t.Errorf("mock max in-flight = %d, want 7", mock.MaxInFlight())
	}
	if len(mock.Latencies()) != 2 {
		t.Errorf("mock recorded %d latencies, want 2", len(mock.Latencies()))
	}

	mock.Reset()
	if mock.CallCounts()["write"] != 0 || mock.WriteBytes() != 0 {
		t.Error("mock observer not reset")
	}
}

func TestMetricsRates(t *testing.T) {
	m := NewMetrics()

	startTime := time.Now()
	m.StartTime.Store(startTime.UnixNano())

	m.RecordWrite(2048, 2000000, true)
	m.RecordWrite(2048, 2000000, true)
	m.RecordSync(1000000, true)

	m.StopTime.Store(startTime.Add(2 * time.Second).UnixNano())

	snap := m.Snapshot()

	if snap.WriteIOPS < 0.9 || snap.WriteIOPS > 1.1 {
		t.Errorf("Expected WriteIOPS ~1.0, got %.2f", snap.WriteIOPS)
	}
	if snap.SyncIOPS < 0.45 || snap.SyncIOPS > 0.55 {
		t.Errorf("Expected SyncIOPS ~0.5, got %.2f", snap.SyncIOPS)
	}
	if snap.WriteBandwidth < 2000 || snap.WriteBandwidth > 2100 {
		t.Errorf("Expected WriteBandwidth ~2048, got %.2f", snap.WriteBandwidth)
	}
}

func TestMetricsHistogram(t *testing.T) {
	m := NewMetrics()

	// 50 barriers at 500us, 49 writes at 5ms, 1 write at 50ms
	for i := 0; i < 50; i++ {
		m.RecordSync(500_000, true)
	}
	for i := 0; i < 49; i++ {
		m.RecordWrite(1024, 5_000_000, true)
	}
	m.RecordWrite(1024, 50_000_000, true)

	snap := m.Snapshot()

	if snap.TotalOps != 100 {
		t.Errorf("Expected 100 total ops, got %d", snap.TotalOps)
	}

	if snap.LatencyP50Ns < 100_000 || snap.LatencyP50Ns > 1_000_000 {
		t.Errorf("Expected P50 in 100us-1ms range, got %d ns", snap.LatencyP50Ns)
	}

	if snap.LatencyP99Ns < 5_000_000 || snap.LatencyP99Ns > 100_000_000 {
		t.Errorf("Expected P99 in 5ms-100ms range, got %d ns", snap.LatencyP99Ns)
	}

	totalInBuckets := uint64(0)
	for i := 0; i < len(snap.LatencyHistogram); i++ {
		totalInBuckets += snap.LatencyHistogram[i]
	}
	if totalInBuckets == 0 {
		t.Error("Expected histogram buckets to be populated")
	}
}
