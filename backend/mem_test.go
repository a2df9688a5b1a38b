package backend

import (
	"bytes"
	"testing"
)

func TestNewMemory(t *testing.T) {
	size := int64(1024)
	mem := NewMemory(size)

	if mem.Size() != size {
		t.Errorf("Size() = %d, want %d", mem.Size(), size)
	}

	if len(mem.data) != int(size) {
		t.Errorf("data length = %d, want %d", len(mem.data), size)
	}
}

func TestMemoryReadWrite(t *testing.T) {
	mem := NewMemory(1024)

	testData := []byte("Hello, uring!")
	n, err := mem.WriteAt(testData, 512)
	if err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}
	if n != len(testData) {
		t.Errorf("WriteAt wrote %d bytes, want %d", n, len(testData))
	}

	readBuf := make([]byte, len(testData))
	n, err = mem.ReadAt(readBuf, 512)
	if err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if n != len(testData) {
		t.Errorf("ReadAt read %d bytes, want %d", n, len(testData))
	}
	if !bytes.Equal(readBuf, testData) {
		t.Errorf("ReadAt got %q, want %q", readBuf, testData)
	}
}

func TestMemoryShortWriteAtBoundary(t *testing.T) {
	mem := NewMemory(100)

	n, err := mem.WriteAt(make([]byte, 50), 80)
	if err != nil {
		t.Errorf("WriteAt at boundary failed: %v", err)
	}
	if n != 20 {
		t.Errorf("WriteAt at boundary wrote %d bytes, want 20", n)
	}

	if _, err := mem.WriteAt([]byte("test"), 100); err == nil {
		t.Error("WriteAt beyond end should fail")
	}
}

func TestMemorySyncAndStats(t *testing.T) {
	mem := NewMemory(64)
	for i := 0; i < 3; i++ {
		if err := mem.Sync(); err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
	}
	if mem.Syncs() != 3 {
		t.Errorf("Syncs() = %d, want 3", mem.Syncs())
	}

	stats := mem.Stats()
	if stats["type"] != "memory" {
		t.Errorf("stats type = %v, want memory", stats["type"])
	}
	if stats["syncs"] != 3 {
		t.Errorf("stats syncs = %v, want 3", stats["syncs"])
	}
}

func TestNullCounts(t *testing.T) {
	null := NewNull()
	buf := make([]byte, 4096)

	for i := 0; i < 4; i++ {
		n, err := null.WriteAt(buf, int64(i)*4096)
		if err != nil || n != len(buf) {
			t.Fatalf("WriteAt = %d, %v", n, err)
		}
	}
	null.Sync()

	if null.Bytes() != 16384 {
		t.Errorf("Bytes() = %d, want 16384", null.Bytes())
	}
	if null.Writes() != 4 {
		t.Errorf("Writes() = %d, want 4", null.Writes())
	}
	if null.Syncs() != 1 {
		t.Errorf("Syncs() = %d, want 1", null.Syncs())
	}
}

func BenchmarkMemoryWriteAt(b *testing.B) {
	mem := NewMemory(64 << 20)
	buf := make([]byte, 64*1024)
	b.SetBytes(int64(len(buf)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		off := int64(i%1024) * int64(len(buf))
		mem.WriteAt(buf, off)
	}
}
