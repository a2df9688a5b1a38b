package interfaces

// Target is the open file a run writes into. The engine only reads from it;
// opening, pre-allocation and closing belong to the caller.
type Target interface {
	// Fd returns the raw file descriptor used for non-fixed operations.
	Fd() int

	// Size returns the number of bytes the run will write (the target extent).
	Size() int64

	// Durable reports whether the open mode already makes each write durable,
	// in which case data-sync barriers are redundant.
	Durable() bool

	// Close releases the descriptor. It must be safe to call more than once.
	Close() error
}

// Sink receives the effects of simulated operations. It is intentionally
// similar to io.WriterAt so ordinary byte stores can be used in tests.
type Sink interface {
	// WriteAt writes len(p) bytes from p at offset off.
	// Implementations must not retain p.
	WriteAt(p []byte, off int64) (n int, err error)

	// Sync is called for every completed data-sync barrier.
	Sync() error
}

// SizedSink is an optional interface for sinks with a fixed capacity.
// Writes that extend past Size are expected to be short.
type SizedSink interface {
	Sink

	// Size returns the capacity of the sink in bytes.
	Size() int64
}
