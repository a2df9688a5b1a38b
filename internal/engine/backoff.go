package engine

import "time"

// Backoff decides how long to wait after the ring runs out of submission
// entries, and when running out has gone on long enough to give up.
type Backoff struct {
	Initial     time.Duration
	Max         time.Duration
	MaxAttempts int                 // consecutive attempts before ErrRingExhausted; 0 is unlimited
	Sleep       func(time.Duration) // nil uses time.Sleep

	attempts int
	total    uint64
}

// Delay returns the wait for the given 1-based attempt: Initial doubled per
// attempt, capped at Max
func (b *Backoff) Delay(attempt int) time.Duration {
	d := b.Initial
	if d <= 0 {
		return 0
	}
	for i := 1; i < attempt; i++ {
		if b.Max > 0 && d >= b.Max {
			break
		}
		d *= 2
	}
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	return d
}

// Wait records one exhausted attempt and sleeps. It returns ErrRingExhausted
// without sleeping once MaxAttempts consecutive attempts have been used.
func (b *Backoff) Wait() error {
	b.attempts++
	b.total++
	if b.MaxAttempts > 0 && b.attempts > b.MaxAttempts {
		return ErrRingExhausted
	}
	sleep := b.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	if d := b.Delay(b.attempts); d > 0 {
		sleep(d)
	}
	return nil
}

// Reset clears the consecutive attempt count after progress was made
func (b *Backoff) Reset() { b.attempts = 0 }

// Attempts returns the current consecutive attempt count
func (b *Backoff) Attempts() int { return b.attempts }

// Total returns every attempt made over the backoff's lifetime
func (b *Backoff) Total() uint64 { return b.total }
