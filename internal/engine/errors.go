package engine

import "errors"

var (
	// ErrRingExhausted means the ring had no free submission entry across
	// too many consecutive passes
	ErrRingExhausted = errors.New("engine: submission ring exhausted")

	// ErrUnknownToken means a completion carried a token with no in-flight record
	ErrUnknownToken = errors.New("engine: completion for unknown token")

	// ErrTransport means waiting on or submitting to the ring failed outright
	ErrTransport = errors.New("engine: ring transport failure")

	// ErrConfig means the engine was handed an unusable configuration
	ErrConfig = errors.New("engine: invalid configuration")
)
