//go:build !linux || !iceber

package uring

import "fmt"

// NewIceberRing is available when built with -tags iceber
func NewIceberRing(config Config) (Ring, error) {
	return nil, fmt.Errorf("%w: iceber ring not enabled; build with -tags iceber", ErrNotSupported)
}
