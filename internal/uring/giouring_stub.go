//go:build !linux

package uring

// NewGiouringRing is only available on linux
func NewGiouringRing(config Config) (Ring, error) {
	return nil, ErrNotSupported
}
