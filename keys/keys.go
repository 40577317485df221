// Package keys holds the numeric constraint shared by every component of
// the index. Keys are unsigned, fixed-width, and totally ordered by their
// natural integer order.
package keys

import "golang.org/x/exp/constraints"

// Key is the constraint satisfied by the index's key type: 32- or 64-bit
// unsigned integers, compared by their natural total order.
type Key interface {
	constraints.Unsigned
	~uint32 | ~uint64
}

// U64 widens any Key to uint64 via zero-extension. Zero-extension preserves
// unsigned total order, so every component that needs a uniform byte
// representation (notably the ART locator) can normalize to 8 bytes
// regardless of whether K is uint32 or uint64.
func U64[K Key](k K) uint64 {
	return uint64(k)
}
