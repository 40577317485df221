// Package assertx holds the core's only "defensive" code: debug-mode
// precondition assertions that panic when DEBUG=1 and are otherwise
// no-ops, so release builds never pay for checks that can't fire from
// correct callers.
package assertx

import (
	"fmt"
	"os"
)

var debug = os.Getenv("DEBUG") == "1"

// Bug panics with a formatted message, but only when DEBUG=1. It is the
// spelling for "this should never happen" conditions that are undefined
// behavior in release builds.
func Bug(format string, args ...any) {
	if debug {
		panic(fmt.Sprintf("BUG: "+format, args...))
	}
}

// True panics (in debug builds only) when cond is false.
func True(cond bool, format string, args ...any) {
	if debug && !cond {
		Bug(format, args...)
	}
}

// Sorted panics (in debug builds only) when ks is not strictly increasing.
// Callers feeding a bulk-load key stream are required to enforce ordering
// themselves; this only catches violations when DEBUG=1.
func Sorted[T interface{ ~uint32 | ~uint64 }](ks []T) {
	if !debug {
		return
	}
	for i := 1; i < len(ks); i++ {
		if !(ks[i-1] < ks[i]) {
			Bug("keys not strictly increasing at index %d: %v >= %v", i, ks[i-1], ks[i])
		}
	}
}
