// Package wahl implements an updatable learned index over monotonically
// comparable integer keys: a piecewise-linear spline model (package spline)
// locates each key within a small error bound inside a segment (package
// segment); segments are located by an adaptive radix tree (package
// locator) keyed by each segment's maximum key; inserts that fall beyond
// every segment's range quarantine into a global overflow buffer (package
// overflow) until enough accumulate to justify building new segments over
// them.
package wahl

import (
	"errors"
	"fmt"
	"unsafe"

	"wahl/internal/assertx"
	"wahl/keys"
	"wahl/locator"
	"wahl/overflow"
	"wahl/segment"
	"wahl/spline"
	"wahl/stats"
)

// ErrBulkLoadPrecondition is wrapped by BulkLoad's error when its input
// violates a precondition (unsorted keys, length mismatch, zero length).
var ErrBulkLoadPrecondition = errors.New("wahl: bulk load precondition violated")

// KV is a (key, value) pair, as returned by Range.
type KV[K keys.Key, V any] = overflow.KV[K, V]

// Index is an updatable learned index over keys of type K holding values of
// type V.
type Index[K keys.Key, V any] struct {
	maxError          int
	overflowThreshold int

	head, tail *segment.Segment[K, V]
	numSeg     int
	locatorTbl *locator.Tree[*segment.Segment[K, V]]

	globalOverflow *overflow.Buffer[K, V]

	numSegArrayKeys   int
	numTotalKeys      int
	numGlobalOverflow int
}

// New creates an empty Index bounding every segment's prediction error to
// maxError and accumulating at most overflowThreshold keys in the global
// overflow buffer (prior to any bulk load) before building an initial
// segment from them.
func New[K keys.Key, V any](maxError, overflowThreshold int) *Index[K, V] {
	assertx.True(maxError >= 0, "maxError must be non-negative, got %d", maxError)
	assertx.True(overflowThreshold > 0, "overflowThreshold must be positive, got %d", overflowThreshold)
	return &Index[K, V]{
		maxError:          maxError,
		overflowThreshold: overflowThreshold,
		locatorTbl:        locator.New[*segment.Segment[K, V]](),
		globalOverflow:    overflow.NewBuffer[K, V](),
	}
}

// maxKey returns the index's current maximum covered key and whether any
// segment exists at all.
func (ix *Index[K, V]) maxKey() (K, bool) {
	if ix.tail == nil {
		return 0, false
	}
	return ix.tail.Back(), true
}

// BulkLoad builds the initial set of segments from a sorted (keys, values)
// pair. It must be the first mutating call on a fresh Index.
func (ix *Index[K, V]) BulkLoad(ks []K, vs []V) error {
	if len(ks) != len(vs) {
		assertx.Bug("bulk load: len(keys)=%d != len(values)=%d", len(ks), len(vs))
		return fmt.Errorf("%w: len(keys)=%d != len(values)=%d", ErrBulkLoadPrecondition, len(ks), len(vs))
	}
	if len(ks) == 0 {
		assertx.Bug("bulk load: zero-length input")
		return fmt.Errorf("%w: zero-length input", ErrBulkLoadPrecondition)
	}
	assertx.Sorted(ks)
	if debugUnsorted(ks) {
		return fmt.Errorf("%w: keys not strictly increasing", ErrBulkLoadPrecondition)
	}

	b := spline.NewBuilder[K](ix.maxError)
	for _, k := range ks {
		b.AddKey(k)
	}
	descriptors := b.Finalize()

	var pre *segment.Segment[K, V]
	for _, d := range descriptors {
		seg := segment.New[K, V]()
		seg.AddKV(d, ks, vs)
		if pre != nil {
			pre.SetNext(seg)
			seg.SetPre(pre)
		} else {
			ix.head = seg
		}
		ix.locatorTbl.Insert(keys.U64(seg.Back()), seg)
		pre = seg
	}
	ix.tail = pre
	ix.numSeg = len(descriptors)
	ix.numSegArrayKeys = len(ks)
	ix.numTotalKeys = len(ks)
	return nil
}

func debugUnsorted[K keys.Key](ks []K) bool {
	for i := 1; i < len(ks); i++ {
		if !(ks[i-1] < ks[i]) {
			return true
		}
	}
	return false
}

// Insert records (k, v), routing it into the owning segment's overflow
// buffer, or into the global overflow buffer when k exceeds the current
// maximum covered key (or no segments exist yet).
func (ix *Index[K, V]) Insert(k K, v V) {
	mk, hasSeg := ix.maxKey()
	if !hasSeg || k > mk {
		ix.globalOverflow.ReuseInsert(k, v)
		ix.numGlobalOverflow++
		ix.numTotalKeys++

		shouldTransform := (ix.numSeg == 0 && ix.numTotalKeys > ix.overflowThreshold) ||
			(ix.numSeg > 0 && ix.numGlobalOverflow > ix.numSegArrayKeys/ix.numSeg)
		if shouldTransform {
			ix.TransformOverflowToSegment()
		}
		return
	}

	seg, ok := ix.findOwningSegment(k)
	if !ok {
		// Unreachable given hasSeg && k <= mk, kept as a defensive fallback.
		ix.globalOverflow.ReuseInsert(k, v)
		ix.numGlobalOverflow++
		ix.numTotalKeys++
		return
	}
	seg.Insert(k, v, ix.maxError)
	ix.numTotalKeys++
	if seg.IsRetrain(uint32(ix.numSegArrayKeys / ix.numSeg)) {
		ix.Retrain(seg)
	}
}

func (ix *Index[K, V]) findOwningSegment(k K) (*segment.Segment[K, V], bool) {
	return ix.locatorTbl.LowerBound(keys.U64(k))
}

// Find returns the value associated with k, if any.
func (ix *Index[K, V]) Find(k K) (V, bool) {
	mk, hasSeg := ix.maxKey()
	if !hasSeg || k > mk {
		return ix.globalOverflow.Find(k)
	}
	seg, ok := ix.findOwningSegment(k)
	if !ok {
		return ix.globalOverflow.Find(k)
	}
	return seg.Find(k, ix.maxError)
}

// Range returns every (key, value) pair with key in [start, end).
func (ix *Index[K, V]) Range(start, end K) []KV[K, V] {
	var kvs []KV[K, V]

	mk, hasSeg := ix.maxKey()
	if !hasSeg || start > mk {
		return ix.globalOverflow.Range(start, end, kvs)
	}

	seg, ok := ix.findOwningSegment(start)
	if ok {
		earlyStop := false
		for seg != nil && !earlyStop {
			kvs, earlyStop = seg.Range(start, end, ix.maxError, kvs)
			if !earlyStop {
				seg = seg.Next()
			}
		}
	}

	if end > mk && !ix.globalOverflow.Empty() {
		kvs = ix.globalOverflow.Range(start, end, kvs)
	}
	return kvs
}

// Stats returns a hierarchical byte-usage report for the index.
func (ix *Index[K, V]) Stats() stats.Report {
	segReport := stats.Report{Name: "segments"}
	for seg := ix.head; seg != nil; seg = seg.Next() {
		n := seg.ArraySize()
		bufBytes := 0
		for _, buf := range seg.Buffers() {
			if buf != nil {
				bufBytes += buf.Len() * sizeOfKV[K, V]()
			}
		}
		segBytes := n*sizeOfKV[K, V]() + bufBytes
		segReport.TotalBytes += segBytes
	}

	locatorReport := stats.Report{Name: "locator", TotalBytes: ix.numSeg * approxLocatorLeafBytes}
	overflowReport := stats.Report{Name: "global_overflow", TotalBytes: ix.globalOverflow.Len() * sizeOfKV[K, V]()}

	total := stats.Report{
		Name:       "index",
		TotalBytes: segReport.TotalBytes + locatorReport.TotalBytes + overflowReport.TotalBytes,
		Children:   []stats.Report{segReport, locatorReport, overflowReport},
	}
	return total
}

const approxLocatorLeafBytes = 64 // rough per-segment locator overhead: leaf + inner-node share

func sizeOfKV[K keys.Key, V any]() int {
	var k K
	var v V
	return int(unsafe.Sizeof(k)) + int(unsafe.Sizeof(v))
}

// NumSegments returns the current number of live segments.
func (ix *Index[K, V]) NumSegments() int {
	return ix.numSeg
}
