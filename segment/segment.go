// Package segment implements the segment array (one contiguous, affinely
// modeled run of the sorted key space): a sorted key/value array plus a
// lazily-allocated per-slot overflow buffer absorbing inserts that land
// between array entries.
package segment

import (
	"sort"

	"wahl/keys"
	"wahl/overflow"
	"wahl/spline"
)

// Segment owns one contiguous run of the bulk-loaded (or retrained) key
// space. keys/values are immutable between retrains; buffers absorb every
// insert that falls within this segment's range. pre/next form the
// doubly-linked sibling chain in key order.
type Segment[K keys.Key, V any] struct {
	keys    []K
	values  []V
	buffers []*overflow.Buffer[K, V] // slot-aligned, lazily allocated

	slope float32

	pre, next *Segment[K, V]

	numBufferKeys       uint32
	numBufferSortedKeys uint32 // see IsRetrain: never incremented on the live path
	alpha               uint32
}

// New creates an empty segment ready for AddKV.
func New[K keys.Key, V any]() *Segment[K, V] {
	return &Segment[K, V]{alpha: 32}
}

// AddKV populates the segment's array from desc and the bulk-loaded
// (keys, values) slices, which desc.Offset/desc.Size index into.
func (s *Segment[K, V]) AddKV(desc spline.Descriptor[K], ks []K, vs []V) {
	n := int(desc.Size)
	s.keys = append([]K(nil), ks[desc.Offset:desc.Offset+n]...)
	s.values = append([]V(nil), vs[desc.Offset:desc.Offset+n]...)
	s.buffers = make([]*overflow.Buffer[K, V], n)
	s.slope = desc.Slope
}

// Pre returns the previous sibling in key order, or nil.
func (s *Segment[K, V]) Pre() *Segment[K, V] { return s.pre }

// Next returns the next sibling in key order, or nil.
func (s *Segment[K, V]) Next() *Segment[K, V] { return s.next }

// SetPre sets the previous sibling pointer.
func (s *Segment[K, V]) SetPre(p *Segment[K, V]) { s.pre = p }

// SetNext sets the next sibling pointer.
func (s *Segment[K, V]) SetNext(n *Segment[K, V]) { s.next = n }

// ArraySize returns the number of slots in this segment's array.
func (s *Segment[K, V]) ArraySize() int { return len(s.keys) }

// FirstKey returns the segment's minimum array key.
func (s *Segment[K, V]) FirstKey() K { return s.keys[0] }

// Back returns the segment's maximum array key: its locator key.
func (s *Segment[K, V]) Back() K { return s.keys[len(s.keys)-1] }

// GetSearchBound returns the half-open slot range [lo, hi) to lower-bound
// search for key k, given the segment's fitted slope and the shared
// prediction error bound maxError: k's slot is the first slot in [lo, hi)
// whose key is >= k, or hi itself when none qualifies (so hi may be k's
// slot, as when k equals keys[est]). Keys below the segment's first
// key return [0, 0): such a key cannot be in this segment's array, and can
// only be found (if at all) in slot 0's overflow buffer.
func (s *Segment[K, V]) GetSearchBound(k K, maxError int) (lo, hi int) {
	n := len(s.keys)
	if k < s.keys[0] {
		return 0, 0
	}
	est := int(float64(s.slope) * (float64(keys.U64(k)) - float64(keys.U64(s.keys[0]))))
	if est < 0 {
		est = 0
	}
	if est < n && s.keys[est] < k {
		lo = est + 1
		if lo > n {
			lo = n
		}
		hi = est + maxError + 1
		if hi > n {
			hi = n
		}
		return lo, hi
	}
	if est >= maxError {
		lo = est - maxError
	} else {
		lo = 0
	}
	hi = est
	if hi > n {
		hi = n
	}
	return lo, hi
}

// lowerBound returns the index of the first slot in [lo, hi) whose key is
// >= k, or hi if none qualifies.
func (s *Segment[K, V]) lowerBound(lo, hi int, k K) int {
	return lo + sort.Search(hi-lo, func(i int) bool { return s.keys[lo+i] >= k })
}

// Insert records (key, val) in the overflow buffer of the slot key's
// predicted position falls into, allocating that buffer on first use.
func (s *Segment[K, V]) Insert(key K, val V, maxError int) {
	lo, hi := s.GetSearchBound(key, maxError)
	pos := s.lowerBound(lo, hi, key)
	if pos >= len(s.buffers) {
		pos = len(s.buffers) - 1
	}
	if s.buffers[pos] == nil {
		s.buffers[pos] = overflow.NewBuffer[K, V]()
	}
	s.buffers[pos].Insert(key, val)
	s.numBufferKeys++
}

// Find looks up key. An exact array match is shadowed by a newer value in
// that slot's overflow buffer, so the buffer is consulted first; only when
// the buffer has no entry for key does the array value (if any) apply.
func (s *Segment[K, V]) Find(key K, maxError int) (V, bool) {
	lo, hi := s.GetSearchBound(key, maxError)
	pos := s.lowerBound(lo, hi, key)
	if pos < len(s.keys) {
		if buf := s.buffers[pos]; buf != nil {
			if v, ok := buf.Find(key); ok {
				return v, true
			}
		}
		if s.keys[pos] == key {
			return s.values[pos], true
		}
	}
	return *new(V), false
}

// Range appends every (key, value) pair in [start, end) that belongs to
// this segment to kvs, merging each slot's overflow buffer ahead of its
// array entry. earlyStop reports whether the walk ended because it found a
// key >= end within this segment (false means the caller must continue
// into Next()).
func (s *Segment[K, V]) Range(start, end K, maxError int, kvs []overflow.KV[K, V]) ([]overflow.KV[K, V], bool) {
	lo, hi := s.GetSearchBound(start, maxError)
	pos := s.lowerBound(lo, hi, start)
	earlyStop := false
	for ; pos < len(s.keys); pos++ {
		if s.keys[pos] >= end {
			// This slot's buffer holds keys in (keys[pos-1], keys[pos]],
			// some of which may still lie below end.
			if buf := s.buffers[pos]; buf != nil {
				kvs = buf.Range(start, end, kvs)
			}
			earlyStop = true
			break
		}
		if buf := s.buffers[pos]; buf != nil {
			kvs = buf.Range(start, end, kvs)
		}
		kvs = append(kvs, overflow.KV[K, V]{Key: s.keys[pos], Val: s.values[pos]})
	}
	return kvs, earlyStop
}

// ToSortedData appends this segment's entire contents, in ascending key
// order, to the caller-supplied slices: each slot's overflow buffer drained
// before its array entry.
func (s *Segment[K, V]) ToSortedData(outKeys []K, outVals []V) ([]K, []V) {
	for i, k := range s.keys {
		if buf := s.buffers[i]; buf != nil {
			outKeys, outVals = buf.ToSortedData(outKeys, outVals)
		}
		outKeys = append(outKeys, k)
		outVals = append(outVals, s.values[i])
	}
	return outKeys, outVals
}

// TotalKVNum returns the number of keys held by the array plus every
// overflow buffer.
func (s *Segment[K, V]) TotalKVNum() uint32 {
	return uint32(len(s.keys)) + s.numBufferKeys
}

// IsRetrain reports whether this segment has accumulated enough buffered
// inserts, relative to avgSegKeys and its current hysteresis multiplier, to
// warrant a retrain; on a true result the multiplier is doubled so the next
// retrain requires proportionally more growth. numBufferSortedKeys is never
// incremented on the live insert path, so this effectively never fires in
// practice — TransformOverflowToSegment, not per-segment retrain, is what
// promotes buffered inserts into the array in steady-state operation.
func (s *Segment[K, V]) IsRetrain(avgSegKeys uint32) bool {
	if s.numBufferKeys == 0 {
		return false
	}
	if s.TotalKVNum() > avgSegKeys*s.alpha && float64(s.numBufferSortedKeys)/float64(s.numBufferKeys) > 0.6 {
		s.alpha *= 2
		return true
	}
	return false
}

// Buffers exposes the slot-aligned overflow buffer slice for retrain/
// transform code that needs to drain every slot.
func (s *Segment[K, V]) Buffers() []*overflow.Buffer[K, V] { return s.buffers }

// Keys exposes the segment's array keys (read-only use by the caller).
func (s *Segment[K, V]) Keys() []K { return s.keys }

// Values exposes the segment's array values (read-only use by the caller).
func (s *Segment[K, V]) Values() []V { return s.values }
