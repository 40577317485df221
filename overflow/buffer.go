package overflow

import (
	"sort"

	"wahl/keys"
)

// KV is one (key, value) pair, used both for the Buffer's ordered run and
// for Range's output.
type KV[K keys.Key, V any] struct {
	Key K
	Val V
}

// Buffer is the per-slot (or global) overflow container: an MFList that
// absorbs every new insert in O(1), paired with an ordered run. No Buffer
// method adds entries to the ordered run: ToSortedData sorts a merged copy
// and leaves both runs as they are. Find checks the ordered run first; as
// it stays empty, Find falls straight through to the MFList.
type Buffer[K keys.Key, V any] struct {
	unordered *MFList[K, V]
	ordered   []KV[K, V]
}

// NewBuffer returns an empty Buffer.
func NewBuffer[K keys.Key, V any]() *Buffer[K, V] {
	return &Buffer[K, V]{unordered: NewMFList[K, V]()}
}

// Insert appends (key, val) to the unordered run.
func (b *Buffer[K, V]) Insert(key K, val V) {
	b.unordered.Insert(key, val)
}

// ReuseInsert appends (key, val) to the unordered run, reclaiming a node
// left over from a prior Clear when one is available.
func (b *Buffer[K, V]) ReuseInsert(key K, val V) {
	b.unordered.ReuseInsert(key, val)
}

// Find looks up key, checking the ordered run first and falling back to the
// unordered MFList (which resolves duplicate keys to the most recently
// inserted value).
func (b *Buffer[K, V]) Find(key K) (V, bool) {
	if len(b.ordered) > 0 {
		i := sort.Search(len(b.ordered), func(i int) bool { return b.ordered[i].Key >= key })
		if i < len(b.ordered) && b.ordered[i].Key == key {
			return b.ordered[i].Val, true
		}
	}
	return b.unordered.Find(key)
}

// Range appends every (key, value) pair in [start, end) held by the
// unordered run to kvs, sorted among themselves (but not merged against any
// caller-supplied entries already in kvs).
func (b *Buffer[K, V]) Range(start, end K, kvs []KV[K, V]) []KV[K, V] {
	base := len(kvs)
	b.unordered.Each(func(key K, val V) {
		if key >= start && key < end {
			kvs = append(kvs, KV[K, V]{Key: key, Val: val})
		}
	})
	sort.Slice(kvs[base:], func(i, j int) bool { return kvs[base+i].Key < kvs[base+j].Key })
	return kvs
}

// ToSortedData drains both the unordered and ordered runs into a single
// ascending (keys, values) stream, appended to the caller-supplied slices.
func (b *Buffer[K, V]) ToSortedData(outKeys []K, outVals []V) ([]K, []V) {
	merged := make([]KV[K, V], 0, len(b.ordered)+b.unordered.Len())
	merged = append(merged, b.ordered...)
	b.unordered.Each(func(key K, val V) {
		merged = append(merged, KV[K, V]{Key: key, Val: val})
	})
	sort.Slice(merged, func(i, j int) bool { return merged[i].Key < merged[j].Key })
	for _, e := range merged {
		outKeys = append(outKeys, e.Key)
		outVals = append(outVals, e.Val)
	}
	return outKeys, outVals
}

// Empty reports whether the buffer holds no entries at all.
func (b *Buffer[K, V]) Empty() bool {
	return b.unordered.Empty() && len(b.ordered) == 0
}

// Clear discards every entry, retaining the unordered run's allocated nodes
// for a subsequent ReuseInsert.
func (b *Buffer[K, V]) Clear() {
	b.unordered.Clear()
	b.ordered = b.ordered[:0]
}

// Len returns the total number of live entries (O(n), test/diagnostic use).
func (b *Buffer[K, V]) Len() int {
	return len(b.ordered) + b.unordered.Len()
}
