// Package overflow implements the per-slot insert quarantine used by
// segments: a move-to-front list and the overflow buffer built on top of it.
package overflow

import "wahl/keys"

const windowAlpha = 0.02

type mflNode[K keys.Key, V any] struct {
	key  K
	val  V
	seq  uint64 // insertion order, used to resolve duplicate keys to the latest write
	next *mflNode[K, V]
}

// MFList is a singly-linked insert buffer with a sentinel head and a tail
// pointer. Find performs move-to-front promotion when the probe distance
// exceeds the list's adaptive EMA window; Clear resets the logical length
// but keeps the already-allocated trailing nodes so a subsequent
// ReuseInsert can overwrite them in place instead of allocating.
type MFList[K keys.Key, V any] struct {
	dummy    mflNode[K, V]
	tail     *mflNode[K, V]
	windowSz float64
	nextSeq  uint64
}

// NewMFList returns an empty move-to-front list.
func NewMFList[K keys.Key, V any]() *MFList[K, V] {
	l := &MFList[K, V]{}
	l.tail = &l.dummy
	return l
}

// Insert appends (key, val) at the tail, allocating a new node.
func (l *MFList[K, V]) Insert(key K, val V) {
	l.windowSz++
	l.tail.next = &mflNode[K, V]{key: key, val: val, seq: l.nextSeq}
	l.nextSeq++
	l.tail = l.tail.next
}

// ReuseInsert appends (key, val) at the tail, overwriting an already
// allocated trailing node left over from a prior Clear when one is
// available, instead of allocating.
func (l *MFList[K, V]) ReuseInsert(key K, val V) {
	l.windowSz++
	if l.tail.next != nil {
		l.tail.next.key = key
		l.tail.next.val = val
		l.tail.next.seq = l.nextSeq
	} else {
		l.tail.next = &mflNode[K, V]{key: key, val: val, seq: l.nextSeq}
	}
	l.nextSeq++
	l.tail = l.tail.next
}

// Find scans the list for key. Keys may appear more than once (a key can be
// inserted, then re-inserted with a new value before the segment it belongs
// to is ever retrained); Find walks the whole list and returns the value of
// the occurrence with the highest insertion sequence number, i.e. the most
// recently inserted one, so that repeated inserts of the same key behave as
// last-write-wins regardless of any earlier move-to-front reordering among
// the duplicates. On a hit it updates the EMA window size using that
// match's probe distance and, if the distance exceeded the window, moves it
// to the front.
func (l *MFList[K, V]) Find(key K) (V, bool) {
	dist := 0
	pre := &l.dummy

	var matchVal V
	var matchPre *mflNode[K, V]
	matchDist := -1
	matchSeq := uint64(0)
	found := false

	end := l.tail.next
	for cur := l.dummy.next; cur != end; cur = cur.next {
		if cur.key == key && (!found || cur.seq > matchSeq) {
			matchVal = cur.val
			matchPre = pre
			matchDist = dist
			matchSeq = cur.seq
			found = true
		}
		pre = cur
		dist++
	}
	if !found {
		var zero V
		return zero, false
	}

	l.windowSz = windowAlpha*l.windowSz + (1-windowAlpha)*float64(matchDist)
	if float64(matchDist) > l.windowSz {
		l.moveFrontAfter(matchPre)
	}
	return matchVal, true
}

func (l *MFList[K, V]) moveFrontAfter(pre *mflNode[K, V]) {
	target := pre.next
	if target == l.tail {
		l.tail = pre
	}
	pre.next = target.next
	target.next = l.dummy.next
	l.dummy.next = target
}

// Clear resets the logical length to zero, retaining the chain of
// previously allocated nodes (beyond the sentinel) for ReuseInsert to
// reclaim.
func (l *MFList[K, V]) Clear() {
	l.windowSz = 0
	l.tail = &l.dummy
}

// Empty reports whether the list is logically empty.
func (l *MFList[K, V]) Empty() bool {
	return l.tail == &l.dummy
}

// WindowSize returns the current EMA probe-distance window, exposed for
// tests.
func (l *MFList[K, V]) WindowSize() float64 {
	return l.windowSz
}

// Each calls fn for every logically live (key, val) pair, head to tail.
func (l *MFList[K, V]) Each(fn func(key K, val V)) {
	end := l.tail.next
	for cur := l.dummy.next; cur != end; cur = cur.next {
		fn(cur.key, cur.val)
	}
}

// Len returns the number of logically live entries (O(n), test/diagnostic
// use only).
func (l *MFList[K, V]) Len() int {
	n := 0
	l.Each(func(K, V) { n++ })
	return n
}
