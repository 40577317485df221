package wahl

import (
	"wahl/keys"
	"wahl/segment"
	"wahl/spline"
)

// rebuildRange runs the spline builder over a drained (keys, values) stream
// and materializes a fresh chain of segments from the resulting descriptors,
// linking pre/next to each other (the caller splices the chain's ends into
// the sibling list) and inserting each new segment's end key into the
// locator.
func (ix *Index[K, V]) rebuildRange(ks []K, vs []V) (first, last *segment.Segment[K, V], count int) {
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
			first = seg
		}
		ix.locatorTbl.Insert(keys.U64(seg.Back()), seg)
		pre = seg
	}
	return first, pre, len(descriptors)
}

// Retrain drains seg's entire contents (array plus every slot's overflow
// buffer) and rebuilds it as a fresh, ε-compliant chain of one or more
// segments, splicing the chain into seg's place in the sibling list and
// updating the locator.
func (ix *Index[K, V]) Retrain(seg *segment.Segment[K, V]) {
	var ks []K
	var vs []V
	ks, vs = seg.ToSortedData(ks, vs)

	ix.locatorTbl.Erase(keys.U64(seg.Back()))

	pre, next := seg.Pre(), seg.Next()
	first, last, count := ix.rebuildRange(ks, vs)

	if pre != nil {
		pre.SetNext(first)
	} else {
		ix.head = first
	}
	if first != nil {
		first.SetPre(pre)
	}
	if next != nil {
		next.SetPre(last)
	}
	if last != nil {
		last.SetNext(next)
	} else if pre != nil {
		pre.SetNext(next)
	}
	if seg == ix.tail {
		if last != nil {
			ix.tail = last
		} else {
			ix.tail = pre
		}
	}

	ix.numSeg += count - 1
	ix.numSegArrayKeys += len(ks) - seg.ArraySize()
}

// TransformOverflowToSegment promotes the global overflow buffer's
// contents into new segments, first folding in the tail segment's own
// contents (the same drain Retrain would perform on it) so the new tail
// segments absorb both at once.
func (ix *Index[K, V]) TransformOverflowToSegment() {
	var ks []K
	var vs []V

	pre := ix.tail
	if pre != nil {
		pre = pre.Pre()
		ks, vs = ix.tail.ToSortedData(ks, vs)
		ix.locatorTbl.Erase(keys.U64(ix.tail.Back()))
		ix.numSegArrayKeys -= ix.tail.ArraySize()
		ix.numSeg--
	}
	ks, vs = ix.globalOverflow.ToSortedData(ks, vs)

	first, last, count := ix.rebuildRange(ks, vs)

	if pre != nil {
		pre.SetNext(first)
	} else {
		ix.head = first
	}
	if first != nil {
		first.SetPre(pre)
	}
	ix.tail = last

	ix.numSeg += count
	ix.numSegArrayKeys += len(ks)

	ix.globalOverflow.Clear()
	ix.numGlobalOverflow = 0
}
