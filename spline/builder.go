// Package spline implements the online, ε-bounded piecewise-linear
// segmentation of a sorted key stream: a streaming shrinking-cone construction
// that admits a key into the current segment whenever some slope exists
// linking it to the segment's anchor within maxError of every point already
// admitted, and otherwise opens a new segment anchored at the last admitted
// key, against which the rejected key is then re-tested.
package spline

import "wahl/keys"

// Builder consumes a strictly increasing stream of keys one at a time via
// AddKey and emits the minimum number of affine Descriptors such that every
// admitted key's position is within maxError of the segment's linear model.
// Keys must be fed in strictly increasing order; see internal/assertx for
// the debug-mode check the caller is expected to run before AddKey.
type Builder[K keys.Key] struct {
	maxError int

	open   bool
	offset int // number of keys fed so far (next key's global offset)

	anchor Coord[K] // X is the open segment's anchor key, Y its global offset
	last   Coord[K] // most recently admitted point
	n      int      // count of points admitted to the open segment, including the anchor

	loSlope, hiSlope float64 // valid once n >= 2

	descriptors []Descriptor[K]
}

// NewBuilder creates a Builder bounding every admitted segment's prediction
// error to maxError.
func NewBuilder[K keys.Key](maxError int) *Builder[K] {
	return &Builder[K]{maxError: maxError}
}

// AddKey feeds the next key of the sorted stream into the builder.
func (b *Builder[K]) AddKey(k K) {
	g := b.offset
	b.offset++

	for {
		if !b.open {
			b.anchor = Coord[K]{X: k, Y: float64(g)}
			b.last = b.anchor
			b.n = 1
			b.open = true
			return
		}

		localIndex := float64(g) - b.anchor.Y
		dx := float64(keys.U64(k)) - float64(keys.U64(b.anchor.X))

		candLo := (localIndex - float64(b.maxError)) / dx
		candHi := (localIndex + float64(b.maxError)) / dx

		if b.n == 1 {
			// First point after the anchor always defines the initial cone.
			b.loSlope, b.hiSlope = candLo, candHi
			b.n = 2
			b.last = Coord[K]{X: k, Y: float64(g)}
			return
		}

		if candLo <= b.hiSlope && candHi >= b.loSlope {
			if candLo > b.loSlope {
				b.loSlope = candLo
			}
			if candHi < b.hiSlope {
				b.hiSlope = candHi
			}
			b.n++
			b.last = Coord[K]{X: k, Y: float64(g)}
			return
		}

		// k falls outside the cone: close the current segment excluding its
		// last admitted point, which becomes the anchor of the next segment,
		// then re-test k against the fresh cone (loop; this can fire at most
		// once per AddKey call, since a segment of size 1 always admits its
		// second point unconditionally).
		b.closeSegment(true)
		b.anchor = b.last
		b.n = 1
		b.open = true
	}
}

// Finalize emits the builder's currently open segment (if any) and returns
// every Descriptor produced so far.
func (b *Builder[K]) Finalize() []Descriptor[K] {
	if b.open {
		b.closeSegment(false)
		b.open = false
	}
	return b.descriptors
}

// closeSegment emits a Descriptor covering the points admitted to the
// currently open segment. When excludeLast is true (the segment is closing
// because the next key was rejected) the last admitted point is held back
// to become the next segment's anchor, so the descriptor's size is one
// short of n; the cone bounds computed with that point still included
// remain valid (cone-narrowing is monotonic, so they are, if anything,
// tighter than strictly required for the smaller segment).
func (b *Builder[K]) closeSegment(excludeLast bool) {
	size := b.n
	if excludeLast {
		size--
	}
	var slope float32
	if b.n >= 2 {
		slope = float32((b.loSlope + b.hiSlope) / 2)
	}
	b.descriptors = append(b.descriptors, Descriptor[K]{
		FirstKey: b.anchor.X,
		Offset:   int(b.anchor.Y),
		Size:     uint32(size),
		Slope:    slope,
	})
}
