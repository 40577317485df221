package spline

import "wahl/keys"

// Coord is a point on the empirical CDF: key x maps to its position y in
// the sorted key stream. y is float64 so the builder can represent rays of
// arbitrary slope through it without losing precision to integer division.
type Coord[K keys.Key] struct {
	X K
	Y float64
}

// Descriptor is the output of Builder: one affine segment of the spline.
// FirstKey is the exact anchor key of the segment (always present in the
// segment's array); Offset/Size index the contiguous run this segment owns
// within the caller's sorted key slice; Slope is the fitted
// position-per-key-delta used by Segment.GetSearchBound.
type Descriptor[K keys.Key] struct {
	FirstKey K
	Offset   int
	Size     uint32
	Slope    float32
}
