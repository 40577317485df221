package spline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func verifyDescriptors(t *testing.T, ks []uint64, maxError int, descriptors []Descriptor[uint64]) {
	t.Helper()
	require.NotEmpty(t, descriptors)

	total := 0
	for di, d := range descriptors {
		require.Equal(t, ks[d.Offset], d.FirstKey, "descriptor %d anchor mismatch", di)
		for i := 0; i < int(d.Size); i++ {
			k := ks[d.Offset+i]
			predicted := int(float64(d.Slope) * (float64(k) - float64(d.FirstKey)))
			diff := predicted - i
			if diff < 0 {
				diff = -diff
			}
			require.LessOrEqualf(t, diff, maxError, "descriptor %d slot %d: predicted %d actual %d", di, i, predicted, i)
		}
		total += int(d.Size)
	}
	require.Equal(t, len(ks), total, "descriptors must partition every input key exactly once")

	for i := 1; i < len(descriptors); i++ {
		prevEnd := ks[descriptors[i-1].Offset+int(descriptors[i-1].Size)-1]
		require.Less(t, prevEnd, descriptors[i].FirstKey, "adjacent segments must not overlap")
	}
}

func TestBuilder_LinearInput(t *testing.T) {
	ks := make([]uint64, 0, 1000)
	for i := uint64(0); i < 1000; i++ {
		ks = append(ks, i*2)
	}
	b := NewBuilder[uint64](4)
	for _, k := range ks {
		b.AddKey(k)
	}
	verifyDescriptors(t, ks, 4, b.Finalize())
}

func TestBuilder_SingleKey(t *testing.T) {
	b := NewBuilder[uint64](8)
	b.AddKey(42)
	descriptors := b.Finalize()
	require.Len(t, descriptors, 1)
	require.EqualValues(t, 1, descriptors[0].Size)
	require.Equal(t, uint64(42), descriptors[0].FirstKey)
}

func TestBuilder_TwoKeys(t *testing.T) {
	ks := []uint64{10, 20}
	b := NewBuilder[uint64](2)
	for _, k := range ks {
		b.AddKey(k)
	}
	verifyDescriptors(t, ks, 2, b.Finalize())
}

func TestBuilder_PiecewiseJumps(t *testing.T) {
	var ks []uint64
	for i := uint64(0); i < 200; i++ {
		ks = append(ks, i)
	}
	for i := uint64(0); i < 200; i++ {
		ks = append(ks, 100000+i*50)
	}
	b := NewBuilder[uint64](2)
	for _, k := range ks {
		b.AddKey(k)
	}
	descriptors := b.Finalize()
	verifyDescriptors(t, ks, 2, descriptors)
	require.Greater(t, len(descriptors), 1, "a slope discontinuity must force a new segment")
}

func TestBuilder_EmptyFinalize(t *testing.T) {
	b := NewBuilder[uint64](4)
	require.Empty(t, b.Finalize())
}

func xorshift(seed uint64) func() uint64 {
	s := seed
	return func() uint64 {
		s ^= s << 13
		s ^= s >> 7
		s ^= s << 17
		return s
	}
}

func TestBuilder_RandomizedMonotone(t *testing.T) {
	for trial := 0; trial < 20; trial++ {
		trial := trial
		t.Run("", func(t *testing.T) {
			t.Parallel()
			next := xorshift(0x2545F4914F6CDD1D + uint64(trial)*0x9E3779B97F4A7C15)
			var ks []uint64
			cur := uint64(0)
			n := 50 + int(next()%500)
			for i := 0; i < n; i++ {
				cur += 1 + next()%1000
				ks = append(ks, cur)
			}
			maxError := 1 + int(next()%16)
			b := NewBuilder[uint64](maxError)
			for _, k := range ks {
				b.AddKey(k)
			}
			verifyDescriptors(t, ks, maxError, b.Finalize())
		})
	}
}
