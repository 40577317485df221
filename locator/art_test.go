package locator

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTree_InsertFind(t *testing.T) {
	tr := New[string]()
	tr.Insert(10, "ten")
	tr.Insert(5, "five")
	tr.Insert(20, "twenty")

	v, ok := tr.Find(10)
	require.True(t, ok)
	require.Equal(t, "ten", v)

	_, ok = tr.Find(11)
	require.False(t, ok)
}

func TestTree_InsertOverwrites(t *testing.T) {
	tr := New[string]()
	tr.Insert(10, "first")
	tr.Insert(10, "second")
	v, ok := tr.Find(10)
	require.True(t, ok)
	require.Equal(t, "second", v)
}

func TestTree_LowerBound(t *testing.T) {
	tr := New[int]()
	keysIn := []uint64{5, 10, 15, 100, 1000}
	for _, k := range keysIn {
		tr.Insert(k, int(k))
	}

	cases := []struct {
		query uint64
		want  int
		found bool
	}{
		{0, 5, true},
		{5, 5, true},
		{6, 10, true},
		{15, 15, true},
		{16, 100, true},
		{1000, 1000, true},
		{1001, 0, false},
	}
	for _, c := range cases {
		v, ok := tr.LowerBound(c.query)
		require.Equal(t, c.found, ok, "query %d", c.query)
		if c.found {
			require.Equal(t, c.want, v, "query %d", c.query)
		}
	}
}

func TestTree_GrowthAcrossNodeSizes(t *testing.T) {
	tr := New[uint64]()
	// All share the same top byte (0) and vary only the low byte, forcing
	// one node through every growth stage: 4 -> 16 -> 48 -> 256.
	const n = 200
	for i := uint64(0); i < n; i++ {
		tr.Insert(i, i*10)
	}
	for i := uint64(0); i < n; i++ {
		v, ok := tr.Find(i)
		require.True(t, ok)
		require.Equal(t, i*10, v)
	}
}

func TestTree_EraseShrinksAndPreservesLookups(t *testing.T) {
	tr := New[uint64]()
	const n = 200
	for i := uint64(0); i < n; i++ {
		tr.Insert(i, i)
	}
	// All 200 keys sit in one node256; erasing all but 0 and 100 takes it
	// past every shrink threshold: 256 -> 48 (37), 48 -> 16 (12), 16 -> 4 (3).
	for i := uint64(0); i < n; i++ {
		if i%100 != 0 {
			tr.Erase(i)
		}
	}
	for i := uint64(0); i < n; i++ {
		v, ok := tr.Find(i)
		if i%100 != 0 {
			require.False(t, ok, "key %d should have been erased", i)
		} else {
			require.True(t, ok)
			require.Equal(t, i, v)
		}
	}
}

func TestTree_LowerBoundRandomized(t *testing.T) {
	s := uint64(0xD1B54A32D192ED03)
	next := func() uint64 {
		s ^= s << 13
		s ^= s >> 7
		s ^= s << 17
		return s
	}

	seen := map[uint64]bool{}
	var keysIn []uint64
	tr := New[uint64]()
	for len(keysIn) < 500 {
		k := next() % 1_000_000
		if seen[k] {
			continue
		}
		seen[k] = true
		keysIn = append(keysIn, k)
		tr.Insert(k, k)
	}
	sorted := append([]uint64(nil), keysIn...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for i := 0; i < 2000; i++ {
		q := next() % 1_000_100
		idx := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= q })
		v, ok := tr.LowerBound(q)
		if idx == len(sorted) {
			require.False(t, ok, "query %d", q)
			continue
		}
		require.True(t, ok, "query %d", q)
		require.Equal(t, sorted[idx], v, "query %d", q)
	}
}
