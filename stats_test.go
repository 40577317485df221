package wahl

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStats_StringAndJSONReflectDomainData(t *testing.T) {
	ix := New[uint64, uint64](8, 1024)
	require.NoError(t, ix.BulkLoad([]uint64{0, 10, 20, 30, 40}, []uint64{0, 10, 20, 30, 40}))
	ix.Insert(1000, 1000)

	report := ix.Stats()

	str := report.String()
	require.Contains(t, str, "index")
	require.Contains(t, str, "segments")
	require.Contains(t, str, "locator")
	require.Contains(t, str, "global_overflow")

	js := report.JSON()
	require.True(t, strings.HasPrefix(js, "{"))

	var decoded struct {
		Name       string `json:"name"`
		TotalBytes int    `json:"total_bytes"`
		Children   []struct {
			Name       string `json:"name"`
			TotalBytes int    `json:"total_bytes"`
		} `json:"children"`
	}
	require.NoError(t, json.Unmarshal([]byte(js), &decoded))
	require.Equal(t, "index", decoded.Name)
	require.Len(t, decoded.Children, 3)

	var total int
	for _, c := range decoded.Children {
		total += c.TotalBytes
	}
	require.Equal(t, decoded.TotalBytes, total)
}
