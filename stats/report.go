// Package stats provides a hierarchical memory-usage report for the index,
// broken down by component with human-readable byte formatting.
package stats

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Report is a detailed, hierarchical byte-usage breakdown for one component
// of the index (a segment, the locator, the global overflow buffer, ...).
type Report struct {
	Name       string   `json:"name"`
	TotalBytes int      `json:"total_bytes"`
	Children   []Report `json:"children,omitempty"`
}

// Humanize renders TotalBytes in human-readable form, e.g. "3.2 MB".
func (r Report) Humanize() string {
	return humanize.Bytes(uint64(r.TotalBytes))
}

// Print formats and prints the report as a tree.
func (r Report) Print(indent int) {
	prefix := strings.Repeat("  ", indent)
	fmt.Printf("%s- %s: %s (%d bytes)\n", prefix, r.Name, r.Humanize(), r.TotalBytes)
	for _, child := range r.Children {
		child.Print(indent + 1)
	}
}

// JSON returns a JSON string representation of the report.
func (r Report) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"error": "%s"}`, err.Error())
	}
	return string(b)
}

// String returns a string representation of the report as a tree.
func (r Report) String() string {
	var sb strings.Builder
	r.buildString(&sb, 0)
	return sb.String()
}

func (r Report) buildString(sb *strings.Builder, indent int) {
	prefix := strings.Repeat("  ", indent)
	sb.WriteString(fmt.Sprintf("%s- %s: %s (%d bytes)\n", prefix, r.Name, r.Humanize(), r.TotalBytes))
	for _, child := range r.Children {
		child.buildString(sb, indent+1)
	}
}
