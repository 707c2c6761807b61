package bsp

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// Stats contains statistics about the BSP structure
type Stats struct {
	TotalNodes     int
	LeafNodes      int
	EmptyLeaves    int
	MaxDepth       int
	AvgDepth       float64 // average leaf depth
	MaxLeafSize    int
	TotalTriangles int
}

// Stats walks the tree and collects structural statistics
func (t *Tree) Stats() Stats {
	if len(t.Nodes) == 0 {
		return Stats{}
	}

	stats := Stats{}
	t.collectStats(t.Root(), 0, &stats)

	// Calculate average depth after collecting all data
	if stats.LeafNodes > 0 {
		stats.AvgDepth = stats.AvgDepth / float64(stats.LeafNodes)
	}

	return stats
}

// collectStats recursively collects statistics about the tree
func (t *Tree) collectStats(node uint32, depth int, stats *Stats) {
	stats.TotalNodes++
	stats.MaxDepth = max(stats.MaxDepth, depth)

	n := t.Nodes[node]
	if n.IsLeaf() {
		stats.LeafNodes++
		stats.TotalTriangles += int(n.Count)
		stats.MaxLeafSize = max(stats.MaxLeafSize, int(n.Count))
		stats.AvgDepth += float64(depth) // accumulated, divided in Stats
		if n.Count == 0 {
			stats.EmptyLeaves++
		}
		return
	}

	t.collectStats(n.Left, depth+1, stats)
	t.collectStats(n.Right, depth+1, stats)
}

// WriteTable renders the statistics as a table
func (s Stats) WriteTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"BSP", "Value"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.AppendBulk([][]string{
		{"nodes", fmt.Sprintf("%d", s.TotalNodes)},
		{"leaves", fmt.Sprintf("%d", s.LeafNodes)},
		{"empty leaves", fmt.Sprintf("%d", s.EmptyLeaves)},
		{"max depth", fmt.Sprintf("%d", s.MaxDepth)},
		{"avg leaf depth", fmt.Sprintf("%.2f", s.AvgDepth)},
		{"max leaf size", fmt.Sprintf("%d", s.MaxLeafSize)},
		{"triangles", fmt.Sprintf("%d", s.TotalTriangles)},
	})
	table.Render()
}
