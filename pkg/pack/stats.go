package pack

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Bind slots of the scene buffers in bind group 0
const (
	SlotAttribs   = 3
	SlotIndices   = 4
	SlotMaterials = 5
	SlotLights    = 6
	SlotTreeIDs   = 7
	SlotNodes     = 8
	SlotAABBs     = 9
	SlotRootAABB  = 10
)

// Slot is one packed buffer with its binding
type Slot struct {
	Binding uint32
	Name    string
	Data    []byte
}

// Slots lists the scene buffers in bind order
func (b *Buffers) Slots() []Slot {
	return []Slot{
		{SlotAttribs, "attribs", b.Attribs},
		{SlotIndices, "indices", b.Indices},
		{SlotMaterials, "materials", b.Materials},
		{SlotLights, "lights", b.Lights},
		{SlotTreeIDs, "treeIds", b.TreeIDs},
		{SlotNodes, "bspNodes", b.Nodes},
		{SlotAABBs, "bspAABBs", b.AABBs},
		{SlotRootAABB, "rootAABB", b.RootAABB},
	}
}

// Slot returns the buffer bound at binding
func (b *Buffers) Slot(binding uint32) (Slot, bool) {
	for _, s := range b.Slots() {
		if s.Binding == binding {
			return s, true
		}
	}
	return Slot{}, false
}

// TotalBytes returns the combined size of all scene buffers
func (b *Buffers) TotalBytes() int {
	total := 0
	for _, s := range b.Slots() {
		total += len(s.Data)
	}
	return total
}

// WriteStats renders a table of buffer sizes
func (b *Buffers) WriteStats(w io.Writer) {
	counts := map[uint32]int{
		SlotAttribs:   b.VertexCount,
		SlotIndices:   b.TriangleCount,
		SlotMaterials: b.MaterialCount,
		SlotLights:    b.LightCount,
		SlotTreeIDs:   b.TriangleCount,
		SlotNodes:     b.NodeCount,
		SlotAABBs:     b.NodeCount,
		SlotRootAABB:  1,
	}

	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Slot", "Buffer", "Records", "Size"})
	for _, s := range b.Slots() {
		table.Append([]string{fmt.Sprintf("%d", s.Binding), s.Name, fmt.Sprintf("%d", counts[s.Binding]), fmtSize(len(s.Data))})
	}
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(b.TotalBytes()), " ")})
	table.Render()
}

func fmtSize(bytes int) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d bytes", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f kb", float32(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f mb", float32(bytes)/(1024*1024))
	}
}
