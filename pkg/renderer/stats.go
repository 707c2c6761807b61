package renderer

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
)

// FrameStats aggregates submission times
type FrameStats struct {
	Frames  int           // Number of frames submitted
	Total   time.Duration // Sum of all submission times
	Last    time.Duration
	Fastest time.Duration
	Slowest time.Duration
}

// Record adds one submission time
func (s *FrameStats) Record(d time.Duration) {
	if s.Frames == 0 || d < s.Fastest {
		s.Fastest = d
	}
	s.Slowest = max(s.Slowest, d)
	s.Last = d
	s.Total += d
	s.Frames++
}

// Average returns the mean submission time
func (s FrameStats) Average() time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Frames)
}

// WriteTable renders the timings as a table
func (s FrameStats) WriteTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Frames", "Average", "Fastest", "Slowest", "Total"})
	table.Append([]string{
		fmt.Sprintf("%d", s.Frames),
		s.Average().String(),
		s.Fastest.String(),
		s.Slowest.String(),
		s.Total.String(),
	})
	table.Render()
}
