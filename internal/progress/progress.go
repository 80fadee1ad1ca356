// Package progress renders the in-place progress bar and formats
// durations for the CLI.
package progress

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

const defaultBarWidth = 40

// Tracker writes a single-line progress bar, overwriting itself on
// each update.
type Tracker struct {
	out      io.Writer
	barWidth int
}

func NewTracker(out io.Writer) *Tracker {
	return &Tracker{out: out, barWidth: defaultBarWidth}
}

// Display renders completion state with an ETA estimated from the
// average time per completed item. At zero completions the ETA reads
// "calculating" instead of dividing by zero.
func (t *Tracker) Display(completed, total int, elapsed time.Duration) {
	if total <= 0 {
		return
	}

	percent := float64(completed) / float64(total) * 100
	filled := t.barWidth * completed / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", t.barWidth-filled)

	eta := "calculating..."
	if completed > 0 {
		perItem := elapsed / time.Duration(completed)
		eta = FormatDuration(perItem * time.Duration(total-completed))
	}

	fmt.Fprintf(t.out, "\r[%s] %d/%d (%.1f%%) ETA: %s", bar, completed, total, percent, eta)
	if completed == total {
		fmt.Fprintln(t.out)
	}
}

// FormatDuration renders a duration the way humans read remaining
// time: seconds below a minute (rounded up from half a second),
// minutes and seconds below an hour, hours and minutes above.
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()
	if seconds < 60 {
		if seconds >= 0.5 {
			return fmt.Sprintf("%ds", int(math.Ceil(seconds)))
		}
		return fmt.Sprintf("%ds", int(math.Round(seconds)))
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", int(seconds)/60, int(seconds)%60)
	}
	return fmt.Sprintf("%dh %dm", int(seconds)/3600, int(seconds)%3600/60)
}
