// Package countdown renders auction time remaining as coarse labels.
package countdown

import (
	"fmt"
	"time"
)

// EndingNow is shown when less than a minute remains.
const EndingNow = "ending now"

const (
	minute = 60
	hour   = 60 * minute
	day    = 24 * hour
)

// Format returns the coarsest non-zero unit of seconds: "3d", "5h", "12m",
// or EndingNow under one minute. Negative input is treated as zero.
func Format(seconds int64) string {
	switch {
	case seconds >= day:
		return fmt.Sprintf("%dd", seconds/day)
	case seconds >= hour:
		return fmt.Sprintf("%dh", seconds/hour)
	case seconds >= minute:
		return fmt.Sprintf("%dm", seconds/minute)
	default:
		return EndingNow
	}
}

// Remaining returns the seconds from now until end, never negative.
func Remaining(endEpochSeconds, nowEpochSeconds int64) int64 {
	if d := endEpochSeconds - nowEpochSeconds; d > 0 {
		return d
	}
	return 0
}

// FormatEnd describes when an auction ends relative to now: "at 15:04:05"
// when end falls on the same calendar day as now in now's location, and
// "on 2006-01-02 at 15:04:05" otherwise.
func FormatEnd(end, now time.Time) string {
	end = end.In(now.Location())
	ey, em, ed := end.Date()
	ny, nm, nd := now.Date()
	if ey == ny && em == nm && ed == nd {
		return "at " + end.Format(time.TimeOnly)
	}
	return "on " + end.Format(time.DateOnly) + " at " + end.Format(time.TimeOnly)
}
