package crowd

import (
	"fmt"
	"time"
)

// Thresholds are the passenger count limits of the crowd levels.
type Thresholds struct {
	Low      int `json:"LOW"`
	Moderate int `json:"MODERATE"`
}

// DefaultThresholds are exported for inspection; nothing derives a status from them.
var DefaultThresholds = Thresholds{Low: 30, Moderate: 45}

// FormatTimeAgo renders the age of t relative to now, e.g. "5 sec ago".
// Timestamps in the future render as "0 sec ago".
func FormatTimeAgo(t, now time.Time) string {
	seconds := int64(now.Sub(t) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d sec ago", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%d min ago", seconds/60)
	default:
		hours := seconds / 3600
		if hours > 1 {
			return fmt.Sprintf("%d hours ago", hours)
		}
		return fmt.Sprintf("%d hour ago", hours)
	}
}
