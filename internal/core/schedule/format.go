package schedule

import (
	"fmt"
	"time"
)

// FormatClock renders total seconds as a zero-padded MM:SS label.
func FormatClock(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// FormatRemaining renders a countdown duration as MM:SS.
func FormatRemaining(remaining time.Duration) string {
	return FormatClock(int(remaining.Seconds()))
}
