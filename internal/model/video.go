package model

import "fmt"

// Time formatting constants
const (
	SecondsPerHour   = 3600
	SecondsPerMinute = 60
)

// VideoInfo is a snapshot of remote video metadata fetched without
// downloading any payload. It is immutable once built.
type VideoInfo struct {
	Title     string
	URL       string
	Uploader  string
	Duration  int // seconds
	Thumbnail string
	ViewCount int64
	LikeCount int64
	Formats   []FormatInfo
}

// FormatInfo describes one remote format as reported by the extraction
// engine.
type FormatInfo struct {
	ID         string
	Ext        string
	Note       string
	Resolution string
	Filesize   int64
}

// DurationString returns the duration formatted as MM:SS, or HH:MM:SS for
// videos longer than an hour.
func (v *VideoInfo) DurationString() string {
	return FormatDuration(v.Duration)
}

// FormatDuration formats a duration in seconds as MM:SS or HH:MM:SS.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / SecondsPerHour
	minutes := (seconds % SecondsPerHour) / SecondsPerMinute
	secs := seconds % SecondsPerMinute
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
