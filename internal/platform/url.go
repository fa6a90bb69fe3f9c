package platform

import (
	"fmt"
	"regexp"
)

// URL templates
const (
	VideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Recognized hosting-platform URL shapes
var youtubeURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(www\.)?youtube\.com/watch\?v=[\w-]+`),
	regexp.MustCompile(`^https?://(www\.)?youtube\.com/embed/[\w-]+`),
	regexp.MustCompile(`^https?://youtu\.be/[\w-]+`),
	regexp.MustCompile(`^https?://(www\.)?youtube\.com/shorts/[\w-]+`),
	regexp.MustCompile(`^https?://m\.youtube\.com/watch\?v=[\w-]+`),
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/)([\w-]{11})`),
	regexp.MustCompile(`(?:youtu\.be/)([\w-]{11})`),
}

// IsVideoURL reports whether url matches a recognized hosting-platform
// video URL shape.
func IsVideoURL(url string) bool {
	if url == "" {
		return false
	}
	for _, pattern := range youtubeURLPatterns {
		if pattern.MatchString(url) {
			return true
		}
	}
	return false
}

// ExtractVideoID pulls the 11-character video identifier out of a URL.
func ExtractVideoID(url string) (string, bool) {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// NormalizeVideoURL rewrites any recognized URL shape into the canonical
// watch URL. Unrecognized URLs come back unchanged.
func NormalizeVideoURL(url string) string {
	if id, ok := ExtractVideoID(url); ok {
		return fmt.Sprintf(VideoURLTemplate, id)
	}
	return url
}
