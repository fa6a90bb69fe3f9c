package download

// Package download implements the fetch-and-transcode pipeline built on top
// of yt-dlp: metadata-only lookups, in-process library downloads via
// github.com/lrstanley/go-ytdlp, a subprocess fallback invoking the yt-dlp
// binary directly, and the bounded retry controller that rotates proxies
// between attempts.
