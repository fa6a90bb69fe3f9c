package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Filename constraints
const (
	InvalidFilenameChars = "<>:\"/\\|?*\x00"
	MaxFilenameLength    = 255

	// FallbackFilename replaces names that sanitize down to nothing
	FallbackFilename = "unknown"
)

// Extensions the fallback path recognizes as produced media
var (
	AudioExtensions = []string{".mp3", ".webm", ".m4a"}
)

// Temp file patterns left behind by interrupted engine runs
var (
	TempFilePatterns = []string{"*.part", "*.ytdl"}
)

// SanitizeFilename makes a string safe for filesystem use: invalid
// characters become underscores, control characters are dropped, and the
// result is capped at MaxFilenameLength bytes, preferring a word boundary.
// Applying it twice is a no-op.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case strings.ContainsRune(InvalidFilenameChars, r):
			b.WriteRune('_')
		case r < 0x20:
			// drop control characters
		default:
			b.WriteRune(r)
		}
	}

	result := strings.TrimSpace(b.String())

	if len(result) > MaxFilenameLength {
		result = result[:MaxFilenameLength]
		// Cut at a word boundary when one is reasonably close to the cap
		if idx := strings.LastIndex(result, " "); idx > MaxFilenameLength*8/10 {
			result = result[:idx]
		}
		result = strings.TrimSpace(result)
	}

	if result == "" {
		return FallbackFilename
	}
	return result
}

// OutputFilename builds the final media filename from a video title and the
// effective bitrate.
func OutputFilename(title string, bitrate int) string {
	return fmt.Sprintf("%s_%dkbps.mp3", SanitizeFilename(title), bitrate)
}

// GetUniquePath returns path unchanged if nothing exists there, otherwise
// appends _1, _2, ... before the extension until a free name is found.
func GetUniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, counter, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// EnsureDir creates the directory if it doesn't exist
func EnsureDir(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// FileSize returns the size of the file in bytes.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// FindByExt returns the most recently modified regular file in dir whose
// extension matches one of exts (case-insensitive). The second return value
// reports whether anything was found.
func FindByExt(dir string, exts ...string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	var (
		newest     string
		newestTime int64
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		matched := false
		for _, want := range exts {
			if ext == want {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestTime {
			newest = filepath.Join(dir, entry.Name())
			newestTime = mod
		}
	}

	return newest, newest != ""
}

// CleanupTempFiles removes leftover partial-download files from dir and
// returns the number deleted.
func CleanupTempFiles(dir string) int {
	count := 0
	for _, pattern := range TempFilePatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		for _, match := range matches {
			if err := os.Remove(match); err == nil {
				count++
			}
		}
	}
	return count
}

// HomeDownloadsDir returns the user's standard Downloads directory.
func HomeDownloadsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, "Downloads"), nil
}
