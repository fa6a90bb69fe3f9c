package config

import (
	"os"
	"strconv"
	"time"

	"github.com/ytget/yt-mp3/internal/platform"
)

// Environment variable names
const (
	EnvOutputDir         = "OUTPUT_DIR"
	EnvFFmpegPath        = "FFMPEG_PATH"
	EnvYtdlpPath         = "YTDLP_PATH"
	EnvDownloadTimeout   = "DOWNLOAD_TIMEOUT"
	EnvConnectionTimeout = "CONNECTION_TIMEOUT"
	EnvProxy             = "PROXY"
	EnvProxyFile         = "PROXY_FILE"
	EnvLogLevel          = "LOG_LEVEL"
	EnvDefaultBitrate    = "DEFAULT_BITRATE"
)

// Default values
const (
	DefaultFFmpegPath        = "ffmpeg"
	DefaultYtdlpPath         = "yt-dlp"
	DefaultDownloadTimeout   = 600 * time.Second
	DefaultConnectionTimeout = 30 * time.Second
	DefaultLogLevel          = "info"
	DefaultBitrate           = 192
)

// supportedBitrates is the fixed set of accepted MP3 bitrates in kbps.
var supportedBitrates = []int{128, 192, 320}

// Settings is the application configuration, built once at startup from
// environment variables and CLI flags. Read-only after construction.
type Settings struct {
	OutputDir         string
	FFmpegPath        string
	YtdlpPath         string
	DownloadTimeout   time.Duration
	ConnectionTimeout time.Duration
	Proxy             string
	ProxyFile         string
	LogLevel          string
	DefaultBitrate    int
}

// FromEnv builds Settings from environment variables, falling back to
// defaults for anything unset or unparsable.
func FromEnv() Settings {
	return Settings{
		OutputDir:         getenv(EnvOutputDir, defaultOutputDir()),
		FFmpegPath:        getenv(EnvFFmpegPath, DefaultFFmpegPath),
		YtdlpPath:         getenv(EnvYtdlpPath, DefaultYtdlpPath),
		DownloadTimeout:   getenvSeconds(EnvDownloadTimeout, DefaultDownloadTimeout),
		ConnectionTimeout: getenvSeconds(EnvConnectionTimeout, DefaultConnectionTimeout),
		Proxy:             os.Getenv(EnvProxy),
		ProxyFile:         os.Getenv(EnvProxyFile),
		LogLevel:          getenv(EnvLogLevel, DefaultLogLevel),
		DefaultBitrate:    getenvBitrate(EnvDefaultBitrate, DefaultBitrate),
	}
}

// SupportedBitrates returns the accepted MP3 bitrates in kbps.
func SupportedBitrates() []int {
	out := make([]int, len(supportedBitrates))
	copy(out, supportedBitrates)
	return out
}

// ValidBitrate reports whether bitrate is one of the supported values.
func ValidBitrate(bitrate int) bool {
	for _, b := range supportedBitrates {
		if b == bitrate {
			return true
		}
	}
	return false
}

// Bitrate returns the requested bitrate if supported, otherwise the
// configured default.
func (s Settings) Bitrate(requested int) int {
	if ValidBitrate(requested) {
		return requested
	}
	return s.DefaultBitrate
}

func defaultOutputDir() string {
	dir, err := platform.HomeDownloadsDir()
	if err != nil {
		return "./output"
	}
	return dir
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func getenvBitrate(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	bitrate, err := strconv.Atoi(v)
	if err != nil || !ValidBitrate(bitrate) {
		return fallback
	}
	return bitrate
}
