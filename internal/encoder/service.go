package encoder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ytget/yt-mp3/internal/model"
	"github.com/ytget/yt-mp3/internal/platform"
)

// FFmpeg constants
const (
	// Audio codec settings
	AudioCodec = "libmp3lame"
	VBRQuality = "2"

	// Executable names
	FFmpegCommand  = "ffmpeg"
	FFprobeCommand = "ffprobe"

	// Loudness normalization filter parameters
	NormalizeTruePeak = -1.5
	NormalizeRange    = 11.0

	// DefaultNormalizeLevel is the target integrated loudness in dB
	DefaultNormalizeLevel = -1.0
)

// Subprocess timeouts
const (
	VersionTimeout   = 10 * time.Second
	ConvertTimeout   = 600 * time.Second
	NormalizeTimeout = 300 * time.Second
	ProbeTimeout     = 30 * time.Second
)

// ProbeInfo is the subset of ffprobe output the app reports.
type ProbeInfo struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecName  string `json:"codec_name"`
		CodecType  string `json:"codec_type"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// Service invokes ffmpeg and ffprobe as external processes.
type Service struct {
	ffmpegPath string
	logger     zerolog.Logger
}

// NewService creates an encoder service using the given ffmpeg executable
// path. An empty path falls back to "ffmpeg" on PATH.
func NewService(ffmpegPath string, logger zerolog.Logger) *Service {
	if ffmpegPath == "" {
		ffmpegPath = FFmpegCommand
	}
	return &Service{
		ffmpegPath: ffmpegPath,
		logger:     logger.With().Str("component", "encoder").Logger(),
	}
}

// Check reports whether the ffmpeg executable is available and runnable.
func (s *Service) Check(ctx context.Context) bool {
	_, err := s.Version(ctx)
	return err == nil
}

// Version returns the first line of ffmpeg -version output.
func (s *Service) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, VersionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, s.ffmpegPath, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("ffmpeg not available at %q: %w", s.ffmpegPath, err)
	}

	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

// ConvertToMP3 transcodes inputPath to MP3 at the given bitrate, embedding
// the tag set when meta is non-nil. The partial output file is removed if
// the conversion fails.
func (s *Service) ConvertToMP3(ctx context.Context, inputPath, outputPath string, bitrate int, meta *model.AudioMetadata, overwrite bool) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file not found: %w", err)
	}
	if err := platform.EnsureDir(filepath.Dir(outputPath)); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	args := BuildConvertArgs(inputPath, outputPath, bitrate, meta, overwrite)
	return s.run(ctx, ConvertTimeout, outputPath, args)
}

// Normalize applies a loudnorm pass writing to outputPath. targetLevel is
// the integrated loudness target in dB.
func (s *Service) Normalize(ctx context.Context, inputPath, outputPath string, targetLevel float64) error {
	args := BuildNormalizeArgs(inputPath, outputPath, targetLevel)
	return s.run(ctx, NormalizeTimeout, outputPath, args)
}

// Probe runs ffprobe against path and returns format and stream details.
func (s *Service) Probe(ctx context.Context, path string) (*ProbeInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, FFprobeCommand,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	).Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var info ProbeInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &info, nil
}

// BuildConvertArgs builds the ffmpeg argument list for an MP3 conversion.
func BuildConvertArgs(inputPath, outputPath string, bitrate int, meta *model.AudioMetadata, overwrite bool) []string {
	overwriteFlag := "-n"
	if overwrite {
		overwriteFlag = "-y"
	}

	args := []string{
		overwriteFlag,
		"-i", inputPath,
		"-codec:a", AudioCodec,
		"-b:a", fmt.Sprintf("%dk", bitrate),
		"-q:a", VBRQuality,
	}

	if meta != nil {
		for _, tag := range meta.Tags() {
			args = append(args, "-metadata", fmt.Sprintf("%s=%s", tag.Key, tag.Value))
		}
	}

	return append(args, outputPath)
}

// BuildNormalizeArgs builds the ffmpeg argument list for a loudnorm pass.
func BuildNormalizeArgs(inputPath, outputPath string, targetLevel float64) []string {
	filter := fmt.Sprintf("loudnorm=I=%.1f:TP=%.1f:LRA=%.0f", targetLevel, NormalizeTruePeak, NormalizeRange)
	return []string{
		"-y",
		"-i", inputPath,
		"-af", filter,
		"-codec:a", AudioCodec,
		outputPath,
	}
}

// run executes ffmpeg with the given args under a timeout, removing the
// partial output file on failure.
func (s *Service) run(ctx context.Context, timeout time.Duration, outputPath string, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Debug().Strs("args", args).Msg("Running ffmpeg")

	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(outputPath)
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("ffmpeg timed out after %s", timeout)
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail(string(out)))
	}
	return nil
}

// tail returns the last few lines of ffmpeg output for error reporting.
func tail(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, " | ")
}
