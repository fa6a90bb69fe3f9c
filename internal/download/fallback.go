package download

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ytget/yt-mp3/internal/platform"
)

// FallbackTimeout bounds one subprocess invocation. Shorter than the
// library timeout: the fallback is a last resort, not a second full run.
const FallbackTimeout = 300 * time.Second

// DownloadSubprocess shells out to the yt-dlp binary directly, bypassing
// the library wrapper. Used when the in-process engine fails in a way
// retries cannot fix.
func (s *Service) DownloadSubprocess(ctx context.Context, url string, opts Options) (string, error) {
	if err := platform.EnsureDir(opts.OutputDir); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	binary := s.ytdlpPath
	if binary == "" {
		binary = "yt-dlp"
	}

	ctx, cancel := context.WithTimeout(ctx, FallbackTimeout)
	defer cancel()

	args := BuildFallbackArgs(url, opts)
	s.logger.Warn().Str("binary", binary).Msg("Falling back to direct subprocess")
	s.logger.Debug().Strs("args", args).Msg("Subprocess arguments")

	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr == nil {
		produced, ok := platform.FindByExt(opts.OutputDir, "."+AudioFormat)
		if !ok {
			return "", ErrNoResult
		}
		title := strings.TrimSuffix(filepath.Base(produced), filepath.Ext(produced))
		return s.finalize(produced, title, opts)
	}

	if ctx.Err() == context.DeadlineExceeded {
		platform.CleanupTempFiles(opts.OutputDir)
		return "", fmt.Errorf("subprocess timed out after %s", FallbackTimeout)
	}

	// The process may have died mid-pipeline leaving a usable audio file
	// behind. Hand back whatever it produced rather than discarding it.
	if partial, ok := platform.FindByExt(opts.OutputDir, platform.AudioExtensions...); ok {
		s.logger.Warn().Str("path", partial).Msg("Subprocess failed but left a partial result")
		return partial, nil
	}

	platform.CleanupTempFiles(opts.OutputDir)
	return "", fmt.Errorf("subprocess failed: %w: %s", runErr, firstStderrLine(stderr.String()))
}

// BuildFallbackArgs assembles the argument list for a direct yt-dlp
// invocation mirroring the library configuration.
func BuildFallbackArgs(url string, opts Options) []string {
	args := []string{
		"-f", BestAudioFormat,
		"--extract-audio",
		"--audio-format", AudioFormat,
		"--audio-quality", fmt.Sprintf("%dK", opts.Bitrate),
		"--no-playlist",
		"--no-warnings",
		"-o", filepath.Join(opts.OutputDir, OutputTemplate),
	}
	if rules := metadataParseRules(opts.Metadata); len(rules) > 0 {
		args = append(args, "--embed-metadata")
		for _, rule := range rules {
			args = append(args, "--parse-metadata", rule)
		}
	}
	if opts.Proxy != "" {
		args = append(args, "--proxy", opts.Proxy)
	}
	if opts.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", fmt.Sprintf("%d", int(opts.SocketTimeout.Seconds())))
	}
	args = append(args, opts.ExtraArgs...)
	return append(args, url)
}

// firstStderrLine extracts the first ERROR line from yt-dlp stderr, or the
// last non-empty line when no explicit error marker is present.
func firstStderrLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for _, line := range lines {
		if strings.HasPrefix(line, "ERROR") {
			return strings.TrimSpace(line)
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return "no output"
}
