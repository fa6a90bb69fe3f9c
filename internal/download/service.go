package download

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog"

	"github.com/ytget/yt-mp3/internal/model"
	"github.com/ytget/yt-mp3/internal/platform"
)

// Engine defaults
const (
	// BestAudioFormat selects the best audio-only stream, preferring webm
	BestAudioFormat = "bestaudio[ext=webm]/bestaudio"

	// AudioFormat is the target codec for extracted audio
	AudioFormat = "mp3"

	// OutputTemplate names the intermediate file after the video title
	OutputTemplate = "%(title)s.%(ext)s"

	// DefaultDownloadTimeout bounds one library download run
	DefaultDownloadTimeout = 600 * time.Second

	// InfoTimeout bounds a metadata-only lookup
	InfoTimeout = 60 * time.Second

	// progressInterval throttles progress callback delivery
	progressInterval = 500 * time.Millisecond
)

// Options carries one attempt's configuration: typed fields for everything
// the app models, plus ExtraArgs passed through verbatim for engine keys
// not otherwise covered.
type Options struct {
	OutputDir       string
	Bitrate         int
	Metadata        *model.AudioMetadata // nil disables tagging
	Proxy           string
	SocketTimeout   time.Duration
	DownloadTimeout time.Duration
	ExtraArgs       []string
}

// ProgressFunc receives transient progress events during a transfer.
type ProgressFunc func(p model.DownloadProgress)

// Service drives the extraction engine through its library interface.
type Service struct {
	ytdlpPath string
	logger    zerolog.Logger
	progress  ProgressFunc
}

// NewService creates a download service. ytdlpPath locates the yt-dlp
// executable backing the library; empty means yt-dlp on PATH.
func NewService(ytdlpPath string, logger zerolog.Logger) *Service {
	return &Service{
		ytdlpPath: ytdlpPath,
		logger:    logger.With().Str("component", "download").Logger(),
	}
}

// SetProgressFunc sets the callback for progress events.
func (s *Service) SetProgressFunc(fn ProgressFunc) {
	s.progress = fn
}

// videoJSON mirrors the engine's single-video JSON dump.
type videoJSON struct {
	Title      string  `json:"title"`
	WebpageURL string  `json:"webpage_url"`
	Uploader   string  `json:"uploader"`
	Duration   float64 `json:"duration"`
	Thumbnail  string  `json:"thumbnail"`
	ViewCount  int64   `json:"view_count"`
	LikeCount  int64   `json:"like_count"`
	Formats    []struct {
		FormatID   string `json:"format_id"`
		Ext        string `json:"ext"`
		FormatNote string `json:"format_note"`
		Resolution string `json:"resolution"`
		Filesize   int64  `json:"filesize"`
	} `json:"formats"`
}

// FetchInfo queries the engine in metadata-only mode and maps the result
// into a VideoInfo snapshot. No payload is downloaded.
func (s *Service) FetchInfo(ctx context.Context, url string, opts Options) (*model.VideoInfo, error) {
	dl := ytdlp.New().
		SkipDownload().
		DumpSingleJSON().
		NoPlaylist().
		NoWarnings()
	s.applyCommon(dl, opts)

	ctx, cancel := context.WithTimeout(ctx, InfoTimeout)
	defer cancel()

	res, err := dl.Run(ctx, append(opts.ExtraArgs, url)...)
	if err != nil {
		return nil, engineErr(fmt.Errorf("metadata lookup failed: %w", err))
	}

	info, err := parseVideoInfo([]byte(res.Stdout), url)
	if err != nil {
		return nil, engineErr(err)
	}
	return info, nil
}

// parseVideoInfo decodes the engine's JSON dump into a VideoInfo snapshot.
func parseVideoInfo(data []byte, url string) (*model.VideoInfo, error) {
	var raw videoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse engine metadata: %w", err)
	}

	info := &model.VideoInfo{
		Title:     raw.Title,
		URL:       url,
		Uploader:  raw.Uploader,
		Duration:  int(raw.Duration),
		Thumbnail: raw.Thumbnail,
		ViewCount: raw.ViewCount,
		LikeCount: raw.LikeCount,
	}
	if info.Title == "" {
		info.Title = "Unknown"
	}
	if info.Uploader == "" {
		info.Uploader = "Unknown"
	}
	for _, f := range raw.Formats {
		info.Formats = append(info.Formats, model.FormatInfo{
			ID:         f.FormatID,
			Ext:        f.Ext,
			Note:       f.FormatNote,
			Resolution: f.Resolution,
			Filesize:   f.Filesize,
		})
	}
	return info, nil
}

// Download runs one in-process fetch-and-transcode attempt and returns the
// path of the produced MP3 file. The destination directory is created if
// absent, and the result is renamed to the final
// <sanitized-title>_<bitrate>kbps.mp3 form.
func (s *Service) Download(ctx context.Context, url string, opts Options) (string, error) {
	if err := platform.EnsureDir(opts.OutputDir); err != nil {
		return "", unexpectedErr(fmt.Errorf("failed to create output directory: %w", err))
	}

	dl := ytdlp.New().
		Format(BestAudioFormat).
		ExtractAudio().
		AudioFormat(AudioFormat).
		AudioQuality(fmt.Sprintf("%dK", opts.Bitrate)).
		Output(filepath.Join(opts.OutputDir, OutputTemplate)).
		ForceOverwrites().
		NoPlaylist().
		NoWarnings()
	s.applyCommon(dl, opts)
	s.applyMetadata(dl, opts.Metadata)

	if s.progress != nil {
		dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
			s.progress(toProgress(update))
		})
	}

	timeout := opts.DownloadTimeout
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info().Str("url", url).Int("bitrate", opts.Bitrate).Msg("Starting download")

	res, err := dl.Run(ctx, append(opts.ExtraArgs, url)...)
	if err != nil {
		platform.CleanupTempFiles(opts.OutputDir)
		return "", engineErr(fmt.Errorf("engine run failed: %w", err))
	}

	produced, title, err := s.locateResult(res, opts.OutputDir)
	if err != nil {
		return "", unexpectedErr(err)
	}

	return s.finalize(produced, title, opts)
}

// locateResult resolves the produced MP3 path from the engine result,
// falling back to a directory scan.
func (s *Service) locateResult(res *ytdlp.Result, outputDir string) (path, title string, err error) {
	if info, ierr := res.GetExtractedInfo(); ierr == nil && len(info) > 0 {
		if info[0].Title != nil {
			title = *info[0].Title
		}
		if info[0].Filename != nil && *info[0].Filename != "" {
			// The engine reports the pre-conversion name; the
			// postprocessor rewrote the extension to mp3.
			name := *info[0].Filename
			candidate := strings.TrimSuffix(name, filepath.Ext(name)) + "." + AudioFormat
			if _, serr := os.Stat(candidate); serr == nil {
				return candidate, title, nil
			}
		}
	}

	if found, ok := platform.FindByExt(outputDir, "."+AudioFormat); ok {
		return found, title, nil
	}
	return "", "", fmt.Errorf("engine finished but no %s file found in %s", AudioFormat, outputDir)
}

// finalize renames the produced file to its final unique name. Success is
// only reported once the output path exists.
func (s *Service) finalize(produced, title string, opts Options) (string, error) {
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(produced), filepath.Ext(produced))
	}

	final := filepath.Join(opts.OutputDir, platform.OutputFilename(title, opts.Bitrate))
	final = platform.GetUniquePath(final)
	if err := os.Rename(produced, final); err != nil {
		return "", unexpectedErr(fmt.Errorf("failed to rename result: %w", err))
	}
	if _, err := os.Stat(final); err != nil {
		return "", unexpectedErr(fmt.Errorf("output file missing after rename: %w", err))
	}

	s.logger.Info().Str("path", final).Msg("Download finished")
	return final, nil
}

// applyCommon applies proxy, socket timeout, and executable selection.
func (s *Service) applyCommon(dl *ytdlp.Command, opts Options) {
	if s.ytdlpPath != "" {
		dl.SetExecutable(s.ytdlpPath)
	}
	if opts.Proxy != "" {
		dl.Proxy(opts.Proxy)
	}
	if opts.SocketTimeout > 0 {
		dl.SocketTimeout(opts.SocketTimeout.Seconds())
	}
}

// applyMetadata wires tag embedding into the engine run. The artist and
// title come from engine fields so the postprocessor sees the same values
// the uploader published; the album is a fixed label.
func (s *Service) applyMetadata(dl *ytdlp.Command, meta *model.AudioMetadata) {
	rules := metadataParseRules(meta)
	if len(rules) == 0 {
		return
	}
	dl.EmbedMetadata()
	for _, rule := range rules {
		dl.ParseMetadata(rule)
	}
}

// metadataParseRules translates the tag set into engine field-interpreter
// rules. Nil metadata means tagging is off and yields no rules; both the
// library path and the subprocess path gate on this.
func metadataParseRules(meta *model.AudioMetadata) []string {
	if meta == nil {
		return nil
	}
	rules := []string{
		"%(title)s:%(meta_title)s",
		"%(uploader)s:%(meta_artist)s",
	}
	if meta.Album != "" && !strings.Contains(meta.Album, ":") {
		rules = append(rules, fmt.Sprintf("%s:%%(meta_album)s", meta.Album))
	}
	return rules
}

// toProgress maps an engine progress update into the app's event shape.
func toProgress(update ytdlp.ProgressUpdate) model.DownloadProgress {
	p := model.DownloadProgress{
		Status: model.ProgressStatusDownloading,
		Speed:  "N/A",
		ETA:    "N/A",
	}

	if update.TotalBytes > 0 {
		p.Percent = float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
	}
	if p.Percent >= 100 {
		p.Status = model.ProgressStatusFinished
	}

	if !update.Started.IsZero() {
		if elapsed := time.Since(update.Started); elapsed.Seconds() > 0 {
			bytesPerSecond := float64(update.DownloadedBytes) / elapsed.Seconds()
			p.Speed = fmt.Sprintf("%.1f MB/s", bytesPerSecond/1024/1024)
		}
	}

	if eta := update.ETA(); eta > 0 {
		p.ETA = fmt.Sprintf("%ds", int(eta.Seconds()))
	}

	if update.Info != nil && update.Info.Filename != nil {
		p.Filename = filepath.Base(*update.Info.Filename)
	}

	return p
}
