package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ytget/yt-mp3/internal/config"
	"github.com/ytget/yt-mp3/internal/console"
	"github.com/ytget/yt-mp3/internal/download"
	"github.com/ytget/yt-mp3/internal/encoder"
	"github.com/ytget/yt-mp3/internal/logging"
	"github.com/ytget/yt-mp3/internal/model"
	"github.com/ytget/yt-mp3/internal/platform"
	"github.com/ytget/yt-mp3/internal/proxy"
)

// version is set at build time via -ldflags
var version = "dev"

type cliFlags struct {
	bitrate     int
	outputDir   string
	proxy       string
	proxyFile   string
	ffmpegPath  string
	verbose     bool
	listFormats bool
	noMetadata  bool
	normalize   bool
	showVersion bool
}

func main() {
	os.Exit(run())
}

func run() int {
	// Optional .env next to the binary; absence is not an error
	_ = godotenv.Load()

	url, flags, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if flags.showVersion {
		fmt.Printf("yt-mp3 %s\n", version)
		return 0
	}

	settings := config.FromEnv()
	applyFlags(&settings, flags)

	logger, closeLog := logging.Setup(settings.LogLevel, flags.verbose)
	defer closeLog()

	out := console.NewPrinter(flags.verbose)

	if url == "" {
		out.Error("No video URL given")
		usage()
		return 1
	}
	if !platform.IsVideoURL(url) {
		out.Error("Not a recognized YouTube video URL: %s", url)
		return 1
	}
	url = platform.NormalizeVideoURL(url)

	bitrate := settings.Bitrate(flags.bitrate)
	if flags.bitrate != 0 && !config.ValidBitrate(flags.bitrate) {
		out.Warn("Unsupported bitrate %d, using %d (supported: %v)",
			flags.bitrate, bitrate, config.SupportedBitrates())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ffmpeg availability gates everything: both the library path and the
	// fallback transcode through it
	enc := encoder.NewService(settings.FFmpegPath, logger)
	if !enc.Check(ctx) {
		out.Error("ffmpeg not found at %q", settings.FFmpegPath)
		out.Info("Install it first:")
		out.Info("  macOS:  brew install ffmpeg")
		out.Info("  Debian: apt install ffmpeg")
		out.Info("  Or set FFMPEG_PATH to the binary location")
		return 1
	}
	if v, err := enc.Version(ctx); err == nil {
		out.FFmpegInfo(v)
	}

	proxies := proxy.NewStore(logger)
	if settings.Proxy != "" {
		proxies.Add(settings.Proxy)
	}
	if settings.ProxyFile != "" {
		n, err := proxies.Load(settings.ProxyFile)
		if err != nil {
			out.Warn("Could not read proxy file %s: %v", settings.ProxyFile, err)
		}
		out.ProxyInfo(n, "")
	}
	if proxies.Has() {
		if cur, err := proxies.SelectWorking(ctx, settings.ConnectionTimeout); err != nil {
			out.Warn("No working proxy found, continuing without one")
		} else {
			out.ProxyInfo(0, cur)
		}
	}

	svc := download.NewService(settings.YtdlpPath, logger)

	curProxy, _ := proxies.Current()
	info, err := svc.FetchInfo(ctx, url, download.Options{
		Proxy:         curProxy,
		SocketTimeout: settings.ConnectionTimeout,
	})
	if err != nil {
		out.Error("Could not fetch video info: %v", err)
		return 1
	}
	summarize(out, info, flags.listFormats)

	var meta *model.AudioMetadata
	if !flags.noMetadata {
		m := model.MetadataFromVideo(info)
		meta = &m
	}

	opts := download.Options{
		OutputDir:       settings.OutputDir,
		Bitrate:         bitrate,
		Metadata:        meta,
		SocketTimeout:   settings.ConnectionTimeout,
		DownloadTimeout: settings.DownloadTimeout,
	}

	out.DownloadStart(info.Title, bitrate)
	svc.SetProgressFunc(out.Progress)

	ctrl := download.NewController(svc, proxies, logger)
	ctrl.SetStateCallback(out.State)

	path, err := ctrl.Download(ctx, url, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			out.Error("Cancelled")
			return 130
		}
		out.Error("Download failed: %v", err)
		var term *download.TerminalError
		if errors.As(err, &term) {
			out.Info("Last error: %v", term.LastErr)
		}
		return 1
	}

	// The fallback path can leave a non-mp3 audio file behind; finish the
	// conversion locally
	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		path, err = convertLeftover(ctx, enc, path, bitrate, meta, out)
		if err != nil {
			out.Error("Conversion failed: %v", err)
			return 1
		}
	}

	if flags.normalize {
		path = normalizeLoudness(ctx, enc, path, out)
	}

	if flags.verbose {
		if pi, err := enc.Probe(ctx, path); err == nil && len(pi.Streams) > 0 {
			out.Verbosef("Result: %s, %s Hz, %d channels, %s bps",
				pi.Format.FormatName, pi.Streams[0].SampleRate, pi.Streams[0].Channels, pi.Format.BitRate)
		}
	}

	size, _ := platform.FileSize(path)
	out.Complete(path, size)
	return 0
}

// summarize prints the video overview, with the format table when
// requested. Listing formats never replaces the download; it runs first and
// the transfer follows.
func summarize(out *console.Printer, info *model.VideoInfo, listFormats bool) {
	out.VideoInfo(info)
	if listFormats {
		out.FormatList(info.Formats)
	}
}

// convertLeftover transcodes a non-mp3 partial result into the final MP3.
func convertLeftover(ctx context.Context, enc *encoder.Service, path string, bitrate int, meta *model.AudioMetadata, out *console.Printer) (string, error) {
	out.Warn("Result is %s, converting to mp3...", filepath.Ext(path))

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	target := filepath.Join(filepath.Dir(path), platform.OutputFilename(title, bitrate))
	target = platform.GetUniquePath(target)

	if err := enc.ConvertToMP3(ctx, path, target, bitrate, meta, false); err != nil {
		return "", err
	}
	_ = os.Remove(path)
	return target, nil
}

// normalizeLoudness applies loudness normalization, keeping the original on
// failure.
func normalizeLoudness(ctx context.Context, enc *encoder.Service, path string, out *console.Printer) string {
	out.Info("Normalizing loudness...")

	target := platform.GetUniquePath(strings.TrimSuffix(path, ".mp3") + "_normalized.mp3")
	if err := enc.Normalize(ctx, path, target, encoder.DefaultNormalizeLevel); err != nil {
		out.Warn("Normalization failed, keeping original: %v", err)
		return path
	}
	_ = os.Remove(path)
	return target
}

// parseArgs handles the url-first calling convention: the URL may appear
// before any flags.
func parseArgs(args []string) (string, cliFlags, error) {
	var url string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		url = args[0]
		args = args[1:]
	}

	var flags cliFlags
	fs := flag.NewFlagSet("yt-mp3", flag.ContinueOnError)
	fs.Usage = usage

	fs.IntVar(&flags.bitrate, "b", 0, "")
	fs.IntVar(&flags.bitrate, "bitrate", 0, "audio bitrate in kbps (128, 192, 320)")
	fs.StringVar(&flags.outputDir, "o", "", "")
	fs.StringVar(&flags.outputDir, "output", "", "output directory")
	fs.StringVar(&flags.proxy, "p", "", "")
	fs.StringVar(&flags.proxy, "proxy", "", "proxy endpoint (http, https, or socks5)")
	fs.StringVar(&flags.proxyFile, "proxy-file", "", "file with one proxy per line")
	fs.StringVar(&flags.ffmpegPath, "ffmpeg-path", "", "path to the ffmpeg binary")
	fs.BoolVar(&flags.verbose, "v", false, "")
	fs.BoolVar(&flags.verbose, "verbose", false, "verbose output")
	fs.BoolVar(&flags.listFormats, "list-formats", false, "list available formats before downloading")
	fs.BoolVar(&flags.noMetadata, "no-metadata", false, "skip ID3 tagging")
	fs.BoolVar(&flags.normalize, "normalize", false, "normalize loudness after download")
	fs.BoolVar(&flags.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return "", flags, err
	}

	// URL may also follow the flags
	if url == "" && fs.NArg() > 0 {
		url = fs.Arg(0)
	}
	return url, flags, nil
}

// applyFlags overlays command line values onto environment settings.
func applyFlags(settings *config.Settings, flags cliFlags) {
	if flags.outputDir != "" {
		settings.OutputDir = flags.outputDir
	}
	if flags.proxy != "" {
		settings.Proxy = flags.proxy
	}
	if flags.proxyFile != "" {
		settings.ProxyFile = flags.proxyFile
	}
	if flags.ffmpegPath != "" {
		settings.FFmpegPath = flags.ffmpegPath
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `yt-mp3 — download YouTube audio as MP3

Usage:
  yt-mp3 <url> [flags]

Flags:
  -b, --bitrate int     audio bitrate in kbps: 128, 192, or 320 (default %d)
  -o, --output string   output directory (default ~/Downloads)
  -p, --proxy string    proxy endpoint (http, https, or socks5)
      --proxy-file string  file with one proxy per line
      --ffmpeg-path string path to the ffmpeg binary
      --list-formats    list available formats before downloading
      --no-metadata     skip ID3 tagging
      --normalize       normalize loudness after download
  -v, --verbose         verbose output
      --version         print version and exit

Environment: OUTPUT_DIR, FFMPEG_PATH, YTDLP_PATH, DOWNLOAD_TIMEOUT,
CONNECTION_TIMEOUT, PROXY, PROXY_FILE, LOG_LEVEL, DEFAULT_BITRATE.
A .env file in the working directory is read if present.
`, config.DefaultBitrate)
}
