package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/ytget/yt-mp3/internal/model"
)

// Rendering constants
const (
	// ProgressBarWidth is the cell count of the inline progress bar
	ProgressBarWidth = 30

	// MaxListedFormats caps the format table
	MaxListedFormats = 10

	barFilled = "█"
	barEmpty  = "░"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	titleColor   = color.New(color.FgWhite, color.Bold)
)

// Printer writes formatted output for the interactive session.
type Printer struct {
	verbose bool
	out     io.Writer
	errOut  io.Writer
}

// NewPrinter creates a printer writing to stdout/stderr.
func NewPrinter(verbose bool) *Printer {
	return NewPrinterTo(verbose, os.Stdout, os.Stderr)
}

// NewPrinterTo creates a printer writing to the given streams.
func NewPrinterTo(verbose bool, out, errOut io.Writer) *Printer {
	return &Printer{verbose: verbose, out: out, errOut: errOut}
}

// Success prints a green checkmarked line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", successColor.Sprint("✓"), fmt.Sprintf(format, args...))
}

// Error prints a red error line to stderr.
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintf(p.errOut, "%s %s\n", errorColor.Sprint("✗"), fmt.Sprintf(format, args...))
}

// Warn prints a yellow warning line.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", warnColor.Sprint("!"), fmt.Sprintf(format, args...))
}

// Info prints a plain informational line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.out, "%s\n", fmt.Sprintf(format, args...))
}

// Verbosef prints only when verbose output is enabled.
func (p *Printer) Verbosef(format string, args ...any) {
	if p.verbose {
		fmt.Fprintf(p.out, "%s\n", fmt.Sprintf(format, args...))
	}
}

// VideoInfo prints the pre-download summary of what will be fetched.
func (p *Printer) VideoInfo(info *model.VideoInfo) {
	fmt.Fprintf(p.out, "\n%s\n", titleColor.Sprint(info.Title))
	fmt.Fprintf(p.out, "  %s %s\n", infoColor.Sprint("Channel:"), info.Uploader)
	fmt.Fprintf(p.out, "  %s %s\n", infoColor.Sprint("Duration:"), info.DurationString())
	if info.ViewCount > 0 {
		fmt.Fprintf(p.out, "  %s %s\n", infoColor.Sprint("Views:"), humanize.Comma(info.ViewCount))
	}
	if info.LikeCount > 0 {
		fmt.Fprintf(p.out, "  %s %s\n", infoColor.Sprint("Likes:"), humanize.Comma(info.LikeCount))
	}
	fmt.Fprintln(p.out)
}

// FormatList prints up to MaxListedFormats available formats as a table.
func (p *Printer) FormatList(formats []model.FormatInfo) {
	if len(formats) == 0 {
		p.Info("No format information available")
		return
	}
	if len(formats) > MaxListedFormats {
		formats = formats[:MaxListedFormats]
	}

	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEXT\tRESOLUTION\tNOTE\tSIZE")
	for _, f := range formats {
		size := "-"
		if f.Filesize > 0 {
			size = humanize.Bytes(uint64(f.Filesize))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.Ext, f.Resolution, f.Note, size)
	}
	w.Flush()
	fmt.Fprintln(p.out)
}

// DownloadStart announces the beginning of a transfer.
func (p *Printer) DownloadStart(title string, bitrate int) {
	fmt.Fprintf(p.out, "Downloading %s at %d kbps...\n", titleColor.Sprint(title), bitrate)
}

// Progress renders an in-place progress bar line. Transient: overwritten by
// the next call via carriage return.
func (p *Printer) Progress(prog model.DownloadProgress) {
	filled := int(prog.Percent / 100 * ProgressBarWidth)
	if filled < 0 {
		filled = 0
	}
	if filled > ProgressBarWidth {
		filled = ProgressBarWidth
	}
	bar := strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, ProgressBarWidth-filled)
	fmt.Fprintf(p.out, "\r[%s] %5.1f%%  %s  ETA %s ", bar, prog.Percent, prog.Speed, prog.ETA)
	if prog.Status == model.ProgressStatusFinished {
		fmt.Fprintln(p.out)
	}
}

// State prints a retry state transition. Terminal states get their own
// line; transient states only show in verbose mode.
func (p *Printer) State(state model.AttemptState, attempt int) {
	switch state {
	case model.AttemptStateProxyRotating:
		p.Warn("Attempt %d failed, rotating proxy...", attempt+1)
	case model.AttemptStateSubprocessFallback:
		p.Warn("Switching to direct yt-dlp invocation...")
	case model.AttemptStateAttempting:
		p.Verbosef("Attempt %d...", attempt+1)
	}
}

// Complete prints the final result line with the output size.
func (p *Printer) Complete(path string, size int64) {
	p.Success("Saved %s (%s)", path, humanize.Bytes(uint64(size)))
}

// FFmpegInfo prints the detected ffmpeg version.
func (p *Printer) FFmpegInfo(version string) {
	p.Verbosef("Using %s", version)
}

// ProxyInfo reports how many proxies were loaded and which is active.
func (p *Printer) ProxyInfo(loaded int, current string) {
	if loaded > 0 {
		p.Info("Loaded %d proxies", loaded)
	}
	if current != "" {
		p.Verbosef("Active proxy: %s", current)
	}
}
