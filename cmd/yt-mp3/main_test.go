package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ytget/yt-mp3/internal/console"
	"github.com/ytget/yt-mp3/internal/model"
)

func TestParseArgs_URLFirst(t *testing.T) {
	url, flags, err := parseArgs([]string{"https://youtu.be/abc12345678", "-b", "320", "--normalize"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://youtu.be/abc12345678" {
		t.Errorf("url = %q", url)
	}
	if flags.bitrate != 320 {
		t.Errorf("bitrate = %d, want 320", flags.bitrate)
	}
	if !flags.normalize {
		t.Error("normalize flag not set")
	}
}

func TestParseArgs_URLAfterFlags(t *testing.T) {
	url, flags, err := parseArgs([]string{"-v", "https://youtu.be/abc12345678"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://youtu.be/abc12345678" {
		t.Errorf("url = %q", url)
	}
	if !flags.verbose {
		t.Error("verbose flag not set")
	}
}

func TestParseArgs_NoURL(t *testing.T) {
	url, _, err := parseArgs([]string{"--no-metadata"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "" {
		t.Errorf("url = %q, want empty", url)
	}
}

func TestSummarize_WithFormatList(t *testing.T) {
	out := &bytes.Buffer{}
	p := console.NewPrinterTo(false, out, &bytes.Buffer{})

	info := &model.VideoInfo{
		Title:    "Test Song",
		Uploader: "Test Channel",
		Duration: 245,
		Formats: []model.FormatInfo{
			{ID: "251", Ext: "webm", Resolution: "audio only"},
		},
	}
	summarize(p, info, true)

	s := out.String()
	if !strings.Contains(s, "Test Song") {
		t.Errorf("summary missing title:\n%s", s)
	}
	if !strings.Contains(s, "RESOLUTION") {
		t.Errorf("format table missing when listing requested:\n%s", s)
	}
}

func TestSummarize_WithoutFormatList(t *testing.T) {
	out := &bytes.Buffer{}
	p := console.NewPrinterTo(false, out, &bytes.Buffer{})

	info := &model.VideoInfo{
		Title:   "Test Song",
		Formats: []model.FormatInfo{{ID: "251", Ext: "webm"}},
	}
	summarize(p, info, false)

	if strings.Contains(out.String(), "RESOLUTION") {
		t.Errorf("format table printed without the flag:\n%s", out.String())
	}
}
