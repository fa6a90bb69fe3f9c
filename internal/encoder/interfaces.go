package encoder

import (
	"context"

	"github.com/ytget/yt-mp3/internal/model"
)

// Encoder defines the interface for the external audio encoder.
type Encoder interface {
	Check(ctx context.Context) bool
	Version(ctx context.Context) (string, error)
	ConvertToMP3(ctx context.Context, inputPath, outputPath string, bitrate int, meta *model.AudioMetadata, overwrite bool) error
	Normalize(ctx context.Context, inputPath, outputPath string, targetLevel float64) error
	Probe(ctx context.Context, path string) (*ProbeInfo, error)
}
