package download

import (
	"context"

	"github.com/ytget/yt-mp3/internal/model"
)

// Downloader defines the interface for the download orchestrator.
type Downloader interface {
	SetProgressFunc(fn ProgressFunc)
	FetchInfo(ctx context.Context, url string, opts Options) (*model.VideoInfo, error)
	Download(ctx context.Context, url string, opts Options) (string, error)
	DownloadSubprocess(ctx context.Context, url string, opts Options) (string, error)
}

// ProxyRotator is the slice of the proxy store the retry controller needs.
type ProxyRotator interface {
	Has() bool
	Rotate(ctx context.Context) (string, error)
	Current() (string, bool)
}
