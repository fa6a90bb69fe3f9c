package download

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ytget/yt-mp3/internal/model"
)

// DefaultMaxRetries caps in-process attempts before the terminal fallback.
const DefaultMaxRetries = 3

// StateFunc observes attempt lifecycle transitions. attempt is zero-based.
type StateFunc func(state model.AttemptState, attempt int)

// Controller coordinates download attempts: it retries engine failures
// with proxy rotation and escalates to the subprocess fallback when the
// library path cannot succeed.
type Controller struct {
	svc        Downloader
	proxies    ProxyRotator
	maxRetries int
	logger     zerolog.Logger
	onState    StateFunc
}

// NewController builds a controller around a downloader and a proxy
// rotator. proxies may be an empty store; rotation is skipped when it
// holds no endpoints.
func NewController(svc Downloader, proxies ProxyRotator, logger zerolog.Logger) *Controller {
	return &Controller{
		svc:        svc,
		proxies:    proxies,
		maxRetries: DefaultMaxRetries,
		logger:     logger.With().Str("component", "controller").Logger(),
	}
}

// SetStateCallback sets the observer for attempt state transitions.
func (c *Controller) SetStateCallback(fn StateFunc) {
	c.onState = fn
}

// SetMaxRetries overrides the attempt cap. Values below 1 are ignored.
func (c *Controller) SetMaxRetries(n int) {
	if n >= 1 {
		c.maxRetries = n
	}
}

func (c *Controller) notify(state model.AttemptState, attempt int) {
	if c.onState != nil {
		c.onState(state, attempt)
	}
}

// Download runs the full attempt policy and returns the final MP3 path.
//
// Engine failures rotate the proxy and consume a retry while endpoints
// remain; without proxies a retry cannot change the outcome, so a single
// attempt is made. An unexpected failure on the first attempt triggers an
// immediate inline subprocess try. When the in-process path is exhausted,
// one terminal subprocess fallback runs before giving up.
func (c *Controller) Download(ctx context.Context, url string, opts Options) (string, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if cur, ok := c.proxies.Current(); ok {
			opts.Proxy = cur
		}

		c.notify(model.AttemptStateAttempting, attempt)
		c.logger.Info().Int("attempt", attempt+1).Str("proxy", opts.Proxy).Msg("Starting attempt")

		path, err := c.svc.Download(ctx, url, opts)
		if err == nil {
			c.notify(model.AttemptStateSucceeded, attempt)
			return path, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		switch Classify(err) {
		case ErrorKindEngine:
			if !c.proxies.Has() {
				c.logger.Warn().Err(err).Msg("Engine failed with no proxies to rotate")
				break
			}
			c.notify(model.AttemptStateProxyRotating, attempt)
			next, rerr := c.proxies.Rotate(ctx)
			if rerr != nil {
				c.logger.Warn().Err(rerr).Msg("Proxy rotation found no working endpoint")
			} else {
				c.logger.Info().Str("proxy", next).Msg("Rotated to new proxy")
			}
			continue

		case ErrorKindUnexpected:
			if attempt == 0 {
				c.notify(model.AttemptStateSubprocessFallback, attempt)
				c.logger.Warn().Err(err).Msg("Unexpected failure on first attempt, trying subprocess")
				if path, ferr := c.svc.DownloadSubprocess(ctx, url, opts); ferr == nil {
					c.notify(model.AttemptStateSucceeded, attempt)
					return path, nil
				} else {
					lastErr = ferr
				}
			}
		}
		break
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	// Last resort: one direct subprocess run before reporting failure.
	c.notify(model.AttemptStateSubprocessFallback, c.maxRetries)
	if cur, ok := c.proxies.Current(); ok {
		opts.Proxy = cur
	}
	path, err := c.svc.DownloadSubprocess(ctx, url, opts)
	if err == nil {
		c.notify(model.AttemptStateSucceeded, c.maxRetries)
		return path, nil
	}
	if lastErr == nil {
		lastErr = err
	}

	c.notify(model.AttemptStateFailed, c.maxRetries)
	return "", &TerminalError{Attempts: c.maxRetries, LastErr: lastErr}
}
