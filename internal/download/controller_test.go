package download

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ytget/yt-mp3/internal/model"
)

// fakeDownloader scripts attempt outcomes for controller tests.
type fakeDownloader struct {
	downloadResults []error
	downloadCalls   int

	fallbackResults []error
	fallbackCalls   int

	proxiesSeen []string
}

func (f *fakeDownloader) SetProgressFunc(fn ProgressFunc) {}

func (f *fakeDownloader) FetchInfo(ctx context.Context, url string, opts Options) (*model.VideoInfo, error) {
	return &model.VideoInfo{Title: "test"}, nil
}

func (f *fakeDownloader) Download(ctx context.Context, url string, opts Options) (string, error) {
	f.proxiesSeen = append(f.proxiesSeen, opts.Proxy)
	i := f.downloadCalls
	f.downloadCalls++
	if i < len(f.downloadResults) && f.downloadResults[i] != nil {
		return "", f.downloadResults[i]
	}
	return "/tmp/out.mp3", nil
}

func (f *fakeDownloader) DownloadSubprocess(ctx context.Context, url string, opts Options) (string, error) {
	i := f.fallbackCalls
	f.fallbackCalls++
	if i < len(f.fallbackResults) && f.fallbackResults[i] != nil {
		return "", f.fallbackResults[i]
	}
	return "/tmp/fallback.mp3", nil
}

// fakeRotator is a scriptable proxy source.
type fakeRotator struct {
	endpoints []string
	idx       int
	rotations int
}

func (f *fakeRotator) Has() bool {
	return len(f.endpoints) > 0
}

func (f *fakeRotator) Current() (string, bool) {
	if len(f.endpoints) == 0 {
		return "", false
	}
	return f.endpoints[f.idx%len(f.endpoints)], true
}

func (f *fakeRotator) Rotate(ctx context.Context) (string, error) {
	f.rotations++
	if len(f.endpoints) == 0 {
		return "", errors.New("no endpoints")
	}
	f.idx++
	return f.endpoints[f.idx%len(f.endpoints)], nil
}

func newTestController(svc Downloader, proxies ProxyRotator) *Controller {
	return NewController(svc, proxies, zerolog.Nop())
}

func TestController_SucceedsFirstAttempt(t *testing.T) {
	svc := &fakeDownloader{}
	ctrl := newTestController(svc, &fakeRotator{})

	path, err := ctrl.Download(context.Background(), "https://youtu.be/abc", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/tmp/out.mp3" {
		t.Errorf("path = %q, want /tmp/out.mp3", path)
	}
	if svc.downloadCalls != 1 {
		t.Errorf("download calls = %d, want 1", svc.downloadCalls)
	}
	if svc.fallbackCalls != 0 {
		t.Errorf("fallback calls = %d, want 0", svc.fallbackCalls)
	}
}

func TestController_EngineErrorNoProxies_SingleAttemptThenFallback(t *testing.T) {
	svc := &fakeDownloader{
		downloadResults: []error{engineErr(errors.New("blocked"))},
	}
	ctrl := newTestController(svc, &fakeRotator{})

	path, err := ctrl.Download(context.Background(), "https://youtu.be/abc", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/tmp/fallback.mp3" {
		t.Errorf("path = %q, want fallback result", path)
	}
	// Without proxies a retry cannot change anything.
	if svc.downloadCalls != 1 {
		t.Errorf("download calls = %d, want 1", svc.downloadCalls)
	}
	if svc.fallbackCalls != 1 {
		t.Errorf("fallback calls = %d, want 1", svc.fallbackCalls)
	}
}

func TestController_EngineErrorsRotateProxies(t *testing.T) {
	svc := &fakeDownloader{
		downloadResults: []error{
			engineErr(errors.New("blocked")),
			engineErr(errors.New("blocked")),
		},
	}
	rot := &fakeRotator{endpoints: []string{"http://p1:8080", "http://p2:8080"}}
	ctrl := newTestController(svc, rot)

	path, err := ctrl.Download(context.Background(), "https://youtu.be/abc", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/tmp/out.mp3" {
		t.Errorf("path = %q, want library result", path)
	}
	if svc.downloadCalls != 3 {
		t.Errorf("download calls = %d, want 3", svc.downloadCalls)
	}
	if rot.rotations != 2 {
		t.Errorf("rotations = %d, want 2", rot.rotations)
	}
	if svc.fallbackCalls != 0 {
		t.Errorf("fallback calls = %d, want 0", svc.fallbackCalls)
	}
	// Each attempt after a rotation must carry a proxy.
	for i, p := range svc.proxiesSeen {
		if p == "" {
			t.Errorf("attempt %d ran without a proxy", i)
		}
	}
}

func TestController_RetriesExhausted_TerminalFallbackAndError(t *testing.T) {
	engineFail := engineErr(errors.New("blocked"))
	svc := &fakeDownloader{
		downloadResults: []error{engineFail, engineFail, engineFail},
		fallbackResults: []error{errors.New("binary missing")},
	}
	rot := &fakeRotator{endpoints: []string{"http://p1:8080", "http://p2:8080"}}
	ctrl := newTestController(svc, rot)

	_, err := ctrl.Download(context.Background(), "https://youtu.be/abc", Options{})
	if err == nil {
		t.Fatal("expected terminal error")
	}
	var term *TerminalError
	if !errors.As(err, &term) {
		t.Fatalf("error type = %T, want *TerminalError", err)
	}
	if term.Attempts != DefaultMaxRetries {
		t.Errorf("attempts = %d, want %d", term.Attempts, DefaultMaxRetries)
	}
	if svc.downloadCalls != DefaultMaxRetries {
		t.Errorf("download calls = %d, want %d", svc.downloadCalls, DefaultMaxRetries)
	}
	if svc.fallbackCalls != 1 {
		t.Errorf("fallback calls = %d, want 1", svc.fallbackCalls)
	}
}

func TestController_UnexpectedErrorFirstAttempt_InlineFallback(t *testing.T) {
	svc := &fakeDownloader{
		downloadResults: []error{unexpectedErr(errors.New("rename failed"))},
	}
	ctrl := newTestController(svc, &fakeRotator{})

	path, err := ctrl.Download(context.Background(), "https://youtu.be/abc", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/tmp/fallback.mp3" {
		t.Errorf("path = %q, want fallback result", path)
	}
	if svc.downloadCalls != 1 {
		t.Errorf("download calls = %d, want 1", svc.downloadCalls)
	}
	if svc.fallbackCalls != 1 {
		t.Errorf("fallback calls = %d, want 1", svc.fallbackCalls)
	}
}

func TestController_InlineFallbackFails_TerminalFallbackStillRuns(t *testing.T) {
	svc := &fakeDownloader{
		downloadResults: []error{unexpectedErr(errors.New("rename failed"))},
		fallbackResults: []error{errors.New("first fallback failed"), nil},
	}
	ctrl := newTestController(svc, &fakeRotator{})

	path, err := ctrl.Download(context.Background(), "https://youtu.be/abc", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/tmp/fallback.mp3" {
		t.Errorf("path = %q, want fallback result", path)
	}
	if svc.fallbackCalls != 2 {
		t.Errorf("fallback calls = %d, want 2", svc.fallbackCalls)
	}
}

func TestController_UnexpectedErrorLaterAttempt_NoInlineFallback(t *testing.T) {
	svc := &fakeDownloader{
		downloadResults: []error{
			engineErr(errors.New("blocked")),
			unexpectedErr(errors.New("disk full")),
		},
		fallbackResults: []error{errors.New("binary missing")},
	}
	rot := &fakeRotator{endpoints: []string{"http://p1:8080"}}
	ctrl := newTestController(svc, rot)

	_, err := ctrl.Download(context.Background(), "https://youtu.be/abc", Options{})
	if err == nil {
		t.Fatal("expected terminal error")
	}
	if svc.downloadCalls != 2 {
		t.Errorf("download calls = %d, want 2", svc.downloadCalls)
	}
	// Only the terminal fallback runs; unexpected errors after the first
	// attempt do not get an inline retry.
	if svc.fallbackCalls != 1 {
		t.Errorf("fallback calls = %d, want 1", svc.fallbackCalls)
	}
}

func TestController_StateTransitions(t *testing.T) {
	svc := &fakeDownloader{
		downloadResults: []error{engineErr(errors.New("blocked"))},
	}
	rot := &fakeRotator{endpoints: []string{"http://p1:8080"}}
	ctrl := newTestController(svc, rot)
	ctrl.SetMaxRetries(2)

	var states []model.AttemptState
	ctrl.SetStateCallback(func(state model.AttemptState, attempt int) {
		states = append(states, state)
	})

	if _, err := ctrl.Download(context.Background(), "https://youtu.be/abc", Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.AttemptState{
		model.AttemptStateAttempting,
		model.AttemptStateProxyRotating,
		model.AttemptStateAttempting,
		model.AttemptStateSucceeded,
	}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("state[%d] = %s, want %s", i, states[i], want[i])
		}
	}
}

func TestController_CancelledContext(t *testing.T) {
	svc := &fakeDownloader{
		downloadResults: []error{engineErr(errors.New("blocked"))},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ctrl := newTestController(svc, &fakeRotator{endpoints: []string{"http://p1:8080"}})
	_, err := ctrl.Download(ctx, "https://youtu.be/abc", Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if svc.fallbackCalls != 0 {
		t.Errorf("fallback calls = %d, want 0 after cancellation", svc.fallbackCalls)
	}
}
