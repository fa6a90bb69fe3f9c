package proxy

import (
	"bufio"
	"context"
	"errors"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultProbeTimeout bounds a single endpoint liveness probe.
const DefaultProbeTimeout = 10 * time.Second

// Probe targets: the platform itself plus an independent echo service, so a
// transient outage of either does not condemn a working endpoint.
var defaultProbeTargets = []string{
	"https://www.youtube.com",
	"https://httpbin.org/ip",
}

// ErrNoWorkingProxy is returned when every candidate endpoint fails the
// liveness probe.
var ErrNoWorkingProxy = errors.New("no working proxy available")

// probeFunc checks whether one endpoint is usable within the timeout.
type probeFunc func(ctx context.Context, endpoint string, timeout time.Duration) bool

// Store holds proxy endpoint URIs in insertion order and tracks which have
// been attempted in the current rotation cycle. Attempted endpoints are
// keyed by their URI string. Once every endpoint has been attempted the set
// resets and all endpoints become eligible again.
//
// The store is mutated only by the single foreground goroutine; it needs no
// locking.
type Store struct {
	endpoints    []string
	attempted    map[string]struct{}
	current      string
	probeTimeout time.Duration
	probeTargets []string
	probe        probeFunc
	logger       zerolog.Logger
}

// NewStore creates an empty proxy store.
func NewStore(logger zerolog.Logger) *Store {
	s := &Store{
		attempted:    make(map[string]struct{}),
		probeTimeout: DefaultProbeTimeout,
		probeTargets: defaultProbeTargets,
		logger:       logger.With().Str("component", "proxy").Logger(),
	}
	s.probe = s.probeEndpoint
	return s
}

// Add normalizes and appends one endpoint URI. A bare host:port gets an
// http:// scheme.
func (s *Store) Add(uri string) {
	normalized := NormalizeEndpoint(uri)
	if normalized == "" {
		return
	}
	s.endpoints = append(s.endpoints, normalized)
}

// Load reads one endpoint URI per line from path, skipping blank lines and
// #-comments, and returns the number loaded. A missing file loads zero
// endpoints and is not an error.
func (s *Store) Load(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug().Str("path", path).Msg("Proxy file not found, nothing loaded")
			return 0, nil
		}
		return 0, err
	}
	defer file.Close()

	return s.LoadFrom(file), nil
}

// LoadFrom reads endpoints from r in the same line format as Load and
// returns the number loaded.
func (s *Store) LoadFrom(r io.Reader) int {
	count := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		before := len(s.endpoints)
		s.Add(line)
		if len(s.endpoints) > before {
			count++
		}
	}
	return count
}

// Has reports whether any endpoints are loaded.
func (s *Store) Has() bool {
	return len(s.endpoints) > 0
}

// Len returns the number of loaded endpoints.
func (s *Store) Len() int {
	return len(s.endpoints)
}

// Current returns the active endpoint URI, if one has been selected.
func (s *Store) Current() (string, bool) {
	return s.current, s.current != ""
}

// SelectWorking picks a live endpoint from those not yet attempted this
// cycle, probing candidates in random order. When every endpoint has been
// attempted, the cycle resets and all endpoints become eligible again. The
// chosen endpoint is marked attempted and becomes current. Returns
// ErrNoWorkingProxy when every candidate fails the probe.
func (s *Store) SelectWorking(ctx context.Context, timeout time.Duration) (string, error) {
	if len(s.endpoints) == 0 {
		return "", ErrNoWorkingProxy
	}
	if timeout <= 0 {
		timeout = s.probeTimeout
	}

	candidates := s.eligible()
	if len(candidates) == 0 {
		s.attempted = make(map[string]struct{})
		candidates = s.eligible()
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	for _, endpoint := range candidates {
		if s.probe(ctx, endpoint, timeout) {
			s.attempted[endpoint] = struct{}{}
			s.current = endpoint
			s.logger.Info().Str("endpoint", endpoint).Msg("Selected working proxy")
			return endpoint, nil
		}
		s.logger.Debug().Str("endpoint", endpoint).Msg("Proxy failed liveness probe")
	}

	return "", ErrNoWorkingProxy
}

// Rotate selects the next working endpoint using the store's default probe
// timeout.
func (s *Store) Rotate(ctx context.Context) (string, error) {
	return s.SelectWorking(ctx, s.probeTimeout)
}

// NormalizeEndpoint prefixes a bare host:port with http://. Known proxy
// schemes pass through unchanged.
func NormalizeEndpoint(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ""
	}
	for _, scheme := range []string{"http://", "https://", "socks5://"} {
		if strings.HasPrefix(uri, scheme) {
			return uri
		}
	}
	return "http://" + uri
}

func (s *Store) eligible() []string {
	var out []string
	for _, endpoint := range s.endpoints {
		if _, ok := s.attempted[endpoint]; !ok {
			out = append(out, endpoint)
		}
	}
	return out
}
