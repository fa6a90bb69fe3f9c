package proxy

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	xproxy "golang.org/x/net/proxy"
)

// probeEndpoint reports whether the endpoint can reach at least one of the
// probe targets within the timeout.
func (s *Store) probeEndpoint(ctx context.Context, endpoint string, timeout time.Duration) bool {
	client, err := clientFor(endpoint, timeout)
	if err != nil {
		s.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("Unusable proxy endpoint")
		return false
	}
	defer client.CloseIdleConnections()

	for _, target := range s.probeTargets {
		if probeTarget(ctx, client, target) {
			return true
		}
	}
	return false
}

// clientFor builds an HTTP client routed through the endpoint. socks5://
// URIs get a SOCKS dialer; everything else goes through the standard
// HTTP CONNECT proxy transport.
func clientFor(endpoint string, timeout time.Duration) (*http.Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}

	var transport *http.Transport
	if u.Scheme == "socks5" {
		var auth *xproxy.Auth
		if u.User != nil {
			password, _ := u.User.Password()
			auth = &xproxy.Auth{User: u.User.Username(), Password: password}
		}
		dialer, err := xproxy.SOCKS5("tcp", u.Host, auth, &net.Dialer{Timeout: timeout})
		if err != nil {
			return nil, err
		}
		transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(xproxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			},
		}
	} else {
		transport = &http.Transport{Proxy: http.ProxyURL(u)}
	}

	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

func probeTarget(ctx context.Context, client *http.Client, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
