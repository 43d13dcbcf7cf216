package remote

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"

	apperrors "github.com/logseq/rsapi/errors"
)

const (
	userAgent      = "Logseq-sync/0.3"
	requestTimeout = 30 * time.Second
	connectTimeout = 15 * time.Second

	http2PingInterval = 10 * time.Second
	http2PingTimeout  = 60 * time.Second
)

// newHTTPClient builds the tuned *http.Client shared by every
// control-plane call: user-agent, timeouts, HTTP/2 keepalive, optional
// proxy, and the TLS validation policy of §9's open question
// (validating by default, with an explicit opt-out).
func newHTTPClient(proxyURL string, allowInsecureTLS bool) (*http.Client, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: allowInsecureTLS} //nolint:gosec // gated behind Config.AllowInsecureTLS, default false.

	baseTransport := &http.Transport{
		TLSClientConfig: tlsConfig,
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
	}

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInvalidArg, err)
		}
		baseTransport.Proxy = http.ProxyURL(parsed)
	}

	http2Transport, err := http2.ConfigureTransports(baseTransport)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindRequest, err)
	}
	http2Transport.ReadIdleTimeout = http2PingInterval
	http2Transport.PingTimeout = http2PingTimeout

	return &http.Client{
		Timeout:   requestTimeout,
		Transport: transportWithUserAgent{base: baseTransport},
	}, nil
}

// transportWithUserAgent stamps every outgoing request with the
// engine's user agent before delegating to base.
type transportWithUserAgent struct {
	base http.RoundTripper
}

func (t transportWithUserAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", userAgent)
	}
	return t.base.RoundTrip(req)
}
