package tokensource

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// apiKeyHeader carries the key on Anthropic API requests.
const apiKeyHeader = "X-Api-Key"

// Transport adds the API key to requests for the Anthropic API host. oauth2.Transport
// cannot be used since it only sets "Authorization: Bearer".
type Transport struct {
	source oauth2.TokenSource
	host   string
	base   http.RoundTripper
}

// Compile-time check to ensure Transport implements http.RoundTripper
var _ http.RoundTripper = (*Transport)(nil)

// NewTransport returns a Transport authenticating requests to the host of baseURL.
// base defaults to http.DefaultTransport.
func NewTransport(source oauth2.TokenSource, baseURL string, base http.RoundTripper) (*Transport, error) {
	if source == nil {
		return nil, errors.New("token source cannot be nil")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", baseURL)
	}
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{source: source, host: u.Host, base: base}, nil
}

// RoundTrip implements http.RoundTripper. The request is cloned before the header is
// set, as required of RoundTrippers.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host != t.host {
		return t.base.RoundTrip(req)
	}

	token, err := t.source.Token()
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, err
	}

	authed := req.Clone(req.Context())
	authed.Header.Del("Authorization")
	authed.Header.Set(apiKeyHeader, token.AccessToken)
	return t.base.RoundTrip(authed)
}
