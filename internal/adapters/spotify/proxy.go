// Package spotify forwards authorized requests to the upstream Web API on
// behalf of the session, applying the refresh-and-retry-once policy.
package spotify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
)

const defaultBaseURL = "https://api.spotify.com"

// tokenSource is the slice of the session manager the proxy needs.
type tokenSource interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

// Upstream is a forwarded response. Status and Body are passed through
// verbatim so callers can interpret domain-specific failures themselves
// (403 premium required, 404 no active device, ...). A 204 carries an
// empty Body and must not be parsed as JSON.
type Upstream struct {
	Status int
	Header http.Header
	Body   []byte
}

// Proxy is the authorized request forwarder.
type Proxy struct {
	tokens     tokenSource
	httpClient *http.Client
	baseURL    string
}

// NewProxy constructs a Proxy against the production API.
func NewProxy(tokens tokenSource, httpClient *http.Client) *Proxy {
	return NewProxyWithBaseURL(tokens, httpClient, defaultBaseURL)
}

// NewProxyWithBaseURL constructs a Proxy against an arbitrary base URL.
func NewProxyWithBaseURL(tokens tokenSource, httpClient *http.Client, baseURL string) *Proxy {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Proxy{
		tokens:     tokens,
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Forward sends an authorized request upstream. The session manager hands
// out a fresh token before the send, so a request known to be stale is
// never sent. On a 401 it performs exactly one refresh-and-retry cycle;
// a second 401 tears the session down. Every other status is returned
// verbatim inside Upstream with a nil error.
func (p *Proxy) Forward(ctx context.Context, method, path string, query url.Values, body []byte, header http.Header) (*Upstream, error) {
	token, err := p.tokens.Token(ctx)
	if err != nil {
		// fail closed: no token, no upstream call
		return nil, domain.ErrUnauthenticated
	}

	resp, err := p.send(ctx, method, path, query, body, header, token)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusUnauthorized {
		return resp, nil
	}

	// one refresh-and-retry cycle, never a loop
	token, err = p.tokens.Refresh(ctx)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	resp, err = p.send(ctx, method, path, query, body, header, token)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusUnauthorized {
		_ = p.tokens.Logout(ctx)
		return nil, domain.ErrUnauthenticated
	}
	return resp, nil
}

func (p *Proxy) send(ctx context.Context, method, path string, query url.Values, body []byte, header http.Header, token string) (*Upstream, error) {
	u := p.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("spotify proxy: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotify proxy: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("spotify proxy: read response: %w", err)
	}
	return &Upstream{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   respBody,
	}, nil
}
