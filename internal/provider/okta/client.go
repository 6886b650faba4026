// Package okta implements the identity-provider port against the Okta
// management API.
package okta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// Config holds Okta management API settings. Auth is either a static SSWS
// API token or OAuth2 client credentials.
type Config struct {
	OrgURL       string
	APIToken     string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// Client talks to the Okta management API.
type Client struct {
	orgURL string
	http   *http.Client
	logger *slog.Logger
}

type sswsTransport struct {
	token string
	base  http.RoundTripper
}

func (t *sswsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "SSWS "+t.token)
	return t.base.RoundTrip(clone)
}

// NewClient builds an Okta client with the configured auth mode.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) *Client {
	var httpClient *http.Client
	if cfg.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		httpClient = cc.Client(ctx)
		httpClient.Timeout = 30 * time.Second
	} else {
		httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: &sswsTransport{token: cfg.APIToken, base: http.DefaultTransport},
		}
	}
	return &Client{orgURL: cfg.OrgURL, http: httpClient, logger: logger}
}

// do executes a management API call. A transport fault returns an error; any
// HTTP status comes back for the caller to interpret.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("okta: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.orgURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("okta: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("okta: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if out != nil && res.StatusCode >= 200 && res.StatusCode < 300 {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil && err != io.EOF {
			return res.StatusCode, fmt.Errorf("okta: decode %s %s: %w", method, path, err)
		}
	}
	return res.StatusCode, nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
