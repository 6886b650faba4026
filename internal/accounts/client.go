// Package accounts validates tenant accounts against the remote account service.
package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/helix-id/helix/internal/shared"
)

// Account is the read-only view of a tenant returned by the account service.
type Account struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Client fetches accounts over the platform's request/response API.
type Client interface {
	Get(ctx context.Context, accountID string) (*Account, error)
}

// HTTPClient is the production Client implementation.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient builds an account lookup client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Get fetches an account by id. A missing account maps to shared.ErrNotFound.
func (c *HTTPClient) Get(ctx context.Context, accountID string) (*Account, error) {
	u := fmt.Sprintf("%s/api/accounts/%s?show_deleted=false", c.baseURL, url.PathEscape(accountID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("accounts: build request: %w", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("accounts: get %s: %w", accountID, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("accounts: account %s: %w", accountID, shared.ErrNotFound)
	case res.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("accounts: get %s: unexpected status %d", accountID, res.StatusCode)
	}

	var account Account
	if err := json.NewDecoder(res.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("accounts: decode account %s: %w", accountID, err)
	}
	return &account, nil
}
