package comms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/helix-id/helix/internal/shared"
)

// AuthServerClient fetches the communication rules configured for an
// account's auth server.
type AuthServerClient interface {
	Rules(ctx context.Context, accountID string) (*Rules, error)
}

// HTTPAuthServerClient is the production AuthServerClient. Concurrent
// lookups for the same account collapse into one remote call.
type HTTPAuthServerClient struct {
	baseURL string
	client  *http.Client
	group   singleflight.Group
}

// NewAuthServerClient builds an auth-server lookup client.
func NewAuthServerClient(baseURL string, timeout time.Duration) *HTTPAuthServerClient {
	return &HTTPAuthServerClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type authServerPage struct {
	RecordsInPage int `json:"records_in_page"`
	Items         []struct {
		CommunicationRules *Rules `json:"communication_rules"`
	} `json:"items"`
}

// Rules lists auth servers filtered by account and returns the single
// match's rules. A missing auth server maps to shared.ErrNotFound.
func (c *HTTPAuthServerClient) Rules(ctx context.Context, accountID string) (*Rules, error) {
	v, err, _ := c.group.Do(accountID, func() (any, error) {
		return c.fetch(ctx, accountID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Rules), nil
}

func (c *HTTPAuthServerClient) fetch(ctx context.Context, accountID string) (*Rules, error) {
	u := fmt.Sprintf("%s/api/auth-servers?filter_by=%s&page=1&page_size=1&order_by=account_id&sorting=asc&show_deleted=false",
		c.baseURL, url.QueryEscape(accountID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("comms: build request: %w", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("comms: list auth servers: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("comms: auth server for account %s: %w", accountID, shared.ErrNotFound)
	case res.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("comms: list auth servers: unexpected status %d", res.StatusCode)
	}

	var page authServerPage
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("comms: decode auth servers: %w", err)
	}
	if page.RecordsInPage != 1 || len(page.Items) == 0 || page.Items[0].CommunicationRules == nil {
		return nil, fmt.Errorf("comms: auth server for account %s: %w", accountID, shared.ErrNotFound)
	}
	return page.Items[0].CommunicationRules, nil
}
