// Package directory resolves group and user-type references through the
// platform's request/response lookup services.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/helix-id/helix/internal/shared"
)

// Group is the read-only view of a group returned by the lookup service.
type Group struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ProviderID string `json:"provider_id"`
}

// UserType is the read-only view of a user type.
type UserType struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ProviderID string `json:"provider_id"`
}

// Client resolves cross-service entity references.
type Client interface {
	Group(ctx context.Context, accountID, groupID string) (*Group, error)
	UserType(ctx context.Context, accountID, userTypeID string) (*UserType, error)
}

// HTTPClient is the production Client implementation.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient builds a directory lookup client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Group fetches a group by id within the account scope.
func (c *HTTPClient) Group(ctx context.Context, accountID, groupID string) (*Group, error) {
	var group Group
	if err := c.get(ctx, "groups", accountID, groupID, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// UserType fetches a user type by id within the account scope.
func (c *HTTPClient) UserType(ctx context.Context, accountID, userTypeID string) (*UserType, error) {
	var userType UserType
	if err := c.get(ctx, "user-types", accountID, userTypeID, &userType); err != nil {
		return nil, err
	}
	return &userType, nil
}

func (c *HTTPClient) get(ctx context.Context, resource, accountID, id string, target any) error {
	u := fmt.Sprintf("%s/api/%s/%s?account_id=%s&show_deleted=false",
		c.baseURL, resource, url.PathEscape(id), url.QueryEscape(accountID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("directory: build request: %w", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("directory: get %s %s: %w", resource, id, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("directory: %s %s: %w", resource, id, shared.ErrNotFound)
	case res.StatusCode != http.StatusOK:
		return fmt.Errorf("directory: get %s %s: unexpected status %d", resource, id, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(target); err != nil {
		return fmt.Errorf("directory: decode %s %s: %w", resource, id, err)
	}
	return nil
}
