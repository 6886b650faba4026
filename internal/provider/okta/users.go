package okta

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/helix-id/helix/internal/provider"
)

// Compile-time check that Client satisfies the port.
var _ provider.Port = (*Client)(nil)

type userProfile struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Login     string `json:"login,omitempty"`
}

type userType struct {
	ID string `json:"id"`
}

type passwordValue struct {
	Value string `json:"value"`
}

type userCredentials struct {
	Password passwordValue `json:"password"`
}

type oktaUser struct {
	ID string `json:"id"`
}

// Create provisions the user at Okta, staged (inactive), with a generated
// placeholder email and a random initial password. Returns "" on rejection.
func (c *Client) Create(ctx context.Context, in provider.CreateInput) (string, error) {
	body := struct {
		Profile     userProfile     `json:"profile"`
		Type        userType        `json:"type"`
		Credentials userCredentials `json:"credentials"`
		GroupIDs    []string        `json:"groupIds,omitempty"`
	}{
		Profile: userProfile{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     fmt.Sprintf("%s-%s@helix.id", in.AccountName, uuid.NewString()),
			Login:     in.Login,
		},
		Type:        userType{ID: in.UserTypeProviderID},
		Credentials: userCredentials{Password: passwordValue{Value: uuid.NewString()}},
		GroupIDs:    in.GroupProviderIDs,
	}

	var created oktaUser
	status, err := c.do(ctx, http.MethodPost, "/api/v1/users?activate=false", body, &created)
	if err != nil {
		return "", err
	}
	if !ok(status) || created.ID == "" {
		c.logger.Error("okta user creation failed", slog.String("login", in.Login), slog.Int("status", status))
		return "", nil
	}
	return created.ID, nil
}

// Update applies a partial profile update. Returns false on rejection.
func (c *Client) Update(ctx context.Context, providerID, firstName, lastName string) (bool, error) {
	body := struct {
		Profile userProfile `json:"profile"`
	}{Profile: userProfile{FirstName: firstName, LastName: lastName}}

	status, err := c.do(ctx, http.MethodPost, "/api/v1/users/"+url.PathEscape(providerID), body, nil)
	if err != nil {
		return false, err
	}
	if !ok(status) {
		c.logger.Error("okta user update failed", slog.String("provider_id", providerID), slog.Int("status", status))
		return false, nil
	}
	return true, nil
}

// Delete deactivates then deletes the user. Both calls are idempotent at Okta.
func (c *Client) Delete(ctx context.Context, providerID string) error {
	if err := c.Deactivate(ctx, providerID); err != nil {
		return err
	}
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/users/"+url.PathEscape(providerID), nil, nil)
	return err
}

// Activate transitions the user to active and returns the activation token,
// or "" when Okta rejects the transition.
func (c *Client) Activate(ctx context.Context, providerID string) (string, error) {
	var out struct {
		ActivationToken string `json:"activationToken"`
	}
	status, err := c.do(ctx, http.MethodPost,
		"/api/v1/users/"+url.PathEscape(providerID)+"/lifecycle/activate?sendEmail=false", nil, &out)
	if err != nil {
		return "", err
	}
	if !ok(status) || out.ActivationToken == "" {
		c.logger.Error("okta user activation failed", slog.String("provider_id", providerID), slog.Int("status", status))
		return "", nil
	}
	return out.ActivationToken, nil
}

// Deactivate suspends the user. Idempotent at Okta.
func (c *Client) Deactivate(ctx context.Context, providerID string) error {
	_, err := c.do(ctx, http.MethodPost,
		"/api/v1/users/"+url.PathEscape(providerID)+"/lifecycle/deactivate", nil, nil)
	return err
}

// AddGroup adds the user to a group, keyed by provider ids.
func (c *Client) AddGroup(ctx context.Context, providerID, groupProviderID string) error {
	_, err := c.do(ctx, http.MethodPut,
		"/api/v1/groups/"+url.PathEscape(groupProviderID)+"/users/"+url.PathEscape(providerID), nil, nil)
	return err
}

// RemoveGroup removes the user from a group, keyed by provider ids.
func (c *Client) RemoveGroup(ctx context.Context, providerID, groupProviderID string) error {
	_, err := c.do(ctx, http.MethodDelete,
		"/api/v1/groups/"+url.PathEscape(groupProviderID)+"/users/"+url.PathEscape(providerID), nil, nil)
	return err
}

// ChangePassword changes the credential given the current one. Returns false
// on rejection (wrong old password, policy violation).
func (c *Client) ChangePassword(ctx context.Context, providerID, oldPassword, newPassword string) (bool, error) {
	body := struct {
		OldPassword passwordValue `json:"oldPassword"`
		NewPassword passwordValue `json:"newPassword"`
	}{
		OldPassword: passwordValue{Value: oldPassword},
		NewPassword: passwordValue{Value: newPassword},
	}
	status, err := c.do(ctx, http.MethodPost,
		"/api/v1/users/"+url.PathEscape(providerID)+"/credentials/change_password", body, nil)
	if err != nil {
		return false, err
	}
	if !ok(status) {
		c.logger.Error("okta password change failed", slog.String("provider_id", providerID), slog.Int("status", status))
		return false, nil
	}
	return true, nil
}

// SetPassword overwrites the credential without the current one.
func (c *Client) SetPassword(ctx context.Context, providerID, newPassword string) (bool, error) {
	body := struct {
		Credentials userCredentials `json:"credentials"`
	}{Credentials: userCredentials{Password: passwordValue{Value: newPassword}}}

	status, err := c.do(ctx, http.MethodPost, "/api/v1/users/"+url.PathEscape(providerID), body, nil)
	if err != nil {
		return false, err
	}
	if !ok(status) {
		c.logger.Error("okta password set failed", slog.String("provider_id", providerID), slog.Int("status", status))
		return false, nil
	}
	return true, nil
}

// ExpirePassword expires the current password and returns the temporary one
// Okta issues, or "" on rejection.
func (c *Client) ExpirePassword(ctx context.Context, providerID string) (string, error) {
	var out struct {
		TempPassword string `json:"tempPassword"`
	}
	status, err := c.do(ctx, http.MethodPost,
		"/api/v1/users/"+url.PathEscape(providerID)+"/lifecycle/expire_password?tempPassword=true", nil, &out)
	if err != nil {
		return "", err
	}
	if !ok(status) || out.TempPassword == "" {
		c.logger.Error("okta password expiration failed", slog.String("provider_id", providerID), slog.Int("status", status))
		return "", nil
	}
	return out.TempPassword, nil
}

// ClearSessions revokes every active session for the user.
func (c *Client) ClearSessions(ctx context.Context, providerID string) error {
	_, err := c.do(ctx, http.MethodDelete,
		"/api/v1/users/"+url.PathEscape(providerID)+"/sessions", nil, nil)
	return err
}

// ChangeUserType moves the user to another user type, keyed by provider ids.
func (c *Client) ChangeUserType(ctx context.Context, providerID, userTypeProviderID string) (bool, error) {
	body := struct {
		Type userType `json:"type"`
	}{Type: userType{ID: userTypeProviderID}}

	status, err := c.do(ctx, http.MethodPost, "/api/v1/users/"+url.PathEscape(providerID), body, nil)
	if err != nil {
		return false, err
	}
	if !ok(status) {
		c.logger.Error("okta user type change failed", slog.String("provider_id", providerID), slog.Int("status", status))
		return false, nil
	}
	return true, nil
}
