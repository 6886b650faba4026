// Package provider defines the capability port implemented by each external
// identity provider, plus the registry that resolves implementations from a
// user's provider tag.
package provider

import "context"

// Tag identifies which external identity provider owns a user.
type Tag string

// Known provider tags.
const (
	Okta Tag = "okta"
)

// Known reports whether the tag names a provider this service understands.
func (t Tag) Known() bool {
	switch t {
	case Okta:
		return true
	}
	return false
}

// CreateInput carries everything the provider needs to create a user.
type CreateInput struct {
	AccountName        string
	UserTypeProviderID string
	FirstName          string
	LastName           string
	Login              string
	GroupProviderIDs   []string
}

// Port is the per-provider capability set. All operations are keyed by the
// provider-assigned identifier, never the local one. Operations returning a
// bool or string signal failure with false/"" and a nil error, so
// orchestrators can branch without error-based control flow; a non-nil error
// is reserved for transport faults.
type Port interface {
	Create(ctx context.Context, in CreateInput) (providerID string, err error)
	Update(ctx context.Context, providerID, firstName, lastName string) (bool, error)
	Delete(ctx context.Context, providerID string) error
	Activate(ctx context.Context, providerID string) (activationToken string, err error)
	Deactivate(ctx context.Context, providerID string) error
	AddGroup(ctx context.Context, providerID, groupProviderID string) error
	RemoveGroup(ctx context.Context, providerID, groupProviderID string) error
	ChangePassword(ctx context.Context, providerID, oldPassword, newPassword string) (bool, error)
	SetPassword(ctx context.Context, providerID, newPassword string) (bool, error)
	ExpirePassword(ctx context.Context, providerID string) (temporaryPassword string, err error)
	ClearSessions(ctx context.Context, providerID string) error
	ChangeUserType(ctx context.Context, providerID, userTypeProviderID string) (bool, error)
}
