// Package users implements the user-lifecycle command orchestrators and the
// account-scoped user store.
package users

import (
	"time"

	"github.com/helix-id/helix/internal/provider"
)

// User is an identity record scoped to an account. ProviderID and
// UsernameAtProvider are assigned once at creation and never change; rows
// are soft-deleted only.
type User struct {
	ID                  string            `json:"id"`
	AccountID           string            `json:"account_id"`
	UserTypeID          string            `json:"user_type_id"`
	Username            string            `json:"username"`
	FirstName           string            `json:"first_name"`
	LastName            string            `json:"last_name"`
	Email               string            `json:"email"`
	Active              bool              `json:"active"`
	CustomProfileFields map[string]string `json:"custom_profile_fields,omitempty"`
	GroupIDs            []string          `json:"group_ids"`
	Provider            provider.Tag      `json:"provider"`
	ProviderID          string            `json:"provider_id"`
	UsernameAtProvider  string            `json:"username_at_provider"`
	UpdateReason        string            `json:"update_reason,omitempty"`
	IsDeleted           bool              `json:"is_deleted"`
	DeletedAt           *time.Time        `json:"deleted_at,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// HasGroup reports set membership of a group reference.
func (u *User) HasGroup(groupID string) bool {
	for _, id := range u.GroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}
