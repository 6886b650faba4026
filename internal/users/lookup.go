package users

import (
	"context"

	"github.com/helix-id/helix/internal/recovery"
)

// Lookup exposes the user store to the recovery flows.
type Lookup struct {
	repo Repository
}

// NewLookup builds the recovery-side user lookup.
func NewLookup(repo Repository) *Lookup {
	return &Lookup{repo: repo}
}

var _ recovery.UserLookup = (*Lookup)(nil)

// ByID finds a non-deleted user by id.
func (l *Lookup) ByID(ctx context.Context, accountID, userID string) (*recovery.User, error) {
	user, err := l.repo.FindByID(ctx, accountID, userID, false)
	if err != nil {
		return nil, err
	}
	return toRecoveryUser(user), nil
}

// ByEmail finds a non-deleted user by email.
func (l *Lookup) ByEmail(ctx context.Context, accountID, email string) (*recovery.User, error) {
	user, err := l.repo.FindByEmail(ctx, accountID, email)
	if err != nil {
		return nil, err
	}
	return toRecoveryUser(user), nil
}

func toRecoveryUser(u *User) *recovery.User {
	return &recovery.User{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		Email:     u.Email,
	}
}
