// Package recovery manages password-recovery tokens: short numeric codes
// proving a user controls their delivery channel for a time-boxed window.
package recovery

import "time"

// PasswordRecovery is an ephemeral token scoped to an account. Records are
// never updated and never deleted; expiry is advisory, enforced only at
// validation time. Multiple valid tokens may coexist for the same user.
type PasswordRecovery struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"account_id"`
	UserID          string    `json:"user_id"`
	ValidationToken string    `json:"validation_token"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}
