package users

import "time"

// Event types published on the events queue after a successful
// fire-and-forget mutation. Request/response commands answer the caller
// directly and publish nothing.
const (
	EventActivated         = "user.activated"
	EventDeactivated       = "user.deactivated"
	EventGroupAdded        = "user.group_added"
	EventGroupRemoved      = "user.group_removed"
	EventTypeChanged       = "user.type_changed"
	EventPasswordChanged   = "user.password_changed"
	EventPasswordSet       = "user.password_set"
	EventPasswordExpired   = "user.password_expired"
	EventSessionsCleared   = "user.sessions_cleared"
	EventFirstAccessResent = "user.first_access_resent"
)

// StateChangedEvent reports an activation-state flip.
type StateChangedEvent struct {
	AccountID       string    `json:"account_id"`
	UserID          string    `json:"user_id"`
	Reason          string    `json:"reason,omitempty"`
	ActivationToken string    `json:"activation_token,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// GroupChangedEvent reports a group-set mutation.
type GroupChangedEvent struct {
	AccountID  string    `json:"account_id"`
	UserID     string    `json:"user_id"`
	GroupID    string    `json:"group_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TypeChangedEvent reports a user-type reassignment.
type TypeChangedEvent struct {
	AccountID  string    `json:"account_id"`
	UserID     string    `json:"user_id"`
	UserTypeID string    `json:"user_type_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PasswordEvent reports a credential mutation. TemporaryPassword is set
// only on expiry and travels exclusively inside the event payload.
type PasswordEvent struct {
	AccountID         string    `json:"account_id"`
	UserID            string    `json:"user_id"`
	TemporaryPassword string    `json:"temporary_password,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// FirstAccessResentEvent reports a re-issued onboarding token.
type FirstAccessResentEvent struct {
	AccountID  string    `json:"account_id"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
