package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/helix-id/helix/internal/accounts"
	"github.com/helix-id/helix/internal/bus"
	"github.com/helix-id/helix/internal/comms"
	"github.com/helix-id/helix/internal/shared"
)

// Event types published by the recovery flows.
const (
	EventPasswordChangeRequested = "user.password_change_requested"
	EventRecoveryCreated         = "recovery.created"
)

// AccountGate validates the tenant before any mutating action.
type AccountGate interface {
	Validate(ctx context.Context, accountID string) (*accounts.Account, error)
}

// User is the slice of the user record the recovery flows need.
type User struct {
	ID        string
	Username  string
	FirstName string
	Email     string
}

// UserLookup locates users in the local store.
type UserLookup interface {
	ByID(ctx context.Context, accountID, userID string) (*User, error)
	ByEmail(ctx context.Context, accountID, email string) (*User, error)
}

// Notifier dispatches a templated notification for an event.
type Notifier interface {
	Send(ctx context.Context, accountID string, event comms.Event, msg comms.Message)
}

// RequestChangeCommand asks for a password-change token for a known user.
type RequestChangeCommand struct {
	AccountID string `json:"account_id"`
	UserID    string `json:"user_id"`
}

// CreateByEmailCommand asks for a recovery token for a user located by email.
type CreateByEmailCommand struct {
	AccountID string `json:"account_id"`
	UserEmail string `json:"user_email"`
}

// Service orchestrates the password-recovery flows.
type Service struct {
	repo      Repository
	gate      AccountGate
	users     UserLookup
	notifier  Notifier
	publisher bus.Publisher
	clock     shared.Clock
	changeTTL time.Duration
	logger    *slog.Logger
}

// NewService builds the recovery service. changeTTL is the short lifetime
// used by change-request flows; onboarding flows pass their own lifetime
// through Issue.
func NewService(
	repo Repository,
	gate AccountGate,
	users UserLookup,
	notifier Notifier,
	publisher bus.Publisher,
	clock shared.Clock,
	changeTTL time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		gate:      gate,
		users:     users,
		notifier:  notifier,
		publisher: publisher,
		clock:     clock,
		changeTTL: changeTTL,
		logger:    logger,
	}
}

// Issue creates and stores a fresh token for the user with the given
// lifetime, returning the token value.
func (s *Service) Issue(ctx context.Context, accountID, userID string, ttl time.Duration) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	now := s.clock.Now()
	_, err = s.repo.Insert(ctx, PasswordRecovery{
		AccountID:       accountID,
		UserID:          userID,
		ValidationToken: token,
		CreatedAt:       now,
		ExpiresAt:       now.Add(ttl),
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// RequestChange issues a short-lived token for a known user and notifies the
// user's email with it.
func (s *Service) RequestChange(ctx context.Context, cmd RequestChangeCommand) error {
	if err := shared.CheckReference("user id", cmd.UserID); err != nil {
		return err
	}
	if _, err := s.gate.Validate(ctx, cmd.AccountID); err != nil {
		return err
	}

	user, err := s.users.ByID(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return fmt.Errorf("user %s: %w", cmd.UserID, err)
	}

	token, err := s.Issue(ctx, cmd.AccountID, user.ID, s.changeTTL)
	if err != nil {
		return err
	}

	s.notifier.Send(ctx, cmd.AccountID, comms.OnPasswordChangeRequested, comms.Message{
		Subject:      "Password change requested",
		Destinations: []comms.Destination{{Name: user.FirstName, Address: user.Email}},
		Parameters: []comms.Parameter{
			{Key: "username", Value: user.FirstName},
			{Key: "token", Value: token},
		},
	})

	return s.publisher.Publish(ctx, EventPasswordChangeRequested, map[string]any{
		"account_id":   cmd.AccountID,
		"user_id":      cmd.UserID,
		"token":        token,
		"requested_at": s.clock.Now(),
	})
}

// CreateByEmail issues a short-lived token for the user owning the email and
// notifies that address.
func (s *Service) CreateByEmail(ctx context.Context, cmd CreateByEmailCommand) error {
	if cmd.UserEmail == "" {
		return fmt.Errorf("user email is required: %w", shared.ErrMalformedReference)
	}
	if _, err := s.gate.Validate(ctx, cmd.AccountID); err != nil {
		return err
	}

	user, err := s.users.ByEmail(ctx, cmd.AccountID, cmd.UserEmail)
	if err != nil {
		s.logger.Warn("recovery requested for unknown email", slog.String("account_id", cmd.AccountID))
		return fmt.Errorf("user by email: %w", err)
	}

	token, err := s.Issue(ctx, cmd.AccountID, user.ID, s.changeTTL)
	if err != nil {
		return err
	}

	s.notifier.Send(ctx, cmd.AccountID, comms.OnPasswordChangeRequested, comms.Message{
		Subject:      "Password change requested",
		Destinations: []comms.Destination{{Name: user.FirstName, Address: user.Email}},
		Parameters: []comms.Parameter{
			{Key: "username", Value: user.FirstName},
			{Key: "token", Value: token},
		},
	})

	now := s.clock.Now()
	return s.publisher.Publish(ctx, EventRecoveryCreated, map[string]any{
		"account_id":       cmd.AccountID,
		"user_id":          user.ID,
		"validation_token": token,
		"created_at":       now,
		"expires_at":       now.Add(s.changeTTL),
	})
}

// Validate looks up a token within the account scope. The token is valid
// strictly before its expiration timestamp and invalid at or after it.
func (s *Service) Validate(ctx context.Context, accountID, token string) (*PasswordRecovery, error) {
	if err := shared.CheckReference("account id", accountID); err != nil {
		return nil, err
	}

	rec, err := s.repo.FindByToken(ctx, accountID, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("validation token: %w", shared.ErrTokenInvalid)
		}
		return nil, err
	}
	if !s.clock.Now().Before(rec.ExpiresAt) {
		return nil, fmt.Errorf("validation token expired: %w", shared.ErrTokenInvalid)
	}
	return rec, nil
}
