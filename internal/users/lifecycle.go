package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helix-id/helix/internal/comms"
	"github.com/helix-id/helix/internal/provider"
	"github.com/helix-id/helix/internal/shared"
)

// Fire-and-forget command shapes consumed from the commands queue.
type (
	// ActivateCommand flips a user to active and issues first-access credentials.
	ActivateCommand struct {
		AccountID string `json:"account_id"`
		UserID    string `json:"user_id"`
		Reason    string `json:"reason"`
	}

	// DeactivateCommand flips a user to inactive.
	DeactivateCommand struct {
		AccountID string `json:"account_id"`
		UserID    string `json:"user_id"`
		Reason    string `json:"reason"`
	}

	// GroupCommand adds or removes one group membership.
	GroupCommand struct {
		AccountID string `json:"account_id"`
		UserID    string `json:"user_id"`
		GroupID   string `json:"group_id"`
	}

	// ChangePasswordCommand rotates a credential the user knows.
	ChangePasswordCommand struct {
		AccountID   string `json:"account_id"`
		UserID      string `json:"user_id"`
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}

	// SetPasswordCommand overwrites a credential administratively.
	SetPasswordCommand struct {
		AccountID string `json:"account_id"`
		UserID    string `json:"user_id"`
		Password  string `json:"password"`
	}

	// UserCommand targets one user with no extra payload.
	UserCommand struct {
		AccountID string `json:"account_id"`
		UserID    string `json:"user_id"`
	}

	// ChangeUserTypeCommand reassigns the user's type.
	ChangeUserTypeCommand struct {
		AccountID  string `json:"account_id"`
		UserID     string `json:"user_id"`
		UserTypeID string `json:"user_type_id"`
	}
)

// resolve runs the shared front half of every lifecycle command: reference
// check, account gate, local load, port lookup.
func (s *Service) resolve(ctx context.Context, accountID, userID string) (*User, provider.Port, error) {
	if err := shared.CheckReference("user id", userID); err != nil {
		return nil, nil, err
	}
	if _, err := s.gate.Validate(ctx, accountID); err != nil {
		return nil, nil, err
	}
	user, err := s.repo.FindByID(ctx, accountID, userID, false)
	if err != nil {
		return nil, nil, err
	}
	port, err := s.providers.For(user.Provider)
	if err != nil {
		return nil, nil, err
	}
	return user, port, nil
}

// Activate flips an inactive user to active. The provider must hand back a
// non-empty activation token; a fresh first-access recovery token is issued
// and the activated event carries the provider token.
func (s *Service) Activate(ctx context.Context, cmd ActivateCommand) error {
	user, port, err := s.resolve(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return err
	}
	if user.Active {
		s.logger.Warn("activate skipped, user already active",
			slog.String("account_id", cmd.AccountID), slog.String("user_id", cmd.UserID))
		return fmt.Errorf("user %s already active: %w", cmd.UserID, shared.ErrAlreadyInState)
	}

	activationToken, err := port.Activate(ctx, user.ProviderID)
	if err != nil {
		return fmt.Errorf("provider activate: %w", err)
	}
	if activationToken == "" {
		return fmt.Errorf("provider activate rejected: %w", shared.ErrProviderFailed)
	}

	if err := s.repo.SetActive(ctx, cmd.AccountID, cmd.UserID, true, cmd.Reason); err != nil {
		return err
	}

	if token, err := s.tokens.Issue(ctx, cmd.AccountID, cmd.UserID, s.onboardTTL); err != nil {
		s.logger.Error("first-access token issue failed",
			slog.String("account_id", cmd.AccountID), slog.String("user_id", cmd.UserID), slog.Any("error", err))
	} else {
		s.notifier.Send(ctx, cmd.AccountID, comms.OnUserActivated, comms.Message{
			Subject:      "Account activated",
			Destinations: []comms.Destination{{Name: user.FirstName, Address: user.Email}},
			Parameters: []comms.Parameter{
				{Key: "username", Value: user.FirstName},
				{Key: "token", Value: token},
			},
		})
	}

	return s.publisher.Publish(ctx, EventActivated, StateChangedEvent{
		AccountID:       cmd.AccountID,
		UserID:          cmd.UserID,
		Reason:          cmd.Reason,
		ActivationToken: activationToken,
		OccurredAt:      s.clock.Now(),
	})
}

// Deactivate flips an active user to inactive.
func (s *Service) Deactivate(ctx context.Context, cmd DeactivateCommand) error {
	user, port, err := s.resolve(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return err
	}
	if !user.Active {
		s.logger.Warn("deactivate skipped, user already inactive",
			slog.String("account_id", cmd.AccountID), slog.String("user_id", cmd.UserID))
		return fmt.Errorf("user %s already inactive: %w", cmd.UserID, shared.ErrAlreadyInState)
	}

	if err := port.Deactivate(ctx, user.ProviderID); err != nil {
		return fmt.Errorf("provider deactivate: %w", err)
	}
	if err := s.repo.SetActive(ctx, cmd.AccountID, cmd.UserID, false, cmd.Reason); err != nil {
		return err
	}

	s.notifier.Send(ctx, cmd.AccountID, comms.OnUserDeactivated, comms.Message{
		Subject:      "Account deactivated",
		Destinations: []comms.Destination{{Name: user.FirstName, Address: user.Email}},
		Parameters:   []comms.Parameter{{Key: "username", Value: user.FirstName}},
	})

	return s.publisher.Publish(ctx, EventDeactivated, StateChangedEvent{
		AccountID:  cmd.AccountID,
		UserID:     cmd.UserID,
		Reason:     cmd.Reason,
		OccurredAt: s.clock.Now(),
	})
}

// AddGroup grants a group membership. The local set is checked before the
// provider call so repeated commands never hit the provider twice.
func (s *Service) AddGroup(ctx context.Context, cmd GroupCommand) error {
	if err := shared.CheckReference("group id", cmd.GroupID); err != nil {
		return err
	}
	user, port, err := s.resolve(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return err
	}
	if user.HasGroup(cmd.GroupID) {
		return fmt.Errorf("user %s already in group %s: %w", cmd.UserID, cmd.GroupID, shared.ErrAlreadyInState)
	}

	group, err := s.dir.Group(ctx, cmd.AccountID, cmd.GroupID)
	if err != nil {
		return fmt.Errorf("group %s: %w", cmd.GroupID, err)
	}
	if err := port.AddGroup(ctx, user.ProviderID, group.ProviderID); err != nil {
		return fmt.Errorf("provider add group: %w", err)
	}

	changed, err := s.repo.AddGroup(ctx, cmd.AccountID, cmd.UserID, cmd.GroupID)
	if err != nil {
		return err
	}
	if !changed {
		s.logger.Warn("group already present at write time",
			slog.String("user_id", cmd.UserID), slog.String("group_id", cmd.GroupID))
		return nil
	}

	return s.publisher.Publish(ctx, EventGroupAdded, GroupChangedEvent{
		AccountID:  cmd.AccountID,
		UserID:     cmd.UserID,
		GroupID:    cmd.GroupID,
		OccurredAt: s.clock.Now(),
	})
}

// RemoveGroup revokes a group membership.
func (s *Service) RemoveGroup(ctx context.Context, cmd GroupCommand) error {
	if err := shared.CheckReference("group id", cmd.GroupID); err != nil {
		return err
	}
	user, port, err := s.resolve(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return err
	}
	if !user.HasGroup(cmd.GroupID) {
		return fmt.Errorf("user %s not in group %s: %w", cmd.UserID, cmd.GroupID, shared.ErrAlreadyInState)
	}

	group, err := s.dir.Group(ctx, cmd.AccountID, cmd.GroupID)
	if err != nil {
		return fmt.Errorf("group %s: %w", cmd.GroupID, err)
	}
	if err := port.RemoveGroup(ctx, user.ProviderID, group.ProviderID); err != nil {
		return fmt.Errorf("provider remove group: %w", err)
	}

	changed, err := s.repo.RemoveGroup(ctx, cmd.AccountID, cmd.UserID, cmd.GroupID)
	if err != nil {
		return err
	}
	if !changed {
		s.logger.Warn("group already absent at write time",
			slog.String("user_id", cmd.UserID), slog.String("group_id", cmd.GroupID))
		return nil
	}

	return s.publisher.Publish(ctx, EventGroupRemoved, GroupChangedEvent{
		AccountID:  cmd.AccountID,
		UserID:     cmd.UserID,
		GroupID:    cmd.GroupID,
		OccurredAt: s.clock.Now(),
	})
}

// ChangePassword rotates the credential through the provider.
func (s *Service) ChangePassword(ctx context.Context, cmd ChangePasswordCommand) error {
	user, port, err := s.resolve(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return err
	}
	ok, err := port.ChangePassword(ctx, user.ProviderID, cmd.OldPassword, cmd.NewPassword)
	if err != nil {
		return fmt.Errorf("provider change password: %w", err)
	}
	if !ok {
		return fmt.Errorf("provider change password rejected: %w", shared.ErrProviderFailed)
	}

	s.notifyPasswordChanged(ctx, user)
	return s.publisher.Publish(ctx, EventPasswordChanged, PasswordEvent{
		AccountID:  cmd.AccountID,
		UserID:     cmd.UserID,
		OccurredAt: s.clock.Now(),
	})
}

// SetPassword overwrites the credential without knowing the old one.
func (s *Service) SetPassword(ctx context.Context, cmd SetPasswordCommand) error {
	user, port, err := s.resolve(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return err
	}
	ok, err := port.SetPassword(ctx, user.ProviderID, cmd.Password)
	if err != nil {
		return fmt.Errorf("provider set password: %w", err)
	}
	if !ok {
		return fmt.Errorf("provider set password rejected: %w", shared.ErrProviderFailed)
	}

	s.notifyPasswordChanged(ctx, user)
	return s.publisher.Publish(ctx, EventPasswordSet, PasswordEvent{
		AccountID:  cmd.AccountID,
		UserID:     cmd.UserID,
		OccurredAt: s.clock.Now(),
	})
}

func (s *Service) notifyPasswordChanged(ctx context.Context, user *User) {
	s.notifier.Send(ctx, user.AccountID, comms.OnPasswordChanged, comms.Message{
		Subject:      "Password changed",
		Destinations: []comms.Destination{{Name: user.FirstName, Address: user.Email}},
		Parameters:   []comms.Parameter{{Key: "username", Value: user.FirstName}},
	})
}

// ExpirePassword forces a reset at next login. The temporary password the
// provider returns travels only inside the event payload.
func (s *Service) ExpirePassword(ctx context.Context, cmd UserCommand) error {
	user, port, err := s.resolve(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return err
	}
	temporary, err := port.ExpirePassword(ctx, user.ProviderID)
	if err != nil {
		return fmt.Errorf("provider expire password: %w", err)
	}
	if temporary == "" {
		return fmt.Errorf("provider expire password rejected: %w", shared.ErrProviderFailed)
	}

	return s.publisher.Publish(ctx, EventPasswordExpired, PasswordEvent{
		AccountID:         cmd.AccountID,
		UserID:            cmd.UserID,
		TemporaryPassword: temporary,
		OccurredAt:        s.clock.Now(),
	})
}

// ClearSessions revokes every provider session. Clearing is idempotent, so
// no state check happens and the event is published unconditionally.
func (s *Service) ClearSessions(ctx context.Context, cmd UserCommand) error {
	user, port, err := s.resolve(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return err
	}
	if err := port.ClearSessions(ctx, user.ProviderID); err != nil {
		return fmt.Errorf("provider clear sessions: %w", err)
	}

	return s.publisher.Publish(ctx, EventSessionsCleared, PasswordEvent{
		AccountID:  cmd.AccountID,
		UserID:     cmd.UserID,
		OccurredAt: s.clock.Now(),
	})
}

// ChangeUserType reassigns the user's type, resolving the new type before
// any mutation.
func (s *Service) ChangeUserType(ctx context.Context, cmd ChangeUserTypeCommand) error {
	if err := shared.CheckReference("user type id", cmd.UserTypeID); err != nil {
		return err
	}
	user, port, err := s.resolve(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return err
	}

	userType, err := s.dir.UserType(ctx, cmd.AccountID, cmd.UserTypeID)
	if err != nil {
		return fmt.Errorf("user type %s: %w", cmd.UserTypeID, err)
	}
	ok, err := port.ChangeUserType(ctx, user.ProviderID, userType.ProviderID)
	if err != nil {
		return fmt.Errorf("provider change user type: %w", err)
	}
	if !ok {
		return fmt.Errorf("provider change user type rejected: %w", shared.ErrProviderFailed)
	}

	if err := s.repo.SetUserType(ctx, cmd.AccountID, cmd.UserID, cmd.UserTypeID); err != nil {
		return err
	}
	return s.publisher.Publish(ctx, EventTypeChanged, TypeChangedEvent{
		AccountID:  cmd.AccountID,
		UserID:     cmd.UserID,
		UserTypeID: cmd.UserTypeID,
		OccurredAt: s.clock.Now(),
	})
}

// ResendFirstAccess re-issues the onboarding token and sends the welcome
// notification again.
func (s *Service) ResendFirstAccess(ctx context.Context, cmd UserCommand) error {
	user, _, err := s.resolve(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return err
	}

	token, err := s.tokens.Issue(ctx, cmd.AccountID, cmd.UserID, s.onboardTTL)
	if err != nil {
		return err
	}
	s.notifier.Send(ctx, cmd.AccountID, comms.OnUserCreated, comms.Message{
		Subject:      "Welcome",
		Destinations: []comms.Destination{{Name: user.FirstName, Address: user.Email}},
		Parameters: []comms.Parameter{
			{Key: "username", Value: user.FirstName},
			{Key: "token", Value: token},
		},
	})

	return s.publisher.Publish(ctx, EventFirstAccessResent, FirstAccessResentEvent{
		AccountID:  cmd.AccountID,
		UserID:     cmd.UserID,
		OccurredAt: s.clock.Now(),
	})
}
