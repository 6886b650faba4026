package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/helix-id/helix/internal/accounts"
	"github.com/helix-id/helix/internal/bus"
	"github.com/helix-id/helix/internal/comms"
	"github.com/helix-id/helix/internal/directory"
	"github.com/helix-id/helix/internal/provider"
	"github.com/helix-id/helix/internal/shared"
)

// AccountGate validates the tenant before any mutating command.
type AccountGate interface {
	Validate(ctx context.Context, accountID string) (*accounts.Account, error)
}

// Notifier dispatches a templated notification for an event.
type Notifier interface {
	Send(ctx context.Context, accountID string, event comms.Event, msg comms.Message)
}

// TokenIssuer creates password-recovery tokens with a caller-chosen
// lifetime. Onboarding flows use the long lifetime; change requests the
// short one.
type TokenIssuer interface {
	Issue(ctx context.Context, accountID, userID string, ttl time.Duration) (string, error)
}

// Service orchestrates the user-lifecycle commands. Every command runs the
// same pipeline: shape validation, account gate, entity resolution, provider
// mutation, then the local write plus side effects.
type Service struct {
	repo       Repository
	gate       AccountGate
	dir        directory.Client
	providers  *provider.Registry
	notifier   Notifier
	tokens     TokenIssuer
	publisher  bus.Publisher
	clock      shared.Clock
	validate   *validator.Validate
	onboardTTL time.Duration
	logger     *slog.Logger
}

// NewService builds the user service. onboardTTL is the recovery-token
// lifetime used by first-access flows.
func NewService(
	repo Repository,
	gate AccountGate,
	dir directory.Client,
	providers *provider.Registry,
	notifier Notifier,
	tokens TokenIssuer,
	publisher bus.Publisher,
	clock shared.Clock,
	onboardTTL time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		gate:       gate,
		dir:        dir,
		providers:  providers,
		notifier:   notifier,
		tokens:     tokens,
		publisher:  publisher,
		clock:      clock,
		validate:   validator.New(),
		onboardTTL: onboardTTL,
		logger:     logger,
	}
}

// Create provisions a user at the external provider first and persists the
// local record only after the provider confirms. Every referenced entity
// must resolve before the provider is touched.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if err := shared.CheckReference("user type id", req.UserTypeID); err != nil {
		return nil, err
	}
	for _, groupID := range req.GroupIDs {
		if err := shared.CheckReference("group id", groupID); err != nil {
			return nil, err
		}
	}

	account, err := s.gate.Validate(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	tag := provider.Tag(req.Provider)
	port, err := s.providers.For(tag)
	if err != nil {
		return nil, fmt.Errorf("provider %q: %w", req.Provider, shared.ErrMalformedReference)
	}

	existing, err := s.repo.FindByUsername(ctx, req.AccountID, req.Username, false)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("username %s: %w", req.Username, shared.ErrAlreadyExists)
	}

	userType, err := s.dir.UserType(ctx, req.AccountID, req.UserTypeID)
	if err != nil {
		return nil, fmt.Errorf("user type %s: %w", req.UserTypeID, err)
	}
	groupProviderIDs := make([]string, 0, len(req.GroupIDs))
	for _, groupID := range req.GroupIDs {
		group, err := s.dir.Group(ctx, req.AccountID, groupID)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", groupID, err)
		}
		groupProviderIDs = append(groupProviderIDs, group.ProviderID)
	}

	login := providerLogin(req.FirstName, req.LastName, account.Name)
	providerID, err := port.Create(ctx, provider.CreateInput{
		AccountName:        account.Name,
		UserTypeProviderID: userType.ProviderID,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Login:              login,
		GroupProviderIDs:   groupProviderIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("provider create: %w", err)
	}
	if providerID == "" {
		return nil, fmt.Errorf("provider create rejected: %w", shared.ErrProviderFailed)
	}

	user, err := s.repo.Insert(ctx, User{
		AccountID:           req.AccountID,
		UserTypeID:          req.UserTypeID,
		Username:            req.Username,
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Email:               req.Email,
		Active:              false,
		CustomProfileFields: req.CustomProfileFields,
		GroupIDs:            req.GroupIDs,
		Provider:            tag,
		ProviderID:          providerID,
		UsernameAtProvider:  login,
	})
	if err != nil {
		return nil, err
	}

	s.sendWelcome(ctx, user)
	return user, nil
}

// sendWelcome issues a long-lived recovery token and dispatches the welcome
// notification carrying it. Failures here never undo the created user.
func (s *Service) sendWelcome(ctx context.Context, user *User) {
	token, err := s.tokens.Issue(ctx, user.AccountID, user.ID, s.onboardTTL)
	if err != nil {
		s.logger.Error("first-access token issue failed",
			slog.String("account_id", user.AccountID), slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}
	s.notifier.Send(ctx, user.AccountID, comms.OnUserCreated, comms.Message{
		Subject:      "Welcome",
		Destinations: []comms.Destination{{Name: user.FirstName, Address: user.Email}},
		Parameters: []comms.Parameter{
			{Key: "username", Value: user.FirstName},
			{Key: "token", Value: token},
		},
	})
}

// Update rewrites the mutable profile fields of an active user. The target
// username must already be taken within the account; updates that would
// introduce a new username are rejected as not found.
func (s *Service) Update(ctx context.Context, userID string, req UpdateUserRequest) (*User, error) {
	if err := shared.CheckReference("user id", userID); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.gate.Validate(ctx, req.AccountID); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, req.AccountID, userID, false)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, fmt.Errorf("user %s is inactive: %w", userID, shared.ErrAlreadyInState)
	}
	if _, err := s.repo.FindByUsername(ctx, req.AccountID, req.Username, false); err != nil {
		return nil, fmt.Errorf("username %s: %w", req.Username, err)
	}

	port, err := s.providers.For(user.Provider)
	if err != nil {
		return nil, err
	}
	ok, err := port.Update(ctx, user.ProviderID, req.FirstName, req.LastName)
	if err != nil {
		return nil, fmt.Errorf("provider update: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("provider update rejected: %w", shared.ErrProviderFailed)
	}

	err = s.repo.UpdateProfile(ctx, req.AccountID, userID, ProfileUpdate{
		Username:            req.Username,
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Email:               req.Email,
		CustomProfileFields: req.CustomProfileFields,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, req.AccountID, userID, false)
}

// Delete removes the user at the provider and soft-deletes the local
// record, returning the tombstone so the caller can observe it.
func (s *Service) Delete(ctx context.Context, accountID, userID string) (*User, error) {
	if err := shared.CheckReference("user id", userID); err != nil {
		return nil, err
	}
	if _, err := s.gate.Validate(ctx, accountID); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, accountID, userID, false)
	if err != nil {
		return nil, err
	}

	port, err := s.providers.For(user.Provider)
	if err != nil {
		return nil, err
	}
	if err := port.Delete(ctx, user.ProviderID); err != nil {
		return nil, fmt.Errorf("provider delete: %w", err)
	}

	if err := s.repo.SoftDelete(ctx, accountID, userID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, accountID, userID, true)
}

// Get fetches one user. Soft-deleted records are visible only when asked.
func (s *Service) Get(ctx context.Context, accountID, userID string, showDeleted bool) (*User, error) {
	if err := shared.CheckReference("account id", accountID); err != nil {
		return nil, err
	}
	if err := shared.CheckReference("user id", userID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, accountID, userID, showDeleted)
}

// List returns a filtered page of the account's users. An empty page is a
// not-found condition, matching the lookup contract shared by the
// platform's read services.
func (s *Service) List(ctx context.Context, req ListUsersRequest) (*UserPage, error) {
	if err := shared.CheckReference("account id", req.AccountID); err != nil {
		return nil, err
	}

	items, total, err := s.repo.List(ctx, req.AccountID, ListQuery{
		Filter:      req.Filter,
		OrderBy:     req.OrderBy,
		Descending:  req.Descending,
		Page:        req.Page,
		PageSize:    req.PageSize,
		ShowDeleted: req.ShowDeleted,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("users page: %w", shared.ErrNotFound)
	}

	page := shared.ClampPage(req.Page)
	pageSize := shared.ClampPageSize(req.PageSize)
	return &UserPage{
		Items:      items,
		Pagination: shared.NewPagination(page, pageSize, total, len(items)),
	}, nil
}
