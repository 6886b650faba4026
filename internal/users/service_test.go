package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helix-id/helix/internal/comms"
	"github.com/helix-id/helix/internal/shared"
)

func TestCreateEndToEnd(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	user, err := f.service.Create(ctx, f.createRequest())
	require.NoError(t, err)

	require.Equal(t, "00u123", user.ProviderID)
	require.Equal(t, "ana_silva@acme_corp", user.UsernameAtProvider)
	require.False(t, user.Active)
	require.Equal(t, []string{f.groupID}, user.GroupIDs)

	// Welcome notification carries the onboarding token.
	require.Len(t, f.notifier.sent, 1)
	require.Equal(t, comms.OnUserCreated, f.notifier.sent[0].event)
	require.Equal(t, "ana.silva@example.com", f.notifier.sent[0].msg.Destinations[0].Address)
	var tokenParam string
	for _, p := range f.notifier.sent[0].msg.Parameters {
		if p.Key == "token" {
			tokenParam = p.Value
		}
	}
	require.Equal(t, "123456", tokenParam)

	// Onboarding token uses the long lifetime.
	require.Len(t, f.tokens.issued, 1)
	require.Equal(t, 72.0, f.tokens.issued[0].ttl.Hours())
	require.Equal(t, user.ID, f.tokens.issued[0].userID)
}

func TestCreateMalformedReferenceNoSideEffects(t *testing.T) {
	f := newFixture()
	req := f.createRequest()
	req.GroupIDs = []string{"not-a-reference"}

	_, err := f.service.Create(context.Background(), req)
	require.ErrorIs(t, err, shared.ErrMalformedReference)
	require.Empty(t, f.port.calls)
	require.Empty(t, f.repo.users)
}

func TestCreateInvalidAccountNoProviderCall(t *testing.T) {
	f := newFixture()
	f.gate.err = shared.ErrAccountInvalid

	_, err := f.service.Create(context.Background(), f.createRequest())
	require.ErrorIs(t, err, shared.ErrAccountInvalid)
	require.Empty(t, f.port.calls)
	require.Empty(t, f.repo.users)
}

func TestCreateDuplicateUsername(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedUser(ctx, true)

	_, err := f.service.Create(ctx, f.createRequest())
	require.ErrorIs(t, err, shared.ErrAlreadyExists)
	require.Empty(t, f.port.calls)
}

func TestCreateUnresolvedGroupAborts(t *testing.T) {
	f := newFixture()
	req := f.createRequest()
	req.GroupIDs = append(req.GroupIDs, shared.NewReference())

	_, err := f.service.Create(context.Background(), req)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, f.port.calls)
	require.Empty(t, f.repo.users)
}

func TestCreateProviderRejected(t *testing.T) {
	f := newFixture()
	f.port.createID = ""

	_, err := f.service.Create(context.Background(), f.createRequest())
	require.ErrorIs(t, err, shared.ErrProviderFailed)
	require.Empty(t, f.repo.users)
	require.Empty(t, f.tokens.issued)
}

func TestUpdateRejectsInactiveUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.seedUser(ctx, false)

	_, err := f.service.Update(ctx, user.ID, UpdateUserRequest{
		AccountID: f.accountID,
		Username:  "ana.silva",
		FirstName: "Ana",
		LastName:  "Silva",
		Email:     "ana.silva@example.com",
	})
	require.ErrorIs(t, err, shared.ErrAlreadyInState)
	require.Empty(t, f.port.calls)
}

func TestUpdateRequiresExistingUsername(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.seedUser(ctx, true)

	_, err := f.service.Update(ctx, user.ID, UpdateUserRequest{
		AccountID: f.accountID,
		Username:  "brand.new",
		FirstName: "Ana",
		LastName:  "Silva",
		Email:     "ana.silva@example.com",
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, f.port.calls)
}

func TestUpdateRewritesProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.seedUser(ctx, true)

	updated, err := f.service.Update(ctx, user.ID, UpdateUserRequest{
		AccountID:           f.accountID,
		Username:            "ana.silva",
		FirstName:           "Ana Clara",
		LastName:            "Silva",
		Email:               "ana.clara@example.com",
		CustomProfileFields: map[string]string{"department": "finance"},
	})
	require.NoError(t, err)
	require.Equal(t, "Ana Clara", updated.FirstName)
	require.Equal(t, "ana.clara@example.com", updated.Email)
	require.Equal(t, "finance", updated.CustomProfileFields["department"])
	require.Contains(t, f.port.calls, "update")

	// Provider identity never changes on update.
	require.Equal(t, "00u123", updated.ProviderID)
	require.Equal(t, user.UsernameAtProvider, updated.UsernameAtProvider)
}

func TestDeleteReturnsTombstone(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.seedUser(ctx, true)

	deleted, err := f.service.Delete(ctx, f.accountID, user.ID)
	require.NoError(t, err)
	require.True(t, deleted.IsDeleted)
	require.NotNil(t, deleted.DeletedAt)
	require.Contains(t, f.port.calls, "delete")

	// Invisible by default, visible with the flag.
	_, err = f.service.Get(ctx, f.accountID, user.ID, false)
	require.ErrorIs(t, err, shared.ErrNotFound)
	again, err := f.service.Get(ctx, f.accountID, user.ID, true)
	require.NoError(t, err)
	require.True(t, again.IsDeleted)
}

func TestListEmptyPageIsNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.service.List(context.Background(), ListUsersRequest{AccountID: f.accountID})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListClampsPaging(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedUser(ctx, true)

	page, err := f.service.List(ctx, ListUsersRequest{AccountID: f.accountID, Page: -3, PageSize: 0})
	require.NoError(t, err)
	require.Equal(t, 1, page.Pagination.Page)
	require.Equal(t, 1, page.Pagination.PageSize)
	require.Equal(t, 1, page.Pagination.Total)
	require.Len(t, page.Items, 1)
}

func TestListFiltersBySubstring(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedUser(ctx, true)
	_, err := f.repo.Insert(ctx, User{
		AccountID: f.accountID, UserTypeID: f.userTypeID, Username: "bruno.costa",
		FirstName: "Bruno", LastName: "Costa", Email: "bruno@example.com",
		Provider: "okta", ProviderID: "00u456", UsernameAtProvider: "bruno_costa@acme_corp",
	})
	require.NoError(t, err)

	page, err := f.service.List(ctx, ListUsersRequest{AccountID: f.accountID, Filter: "SILVA", PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "ana.silva", page.Items[0].Username)
}
