package okta

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helix-id/helix/internal/provider"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(context.Background(), Config{OrgURL: server.URL, APIToken: "test-token"}, discardLogger())
}

func TestSSWSAuthorizationHeader(t *testing.T) {
	var got string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, client.ClearSessions(context.Background(), "00u123"))
	require.Equal(t, "SSWS test-token", got)
}

func TestCreateStagedUser(t *testing.T) {
	var (
		path     string
		activate string
		body     map[string]any
	)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		activate = r.URL.Query().Get("activate")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "00u123"})
	}))

	id, err := client.Create(context.Background(), provider.CreateInput{
		AccountName:        "acme",
		UserTypeProviderID: "oty-employee",
		FirstName:          "Ana",
		LastName:           "Silva",
		Login:              "ana_silva@acme",
		GroupProviderIDs:   []string{"00g-staff"},
	})
	require.NoError(t, err)
	require.Equal(t, "00u123", id)
	require.Equal(t, "/api/v1/users", path)
	require.Equal(t, "false", activate)

	profile := body["profile"].(map[string]any)
	require.Equal(t, "ana_silva@acme", profile["login"])
	require.NotEmpty(t, profile["email"])
	require.Equal(t, []any{"00g-staff"}, body["groupIds"].([]any))
}

func TestCreateRejectionReturnsEmptyID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	id, err := client.Create(context.Background(), provider.CreateInput{Login: "x@y"})
	require.NoError(t, err)
	require.Empty(t, id)
}

func TestActivateReturnsToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/users/00u123/lifecycle/activate", r.URL.Path)
		require.Equal(t, "false", r.URL.Query().Get("sendEmail"))
		_ = json.NewEncoder(w).Encode(map[string]string{"activationToken": "tok-1"})
	}))

	token, err := client.Activate(context.Background(), "00u123")
	require.NoError(t, err)
	require.Equal(t, "tok-1", token)
}

func TestActivateRejectionReturnsEmptyToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	token, err := client.Activate(context.Background(), "00u123")
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestDeleteDeactivatesFirst(t *testing.T) {
	var calls []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, client.Delete(context.Background(), "00u123"))
	require.Equal(t, []string{
		"POST /api/v1/users/00u123/lifecycle/deactivate",
		"DELETE /api/v1/users/00u123",
	}, calls)
}

func TestGroupMembershipKeyedByProviderIDs(t *testing.T) {
	var calls []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx := context.Background()
	require.NoError(t, client.AddGroup(ctx, "00u123", "00g-staff"))
	require.NoError(t, client.RemoveGroup(ctx, "00u123", "00g-staff"))
	require.Equal(t, []string{
		"PUT /api/v1/groups/00g-staff/users/00u123",
		"DELETE /api/v1/groups/00g-staff/users/00u123",
	}, calls)
}

func TestChangePasswordRejection(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	ok, err := client.ChangePassword(context.Background(), "00u123", "old", "new")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestExpirePasswordReturnsTemporary(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "true", r.URL.Query().Get("tempPassword"))
		_ = json.NewEncoder(w).Encode(map[string]string{"tempPassword": "Abcd123!"})
	}))

	temp, err := client.ExpirePassword(context.Background(), "00u123")
	require.NoError(t, err)
	require.Equal(t, "Abcd123!", temp)
}

func TestTransportFaultIsAnError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := NewClient(context.Background(), Config{OrgURL: server.URL, APIToken: "t"}, discardLogger())

	_, err := client.Create(context.Background(), provider.CreateInput{Login: "x@y"})
	require.Error(t, err)
}
