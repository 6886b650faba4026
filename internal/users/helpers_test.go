package users

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/helix-id/helix/internal/accounts"
	"github.com/helix-id/helix/internal/comms"
	"github.com/helix-id/helix/internal/directory"
	"github.com/helix-id/helix/internal/provider"
	"github.com/helix-id/helix/internal/shared"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]User)}
}

func (r *memoryUserRepo) Insert(ctx context.Context, u User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.AccountID == u.AccountID && existing.Username == u.Username && !existing.IsDeleted {
			return nil, fmt.Errorf("user %s: %w", u.Username, shared.ErrAlreadyExists)
		}
	}
	if u.ID == "" {
		u.ID = shared.NewReference()
	}
	if u.GroupIDs == nil {
		u.GroupIDs = []string{}
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = u
	return &u, nil
}

func (r *memoryUserRepo) find(accountID, id string, showDeleted bool) (*User, error) {
	u, ok := r.users[id]
	if !ok || u.AccountID != accountID || (u.IsDeleted && !showDeleted) {
		return nil, fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
	}
	out := u
	return &out, nil
}

func (r *memoryUserRepo) FindByID(ctx context.Context, accountID, id string, showDeleted bool) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(accountID, id, showDeleted)
}

func (r *memoryUserRepo) FindByUsername(ctx context.Context, accountID, username string, showDeleted bool) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.AccountID == accountID && u.Username == username && (!u.IsDeleted || showDeleted) {
			return r.find(accountID, id, showDeleted)
		}
	}
	return nil, fmt.Errorf("username %s: %w", username, shared.ErrNotFound)
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, accountID, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.AccountID == accountID && u.Email == email && !u.IsDeleted {
			return r.find(accountID, id, false)
		}
	}
	return nil, fmt.Errorf("email: %w", shared.ErrNotFound)
}

func (r *memoryUserRepo) UpdateProfile(ctx context.Context, accountID, id string, update ProfileUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.find(accountID, id, false)
	if err != nil {
		return err
	}
	u.Username = update.Username
	u.FirstName = update.FirstName
	u.LastName = update.LastName
	u.Email = update.Email
	u.CustomProfileFields = update.CustomProfileFields
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = *u
	return nil
}

func (r *memoryUserRepo) SetActive(ctx context.Context, accountID, id string, active bool, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.find(accountID, id, false)
	if err != nil {
		return err
	}
	u.Active = active
	u.UpdateReason = reason
	r.users[id] = *u
	return nil
}

func (r *memoryUserRepo) SoftDelete(ctx context.Context, accountID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.find(accountID, id, false)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	u.IsDeleted = true
	u.DeletedAt = &now
	r.users[id] = *u
	return nil
}

func (r *memoryUserRepo) AddGroup(ctx context.Context, accountID, id, groupID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.find(accountID, id, false)
	if err != nil {
		return false, err
	}
	if u.HasGroup(groupID) {
		return false, nil
	}
	u.GroupIDs = append(u.GroupIDs, groupID)
	r.users[id] = *u
	return true, nil
}

func (r *memoryUserRepo) RemoveGroup(ctx context.Context, accountID, id, groupID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.find(accountID, id, false)
	if err != nil {
		return false, err
	}
	if !u.HasGroup(groupID) {
		return false, nil
	}
	kept := make([]string, 0, len(u.GroupIDs))
	for _, g := range u.GroupIDs {
		if g != groupID {
			kept = append(kept, g)
		}
	}
	u.GroupIDs = kept
	r.users[id] = *u
	return true, nil
}

func (r *memoryUserRepo) SetUserType(ctx context.Context, accountID, id, userTypeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.find(accountID, id, false)
	if err != nil {
		return err
	}
	u.UserTypeID = userTypeID
	r.users[id] = *u
	return nil
}

func (r *memoryUserRepo) List(ctx context.Context, accountID string, q ListQuery) ([]User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []User
	filter := strings.ToLower(q.Filter)
	for _, u := range r.users {
		if u.AccountID != accountID || (u.IsDeleted && !q.ShowDeleted) {
			continue
		}
		if filter != "" {
			haystack := strings.ToLower(u.Username + " " + u.FirstName + " " + u.LastName + " " + u.Email)
			if !strings.Contains(haystack, filter) {
				continue
			}
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })
	total := len(matched)

	page := shared.ClampPage(q.Page)
	pageSize := shared.ClampPageSize(q.PageSize)
	start := (page - 1) * pageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

type stubGate struct {
	account *accounts.Account
	err     error
	calls   int
}

func (g *stubGate) Validate(ctx context.Context, accountID string) (*accounts.Account, error) {
	g.calls++
	if err := shared.CheckReference("account id", accountID); err != nil {
		return nil, err
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.account, nil
}

type stubDirectory struct {
	groups    map[string]*directory.Group
	userTypes map[string]*directory.UserType
}

func (d *stubDirectory) Group(ctx context.Context, accountID, groupID string) (*directory.Group, error) {
	g, ok := d.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, shared.ErrNotFound)
	}
	return g, nil
}

func (d *stubDirectory) UserType(ctx context.Context, accountID, userTypeID string) (*directory.UserType, error) {
	t, ok := d.userTypes[userTypeID]
	if !ok {
		return nil, fmt.Errorf("user type %s: %w", userTypeID, shared.ErrNotFound)
	}
	return t, nil
}

// stubPort records every call and returns configurable results. The zero
// value behaves as a provider that accepts everything.
type stubPort struct {
	calls []string

	createID        string
	createErr       error
	rejectUpdate    bool
	activationToken string
	rejectPassword  bool
	temporary       string
	portErr         error
}

func (p *stubPort) record(name string) { p.calls = append(p.calls, name) }

func (p *stubPort) Create(ctx context.Context, in provider.CreateInput) (string, error) {
	p.record("create")
	if p.createErr != nil {
		return "", p.createErr
	}
	return p.createID, nil
}

func (p *stubPort) Update(ctx context.Context, providerID, firstName, lastName string) (bool, error) {
	p.record("update")
	return !p.rejectUpdate, p.portErr
}

func (p *stubPort) Delete(ctx context.Context, providerID string) error {
	p.record("delete")
	return p.portErr
}

func (p *stubPort) Activate(ctx context.Context, providerID string) (string, error) {
	p.record("activate")
	return p.activationToken, p.portErr
}

func (p *stubPort) Deactivate(ctx context.Context, providerID string) error {
	p.record("deactivate")
	return p.portErr
}

func (p *stubPort) AddGroup(ctx context.Context, providerID, groupProviderID string) error {
	p.record("add-group:" + groupProviderID)
	return p.portErr
}

func (p *stubPort) RemoveGroup(ctx context.Context, providerID, groupProviderID string) error {
	p.record("remove-group:" + groupProviderID)
	return p.portErr
}

func (p *stubPort) ChangePassword(ctx context.Context, providerID, oldPassword, newPassword string) (bool, error) {
	p.record("change-password")
	return !p.rejectPassword, p.portErr
}

func (p *stubPort) SetPassword(ctx context.Context, providerID, newPassword string) (bool, error) {
	p.record("set-password")
	return !p.rejectPassword, p.portErr
}

func (p *stubPort) ExpirePassword(ctx context.Context, providerID string) (string, error) {
	p.record("expire-password")
	return p.temporary, p.portErr
}

func (p *stubPort) ClearSessions(ctx context.Context, providerID string) error {
	p.record("clear-sessions")
	return p.portErr
}

func (p *stubPort) ChangeUserType(ctx context.Context, providerID, userTypeProviderID string) (bool, error) {
	p.record("change-type:" + userTypeProviderID)
	return !p.rejectUpdate, p.portErr
}

type sentMessage struct {
	accountID string
	event     comms.Event
	msg       comms.Message
}

type recordingNotifier struct {
	sent []sentMessage
}

func (n *recordingNotifier) Send(ctx context.Context, accountID string, event comms.Event, msg comms.Message) {
	n.sent = append(n.sent, sentMessage{accountID: accountID, event: event, msg: msg})
}

type issuedToken struct {
	accountID string
	userID    string
	ttl       time.Duration
}

type stubTokens struct {
	token  string
	err    error
	issued []issuedToken
}

func (t *stubTokens) Issue(ctx context.Context, accountID, userID string, ttl time.Duration) (string, error) {
	t.issued = append(t.issued, issuedToken{accountID: accountID, userID: userID, ttl: ttl})
	if t.err != nil {
		return "", t.err
	}
	if t.token == "" {
		return "123456", nil
	}
	return t.token, nil
}

type publishedEvent struct {
	eventType string
	payload   any
}

type recordingPublisher struct {
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{eventType: eventType, payload: payload})
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// fixture wires a service over in-memory stubs with one known account,
// user type and group.
type fixture struct {
	repo      *memoryUserRepo
	gate      *stubGate
	dir       *stubDirectory
	port      *stubPort
	notifier  *recordingNotifier
	tokens    *stubTokens
	publisher *recordingPublisher
	service   *Service

	accountID  string
	userTypeID string
	groupID    string
}

func newFixture() *fixture {
	accountID := shared.NewReference()
	userTypeID := shared.NewReference()
	groupID := shared.NewReference()

	f := &fixture{
		repo: newMemoryUserRepo(),
		gate: &stubGate{account: &accounts.Account{ID: accountID, Name: "Acme Corp", Enabled: true}},
		dir: &stubDirectory{
			groups:    map[string]*directory.Group{groupID: {ID: groupID, Name: "Staff", ProviderID: "00g-staff"}},
			userTypes: map[string]*directory.UserType{userTypeID: {ID: userTypeID, Name: "Employee", ProviderID: "oty-employee"}},
		},
		port:       &stubPort{createID: "00u123", activationToken: "act-token", temporary: "temp-pass"},
		notifier:   &recordingNotifier{},
		tokens:     &stubTokens{},
		publisher:  &recordingPublisher{},
		accountID:  accountID,
		userTypeID: userTypeID,
		groupID:    groupID,
	}

	registry := provider.NewRegistry(map[provider.Tag]provider.Port{provider.Okta: f.port})
	f.service = NewService(f.repo, f.gate, f.dir, registry, f.notifier, f.tokens,
		f.publisher, fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		72*time.Hour, discardLogger())
	return f
}

func (f *fixture) createRequest() CreateUserRequest {
	return CreateUserRequest{
		AccountID:  f.accountID,
		UserTypeID: f.userTypeID,
		Username:   "ana.silva",
		FirstName:  "Ana",
		LastName:   "Silva",
		Email:      "ana.silva@example.com",
		Provider:   "okta",
		GroupIDs:   []string{f.groupID},
	}
}

func (f *fixture) seedUser(ctx context.Context, active bool, groups ...string) *User {
	u, err := f.repo.Insert(ctx, User{
		AccountID:          f.accountID,
		UserTypeID:         f.userTypeID,
		Username:           "ana.silva",
		FirstName:          "Ana",
		LastName:           "Silva",
		Email:              "ana.silva@example.com",
		Active:             active,
		GroupIDs:           groups,
		Provider:           provider.Okta,
		ProviderID:         "00u123",
		UsernameAtProvider: "ana_silva@acme_corp",
	})
	if err != nil {
		panic(err)
	}
	return u
}
