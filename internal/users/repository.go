package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helix-id/helix/internal/shared"
)

// ProfileUpdate carries the mutable profile fields.
type ProfileUpdate struct {
	Username            string
	FirstName           string
	LastName            string
	Email               string
	CustomProfileFields map[string]string
}

// ListQuery describes a filtered, paged, sorted listing.
type ListQuery struct {
	Filter      string
	OrderBy     string
	Descending  bool
	Page        int
	PageSize    int
	ShowDeleted bool
}

// Repository is the account-scoped user store. Deletion is always soft.
type Repository interface {
	Insert(ctx context.Context, u User) (*User, error)
	FindByID(ctx context.Context, accountID, id string, showDeleted bool) (*User, error)
	FindByUsername(ctx context.Context, accountID, username string, showDeleted bool) (*User, error)
	FindByEmail(ctx context.Context, accountID, email string) (*User, error)
	UpdateProfile(ctx context.Context, accountID, id string, update ProfileUpdate) error
	SetActive(ctx context.Context, accountID, id string, active bool, reason string) error
	SoftDelete(ctx context.Context, accountID, id string) error
	AddGroup(ctx context.Context, accountID, id, groupID string) (bool, error)
	RemoveGroup(ctx context.Context, accountID, id, groupID string) (bool, error)
	SetUserType(ctx context.Context, accountID, id, userTypeID string) error
	List(ctx context.Context, accountID string, q ListQuery) ([]User, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const userColumns = `id, account_id, user_type_id, username, first_name, last_name, email,
	active, custom_profile_fields, group_ids, provider, provider_id, username_at_provider,
	update_reason, is_deleted, deleted_at, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.AccountID, &u.UserTypeID, &u.Username, &u.FirstName, &u.LastName, &u.Email,
		&u.Active, &u.CustomProfileFields, &u.GroupIDs, &u.Provider, &u.ProviderID, &u.UsernameAtProvider,
		&u.UpdateReason, &u.IsDeleted, &u.DeletedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("users: scan: %w", err)
	}
	return &u, nil
}

func (r *repository) Insert(ctx context.Context, u User) (*User, error) {
	if u.ID == "" {
		u.ID = shared.NewReference()
	}
	if u.GroupIDs == nil {
		u.GroupIDs = []string{}
	}
	const query = `
		INSERT INTO users (id, account_id, user_type_id, username, first_name, last_name, email,
			active, custom_profile_fields, group_ids, provider, provider_id, username_at_provider)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		u.ID, u.AccountID, u.UserTypeID, u.Username, u.FirstName, u.LastName, u.Email,
		u.Active, u.CustomProfileFields, u.GroupIDs, u.Provider, u.ProviderID, u.UsernameAtProvider,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("user %s: %w", u.Username, shared.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("users: insert: %w", err)
	}
	return &u, nil
}

func (r *repository) FindByID(ctx context.Context, accountID, id string, showDeleted bool) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE account_id = $1 AND id = $2`, userColumns)
	if !showDeleted {
		query += ` AND NOT is_deleted`
	}
	return scanUser(r.pool.QueryRow(ctx, query, accountID, id))
}

func (r *repository) FindByUsername(ctx context.Context, accountID, username string, showDeleted bool) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE account_id = $1 AND username = $2`, userColumns)
	if !showDeleted {
		query += ` AND NOT is_deleted`
	}
	return scanUser(r.pool.QueryRow(ctx, query, accountID, username))
}

func (r *repository) FindByEmail(ctx context.Context, accountID, email string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE account_id = $1 AND email = $2 AND NOT is_deleted`, userColumns)
	return scanUser(r.pool.QueryRow(ctx, query, accountID, email))
}

func (r *repository) UpdateProfile(ctx context.Context, accountID, id string, update ProfileUpdate) error {
	const query = `
		UPDATE users
		SET username = $3, first_name = $4, last_name = $5, email = $6,
			custom_profile_fields = $7, updated_at = now()
		WHERE account_id = $1 AND id = $2 AND NOT is_deleted`
	tag, err := r.pool.Exec(ctx, query, accountID, id,
		update.Username, update.FirstName, update.LastName, update.Email, update.CustomProfileFields)
	if err != nil {
		return fmt.Errorf("users: update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, accountID, id string, active bool, reason string) error {
	const query = `
		UPDATE users
		SET active = $3, update_reason = $4, updated_at = now()
		WHERE account_id = $1 AND id = $2 AND NOT is_deleted`
	tag, err := r.pool.Exec(ctx, query, accountID, id, active, reason)
	if err != nil {
		return fmt.Errorf("users: set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, accountID, id string) error {
	const query = `
		UPDATE users
		SET is_deleted = TRUE, deleted_at = now(), updated_at = now()
		WHERE account_id = $1 AND id = $2 AND NOT is_deleted`
	tag, err := r.pool.Exec(ctx, query, accountID, id)
	if err != nil {
		return fmt.Errorf("users: soft delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

// AddGroup adds the group reference to the user's set only when absent. The
// membership check and the write are one statement, so concurrent adds of
// the same group cannot duplicate it.
func (r *repository) AddGroup(ctx context.Context, accountID, id, groupID string) (bool, error) {
	const query = `
		UPDATE users
		SET group_ids = array_append(group_ids, $3), updated_at = now()
		WHERE account_id = $1 AND id = $2 AND NOT is_deleted AND NOT (group_ids @> ARRAY[$3])`
	tag, err := r.pool.Exec(ctx, query, accountID, id, groupID)
	if err != nil {
		return false, fmt.Errorf("users: add group: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RemoveGroup removes the group reference only when present.
func (r *repository) RemoveGroup(ctx context.Context, accountID, id, groupID string) (bool, error) {
	const query = `
		UPDATE users
		SET group_ids = array_remove(group_ids, $3), updated_at = now()
		WHERE account_id = $1 AND id = $2 AND NOT is_deleted AND group_ids @> ARRAY[$3]`
	tag, err := r.pool.Exec(ctx, query, accountID, id, groupID)
	if err != nil {
		return false, fmt.Errorf("users: remove group: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repository) SetUserType(ctx context.Context, accountID, id, userTypeID string) error {
	const query = `
		UPDATE users
		SET user_type_id = $3, updated_at = now()
		WHERE account_id = $1 AND id = $2 AND NOT is_deleted`
	tag, err := r.pool.Exec(ctx, query, accountID, id, userTypeID)
	if err != nil {
		return fmt.Errorf("users: set user type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

var orderable = map[string]string{
	"username":   "username",
	"first_name": "first_name",
	"last_name":  "last_name",
	"email":      "email",
	"created_at": "created_at",
}

func (r *repository) List(ctx context.Context, accountID string, q ListQuery) ([]User, int, error) {
	conditions := []string{"account_id = $1"}
	args := []any{accountID}
	argPos := 2

	if !q.ShowDeleted {
		conditions = append(conditions, "NOT is_deleted")
	}
	if q.Filter != "" {
		pattern := "%" + q.Filter + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(username ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)",
			argPos, argPos, argPos, argPos))
		args = append(args, pattern)
		argPos++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM users %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}

	orderColumn, ok := orderable[q.OrderBy]
	if !ok {
		orderColumn = "username"
	}
	direction := "ASC"
	if q.Descending {
		direction = "DESC"
	}

	page := shared.ClampPage(q.Page)
	pageSize := shared.ClampPageSize(q.PageSize)

	query := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, orderColumn, direction, argPos, argPos+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("users: list rows: %w", err)
	}
	return result, total, nil
}
