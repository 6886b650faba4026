package recovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helix-id/helix/internal/shared"
)

// Repository is the password-recovery store. Records are insert-only.
type Repository interface {
	Insert(ctx context.Context, rec PasswordRecovery) (*PasswordRecovery, error)
	FindByToken(ctx context.Context, accountID, token string) (*PasswordRecovery, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, rec PasswordRecovery) (*PasswordRecovery, error) {
	if rec.ID == "" {
		rec.ID = shared.NewReference()
	}
	const query = `
		INSERT INTO password_recoveries (id, account_id, user_id, validation_token, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	err := r.pool.QueryRow(ctx, query,
		rec.ID, rec.AccountID, rec.UserID, rec.ValidationToken, rec.CreatedAt, rec.ExpiresAt,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("recovery: insert: %w", err)
	}
	return &rec, nil
}

func (r *repository) FindByToken(ctx context.Context, accountID, token string) (*PasswordRecovery, error) {
	const query = `
		SELECT id, account_id, user_id, validation_token, created_at, expires_at
		FROM password_recoveries
		WHERE account_id = $1 AND validation_token = $2
		ORDER BY created_at DESC
		LIMIT 1`
	var rec PasswordRecovery
	err := r.pool.QueryRow(ctx, query, accountID, token).Scan(
		&rec.ID, &rec.AccountID, &rec.UserID, &rec.ValidationToken, &rec.CreatedAt, &rec.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("recovery: token: %w", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("recovery: find by token: %w", err)
	}
	return &rec, nil
}
