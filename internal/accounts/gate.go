package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/helix-id/helix/internal/shared"
)

// Gate validates a tenant reference before any mutating command runs: the id
// must be well formed, the account must exist, and it must be enabled.
type Gate struct {
	client Client
}

// NewGate builds an account gate over the given lookup client.
func NewGate(client Client) *Gate {
	return &Gate{client: client}
}

// Validate returns the account when the reference is valid, well formed and
// enabled; otherwise a taxonomy error. No retries happen at this layer.
func (g *Gate) Validate(ctx context.Context, accountID string) (*Account, error) {
	if err := shared.CheckReference("account id", accountID); err != nil {
		return nil, err
	}

	account, err := g.client.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("account %s: %w", accountID, shared.ErrAccountInvalid)
		}
		return nil, err
	}

	if !account.Enabled {
		return nil, fmt.Errorf("account %s disabled: %w", accountID, shared.ErrAccountInvalid)
	}
	return account, nil
}
