package comms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RuleCache caches per-account communication rules with a sliding TTL.
// Population is populate-if-absent without mutual exclusion: concurrent
// first-accesses for the same account may each fetch and set. The fetch is
// idempotent, so the race is benign and accepted; the remote call itself is
// collapsed per account inside the client.
type RuleCache struct {
	redis  *redis.Client
	client AuthServerClient
	ttl    time.Duration
}

// NewRuleCache builds a rule cache with the given TTL.
func NewRuleCache(redisClient *redis.Client, client AuthServerClient, ttl time.Duration) *RuleCache {
	return &RuleCache{redis: redisClient, client: client, ttl: ttl}
}

func ruleKey(accountID string) string {
	return "comms:rules:" + accountID
}

// GetOrFetch returns the cached rules for the account, fetching and storing
// them on a miss. Each hit slides the expiration forward.
func (c *RuleCache) GetOrFetch(ctx context.Context, accountID string) (*Rules, error) {
	key := ruleKey(accountID)

	data, err := c.redis.GetEx(ctx, key, c.ttl).Bytes()
	if err == nil {
		var rules Rules
		if err := json.Unmarshal(data, &rules); err == nil {
			return &rules, nil
		}
		// Corrupt entry: fall through to refetch.
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("comms: cache get: %w", err)
	}

	rules, err := c.client.Rules(ctx, accountID)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(rules)
	if err != nil {
		return nil, fmt.Errorf("comms: cache encode: %w", err)
	}
	if err := c.redis.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		return nil, fmt.Errorf("comms: cache set: %w", err)
	}
	return rules, nil
}
