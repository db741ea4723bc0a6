package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/insightforge/internal/infrastructure/redis"
	"github.com/yourorg/insightforge/pkg/cache"
)

// TokenRevoker tracks revoked JWT IDs (jti) until their natural expiry.
// Logout revokes; Authenticate consults. Backed by Redis when available so
// revocations survive restarts and span replicas; otherwise an in-memory
// cache covers a single process.
type TokenRevoker struct {
	redis  *redis.Client
	local  *cache.Cache
	logger *slog.Logger
}

// NewTokenRevoker creates a new revoker. redisClient may be nil.
func NewTokenRevoker(redisClient *redis.Client, logger *slog.Logger) *TokenRevoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenRevoker{
		redis:  redisClient,
		local:  cache.New(),
		logger: logger,
	}
}

const revokedKeyPrefix = "revoked:"

// Revoke marks a token ID as revoked for ttl, the token's remaining
// lifetime. Revoking longer than that only wastes memory.
func (t *TokenRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if t.redis != nil {
		if _, err := t.redis.SetNX(ctx, revokedKeyPrefix+jti, "1", ttl); err != nil {
			t.logger.Error("failed to persist token revocation, falling back to local",
				slog.String("error", err.Error()),
			)
			t.local.Set(revokedKeyPrefix+jti, true, ttl)
			return err
		}
		return nil
	}
	t.local.Set(revokedKeyPrefix+jti, true, ttl)
	return nil
}

// IsRevoked reports whether a token ID has been revoked. A Redis failure
// reads as not revoked; the token still carries a valid signature and
// expiry, so availability wins over the rare missed logout.
func (t *TokenRevoker) IsRevoked(ctx context.Context, jti string) bool {
	if jti == "" {
		return false
	}
	if t.redis != nil {
		found, err := t.redis.Exists(ctx, revokedKeyPrefix+jti)
		if err != nil {
			t.logger.Error("failed to check token revocation",
				slog.String("error", err.Error()),
			)
		} else if found {
			return true
		}
	}
	_, found := t.local.Get(revokedKeyPrefix + jti)
	return found
}
