package repository

import (
	"context"
	"fmt"
	"time"

	"otp-auth/internal/data/entity"
	"otp-auth/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const revokedPrefix = "revoked:"

// BlacklistRepository records revoked tokens in Redis. Each record carries a
// TTL no shorter than the remaining life of the token so it outlives it.
type BlacklistRepository interface {
	Revoke(ctx context.Context, token string, kind entity.TokenKind, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type blacklistRepository struct {
	rdb redis.UniversalClient
	log *zap.Logger
}

func NewBlacklistRepository(rdb redis.UniversalClient, log *zap.Logger) BlacklistRepository {
	return &blacklistRepository{
		rdb: rdb,
		log: log.With(zap.String("repository", "blacklist")),
	}
}

// revokedKey never embeds the raw token.
func revokedKey(token string) string {
	return revokedPrefix + utils.Digest(token)
}

// Revoke is idempotent: revoking the same token twice keeps the first record.
func (r *blacklistRepository) Revoke(ctx context.Context, token string, kind entity.TokenKind, ttl time.Duration) error {
	if !kind.Valid() {
		return fmt.Errorf("revoke token: unknown kind %q", kind)
	}
	if ttl < time.Second {
		ttl = time.Second
	}

	if err := r.rdb.SetNX(ctx, revokedKey(token), string(kind), ttl).Err(); err != nil {
		r.log.Error("Failed to revoke token",
			zap.Error(err),
			zap.String("kind", string(kind)),
		)
		return fmt.Errorf("revoke %s token: %w", kind, err)
	}

	return nil
}

func (r *blacklistRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedKey(token)).Result()
	if err != nil {
		r.log.Error("Failed to check blacklist", zap.Error(err))
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return n > 0, nil
}
