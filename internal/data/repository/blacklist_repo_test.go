package repository

import (
	"context"
	"testing"
	"time"

	"otp-auth/internal/data/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBlacklist(t *testing.T) (*miniredis.Miniredis, BlacklistRepository) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, NewBlacklistRepository(rdb, zap.NewNop())
}

func TestBlacklistRevokeAndCheck(t *testing.T) {
	mr, bl := newTestBlacklist(t)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "tok-a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "tok-a", entity.TokenRefresh, time.Hour))

	revoked, err = bl.IsRevoked(ctx, "tok-a")
	require.NoError(t, err)
	assert.True(t, revoked)

	other, err := bl.IsRevoked(ctx, "tok-b")
	require.NoError(t, err)
	assert.False(t, other)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.NotContains(t, keys[0], "tok-a")
	assert.Equal(t, time.Hour, mr.TTL(keys[0]))
}

func TestBlacklistRecordOutlivesNothingPastTTL(t *testing.T) {
	mr, bl := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "tok", entity.TokenAccess, 30*time.Second))

	mr.FastForward(29 * time.Second)
	revoked, err := bl.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Second)
	revoked, err = bl.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestBlacklistRevokeIsIdempotent(t *testing.T) {
	mr, bl := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "tok", entity.TokenRefresh, time.Hour))
	require.NoError(t, bl.Revoke(ctx, "tok", entity.TokenAccess, time.Minute))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	kind, err := mr.Get(keys[0])
	require.NoError(t, err)
	assert.Equal(t, string(entity.TokenRefresh), kind)
	assert.Equal(t, time.Hour, mr.TTL(keys[0]))
}

func TestBlacklistClampsShortTTL(t *testing.T) {
	mr, bl := newTestBlacklist(t)

	require.NoError(t, bl.Revoke(context.Background(), "tok", entity.TokenAccess, 0))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, time.Second, mr.TTL(keys[0]))
}

func TestBlacklistRejectsUnknownKind(t *testing.T) {
	mr, bl := newTestBlacklist(t)

	err := bl.Revoke(context.Background(), "tok", entity.TokenKind("session"), time.Minute)
	assert.Error(t, err)
	assert.Empty(t, mr.Keys())
}

func TestBlacklistStoreFailure(t *testing.T) {
	mr, bl := newTestBlacklist(t)
	mr.Close()

	_, err := bl.IsRevoked(context.Background(), "tok")
	assert.Error(t, err)
}
