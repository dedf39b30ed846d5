package token

import (
	"strings"
	"testing"
	"time"

	"otp-auth/internal/data/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "otp-auth-test",
	})
	require.NoError(t, err)
	return m
}

func TestNewManager_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing access secret", Config{RefreshSecret: []byte("r"), AccessTTL: time.Hour, RefreshTTL: time.Hour}},
		{"missing refresh secret", Config{AccessSecret: []byte("a"), AccessTTL: time.Hour, RefreshTTL: time.Hour}},
		{"shared secret", Config{AccessSecret: []byte("s"), RefreshSecret: []byte("s"), AccessTTL: time.Hour, RefreshTTL: time.Hour}},
		{"zero ttl", Config{AccessSecret: []byte("a"), RefreshSecret: []byte("r"), RefreshTTL: time.Hour}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestManager_MintVerifyRoundTrip(t *testing.T) {
	m := newTestManager(t)

	pair, err := m.Mint("user-1")
	require.NoError(t, err)

	claims, ok := m.Verify(pair.AccessToken, entity.TokenAccess)
	require.True(t, ok)
	assert.Equal(t, "user-1", claims.UserID)

	claims, ok = m.Verify(pair.RefreshToken, entity.TokenRefresh)
	require.True(t, ok)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestManager_VerifyRejectsWrongKind(t *testing.T) {
	m := newTestManager(t)

	pair, err := m.Mint("user-1")
	require.NoError(t, err)

	_, ok := m.Verify(pair.AccessToken, entity.TokenRefresh)
	assert.False(t, ok, "access token must not verify under the refresh secret")

	_, ok = m.Verify(pair.RefreshToken, entity.TokenAccess)
	assert.False(t, ok, "refresh token must not verify under the access secret")
}

func TestManager_VerifyRejectsKindClaimMismatch(t *testing.T) {
	m := newTestManager(t)

	// signed with the access secret but claiming to be a refresh token
	claims := Claims{
		UserID: "user-1",
		Kind:   entity.TokenRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "otp-auth-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, ok := m.Verify(forged, entity.TokenAccess)
	assert.False(t, ok)
}

func TestManager_VerifyRejectsExpired(t *testing.T) {
	m := newTestManager(t)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	pair, err := m.WithClock(func() time.Time { return issued }).Mint("user-1")
	require.NoError(t, err)

	later := m.WithClock(func() time.Time { return issued.Add(time.Hour + time.Second) })
	_, ok := later.Verify(pair.AccessToken, entity.TokenAccess)
	assert.False(t, ok, "access token is past its 1h lifetime")

	claims, ok := later.Verify(pair.RefreshToken, entity.TokenRefresh)
	require.True(t, ok, "refresh token still inside its 7d lifetime")
	assert.Equal(t, "user-1", claims.UserID)

	muchLater := m.WithClock(func() time.Time { return issued.Add(7*24*time.Hour + time.Second) })
	_, ok = muchLater.Verify(pair.RefreshToken, entity.TokenRefresh)
	assert.False(t, ok)
}

func TestManager_VerifyRejectsMalformed(t *testing.T) {
	m := newTestManager(t)
	pair, err := m.Mint("user-1")
	require.NoError(t, err)

	parts := strings.Split(pair.AccessToken, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	for _, input := range []string{"", "not.a.jwt", "abc", tampered} {
		_, ok := m.Verify(input, entity.TokenAccess)
		assert.False(t, ok, "input %q", input)
	}
}

func TestManager_VerifyRejectsForeignIssuer(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
		Issuer:        "someone-else",
	})
	require.NoError(t, err)

	pair, err := other.Mint("user-1")
	require.NoError(t, err)

	_, ok := m.Verify(pair.AccessToken, entity.TokenAccess)
	assert.False(t, ok)
}

func TestManager_MintProducesDistinctTokens(t *testing.T) {
	m := newTestManager(t)

	first, err := m.Mint("user-1")
	require.NoError(t, err)
	second, err := m.Mint("user-1")
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, time.Hour, m.TTL(entity.TokenAccess))
	assert.Equal(t, 7*24*time.Hour, m.TTL(entity.TokenRefresh))
}
