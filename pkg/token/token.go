// Package token mints and verifies the signed access/refresh credentials.
// Each kind has its own secret, so holding one secret cannot forge the other
// kind.
package token

import (
	"errors"
	"time"

	"otp-auth/internal/data/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Claims carried by both kinds. Kind is checked on verify in addition to the
// per-kind secret.
type Claims struct {
	UserID string           `json:"userId"`
	Kind   entity.TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// Pair is the value object handed to clients; it is never persisted as-is.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type Manager struct {
	config Config
	now    func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("access and refresh secrets are required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}

	return &Manager{config: cfg, now: time.Now}, nil
}

// WithClock returns a copy of the manager that reads time from now.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *Manager) TTL(kind entity.TokenKind) time.Duration {
	if kind == entity.TokenAccess {
		return m.config.AccessTTL
	}
	return m.config.RefreshTTL
}

// Mint issues a fresh access/refresh pair for userID.
func (m *Manager) Mint(userID string) (*Pair, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	now := m.now()

	access, accessExp, err := m.sign(userID, entity.TokenAccess, now)
	if err != nil {
		return nil, err
	}

	refresh, refreshExp, err := m.sign(userID, entity.TokenRefresh, now)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify checks signature, expiry, issuer and kind. Any failure yields
// (nil, false); callers must not distinguish between reasons.
func (m *Manager) Verify(tokenString string, kind entity.TokenKind) (*Claims, bool) {
	if tokenString == "" || !kind.Valid() {
		return nil, false
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return m.secret(kind), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}

	if claims.Kind != kind || claims.UserID == "" {
		return nil, false
	}

	return claims, true
}

func (m *Manager) sign(userID string, kind entity.TokenKind, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(m.TTL(kind))

	claims := Claims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(), // keeps tokens minted in the same second distinct
			Subject:   userID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret(kind))
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func (m *Manager) secret(kind entity.TokenKind) []byte {
	if kind == entity.TokenAccess {
		return m.config.AccessSecret
	}
	return m.config.RefreshSecret
}
