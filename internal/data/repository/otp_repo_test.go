package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"otp-auth/internal/data/entity"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOTPRepository_ReplaceUpserts(t *testing.T) {
	mock := newMockDB(t)
	repo := NewOTPRepository(mock, zap.NewNop())
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (email) DO UPDATE SET code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at, attempts = EXCLUDED.attempts, used = EXCLUDED.used")).
		WithArgs("ada@example.com", "digest", now.Add(5*time.Minute), 0, false, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Replace(context.Background(), &entity.OTPChallenge{
		Email:     "ada@example.com",
		CodeHash:  "digest",
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	})
	assert.NoError(t, err)
}

func TestOTPRepository_FindActive(t *testing.T) {
	query := regexp.QuoteMeta("FROM otp_challenges WHERE email = $1 AND expires_at > NOW()")

	t.Run("live challenge", func(t *testing.T) {
		mock := newMockDB(t)
		repo := NewOTPRepository(mock, zap.NewNop())
		now := time.Now()

		mock.ExpectQuery(query).
			WithArgs("ada@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"email", "code_hash", "expires_at", "attempts", "used", "created_at"}).
				AddRow("ada@example.com", "digest", now.Add(time.Minute), 2, false, now))

		got, err := repo.FindActive(context.Background(), "ada@example.com")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "digest", got.CodeHash)
		assert.Equal(t, 2, got.Attempts)
		assert.False(t, got.Used)
	})

	t.Run("none or expired", func(t *testing.T) {
		mock := newMockDB(t)
		repo := NewOTPRepository(mock, zap.NewNop())

		mock.ExpectQuery(query).WithArgs("ada@example.com").WillReturnError(pgx.ErrNoRows)

		got, err := repo.FindActive(context.Background(), "ada@example.com")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestOTPRepository_Consume(t *testing.T) {
	query := regexp.QuoteMeta("UPDATE otp_challenges SET used = true WHERE email = $1 AND code_hash = $2 AND used = false AND expires_at > NOW()")
	connErr := errors.New("connection reset")

	tests := []struct {
		name    string
		rows    int64
		dbErr   error
		want    bool
		wantErr error
	}{
		{"wins the challenge", 1, nil, true, nil},
		{"already used or expired", 0, nil, false, nil},
		{"store failure", 0, connErr, false, connErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockDB(t)
			repo := NewOTPRepository(mock, zap.NewNop())

			exec := mock.ExpectExec(query).WithArgs("ada@example.com", "digest")
			if tt.dbErr != nil {
				exec.WillReturnError(tt.dbErr)
			} else {
				exec.WillReturnResult(pgxmock.NewResult("UPDATE", tt.rows))
			}

			ok, err := repo.Consume(context.Background(), "ada@example.com", "digest")
			assert.Equal(t, tt.want, ok)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOTPRepository_IncrementAttemptsOnlyLive(t *testing.T) {
	mock := newMockDB(t)
	repo := NewOTPRepository(mock, zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta("SET attempts = attempts + 1 WHERE email = $1 AND used = false AND expires_at > NOW()")).
		WithArgs("ada@example.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.IncrementAttempts(context.Background(), "ada@example.com"))
}

func TestOTPRepository_DeleteExpired(t *testing.T) {
	mock := newMockDB(t)
	repo := NewOTPRepository(mock, zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM otp_challenges WHERE expires_at <= NOW()")).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
