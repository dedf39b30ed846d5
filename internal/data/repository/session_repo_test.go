package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"otp-auth/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var sessionColumns = []string{"id", "user_id", "token", "created_at", "expires_at"}

func TestSessionRepository_CreateReturnsID(t *testing.T) {
	mock := newMockDB(t)
	repo := NewSessionRepository(mock, zap.NewNop())
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO refresh_sessions (user_id, token, created_at, expires_at) VALUES ($1, $2, $3, $4) RETURNING id")).
		WithArgs(userID, "tok", now, now.Add(time.Hour)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	session := &entity.RefreshSession{UserID: userID, Token: "tok", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(context.Background(), session))
	assert.Equal(t, int64(42), session.ID)
}

func TestSessionRepository_FindActiveByUserOldestFirst(t *testing.T) {
	mock := newMockDB(t)
	repo := NewSessionRepository(mock, zap.NewNop())
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND expires_at > NOW() ORDER BY id ASC")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(sessionColumns).
			AddRow(int64(3), userID, "first", now, now.Add(time.Hour)).
			AddRow(int64(8), userID, "second", now, now.Add(time.Hour)).
			AddRow(int64(9), userID, "third", now, now.Add(time.Hour)))

	sessions, err := repo.FindActiveByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	var ids []int64
	var tokens []string
	for _, s := range sessions {
		ids = append(ids, s.ID)
		tokens = append(tokens, s.Token)
	}
	assert.Equal(t, []int64{3, 8, 9}, ids)
	assert.Equal(t, []string{"first", "second", "third"}, tokens)
}

func TestSessionRepository_FindActiveByUserRowError(t *testing.T) {
	mock := newMockDB(t)
	repo := NewSessionRepository(mock, zap.NewNop())
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_sessions")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(sessionColumns).
			AddRow(int64(1), userID, "a", now, now.Add(time.Hour)).
			AddRow(int64(2), userID, "b", now, now.Add(time.Hour)).
			RowError(1, errors.New("broken row")))

	_, err := repo.FindActiveByUser(context.Background(), userID)
	assert.Error(t, err)
}

func TestSessionRepository_FindByTokenMissing(t *testing.T) {
	mock := newMockDB(t)
	repo := NewSessionRepository(mock, zap.NewNop())
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND token = $2 AND expires_at > NOW()")).
		WithArgs(userID, "gone").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.FindByToken(context.Background(), userID, "gone")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionRepository_Rotate(t *testing.T) {
	query := regexp.QuoteMeta("UPDATE refresh_sessions SET token = $3, created_at = $4, expires_at = $5 WHERE user_id = $1 AND token = $2 AND expires_at > NOW() RETURNING id")
	connErr := errors.New("connection reset")

	tests := []struct {
		name    string
		rows    *pgxmock.Rows
		dbErr   error
		want    bool
		wantID  int64
		wantErr error
	}{
		{"rewrites the row in place", pgxmock.NewRows([]string{"id"}).AddRow(int64(7)), nil, true, 7, nil},
		{"old token already rotated", nil, pgx.ErrNoRows, false, 0, nil},
		{"store failure", nil, connErr, false, 0, connErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockDB(t)
			repo := NewSessionRepository(mock, zap.NewNop())
			userID := uuid.New()
			now := time.Now()
			next := &entity.RefreshSession{Token: "new", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

			expect := mock.ExpectQuery(query).WithArgs(userID, "old", "new", now, now.Add(time.Hour))
			if tt.dbErr != nil {
				expect.WillReturnError(tt.dbErr)
			} else {
				expect.WillReturnRows(tt.rows)
			}

			ok, err := repo.Rotate(context.Background(), userID, "old", next)
			assert.Equal(t, tt.want, ok)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.want {
				assert.Equal(t, tt.wantID, next.ID)
				assert.Equal(t, userID, next.UserID)
			}
		})
	}
}

func TestSessionRepository_Delete(t *testing.T) {
	for _, rows := range []int64{0, 1} {
		mock := newMockDB(t)
		repo := NewSessionRepository(mock, zap.NewNop())
		userID := uuid.New()

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_sessions WHERE user_id = $1 AND token = $2")).
			WithArgs(userID, "tok").
			WillReturnResult(pgxmock.NewResult("DELETE", rows))

		deleted, err := repo.Delete(context.Background(), userID, "tok")
		require.NoError(t, err)
		assert.Equal(t, rows == 1, deleted)
	}
}

func TestSessionRepository_DeleteByIDs(t *testing.T) {
	mock := newMockDB(t)
	repo := NewSessionRepository(mock, zap.NewNop())
	userID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_sessions WHERE user_id = $1 AND id = ANY($2)")).
		WithArgs(userID, []int64{3, 8}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	require.NoError(t, repo.DeleteByIDs(context.Background(), userID, []int64{3, 8}))

	// nothing to delete never reaches the database
	require.NoError(t, repo.DeleteByIDs(context.Background(), userID, nil))
}

func TestSessionRepository_CleanExpiredSessions(t *testing.T) {
	mock := newMockDB(t)
	repo := NewSessionRepository(mock, zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_sessions WHERE expires_at <= $1")).
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := repo.CleanExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
