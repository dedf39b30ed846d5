package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"otp-auth/internal/data/entity"
	"otp-auth/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SessionRepository stores the ordered refresh sessions of each user. All
// reads skip expired rows whether or not the cleanup sweep has run.
type SessionRepository interface {
	Create(ctx context.Context, session *entity.RefreshSession) error
	FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]*entity.RefreshSession, error)
	FindByToken(ctx context.Context, userID uuid.UUID, token string) (*entity.RefreshSession, error)
	Rotate(ctx context.Context, userID uuid.UUID, oldToken string, next *entity.RefreshSession) (bool, error)
	Delete(ctx context.Context, userID uuid.UUID, token string) (bool, error)
	DeleteByIDs(ctx context.Context, userID uuid.UUID, ids []int64) error
	CleanExpiredSessions(ctx context.Context) (int64, error)
}

type sessionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSessionRepository(db database.PgxIface, log *zap.Logger) SessionRepository {
	return &sessionRepository{
		db:  db,
		log: log.With(zap.String("repository", "session")),
	}
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.RefreshSession) error {
	query := `
		INSERT INTO refresh_sessions (user_id, token, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		session.UserID,
		session.Token,
		session.CreatedAt,
		session.ExpiresAt,
	).Scan(&session.ID)

	if isUniqueViolation(err) {
		return fmt.Errorf("create session: %w", ErrDuplicate)
	}
	if err != nil {
		r.log.Error("Failed to create session",
			zap.Error(err),
			zap.String("user_id", session.UserID.String()),
		)
		return fmt.Errorf("create session for %s: %w", session.UserID.String(), err)
	}

	return nil
}

// FindActiveByUser returns live sessions oldest first.
func (r *sessionRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]*entity.RefreshSession, error) {
	query := `
		SELECT id, user_id, token, created_at, expires_at
		FROM refresh_sessions
		WHERE user_id = $1 AND expires_at > NOW()
		ORDER BY id ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list sessions",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("list sessions for %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var sessions []*entity.RefreshSession
	for rows.Next() {
		var s entity.RefreshSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.Token, &s.CreatedAt, &s.ExpiresAt); err != nil {
			r.log.Error("Failed to scan session row", zap.Error(err))
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}

	return sessions, nil
}

func (r *sessionRepository) FindByToken(ctx context.Context, userID uuid.UUID, token string) (*entity.RefreshSession, error) {
	query := `
		SELECT id, user_id, token, created_at, expires_at
		FROM refresh_sessions
		WHERE user_id = $1 AND token = $2 AND expires_at > NOW()
	`

	var s entity.RefreshSession
	err := r.db.QueryRow(ctx, query, userID, token).Scan(
		&s.ID,
		&s.UserID,
		&s.Token,
		&s.CreatedAt,
		&s.ExpiresAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find session",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find session for %s: %w", userID.String(), err)
	}

	return &s, nil
}

// Rotate swaps oldToken for next.Token in place. It reports false when
// oldToken is no longer a live session, which makes rotation single-use.
func (r *sessionRepository) Rotate(ctx context.Context, userID uuid.UUID, oldToken string, next *entity.RefreshSession) (bool, error) {
	query := `
		UPDATE refresh_sessions
		SET token = $3, created_at = $4, expires_at = $5
		WHERE user_id = $1 AND token = $2 AND expires_at > NOW()
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		userID,
		oldToken,
		next.Token,
		next.CreatedAt,
		next.ExpiresAt,
	).Scan(&next.ID)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		r.log.Error("Failed to rotate session",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return false, fmt.Errorf("rotate session for %s: %w", userID.String(), err)
	}

	next.UserID = userID
	return true, nil
}

func (r *sessionRepository) Delete(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	query := `DELETE FROM refresh_sessions WHERE user_id = $1 AND token = $2`

	result, err := r.db.Exec(ctx, query, userID, token)
	if err != nil {
		r.log.Error("Failed to delete session",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return false, fmt.Errorf("delete session for %s: %w", userID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *sessionRepository) DeleteByIDs(ctx context.Context, userID uuid.UUID, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM refresh_sessions WHERE user_id = $1 AND id = ANY($2)`

	if _, err := r.db.Exec(ctx, query, userID, ids); err != nil {
		r.log.Error("Failed to delete sessions",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("count", len(ids)),
		)
		return fmt.Errorf("delete %d sessions for %s: %w", len(ids), userID.String(), err)
	}

	return nil
}

func (r *sessionRepository) CleanExpiredSessions(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_sessions WHERE expires_at <= $1`

	result, err := r.db.Exec(ctx, query, time.Now())
	if err != nil {
		r.log.Error("Failed to clean expired sessions", zap.Error(err))
		return 0, fmt.Errorf("clean sessions: %w", err)
	}

	return result.RowsAffected(), nil
}
