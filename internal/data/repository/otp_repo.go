package repository

import (
	"context"
	"errors"
	"fmt"

	"otp-auth/internal/data/entity"
	"otp-auth/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// OTPRepository keeps at most one challenge per email. Expired challenges
// are invisible to every read even before the sweep deletes them.
type OTPRepository interface {
	Replace(ctx context.Context, otp *entity.OTPChallenge) error
	FindActive(ctx context.Context, email string) (*entity.OTPChallenge, error)
	Consume(ctx context.Context, email, codeHash string) (bool, error)
	IncrementAttempts(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type otpRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewOTPRepository(db database.PgxIface, log *zap.Logger) OTPRepository {
	return &otpRepository{
		db:  db,
		log: log.With(zap.String("repository", "otp")),
	}
}

// Replace drops any previous challenge for the email and stores otp, in one
// statement.
func (r *otpRepository) Replace(ctx context.Context, otp *entity.OTPChallenge) error {
	query := `
		INSERT INTO otp_challenges (email, code_hash, expires_at, attempts, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE
		SET code_hash = EXCLUDED.code_hash,
		    expires_at = EXCLUDED.expires_at,
		    attempts = EXCLUDED.attempts,
		    used = EXCLUDED.used,
		    created_at = EXCLUDED.created_at
	`

	_, err := r.db.Exec(ctx, query,
		otp.Email,
		otp.CodeHash,
		otp.ExpiresAt,
		otp.Attempts,
		otp.Used,
		otp.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to store OTP", zap.Error(err))
		return fmt.Errorf("store OTP: %w", err)
	}

	return nil
}

func (r *otpRepository) FindActive(ctx context.Context, email string) (*entity.OTPChallenge, error) {
	query := `
		SELECT email, code_hash, expires_at, attempts, used, created_at
		FROM otp_challenges
		WHERE email = $1 AND expires_at > NOW()
	`

	var otp entity.OTPChallenge
	err := r.db.QueryRow(ctx, query, email).Scan(
		&otp.Email,
		&otp.CodeHash,
		&otp.ExpiresAt,
		&otp.Attempts,
		&otp.Used,
		&otp.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find OTP", zap.Error(err))
		return nil, fmt.Errorf("find OTP: %w", err)
	}

	return &otp, nil
}

// Consume marks the challenge used if it is live, unused and codeHash
// matches. Match and mark happen in one UPDATE so only one caller can win.
func (r *otpRepository) Consume(ctx context.Context, email, codeHash string) (bool, error) {
	query := `
		UPDATE otp_challenges
		SET used = true
		WHERE email = $1
		  AND code_hash = $2
		  AND used = false
		  AND expires_at > NOW()
	`

	result, err := r.db.Exec(ctx, query, email, codeHash)
	if err != nil {
		r.log.Error("Failed to consume OTP", zap.Error(err))
		return false, fmt.Errorf("consume OTP: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *otpRepository) IncrementAttempts(ctx context.Context, email string) error {
	query := `
		UPDATE otp_challenges
		SET attempts = attempts + 1
		WHERE email = $1 AND used = false AND expires_at > NOW()
	`

	if _, err := r.db.Exec(ctx, query, email); err != nil {
		r.log.Error("Failed to increment OTP attempts", zap.Error(err))
		return fmt.Errorf("increment OTP attempts: %w", err)
	}

	return nil
}

func (r *otpRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM otp_challenges WHERE expires_at <= NOW()`

	result, err := r.db.Exec(ctx, query)
	if err != nil {
		r.log.Error("Failed to delete expired OTPs", zap.Error(err))
		return 0, fmt.Errorf("delete expired OTPs: %w", err)
	}

	return result.RowsAffected(), nil
}
