package repository

import (
	"errors"

	"otp-auth/pkg/database"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// ErrDuplicate is returned when an insert hits a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound is returned when an update matches no row.
	ErrNotFound = errors.New("record not found")
)

type Repository struct {
	User      UserRepository
	Session   SessionRepository
	OTP       OTPRepository
	Blacklist BlacklistRepository
}

func NewRepository(db database.PgxIface, rdb redis.UniversalClient, log *zap.Logger) *Repository {
	return &Repository{
		User:      NewUserRepository(db, log),
		Session:   NewSessionRepository(db, log),
		OTP:       NewOTPRepository(db, log),
		Blacklist: NewBlacklistRepository(rdb, log),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
