package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	BaseNoDelete
	FirstName   string     `db:"first_name"`
	LastName    string     `db:"last_name"`
	Email       string     `db:"email"`
	PhoneNumber string     `db:"phone_number"`
	DateOfBirth time.Time  `db:"date_of_birth"`
	IsVerified  bool       `db:"is_verified"`
	LastLogin   *time.Time `db:"last_login"`
}

// RefreshSession is one outstanding refresh token of a user. Sessions are
// ordered by ID; rotating a session rewrites the row so its position holds.
type RefreshSession struct {
	ID        int64     `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Token     string    `db:"token"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (s *RefreshSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
