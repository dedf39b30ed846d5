package entity

import "time"

// OTPChallenge is the single live one-time code for an email. Only a digest
// of the code is stored.
type OTPChallenge struct {
	Email     string    `db:"email"`
	CodeHash  string    `db:"code_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	Attempts  int       `db:"attempts"`
	Used      bool      `db:"used"`
	CreatedAt time.Time `db:"created_at"`
}

func (o *OTPChallenge) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
