package response

import (
	"time"

	"otp-auth/internal/data/entity"
)

// UserResponse is the public profile; sessions are never exposed.
type UserResponse struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	PhoneNumber string     `json:"phoneNumber"`
	DateOfBirth string     `json:"dateOfBirth"`
	IsVerified  bool       `json:"isVerified"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type TokenExpiry struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenExpiry  TokenExpiry  `json:"tokenExpiry"`
}

type SendOTPResponse struct {
	IsNewUser bool   `json:"isNewUser"`
	Email     string `json:"email"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:          user.ID.String(),
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		DateOfBirth: user.DateOfBirth.Format("2006-01-02"),
		IsVerified:  user.IsVerified,
		LastLogin:   user.LastLogin,
		CreatedAt:   user.CreatedAt,
	}
}
