package request

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RegisterRequest creates the account bound to an email proven by OTP.
type RegisterRequest struct {
	FirstName   string `json:"firstName" validate:"required,min=2,max=50"`
	LastName    string `json:"lastName" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=10,max=15"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,iso8601"`
	OTP         string `json:"otp" validate:"required,otp"`
}

type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,otp"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutRequest may omit the refresh token; only the access token is then
// revoked.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}
