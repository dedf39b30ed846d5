package adaptor

import (
	"net/http"

	"otp-auth/internal/dto/request"
	"otp-auth/internal/usecase"
	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log,
	}
}

// SendOTP handles POST /api/auth/send-otp
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req request.SendOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.SendOTP(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "send OTP", "Failed to send OTP")
		return
	}

	utils.ResponseSuccess(w, "OTP sent successfully", resp)
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "register", "Registration failed")
		return
	}

	utils.ResponseCreated(w, "User registered successfully", resp)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "login", "Login failed")
		return
	}

	utils.ResponseSuccess(w, "Login successful", resp)
}

// RefreshToken handles POST /api/auth/refresh-token
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req request.RefreshTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.RefreshToken(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "refresh token", "Token refresh failed")
		return
	}

	utils.ResponseSuccess(w, "Tokens refreshed successfully", resp)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Access token is required")
		return
	}

	var req request.LogoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.Logout(r.Context(), caller, req.RefreshToken); err != nil {
		handleServiceError(w, h.log, err, "logout", "Logout failed")
		return
	}

	utils.ResponseSuccess(w, "Logged out successfully", nil)
}

// LogoutAll handles POST /api/auth/logout-all
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Access token is required")
		return
	}

	if err := h.service.LogoutAll(r.Context(), caller); err != nil {
		handleServiceError(w, h.log, err, "logout all", "Logout from all devices failed")
		return
	}

	utils.ResponseSuccess(w, "Logged out from all devices successfully", nil)
}

// callerFromContext reads what AuthJWT stored on the request.
func callerFromContext(r *http.Request) (usecase.Caller, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return usecase.Caller{}, false
	}
	accessToken, _ := utils.GetTokenFromContext(r.Context())
	expiresAt, _ := utils.GetTokenExpiryFromContext(r.Context())

	return usecase.Caller{
		UserID:          userID,
		AccessToken:     accessToken,
		AccessExpiresAt: expiresAt,
	}, true
}
