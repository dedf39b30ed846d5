package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"otp-auth/internal/usecase"
	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth *AuthHandler
	User *UserHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth: NewAuthHandler(service.Auth, log),
		User: NewUserHandler(service.User, log),
	}
}

// decodeAndValidate writes the failure response itself and reports whether
// the handler may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ResponseTooLarge(w, "Request body too large")
			return false
		}
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}

	if validationErrors := utils.ValidateStruct(dst); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation errors", validationErrors)
		return false
	}

	return true
}

// handleServiceError maps business-rule errors to their status; anything
// else is logged and answered with the generic fallback message.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		utils.ResponseBadRequest(w, "Validation errors", err.Error())

	case errors.Is(err, usecase.ErrInvalidOTP):
		utils.ResponseBadRequest(w, "Invalid or expired OTP", nil)

	case errors.Is(err, usecase.ErrTooManyAttempts):
		utils.ResponseBadRequest(w, "Too many OTP attempts. Please request a new OTP", nil)

	case errors.Is(err, usecase.ErrUserExists):
		utils.ResponseBadRequest(w, "User already exists", nil)

	case errors.Is(err, usecase.ErrNotRegistered):
		utils.ResponseNotFound(w, "User not found. Please register first.")

	case errors.Is(err, usecase.ErrUserNotFound):
		utils.ResponseNotFound(w, "User not found")

	case errors.Is(err, usecase.ErrInvalidToken):
		utils.ResponseUnauthorized(w, "Invalid or expired refresh token")

	default:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, fallback)
	}
}
