package wire

import (
	"net/http"

	"otp-auth/internal/adaptor"
	"otp-auth/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	limiter *middleware.RateLimiter,
	auth func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.With(limiter.Limit(middleware.OTPPolicy)).Post("/send-otp", authHandler.SendOTP)
		r.With(limiter.Limit(middleware.AuthPolicy)).Post("/register", authHandler.Register)
		r.With(limiter.Limit(middleware.AuthPolicy)).Post("/login", authHandler.Login)
		r.With(limiter.Limit(middleware.RefreshPolicy)).Post("/refresh-token", authHandler.RefreshToken)

		// ==================== PROTECTED ROUTES ====================
		r.With(auth).Post("/logout", authHandler.Logout)
		r.With(auth).Post("/logout-all", authHandler.LogoutAll)
	})
}
