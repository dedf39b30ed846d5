package wire

import (
	"net/http"

	"otp-auth/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// wireUser mounts the profile routes; all require a valid access token.
func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	auth func(http.Handler) http.Handler,
) {
	r.With(auth).Route("/user", func(r chi.Router) {
		r.Get("/profile", userHandler.GetProfile)
		r.Put("/profile", userHandler.UpdateProfile)
	})
}
