package wire

import (
	"fmt"
	"net/http"

	"otp-auth/internal/adaptor"
	"otp-auth/internal/data/repository"
	"otp-auth/internal/usecase"
	"otp-auth/pkg/mailer"
	"otp-auth/pkg/middleware"
	"otp-auth/pkg/token"
	"otp-auth/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the wired router and services
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and the router.
func Wiring(
	repo *repository.Repository,
	rdb redis.UniversalClient,
	mail mailer.Sender,
	config *utils.Config,
	logger *zap.Logger,
) (*App, error) {
	tokens, err := token.NewManager(token.Config{
		AccessSecret:  []byte(config.JWT.AccessSecret),
		RefreshSecret: []byte(config.JWT.RefreshSecret),
		AccessTTL:     config.JWT.AccessTTL,
		RefreshTTL:    config.JWT.RefreshTTL,
		Issuer:        config.JWT.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	utils.SetOTPLength(config.OTP.Length)

	service := usecase.NewService(repo, config, tokens, mail, logger)
	handler := adaptor.NewHandler(service, logger)
	limiter := middleware.NewRateLimiter(rdb, config.RateLimit.Enabled, config.RateLimit.TrustedProxies, logger)
	auth := middleware.AuthJWT(tokens, repo.Blacklist, logger)

	router := setupRouter(handler, limiter, auth, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}, nil
}

func setupRouter(
	handler *adaptor.Handler,
	limiter *middleware.RateLimiter,
	auth func(http.Handler) http.Handler,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.SecureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(chimw.RequestSize(config.App.BodyLimitBytes))

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Limit(middleware.GlobalPolicy))

		wireAuth(r, handler.Auth, limiter, auth)
		wireUser(r, handler.User, auth)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", nil)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseNotFound(w, "Route not found")
	})

	return r
}
