package middleware

import (
	"net/http"
	"strings"

	"otp-auth/internal/data/entity"
	"otp-auth/internal/data/repository"
	"otp-auth/pkg/token"
	"otp-auth/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// AuthJWT accepts a request only if its bearer access token verifies and is
// not blacklisted. Both rejections share one message.
func AuthJWT(tokens *token.Manager, blacklist repository.BlacklistRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				utils.ResponseUnauthorized(w, "Access token is required")
				return
			}

			accessToken := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
			if accessToken == "" {
				utils.ResponseUnauthorized(w, "Access token is required")
				return
			}

			revoked, err := blacklist.IsRevoked(r.Context(), accessToken)
			if err != nil {
				logger.Error("Failed to check token blacklist", zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if revoked {
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			claims, ok := tokens.Verify(accessToken, entity.TokenAccess)
			if !ok {
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := utils.SetUserContext(r.Context(), userID)
			ctx = utils.SetTokenContext(ctx, accessToken, claims.ExpiresAt.Time)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
