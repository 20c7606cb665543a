package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"pagseguro-payment-api/models"
	"pagseguro-payment-api/services/auth"
	"pagseguro-payment-api/utils"
)

type contextKey string

const ClientContextKey contextKey = "client"

// TokenValidator is satisfied by *auth.JWTService.
type TokenValidator interface {
	ValidateToken(token string) (*models.AuthClient, error)
}

// AuthMiddleware requires a valid "Bearer <token>" header and stores the
// authenticated client in the request context.
func AuthMiddleware(validator TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Info("Missing Authorization header", zap.String("remote_addr", r.RemoteAddr))
				utils.SendErrorResponse(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				utils.SendErrorResponse(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			client, err := validator.ValidateToken(parts[1])
			if err != nil {
				logger.Info("Token validation failed",
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err))

				message := "Authentication failed"
				switch {
				case errors.Is(err, auth.ErrTokenExpired):
					message = "Token expired"
				case errors.Is(err, auth.ErrInvalidToken):
					message = "Invalid token"
				}
				utils.SendErrorResponse(w, http.StatusUnauthorized, message)
				return
			}

			ctx := context.WithValue(r.Context(), ClientContextKey, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope rejects clients whose token was issued for another scope.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := GetClientFromContext(r.Context())
			if client == nil {
				utils.SendErrorResponse(w, http.StatusInternalServerError, "Client not found in context")
				return
			}
			if client.Scope != scope {
				utils.SendErrorResponse(w, http.StatusForbidden, "Token scope does not allow this operation")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetClientFromContext(ctx context.Context) *models.AuthClient {
	client, ok := ctx.Value(ClientContextKey).(*models.AuthClient)
	if !ok {
		return nil
	}
	return client
}
