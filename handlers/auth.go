package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"pagseguro-payment-api/models"
	"pagseguro-payment-api/utils"
)

// TokenIssuer is satisfied by *auth.JWTService.
type TokenIssuer interface {
	GenerateToken(client models.AuthClient) (*models.AuthResponse, error)
}

// AuthHandler issues API tokens to internal systems that present the shared
// secret in X-Internal-Secret.
type AuthHandler struct {
	issuer         TokenIssuer
	internalSecret string
	logger         *zap.Logger
}

func NewAuthHandler(issuer TokenIssuer, internalSecret string, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		issuer:         issuer,
		internalSecret: internalSecret,
		logger:         logger,
	}
}

// RequireInternalSecret rejects every request when no secret is configured.
func (h *AuthHandler) RequireInternalSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		secret := r.Header.Get("X-Internal-Secret")
		if h.internalSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.internalSecret)) != 1 {
			h.logger.Warn("Invalid or missing internal secret", zap.String("remote_addr", r.RemoteAddr))
			utils.SendErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// IssueToken handles POST /auth/token.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ClientID == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "client_id is required")
		return
	}

	resp, err := h.issuer.GenerateToken(models.AuthClient{ClientID: req.ClientID, Scope: req.Scope})
	if err != nil {
		h.logger.Error("Error generating token", zap.String("client_id", req.ClientID), zap.Error(err))
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Error generating token")
		return
	}

	h.logger.Info("Token issued",
		zap.String("client_id", resp.Client.ClientID),
		zap.String("scope", resp.Client.Scope),
		zap.Time("expires_at", resp.ExpiresAt))

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Token generated successfully",
		Data:    resp,
	})
}
