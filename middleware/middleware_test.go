package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pagseguro-payment-api/models"
	"pagseguro-payment-api/services/auth"
)

type stubValidator struct {
	client *models.AuthClient
	err    error
}

func (s stubValidator) ValidateToken(string) (*models.AuthClient, error) {
	return s.client, s.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddleware(t *testing.T) {
	client := &models.AuthClient{ClientID: "checkout", Scope: auth.ScopePayments}

	tests := []struct {
		name      string
		header    string
		validator stubValidator
		want      int
	}{
		{"missing header", "", stubValidator{client: client}, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", stubValidator{client: client}, http.StatusUnauthorized},
		{"expired", "Bearer abc", stubValidator{err: auth.ErrTokenExpired}, http.StatusUnauthorized},
		{"valid", "Bearer abc", stubValidator{client: client}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *models.AuthClient
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetClientFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(tt.validator, zap.NewNop())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				assert.Equal(t, client, seen)
			}
		})
	}
}

func TestRequireScope(t *testing.T) {
	handler := RequireScope(auth.ScopePayments)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), ClientContextKey, &models.AuthClient{ClientID: "x", Scope: "reports"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ctx = context.WithValue(req.Context(), ClientContextKey, &models.AuthClient{ClientID: "x", Scope: auth.ScopePayments})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	CORS(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/orders", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggingSetsRequestID(t *testing.T) {
	handler := Logging(zap.NewNop())(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func newTestLimiter(t *testing.T, requests int) *RateLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	rl := NewRateLimiter(client, zap.NewNop())
	rl.configs = map[string]RateLimitConfig{
		"default": {Requests: requests, Window: time.Minute, Message: "slow down"},
	}
	return rl
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	rl := newTestLimiter(t, 2)
	handler := rl.Middleware(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		time.Sleep(time.Millisecond)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterSeparatesCallers(t *testing.T) {
	rl := newTestLimiter(t, 1)
	handler := rl.Middleware(okHandler())

	for _, ip := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code, ip)
	}
}

func TestRateLimiterIgnoresUnverifiedBearerTokens(t *testing.T) {
	rl := newTestLimiter(t, 3)
	handler := rl.Middleware(okHandler())

	admitted := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/token", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set("Authorization", fmt.Sprintf("Bearer junk-%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusNoContent {
			admitted++
		}
		time.Sleep(time.Millisecond)
	}

	assert.Equal(t, 3, admitted)
}

func TestRateLimiterKeysOnAuthenticatedClient(t *testing.T) {
	rl := newTestLimiter(t, 1)
	validators := map[string]stubValidator{
		"a": {client: &models.AuthClient{ClientID: "billing", Scope: auth.ScopePayments}},
		"b": {client: &models.AuthClient{ClientID: "checkout", Scope: auth.ScopePayments}},
	}

	send := func(token string) int {
		handler := AuthMiddleware(validators[token], zap.NewNop())(rl.Middleware(okHandler()))
		req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		time.Sleep(time.Millisecond)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("a"))
	assert.Equal(t, http.StatusNoContent, send("b"), "clients behind one IP have separate budgets")
	assert.Equal(t, http.StatusTooManyRequests, send("a"))
}

func TestRateLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	handler := NewRateLimiter(client, zap.NewNop()).Middleware(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", clientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(req))
}

func TestAuthMiddlewareUnknownError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer x")

	AuthMiddleware(stubValidator{err: errors.New("boom")}, zap.NewNop())(okHandler()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication failed")
}
