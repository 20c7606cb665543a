package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"pagseguro-payment-api/utils"
)

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Message  string
}

var defaultConfigs = map[string]RateLimitConfig{
	"/auth/token": {
		Requests: 30,
		Window:   time.Minute,
		Message:  "Too many token requests. Please wait a minute.",
	},
	"/api/orders": {
		Requests: 30,
		Window:   time.Minute,
		Message:  "Too many payment attempts. Please slow down.",
	},
	"/api/payments": {
		Requests: 30,
		Window:   time.Minute,
		Message:  "Too many payment attempts. Please slow down.",
	},
	"default": {
		Requests: 120,
		Window:   time.Minute,
		Message:  "Rate limit exceeded. Please slow down your requests.",
	},
}

// Sliding window over a sorted set: drop entries older than the window,
// count the rest and admit the request when under the limit.
var rateLimitScript = redis.NewScript(`
	local key = KEYS[1]
	local window_start = tonumber(ARGV[1])
	local limit = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local member = ARGV[4]
	local ttl = tonumber(ARGV[5])

	redis.call('ZREMRANGEBYSCORE', key, 0, window_start - 1)

	local current = redis.call('ZCARD', key)
	if current < limit then
		redis.call('ZADD', key, now, member)
		redis.call('EXPIRE', key, ttl)
		return {1, limit - current - 1}
	end
	return {0, 0}
`)

type RateLimiter struct {
	client  *redis.Client
	logger  *zap.Logger
	configs map[string]RateLimitConfig
	now     func() time.Time
}

func NewRateLimiter(client *redis.Client, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client:  client,
		logger:  logger,
		configs: defaultConfigs,
		now:     time.Now,
	}
}

// Middleware fails open: a Redis error lets the request through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, config := rl.configFor(r.URL.Path)
		key := rl.keyFor(r, name)

		allowed, remaining, resetTime, err := rl.check(r.Context(), key, config)
		if err != nil {
			rl.logger.Warn("Rate limit check error", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			rl.logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", strconv.Itoa(int(config.Window.Seconds())))
			utils.SendErrorResponse(w, http.StatusTooManyRequests, config.Message)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) configFor(path string) (string, RateLimitConfig) {
	if config, ok := rl.configs[path]; ok {
		return path, config
	}
	return "default", rl.configs["default"]
}

// keyFor uses the client placed in the context by AuthMiddleware and falls
// back to the IP. Raw Authorization headers are never trusted here, so the
// limiter must run after AuthMiddleware on authenticated routes.
func (rl *RateLimiter) keyFor(r *http.Request, bucket string) string {
	identity := "ip:" + clientIP(r)
	if client := GetClientFromContext(r.Context()); client != nil && client.ClientID != "" {
		identity = "client:" + client.ClientID
	}
	return fmt.Sprintf("rate_limit:%s:%s", bucket, identity)
}

func (rl *RateLimiter) check(ctx context.Context, key string, config RateLimitConfig) (bool, int, time.Time, error) {
	now := rl.now()
	windowStart := now.Add(-config.Window)
	member := strconv.FormatInt(now.UnixNano(), 10)

	result, err := rateLimitScript.Run(ctx, rl.client, []string{key},
		windowStart.UnixMilli(), config.Requests, now.UnixMilli(), member, int(config.Window.Seconds())+1).Result()
	if err != nil {
		return false, 0, time.Time{}, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}
	allowed, ok1 := values[0].(int64)
	remaining, ok2 := values[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, time.Time{}, fmt.Errorf("failed to parse redis result")
	}

	return allowed == 1, int(remaining), now.Add(config.Window), nil
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		ips := strings.Split(ip, ",")
		return strings.TrimSpace(ips[0])
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
