package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"pagseguro-payment-api/database"
	"pagseguro-payment-api/logger"
)

const (
	defaultRedisURL       = "redis://localhost:6379/0"
	defaultServerPort     = "8080"
	defaultGatewayTimeout = 30 * time.Second
	defaultTokenTTL       = 24 * time.Hour
)

type Config struct {
	PagSeguro PagSeguroConfig
	Database  database.DatabaseConfig
	Server    ServerConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Log       logger.Config
}

type PagSeguroConfig struct {
	BaseURL       string
	Token         string
	PixExpiration string
	Timeout       time.Duration
}

type ServerConfig struct {
	Port string
}

type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret      string
	Issuer         string
	InternalSecret string
	TokenTTL       time.Duration
}

// Load reads .env when present and then the process environment. A missing
// .env is not an error; a malformed one is.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{
		PagSeguro: PagSeguroConfig{
			BaseURL:       os.Getenv("PAGSEGURO_BASE_URL"),
			Token:         os.Getenv("PAGSEGURO_TOKEN"),
			PixExpiration: os.Getenv("PIX_EXPIRATION_DATE"),
			Timeout:       getSeconds("PAGSEGURO_TIMEOUT_SECONDS", defaultGatewayTimeout),
		},
		Database: database.DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Server: ServerConfig{
			Port: getenv("SERVER_PORT", defaultServerPort),
		},
		Redis: RedisConfig{
			URL: getenv("REDIS_URL", defaultRedisURL),
		},
		Auth: AuthConfig{
			JWTSecret:      os.Getenv("JWT_SECRET"),
			Issuer:         getenv("JWT_ISSUER", "pagseguro-payment-api"),
			InternalSecret: os.Getenv("INTERNAL_API_SECRET"),
			TokenTTL:       getSeconds("JWT_TTL_SECONDS", defaultTokenTTL),
		},
		Log: logger.Config{
			Level:       getenv("LOG_LEVEL", "info"),
			Format:      getenv("LOG_FORMAT", "json"),
			Development: os.Getenv("APP_ENV") == "development",
		},
	}
	return cfg, nil
}

// DatabaseEnabled reports whether the order ledger should be opened.
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getSeconds(key string, fallback time.Duration) time.Duration {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Second
}
