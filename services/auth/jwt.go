package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pagseguro-payment-api/models"
)

const (
	DefaultTokenDuration = 24 * time.Hour
	ScopePayments        = "payments"
	tokenTypeAccess      = "access"
)

var (
	ErrMissingSecret = errors.New("jwt secret is required")
	ErrTokenExpired  = errors.New("token expired")
	ErrInvalidToken  = errors.New("invalid token")
)

// JWTService issues and verifies HS256 tokens for service-to-service callers.
type JWTService struct {
	secretKey []byte
	issuer    string
	duration  time.Duration
	now       func() time.Time
}

type Claims struct {
	ClientID  string `json:"client_id"`
	Scope     string `json:"scope"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func NewJWTService(secretKey, issuer string, duration time.Duration) (*JWTService, error) {
	if secretKey == "" {
		return nil, ErrMissingSecret
	}
	if duration <= 0 {
		duration = DefaultTokenDuration
	}
	return &JWTService{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		duration:  duration,
		now:       time.Now,
	}, nil
}

// GenerateToken signs a token for client. An empty scope defaults to payments.
func (j *JWTService) GenerateToken(client models.AuthClient) (*models.AuthResponse, error) {
	if client.ClientID == "" {
		return nil, errors.New("client id is required")
	}
	if client.Scope == "" {
		client.Scope = ScopePayments
	}

	now := j.now()
	expiresAt := now.Add(j.duration)
	claims := Claims{
		ClientID:  client.ClientID,
		Scope:     client.Scope,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   client.ClientID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
	if err != nil {
		return nil, fmt.Errorf("error signing token: %w", err)
	}

	return &models.AuthResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		Client:    client,
	}, nil
}

func (j *JWTService) ValidateToken(tokenString string) (*models.AuthClient, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithIssuer(j.issuer), jwt.WithTimeFunc(j.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenTypeAccess {
		return nil, ErrInvalidToken
	}

	return &models.AuthClient{
		ClientID: claims.ClientID,
		Scope:    claims.Scope,
	}, nil
}
