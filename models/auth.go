package models

import "time"

// TokenRequest is sent by internal systems to obtain an API token.
type TokenRequest struct {
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
}

// AuthClient is the authenticated caller attached to the request context.
type AuthClient struct {
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
}

type AuthResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	Client    AuthClient `json:"client"`
}
