package models

import "time"

// TokenResponse is returned by register, login and refresh.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	UserID       string    `json:"user_id"`
	TokenID      string    `json:"token_id"`
	IssuedAt     time.Time `json:"issued_at"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
	GrantType    string `json:"grant_type"`
}

type RevokeTokenRequest struct {
	RefreshToken  *string `json:"refresh_token"`
	TokenTypeHint *string `json:"token_type_hint"` // "access_token" or "refresh_token"
}
