package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"forklifttracker/internal/caching"
	"forklifttracker/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	tokenIssuer   = "forklift-tracker-auth"
	tokenAudience = "forklift-tracker-api"
)

// AuthService handles JWT access tokens and rotating refresh tokens
type AuthService interface {
	GenerateTokens(ctx context.Context, userID uuid.UUID) (*models.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	// ValidateToken verifies signature, issuer, audience, expiry and the revocation list.
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	RevokeToken(ctx context.Context, token string, tokenType *string) error
}

type authService struct {
	cacheSvc   caching.CacheService
	jwtSecret  []byte
	tokenTTL   time.Duration
	refreshTTL time.Duration
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	UserID  string `json:"user_id"`
	TokenID string `json:"token_id"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new authentication service
func NewAuthService(cacheSvc caching.CacheService, jwtSecret string, tokenTTL, refreshTTL time.Duration) AuthService {
	return &authService{
		cacheSvc:   cacheSvc,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		refreshTTL: refreshTTL,
	}
}

func refreshKey(hash string) string {
	return "refresh_token:" + hash
}

func blacklistKey(tokenID string) string {
	return "token_blacklist:" + tokenID
}

// GenerateTokens generates access and refresh tokens for a user
func (s *authService) GenerateTokens(ctx context.Context, userID uuid.UUID) (*models.TokenResponse, error) {
	now := time.Now()
	tokenID := uuid.NewString()

	claims := TokenClaims{
		UserID:  userID.String(),
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessTokenString, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	refreshToken, err := s.generateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiry := now.Add(s.refreshTTL).Unix()
	refreshTokenData := fmt.Sprintf("%s:%d", userID.String(), expiry)
	if err := s.cacheSvc.SetString(ctx, refreshKey(s.hashToken(refreshToken)), refreshTokenData, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken:  accessTokenString,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenTTL.Seconds()),
		RefreshToken: refreshToken,
		UserID:       userID.String(),
		TokenID:      tokenID,
		IssuedAt:     now,
	}, nil
}

// RefreshToken consumes a refresh token and issues a new pair
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	if refreshToken == "" {
		return nil, Unauthorized("Invalid refresh token")
	}

	cacheKey := refreshKey(s.hashToken(refreshToken))
	// Rotate: a refresh token is single use, so only one caller can take it
	tokenData, err := s.cacheSvc.TakeString(ctx, cacheKey)
	if err != nil {
		return nil, err
	}
	if tokenData == "" {
		return nil, Unauthorized("Invalid refresh token")
	}

	parts := strings.Split(tokenData, ":")
	if len(parts) != 2 {
		return nil, Unauthorized("Invalid refresh token")
	}

	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() > expiry {
		return nil, Unauthorized("Refresh token expired")
	}

	userID, err := uuid.Parse(parts[0])
	if err != nil {
		return nil, Unauthorized("Invalid refresh token")
	}

	return s.GenerateTokens(ctx, userID)
}

// ValidateToken validates JWT access token
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	jwtToken, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !jwtToken.Valid {
		return nil, Unauthorized("Invalid token")
	}

	revoked, err := s.cacheSvc.GetString(ctx, blacklistKey(claims.ID))
	if err != nil {
		return nil, err
	}
	if revoked != "" {
		return nil, Unauthorized("Token has been revoked")
	}

	return claims, nil
}

// RevokeToken revokes an access or refresh token
func (s *authService) RevokeToken(ctx context.Context, token string, tokenType *string) error {
	if tokenType != nil && *tokenType == "refresh_token" {
		return s.cacheSvc.Delete(ctx, refreshKey(s.hashToken(token)))
	}

	claims, err := s.ValidateToken(ctx, token)
	if err != nil {
		return err
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.cacheSvc.SetString(ctx, blacklistKey(claims.ID), "revoked", ttl); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to blacklist token")
		return err
	}
	return nil
}

// generateSecureToken generates a cryptographically secure random token
func (s *authService) generateSecureToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// hashToken creates a SHA-256 hash of the token for storage
func (s *authService) hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
