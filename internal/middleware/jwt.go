package middleware

import (
	"context"
	"errors"
	"net/http"

	"forklifttracker/internal/common"
	"forklifttracker/internal/services"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const claimsContextKey = "claims"

const (
	headerTokenLookup = "header:Authorization:Bearer "
	socketTokenLookup = headerTokenLookup + ",query:token"
)

// JWTConfig validates bearer tokens through the auth service so revoked
// tokens are rejected. tokenLookup follows echo-jwt's TokenLookup syntax.
func JWTConfig(authSvc services.AuthService, tokenLookup string) echojwt.Config {
	return echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: tokenLookup,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return authSvc.ValidateToken(c.Request().Context(), auth)
		},
		SuccessHandler: func(c echo.Context) {
			claims, ok := c.Get(claimsContextKey).(*services.TokenClaims)
			if !ok {
				return
			}
			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return
			}

			logger := log.Ctx(c.Request().Context()).With().Str("user_id", userID.String()).Logger()
			ctx := logger.WithContext(c.Request().Context())
			ctx = context.WithValue(ctx, common.UserIDKey, userID)
			ctx = context.WithValue(ctx, common.TokenIDKey, claims.ID)
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var svcErr *services.Error
			if errors.As(err, &svcErr) && errors.Is(svcErr, services.ErrUnauthorized) {
				return echo.NewHTTPError(http.StatusUnauthorized, svcErr.Message)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing or invalid token")
		},
	}
}

// RequireAuth accepts the access token from the Authorization header only.
func RequireAuth(authSvc services.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(JWTConfig(authSvc, headerTokenLookup))
}

// RequireSocketAuth also accepts ?token=, since browsers cannot set headers
// on a websocket handshake. Use it on the websocket route only.
func RequireSocketAuth(authSvc services.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(JWTConfig(authSvc, socketTokenLookup))
}

// UserID returns the authenticated user or a 401.
func UserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return userID, nil
}
