package handlers

import (
	"net/http"
	"strings"

	"forklifttracker/internal/middleware"
	"forklifttracker/internal/models"
	"forklifttracker/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService services.AuthService
	userService services.UserService
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService, userService services.UserService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		userService: userService,
	}
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	models.TokenResponse
	User *models.User `json:"user"`
}

// RegisterRequest represents the registration payload
type RegisterRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

// Register creates an account and signs it in.
//
// @Summary Register a user
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Credentials"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/register [post]
func (h *AuthHandlers) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.userService.Register(ctx, &services.RegisterRequest{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		return fail(c, err)
	}

	tokens, err := h.authService.GenerateTokens(ctx, user.ID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to generate tokens")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate tokens")
	}

	return c.JSON(http.StatusCreated, AuthResponse{TokenResponse: *tokens, User: user})
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles user login with username and password
//
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Router /auth/login [post]
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Username and password are required")
	}

	user, err := h.userService.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return fail(c, err)
	}

	tokens, err := h.authService.GenerateTokens(ctx, user.ID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to generate tokens")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate tokens")
	}

	return c.JSON(http.StatusOK, AuthResponse{TokenResponse: *tokens, User: user})
}

// Refresh handles token refresh
//
// @Summary Rotate a refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body models.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} models.TokenResponse
// @Failure 401 {object} map[string]string
// @Router /auth/refresh [post]
func (h *AuthHandlers) Refresh(c echo.Context) error {
	var req models.RefreshTokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Refresh token is required")
	}
	if req.GrantType != "refresh_token" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid grant type")
	}

	tokens, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tokens)
}

// Logout revokes the access token and, when given, the refresh token.
//
// @Summary Log out
// @Tags Auth
// @Security BearerAuth
// @Param body body models.RevokeTokenRequest false "Refresh token to revoke"
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandlers) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := middleware.UserID(c); err != nil {
		return err
	}

	accessToken := bearerToken(c)
	if accessToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Authorization header missing")
	}

	var req models.RevokeTokenRequest
	if c.Request().ContentLength > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}

	if err := h.authService.RevokeToken(ctx, accessToken, nil); err != nil {
		return fail(c, err)
	}
	if req.RefreshToken != nil && *req.RefreshToken != "" {
		hint := "refresh_token"
		if err := h.authService.RevokeToken(ctx, *req.RefreshToken, &hint); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("Failed to revoke refresh token")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// Me handles getting current user profile
//
// @Summary Current user
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Router /me [get]
func (h *AuthHandlers) Me(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	user, err := h.userService.GetByID(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// bearerToken returns the raw token from the Authorization header or ?token=.
func bearerToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.QueryParam("token")
}
