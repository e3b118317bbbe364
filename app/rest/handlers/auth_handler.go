package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"token-service/app/port"
	apperrors "token-service/app/utils/errors"
	"token-service/app/utils/validator"
)

// AuthHandler handles the credential HTTP endpoints. The tenant is
// selected by the "system" query parameter; token artifacts travel in
// the access_token and refresh_token headers.
type AuthHandler struct {
	authUsecase port.AuthUsecase
	validator   *validator.Validator
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authUsecase port.AuthUsecase, validator *validator.Validator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		validator:   validator,
		logger:      logger,
	}
}

// Login authenticates a user and issues a token pair
// @Summary Login
// @Description Verify credentials and issue an access/refresh token pair
// @Tags authentication
// @Accept json
// @Produce json
// @Param system query string false "Tenant identifier"
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return h.handleError(c, apperrors.NewValidationError("request body could not be parsed"))
	}

	if err := h.validator.Validate(&req); err != nil {
		return h.handleError(c, apperrors.NewValidationError(err.Error()))
	}

	pair, err := h.authUsecase.Login(c.Request().Context(), port.LoginInput{
		TenantID:   c.QueryParam("system"),
		Username:   req.Username,
		Password:   req.Password,
		DeviceInfo: c.Request().Header.Get("User-Agent"),
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh rotates the presented refresh token into a new pair
// @Summary Refresh tokens
// @Description Consume the refresh token and issue a replacement pair
// @Tags authentication
// @Produce json
// @Param system query string false "Tenant identifier"
// @Param refresh_token header string true "Refresh token artifact"
// @Success 200 {object} TokenResponse
// @Failure 403 {object} ErrorResponse
// @Router /v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	artifact := h.extractRefreshToken(c)
	if artifact == "" {
		return h.handleError(c, apperrors.ErrTokenMalformed.WithDetails("refresh_token header is required"))
	}

	pair, err := h.authUsecase.Refresh(c.Request().Context(), port.RefreshInput{
		TenantID:     c.QueryParam("system"),
		RefreshToken: artifact,
		DeviceInfo:   c.Request().Header.Get("User-Agent"),
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes the presented refresh token
// @Summary Logout
// @Description Revoke the refresh token so it can no longer be rotated
// @Tags authentication
// @Produce json
// @Param system query string false "Tenant identifier"
// @Param refresh_token header string true "Refresh token artifact"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Router /v1/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	artifact := h.extractRefreshToken(c)
	if artifact == "" {
		return h.handleError(c, apperrors.ErrTokenMalformed.WithDetails("refresh_token header is required"))
	}

	if err := h.authUsecase.Logout(c.Request().Context(), port.LogoutInput{
		TenantID:     c.QueryParam("system"),
		RefreshToken: artifact,
	}); err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "logout successful"})
}

// AuthCheck validates an access token and echoes its claims
// @Summary Validate access token
// @Description Check the access token's signature and expiry
// @Tags authentication
// @Produce json
// @Param access_token header string true "Access token artifact"
// @Success 200 {object} AuthCheckResponse
// @Failure 403 {object} ErrorResponse
// @Router /v1/auth [get]
func (h *AuthHandler) AuthCheck(c echo.Context) error {
	artifact := h.extractAccessToken(c)
	if artifact == "" {
		return h.handleError(c, apperrors.ErrTokenMalformed.WithDetails("access_token header is required"))
	}

	claims, err := h.authUsecase.AuthCheck(c.Request().Context(), artifact)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, AuthCheckResponse{
		Valid:  true,
		UserID: claims.Subject,
		User:   claims.User,
	})
}

// Register creates a new user account
// @Summary Register
// @Description Create a new user account when registration is enabled
// @Tags authentication
// @Accept json
// @Produce json
// @Param system query string false "Tenant identifier"
// @Param body body RegisterRequest true "Registration details"
// @Success 201 {object} RegisterResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /v1/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return h.handleError(c, apperrors.NewValidationError("request body could not be parsed"))
	}

	if err := h.validator.Validate(&req); err != nil {
		return h.handleError(c, apperrors.NewValidationError(err.Error()))
	}

	user, err := h.authUsecase.Register(c.Request().Context(), port.RegisterInput{
		TenantID: c.QueryParam("system"),
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusCreated, RegisterResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
	})
}

// extractRefreshToken reads the refresh-token artifact from the
// refresh_token header.
func (h *AuthHandler) extractRefreshToken(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get("refresh_token"))
}

// extractAccessToken reads the access-token artifact from the
// access_token header, falling back to a bearer Authorization header.
func (h *AuthHandler) extractAccessToken(c echo.Context) string {
	if artifact := strings.TrimSpace(c.Request().Header.Get("access_token")); artifact != "" {
		return artifact
	}

	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}

// handleError maps domain errors onto HTTP responses
func (h *AuthHandler) handleError(c echo.Context, err error) error {
	status := apperrors.GetHTTPStatusCode(err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if status >= http.StatusInternalServerError {
			h.logger.Error("request failed", "code", appErr.Code, "error", err,
				"path", c.Request().URL.Path)
			// internal detail stays out of the response body
			return c.JSON(status, ErrorResponse{
				Error: "internal server error",
				Code:  string(appErr.Code),
			})
		}

		h.logger.Warn("request rejected", "code", appErr.Code,
			"path", c.Request().URL.Path)
		return c.JSON(status, ErrorResponse{
			Error:   appErr.Message,
			Code:    string(appErr.Code),
			Details: appErr.Details,
		})
	}

	h.logger.Error("request failed", "error", err, "path", c.Request().URL.Path)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Code:  string(apperrors.ErrCodeInternalError),
	})
}

// Request/Response types

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,username,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthCheckResponse struct {
	Valid  bool                   `json:"valid"`
	UserID string                 `json:"user_id"`
	User   map[string]interface{} `json:"user,omitempty"`
}

type RegisterResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}
