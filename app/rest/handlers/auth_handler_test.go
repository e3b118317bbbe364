package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"token-service/app/domain"
	"token-service/app/token"
	"token-service/app/mocks"
	"token-service/app/port"
	apperrors "token-service/app/utils/errors"
	"token-service/app/utils/logger"
	"token-service/app/utils/validator"
)

func newTestAuthHandler(t *testing.T) (*AuthHandler, *mocks.MockAuthUsecase) {
	t.Helper()

	ctrl := gomock.NewController(t)
	usecase := mocks.NewMockAuthUsecase(ctrl)

	testLogger, err := logger.New("error")
	require.NoError(t, err)

	return NewAuthHandler(usecase, validator.New(), testLogger), usecase
}

func testAccessClaims(username string) *token.AccessClaims {
	return &token.AccessClaims{
		RefreshTokenID: uuid.NewString(),
		User:           map[string]interface{}{"username": username},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: uuid.NewString(),
		},
	}
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestLogin_ReturnsTokenPair(t *testing.T) {
	handler, usecase := newTestAuthHandler(t)

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/login?system=acme",
		`{"username":"alice","password":"s3cret"}`)
	c.Request().Header.Set("User-Agent", "test-agent")

	usecase.EXPECT().Login(gomock.Any(), port.LoginInput{
		TenantID:   "acme",
		Username:   "alice",
		Password:   "s3cret",
		DeviceInfo: "test-agent",
	}).Return(&domain.TokenPair{
		AccessToken:  "access-artifact",
		RefreshToken: "refresh-artifact",
	}, nil)

	require.NoError(t, handler.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "access-artifact", resp.AccessToken)
	assert.Equal(t, "refresh-artifact", resp.RefreshToken)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	handler, usecase := newTestAuthHandler(t)

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/login",
		`{"username":"alice","password":"wrong"}`)

	usecase.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.ErrInvalidCredentials)

	require.NoError(t, handler.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Code)
}

func TestLogin_MissingFieldsRejectedBeforeUsecase(t *testing.T) {
	handler, _ := newTestAuthHandler(t)

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/login", `{"username":"alice"}`)

	require.NoError(t, handler.Login(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLogin_StorageErrorHidesDetail(t *testing.T) {
	handler, usecase := newTestAuthHandler(t)

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/login",
		`{"username":"alice","password":"s3cret"}`)

	usecase.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.NewStorageError(assert.AnError))

	require.NoError(t, handler.Login(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Error)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestRefresh_RotatesPair(t *testing.T) {
	handler, usecase := newTestAuthHandler(t)

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/refresh?system=acme", "")
	c.Request().Header.Set("refresh_token", "old-artifact")
	c.Request().Header.Set("User-Agent", "test-agent")

	usecase.EXPECT().Refresh(gomock.Any(), port.RefreshInput{
		TenantID:     "acme",
		RefreshToken: "old-artifact",
		DeviceInfo:   "test-agent",
	}).Return(&domain.TokenPair{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
	}, nil)

	require.NoError(t, handler.Refresh(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "new-refresh", resp.RefreshToken)
}

func TestRefresh_MissingHeader(t *testing.T) {
	handler, _ := newTestAuthHandler(t)

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/refresh", "")

	require.NoError(t, handler.Refresh(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRefresh_ConsumedTokenRejected(t *testing.T) {
	handler, usecase := newTestAuthHandler(t)

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/refresh", "")
	c.Request().Header.Set("refresh_token", "spent-artifact")

	usecase.EXPECT().Refresh(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.NewNotFound("refresh token"))

	require.NoError(t, handler.Refresh(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogout_Succeeds(t *testing.T) {
	handler, usecase := newTestAuthHandler(t)

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/logout?system=acme", "")
	c.Request().Header.Set("refresh_token", "artifact")

	usecase.EXPECT().Logout(gomock.Any(), port.LogoutInput{
		TenantID:     "acme",
		RefreshToken: "artifact",
	}).Return(nil)

	require.NoError(t, handler.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthCheck_ValidToken(t *testing.T) {
	handler, usecase := newTestAuthHandler(t)

	c, rec := newJSONContext(http.MethodGet, "/v1/auth", "")
	c.Request().Header.Set("access_token", "artifact")

	claims := testAccessClaims("alice")
	usecase.EXPECT().AuthCheck(gomock.Any(), "artifact").Return(claims, nil)

	require.NoError(t, handler.AuthCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp AuthCheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, claims.Subject, resp.UserID)
	assert.Equal(t, "alice", resp.User["username"])
}

func TestAuthCheck_BearerFallback(t *testing.T) {
	handler, usecase := newTestAuthHandler(t)

	c, rec := newJSONContext(http.MethodGet, "/v1/auth", "")
	c.Request().Header.Set("Authorization", "Bearer artifact")

	usecase.EXPECT().AuthCheck(gomock.Any(), "artifact").
		Return(testAccessClaims("alice"), nil)

	require.NoError(t, handler.AuthCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthCheck_ExpiredToken(t *testing.T) {
	handler, usecase := newTestAuthHandler(t)

	c, rec := newJSONContext(http.MethodGet, "/v1/auth", "")
	c.Request().Header.Set("access_token", "stale-artifact")

	usecase.EXPECT().AuthCheck(gomock.Any(), "stale-artifact").
		Return(nil, apperrors.ErrTokenExpired)

	require.NoError(t, handler.AuthCheck(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegister_CreatesUser(t *testing.T) {
	handler, usecase := newTestAuthHandler(t)

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/register?system=acme",
		`{"username":"bob","email":"bob@example.com","password":"longenough"}`)

	user := &domain.User{Username: "bob", Email: "bob@example.com"}
	usecase.EXPECT().Register(gomock.Any(), port.RegisterInput{
		TenantID: "acme",
		Username: "bob",
		Email:    "bob@example.com",
		Password: "longenough",
	}).Return(user, nil)

	require.NoError(t, handler.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRegister_DuplicateUser(t *testing.T) {
	handler, usecase := newTestAuthHandler(t)

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/register",
		`{"username":"bob","email":"bob@example.com","password":"longenough"}`)

	usecase.EXPECT().Register(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.ErrUserExists)

	require.NoError(t, handler.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_ShortPasswordRejected(t *testing.T) {
	handler, _ := newTestAuthHandler(t)

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/register",
		`{"username":"bob","email":"bob@example.com","password":"short"}`)

	require.NoError(t, handler.Register(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
