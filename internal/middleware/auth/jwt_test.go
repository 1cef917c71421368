package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret      = "test-secret"
	testSessionName = "orderflow_admin"
)

func createJWT(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return tokenString
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "550e8400-e29b-41d4-a716-446655440000",
		"email": "admin@pixelnextdigital.com",
		"role":  "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Use(session.Middleware(NewSessionStore("cookie-secret-cookie-secret-1234", false)))

	e.POST("/login", func(c echo.Context) error {
		if err := SaveAccessToken(c, testSessionName, c.FormValue("token"), 3600); err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	})
	e.POST("/logout", func(c echo.Context) error {
		if err := ClearSession(c, testSessionName); err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	})

	admin := e.Group("/admin", JWTMiddleware(JWTConfig{
		Secret:      testSecret,
		SessionName: testSessionName,
		Logger:      zap.NewNop(),
	}))
	admin.GET("/me", func(c echo.Context) error {
		user, err := GetUserFromContext(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, user)
	})
	return e
}

func TestJWTMiddleware_BearerHeader(t *testing.T) {
	e := newTestEcho()

	req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
	req.Header.Set("Authorization", "Bearer "+createJWT(t, testSecret, validClaims()))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"admin@pixelnextdigital.com"`)
	assert.Contains(t, rec.Body.String(), `"user_id":"550e8400-e29b-41d4-a716-446655440000"`)
}

func TestJWTMiddleware_SessionCookie(t *testing.T) {
	e := newTestEcho()

	form := "token=" + createJWT(t, testSecret, validClaims())
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/admin/me", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	cleared := rec.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.Equal(t, testSessionName, cleared[0].Name)
	assert.True(t, cleared[0].MaxAge < 0)
}

func TestJWTMiddleware_Rejections(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	noExpiry := validClaims()
	delete(noExpiry, "exp")

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{name: "missing token", header: "", wantCode: "AUTH_REQUIRED"},
		{name: "not a bearer token", header: "Token abc", wantCode: "AUTH_REQUIRED"},
		{name: "wrong secret", header: "Bearer " + createJWT(t, "other-secret", validClaims()), wantCode: "INVALID_TOKEN"},
		{name: "expired", header: "Bearer " + createJWT(t, testSecret, expired), wantCode: "INVALID_TOKEN"},
		{name: "no expiry", header: "Bearer " + createJWT(t, testSecret, noExpiry), wantCode: "INVALID_TOKEN"},
		{name: "garbage", header: "Bearer not.a.jwt", wantCode: "INVALID_TOKEN"},
	}

	e := newTestEcho()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantCode)
		})
	}
}

func TestJWTMiddleware_MissingSecret(t *testing.T) {
	e := echo.New()
	e.GET("/admin/orders", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		JWTMiddleware(JWTConfig{Logger: zap.NewNop()}))

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "CONFIG_MISSING")
}

func TestJWTMiddleware_SkipPaths(t *testing.T) {
	e := echo.New()
	e.Use(JWTMiddleware(JWTConfig{Secret: testSecret, Logger: zap.NewNop(), SkipPaths: []string{"/api/admin/login"}}))
	e.POST("/api/admin/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParseAccessToken(t *testing.T) {
	user, err := ParseAccessToken(createJWT(t, testSecret, validClaims()), testSecret)
	require.NoError(t, err)
	assert.Equal(t, "authenticated", user.Role)

	claims := validClaims()
	delete(claims, "sub")
	_, err = ParseAccessToken(createJWT(t, testSecret, claims), testSecret)
	assert.Error(t, err)
}
