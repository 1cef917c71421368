package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
)

func (env *testEnv) withCookies(method, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) login(t *testing.T) []*http.Cookie {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/admin/login", map[string]string{
		"email":    "admin@shop.test",
		"password": "correct-horse",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/admin/login", map[string]string{
		"email":    "admin@shop.test",
		"password": "correct-horse",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]interface{}{"id": "admin-1", "email": "admin@shop.test"}, body["user"])
	assert.Contains(t, rec.Header().Get("Set-Cookie"), testSessionName+"=")
}

func TestAdminLogin_FormBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login",
		strings.NewReader("email=admin%40shop.test&password=correct-horse"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAdminLogin_Rejections(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"wrong password", map[string]string{"email": "admin@shop.test", "password": "nope"}, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"missing password", map[string]string{"email": "admin@shop.test"}, http.StatusBadRequest, "INVALID_ARGUMENT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/admin/login", tt.body, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode(t, rec)["code"])
			assert.Empty(t, rec.Header().Get("Set-Cookie"))
		})
	}
}

func TestAdminOrders_RequireSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.withCookies(http.MethodGet, "/api/admin/orders", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH_REQUIRED", decode(t, rec)["code"])
}

func TestAdminOrders_ListAndDetail(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, "PND-AD-1", "Basic", model.PaymentMethodCard)
	env.seedOrder(t, "PND-AD-2", "Professional", model.PaymentMethodCrypto)

	payload := stripeEvent("evt_ad_1", "payment_intent.succeeded", "pi_ad_1", "PND-AD-1", 30000, "succeeded")
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/webhook/stripe", payload, stripeHeaders(t, payload)).Code)

	cookies := env.login(t)

	rec := env.withCookies(http.MethodGet, "/api/admin/orders", cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	orders, ok := decode(t, rec)["orders"].([]interface{})
	require.True(t, ok)
	assert.Len(t, orders, 2)

	rec = env.withCookies(http.MethodGet, "/api/admin/orders/PND-AD-1", cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	detail := decode(t, rec)
	order, ok := detail["order"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "paid", order["status"])
	payments, ok := detail["payments"].([]interface{})
	require.True(t, ok)
	require.Len(t, payments, 1)
	assert.Equal(t, "pi_ad_1", payments[0].(map[string]interface{})["payment_id"])

	rec = env.withCookies(http.MethodGet, "/api/admin/orders/PND-AD-2", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, decode(t, rec)["payments"])

	rec = env.withCookies(http.MethodGet, "/api/admin/orders/PND-NOPE", cookies)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec)["code"])
}

func TestAdminSignOut(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	rec := env.withCookies(http.MethodPost, "/api/auth/signout", cookies)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, testBaseURL+"/admin/login", rec.Header().Get(echo.HeaderLocation))
	assert.Len(t, env.admins.revoked, 1)

	cleared := rec.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.Less(t, cleared[0].MaxAge, 0)

	rec = env.withCookies(http.MethodGet, "/api/admin/orders", cleared)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminSignOut_WithoutSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.withCookies(http.MethodPost, "/api/auth/signout", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, env.admins.revoked)
}
