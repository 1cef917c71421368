package http

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	adapterRepo "github.com/2sipping0/pixelnextdigital/internal/adapter/repository"
	"github.com/2sipping0/pixelnextdigital/internal/domain/catalog"
	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
	"github.com/2sipping0/pixelnextdigital/internal/domain/orderid"
	"github.com/2sipping0/pixelnextdigital/internal/domain/provider"
	"github.com/2sipping0/pixelnextdigital/internal/infrastructure/provider/coinbase"
	stripeProvider "github.com/2sipping0/pixelnextdigital/internal/infrastructure/provider/stripe"
	"github.com/2sipping0/pixelnextdigital/internal/infrastructure/supabase"
	"github.com/2sipping0/pixelnextdigital/internal/middleware/auth"
	"github.com/2sipping0/pixelnextdigital/internal/usecase"
)

const (
	testStripeWebhookSecret   = "whsec_handler_test"
	testCoinbaseWebhookSecret = "cb_handler_test"
	testJWTSecret             = "jwt-handler-test"
	testSessionName           = "orderflow_admin"
	testBaseURL               = "https://shop.test"
)

// fakeCardGateway creates intents locally and verifies webhooks with the
// real Stripe provider.
type fakeCardGateway struct {
	mu       sync.Mutex
	verifier *stripeProvider.StripeProvider
	intents  []*provider.CreateIntentRequest
	err      error
}

func (g *fakeCardGateway) CreatePaymentIntent(_ context.Context, req *provider.CreateIntentRequest) (*provider.CreateIntentResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.intents = append(g.intents, req)
	id := "pi_test_" + req.OrderID
	return &provider.CreateIntentResponse{IntentID: id, ClientSecret: id + "_secret_abc"}, nil
}

func (g *fakeCardGateway) ParseWebhook(payload []byte, signature string) (*provider.WebhookEvent, error) {
	return g.verifier.ParseWebhook(payload, signature)
}

// recordingMailer counts sent emails per kind and order
type recordingMailer struct {
	mu        sync.Mutex
	customer  []string
	admin     []string
	customErr error
}

func (m *recordingMailer) SendCustomerConfirmation(_ context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.customErr != nil {
		return m.customErr
	}
	m.customer = append(m.customer, order.OrderID)
	return nil
}

func (m *recordingMailer) SendAdminAlert(_ context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admin = append(m.admin, order.OrderID)
	return nil
}

// fakeAdmins accepts one email/password pair and issues HS256 tokens
type fakeAdmins struct {
	mu      sync.Mutex
	revoked []string
}

func (a *fakeAdmins) SignInWithPassword(_ context.Context, email, password string) (*supabase.Session, error) {
	if email != "admin@shop.test" || password != "correct-horse" {
		return nil, supabase.ErrInvalidCredentials
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "admin-1",
		"email": email,
		"role":  "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testJWTSecret))
	if err != nil {
		return nil, err
	}
	return &supabase.Session{
		AccessToken: token,
		TokenType:   "bearer",
		User:        supabase.User{ID: "admin-1", Email: email},
	}, nil
}

func (a *fakeAdmins) SignOut(_ context.Context, accessToken string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked = append(a.revoked, accessToken)
	return nil
}

type testEnv struct {
	echo     *echo.Echo
	orders   *adapterRepo.MemoryOrderRepository
	events   *adapterRepo.MemoryWebhookEventRepository
	card     *fakeCardGateway
	mailer   *recordingMailer
	admins   *fakeAdmins
	coinbase *httptest.Server

	mu         sync.Mutex
	lastCharge map[string]interface{}
}

func (env *testEnv) chargeBody() map[string]interface{} {
	env.mu.Lock()
	defer env.mu.Unlock()
	return env.lastCharge
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	env := &testEnv{
		echo:   echo.New(),
		orders: adapterRepo.NewMemoryOrderRepository(),
		events: adapterRepo.NewMemoryWebhookEventRepository(),
		card: &fakeCardGateway{
			verifier: stripeProvider.NewStripeProvider("sk_test_unused", testStripeWebhookSecret, logger),
		},
		mailer: &recordingMailer{},
		admins: &fakeAdmins{},
	}

	env.coinbase = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		env.mu.Lock()
		env.lastCharge = body
		env.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"charge_1","code":"CODE1","hosted_url":"https://commerce.coinbase.com/charges/CODE1","expires_at":"2026-03-01T13:00:00Z"}}`))
	}))
	t.Cleanup(env.coinbase.Close)

	crypto := coinbase.NewCoinbaseProvider("cb_key", testCoinbaseWebhookSecret, env.coinbase.URL, logger)

	notifications := usecase.NewNotificationService(env.mailer, adapterRepo.NewMemoryNotificationLedger(), nil, logger)
	reconciler := usecase.NewReconciliationService(env.orders, env.events, notifications, logger)
	ids := orderid.NewGenerator(orderid.WithSource(rand.NewSource(1)), orderid.WithLocation(time.UTC))
	orderService := usecase.NewOrderService(env.orders, catalog.Default(), ids, notifications, logger)

	payments := NewPaymentHandler(env.card, crypto, orderService, testBaseURL, logger)
	webhooks := NewWebhookHandler(env.card, crypto, reconciler, logger)
	orderHandler := NewOrderHandler(orderService, logger)
	admin := NewAdminHandler(orderService, env.admins, AdminSessionConfig{Name: testSessionName, MaxAge: 3600, BaseURL: testBaseURL}, logger)

	e := env.echo
	e.Use(session.Middleware(auth.NewSessionStore("handler-test-cookie-secret-123456", false)))
	api := e.Group("/api")
	api.GET("/plans", NewPlansHandler(catalog.Default()).GetPlans)
	api.POST("/create-payment-intent", payments.CreatePaymentIntent)
	api.POST("/create-crypto-charge", payments.CreateCryptoCharge)
	api.POST("/payments", payments.RecordPayment)
	api.POST("/orders", orderHandler.CreateOrder)
	api.POST("/orders/confirm", orderHandler.ConfirmOrder)
	api.POST("/webhook/stripe", webhooks.HandleStripe)
	api.POST("/webhook/coinbase", webhooks.HandleCoinbase)
	api.POST("/orders/identity", orderHandler.NewIdentity)
	api.POST("/admin/login", admin.Login)
	api.POST("/auth/signout", admin.SignOut)

	protected := api.Group("/admin", auth.JWTMiddleware(auth.JWTConfig{
		Secret:      testJWTSecret,
		SessionName: testSessionName,
		Logger:      logger,
	}))
	protected.GET("/orders", admin.ListOrders)
	protected.GET("/orders/:id", admin.GetOrder)

	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var raw []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		raw = b
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (env *testEnv) seedOrder(t *testing.T, orderID, plan string, method model.PaymentMethod) {
	t.Helper()
	display, err := catalog.Default().PriceDisplay(plan)
	require.NoError(t, err)
	_, err = env.orders.Create(context.Background(), &model.Order{
		OrderID:       orderID,
		BusinessName:  "Acme Bakery",
		Email:         "owner@acme.test",
		Phone:         "555-0100",
		SelectedPlan:  plan,
		PaymentMethod: method,
		TotalAmount:   display,
		Status:        model.OrderStatusPending,
	})
	require.NoError(t, err)
}
