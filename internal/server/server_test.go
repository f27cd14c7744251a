package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	catalogdomain "github.com/Gizz1e/Gizzle/internal/catalog/domain"
	catalogservice "github.com/Gizz1e/Gizzle/internal/catalog/service"
	checkoutdomain "github.com/Gizz1e/Gizzle/internal/checkout/domain"
	"github.com/Gizz1e/Gizzle/internal/clock"
	"github.com/Gizz1e/Gizzle/internal/config"
	"github.com/Gizz1e/Gizzle/internal/observability"
	obsmetrics "github.com/Gizz1e/Gizzle/internal/observability/metrics"
	paymentdomain "github.com/Gizz1e/Gizzle/internal/payment/domain"
	"github.com/Gizz1e/Gizzle/internal/ratelimit"
	reconciliationdomain "github.com/Gizz1e/Gizzle/internal/reconciliation/domain"
	transactiondomain "github.com/Gizz1e/Gizzle/internal/transaction/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCheckout struct {
	mock.Mock
}

func (m *mockCheckout) CreateSubscriptionCheckout(ctx context.Context, req checkoutdomain.CreateRequest) (*checkoutdomain.Result, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*checkoutdomain.Result)
	return result, args.Error(1)
}

func (m *mockCheckout) CreatePurchaseCheckout(ctx context.Context, req checkoutdomain.CreateRequest) (*checkoutdomain.Result, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*checkoutdomain.Result)
	return result, args.Error(1)
}

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) CheckStatus(ctx context.Context, sessionID string) (*reconciliationdomain.StatusResult, error) {
	args := m.Called(ctx, sessionID)
	result, _ := args.Get(0).(*reconciliationdomain.StatusResult)
	return result, args.Error(1)
}

func (m *mockReconciler) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	args := m.Called(ctx, payload, signature)
	return args.Error(0)
}

func (m *mockReconciler) Sweep(ctx context.Context, olderThan time.Duration, limit int) (*reconciliationdomain.SweepResult, error) {
	args := m.Called(ctx, olderThan, limit)
	result, _ := args.Get(0).(*reconciliationdomain.SweepResult)
	return result, args.Error(1)
}

func newTestServer(t *testing.T) (*Server, *mockCheckout, *mockReconciler) {
	t.Helper()
	return newTestServerWith(t, config.Config{}, nil)
}

func newTestServerWith(t *testing.T, cfg config.Config, limiter *ratelimit.CheckoutLimiter) (*Server, *mockCheckout, *mockReconciler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine, err := NewEngine(cfg, observability.Config{}, obsmetrics.NewHTTPMetrics(prometheus.NewRegistry(), obsmetrics.Config{}))
	require.NoError(t, err)
	co := &mockCheckout{}
	rec := &mockReconciler{}
	srv := NewServer(ServerParams{
		Gin:             engine,
		Cfg:             cfg,
		Log:             zap.NewNop(),
		Clock:           clock.NewFakeClock(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)),
		Catalog:         catalogservice.Default(),
		CheckoutSvc:     co,
		Reconciler:      rec,
		CheckoutLimiter: limiter,
	})
	return srv, co, rec
}

func newRedisLimiter(t *testing.T, rate float64, burst int) (*miniredis.Miniredis, *ratelimit.CheckoutLimiter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	limiter := ratelimit.NewCheckoutLimiter(client, config.Config{
		RateLimit: config.RateLimitConfig{Enabled: true, CheckoutRate: rate, CheckoutBurst: burst},
	})
	require.NotNil(t, limiter)
	return mr, limiter
}

func checkoutRequest(memberID, forwardedFor string) *http.Request {
	target := "/api/subscriptions/checkout?plan_id=basic"
	if memberID != "" {
		target += "&member_id=" + memberID
	}
	req := httptest.NewRequest(http.MethodPost, target, nil)
	req.Header.Set("Origin", "https://gizzle.example")
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestWelcomeAndHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "2026-03-14T09:30:00Z", health["timestamp"])
}

func TestListPlansAndItems(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/subscriptions/plans", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var plans []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plans))
	require.Len(t, plans, 3)
	assert.Equal(t, "basic", plans[0]["id"])
	assert.Equal(t, "9.99", plans[0]["price"])
	assert.Equal(t, true, plans[1]["is_popular"])

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/api/purchases/items", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 3)
}

func TestCreateSubscriptionCheckoutUsesOriginHeader(t *testing.T) {
	srv, co, _ := newTestServer(t)
	plan := catalogdomain.Plan{ID: "premium", Name: "Premium Plan"}

	co.On("CreateSubscriptionCheckout", mock.Anything, checkoutdomain.CreateRequest{
		PlanID:   "premium",
		Origin:   "https://gizzle.example",
		MemberID: "member-7",
	}).Return(&checkoutdomain.Result{
		CheckoutURL: "https://checkout.example.test/pay/cs_1",
		SessionID:   "cs_1",
		Plan:        &plan,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/checkout?plan_id=premium", nil)
	req.Header.Set("Origin", "https://gizzle.example")
	req.Header.Set(headerMemberID, "member-7")
	rec := serve(srv, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cs_1", body["session_id"])
	assert.Equal(t, "https://checkout.example.test/pay/cs_1", body["checkout_url"])
	assert.Equal(t, "premium", body["plan"].(map[string]any)["id"])
	co.AssertExpectations(t)
}

func TestCreatePurchaseCheckoutFallsBackToRequestHost(t *testing.T) {
	srv, co, _ := newTestServer(t)
	item := catalogdomain.Item{ID: "premium_upload"}

	co.On("CreatePurchaseCheckout", mock.Anything, checkoutdomain.CreateRequest{
		ItemID: "premium_upload",
		Origin: "https://api.gizzle.example",
	}).Return(&checkoutdomain.Result{SessionID: "cs_2", CheckoutURL: "https://pay/cs_2", Item: &item}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "http://internal:8080/api/purchases/checkout?item_id=premium_upload", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "api.gizzle.example, proxy.local")
	rec := serve(srv, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"item"`)
	co.AssertExpectations(t)
}

func TestCheckoutMissingSelection(t *testing.T) {
	srv, co, _ := newTestServer(t)

	rec := serve(srv, httptest.NewRequest(http.MethodPost, "/api/subscriptions/checkout", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Type)
	co.AssertNotCalled(t, "CreateSubscriptionCheckout", mock.Anything, mock.Anything)
}

func TestCheckoutErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{checkoutdomain.ErrInvalidSelection, http.StatusBadRequest, "validation_error"},
		{checkoutdomain.ErrInvalidOrigin, http.StatusBadRequest, "validation_error"},
		{paymentdomain.ErrGatewayUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{fmt.Errorf("create session: %w", paymentdomain.ErrGatewayError), http.StatusBadGateway, "gateway_error"},
		{fmt.Errorf("record transaction: %w", transactiondomain.ErrDuplicateSession), http.StatusConflict, "conflict"},
		{fmt.Errorf("disk full"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.kind+"_"+http.StatusText(tc.status), func(t *testing.T) {
			srv, co, _ := newTestServer(t)
			co.On("CreateSubscriptionCheckout", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/checkout?plan_id=basic", nil)
			req.Header.Set("Origin", "https://gizzle.example")
			rec := serve(srv, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.kind, decodeError(t, rec).Type)
		})
	}
}

func TestGetPaymentStatus(t *testing.T) {
	srv, _, rec := newTestServer(t)
	rec.On("CheckStatus", mock.Anything, "cs_1").Return(&reconciliationdomain.StatusResult{
		SessionID:     "cs_1",
		Status:        "complete",
		PaymentStatus: "paid",
		AmountTotal:   1999,
		Currency:      "usd",
		Metadata:      map[string]string{"plan_id": "premium"},
	}, nil).Once()
	rec.On("CheckStatus", mock.Anything, "cs_missing").Return(nil, transactiondomain.ErrNotFound).Once()

	resp := serve(srv, httptest.NewRequest(http.MethodGet, "/api/payments/status/cs_1", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "paid", body["payment_status"])
	assert.Equal(t, float64(1999), body["amount_total"])
	assert.Equal(t, "premium", body["metadata"].(map[string]any)["plan_id"])

	resp = serve(srv, httptest.NewRequest(http.MethodGet, "/api/payments/status/cs_missing", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	rec.AssertExpectations(t)
}

func TestStripeWebhook(t *testing.T) {
	srv, _, rec := newTestServer(t)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	rec.On("HandleWebhook", mock.Anything, payload, "t=1,v1=abc").Return(nil).Once()
	rec.On("HandleWebhook", mock.Anything, payload, "t=1,v1=forged").Return(paymentdomain.ErrInvalidSignature).Once()
	rec.On("HandleWebhook", mock.Anything, []byte(`nope`), "t=1,v1=abc").Return(paymentdomain.ErrMalformedPayload).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/stripe", bytes.NewReader(payload))
	req.Header.Set(headerStripeSignature, "t=1,v1=abc")
	resp := serve(srv, req)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"success"}`, resp.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/webhook/stripe", bytes.NewReader(payload))
	req.Header.Set(headerStripeSignature, "t=1,v1=forged")
	resp = serve(srv, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "invalid_signature", decodeError(t, resp).Type)

	req = httptest.NewRequest(http.MethodPost, "/api/webhook/stripe", bytes.NewReader([]byte(`nope`)))
	req.Header.Set(headerStripeSignature, "t=1,v1=abc")
	resp = serve(srv, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	rec.AssertExpectations(t)
}

func TestMetricsAndHealthProbes(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckoutRateLimitDisabledPassesThrough(t *testing.T) {
	srv, co, _ := newTestServer(t)
	co.On("CreateSubscriptionCheckout", mock.Anything, mock.Anything).Return(&checkoutdomain.Result{SessionID: "cs_3"}, nil).Times(3)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/checkout?plan_id=basic", nil)
		req.Header.Set("Origin", "https://gizzle.example")
		rec := serve(srv, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
	co.AssertExpectations(t)
}

func TestCheckoutRateLimitRejectsOverBurst(t *testing.T) {
	_, limiter := newRedisLimiter(t, 0.01, 2)
	srv, co, _ := newTestServerWith(t, config.Config{}, limiter)
	co.On("CreateSubscriptionCheckout", mock.Anything, mock.Anything).Return(&checkoutdomain.Result{SessionID: "cs_rl"}, nil).Times(2)

	// A fresh member id per request still draws from the caller's bucket.
	resp := serve(srv, checkoutRequest("member-1", ""))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "2", resp.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", resp.Header().Get("X-RateLimit-Remaining"))

	resp = serve(srv, checkoutRequest("member-2", ""))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "0", resp.Header().Get("X-RateLimit-Remaining"))

	resp = serve(srv, checkoutRequest("member-3", ""))
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "2", resp.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", resp.Header().Get("X-RateLimit-Remaining"))
	retryAfter, err := strconv.Atoi(resp.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retryAfter, 1)
	body := decodeError(t, resp)
	assert.Equal(t, "rate_limited", body.Type)
	assert.Equal(t, "too many requests", body.Message)

	co.AssertExpectations(t)
}

func TestCheckoutRateLimitIgnoresUntrustedForwardedFor(t *testing.T) {
	_, limiter := newRedisLimiter(t, 0.01, 1)
	srv, co, _ := newTestServerWith(t, config.Config{}, limiter)
	co.On("CreatePurchaseCheckout", mock.Anything, mock.Anything).Return(&checkoutdomain.Result{SessionID: "cs_p"}, nil).Once()

	for i, forwarded := range []string{"198.51.100.7", "198.51.100.8"} {
		req := httptest.NewRequest(http.MethodPost, "/api/purchases/checkout?item_id=premium_upload", nil)
		req.Header.Set("Origin", "https://gizzle.example")
		req.Header.Set("X-Forwarded-For", forwarded)
		resp := serve(srv, req)
		if i == 0 {
			assert.Equal(t, http.StatusOK, resp.Code)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, resp.Code)
		}
	}
	co.AssertExpectations(t)
}

func TestCheckoutRateLimitHonorsTrustedProxy(t *testing.T) {
	_, limiter := newRedisLimiter(t, 0.01, 1)
	// httptest requests arrive from 192.0.2.1.
	srv, co, _ := newTestServerWith(t, config.Config{TrustedProxies: []string{"192.0.2.1"}}, limiter)
	co.On("CreateSubscriptionCheckout", mock.Anything, mock.Anything).Return(&checkoutdomain.Result{SessionID: "cs_t"}, nil).Times(2)

	assert.Equal(t, http.StatusOK, serve(srv, checkoutRequest("", "198.51.100.7")).Code)
	assert.Equal(t, http.StatusOK, serve(srv, checkoutRequest("", "198.51.100.8")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(srv, checkoutRequest("", "198.51.100.8")).Code)
	co.AssertExpectations(t)
}

func TestCheckoutRateLimitFailsOpenOnRedisError(t *testing.T) {
	mr, limiter := newRedisLimiter(t, 0.01, 1)
	srv, co, _ := newTestServerWith(t, config.Config{}, limiter)
	co.On("CreateSubscriptionCheckout", mock.Anything, mock.Anything).Return(&checkoutdomain.Result{SessionID: "cs_open"}, nil).Times(2)
	mr.Close()

	for i := 0; i < 2; i++ {
		resp := serve(srv, checkoutRequest("", ""))
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Empty(t, resp.Header().Get("X-RateLimit-Limit"))
		assert.Empty(t, resp.Header().Get("Retry-After"))
	}
	co.AssertExpectations(t)
}

func TestNewEngineRejectsBadTrustedProxy(t *testing.T) {
	_, err := NewEngine(config.Config{TrustedProxies: []string{"not-an-ip"}}, observability.Config{}, obsmetrics.NewHTTPMetrics(prometheus.NewRegistry(), obsmetrics.Config{}))
	assert.Error(t, err)
}

func TestStripeWebhookRejectsOversizedBody(t *testing.T) {
	srv, _, rec := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/stripe", bytes.NewReader(bytes.Repeat([]byte("a"), maxWebhookBodyBytes+1)))
	req.Header.Set(headerStripeSignature, "t=1,v1=abc")
	resp := serve(srv, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.Equal(t, "payload_too_large", decodeError(t, resp).Type)
	rec.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything, mock.Anything)
}

func TestFirstHeaderValue(t *testing.T) {
	assert.Equal(t, "", firstHeaderValue(""))
	assert.Equal(t, "https", firstHeaderValue("https"))
	assert.Equal(t, "a.example", firstHeaderValue(" a.example , b.example"))
}
