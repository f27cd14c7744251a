package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	paymentdomain "github.com/Gizz1e/Gizzle/internal/payment/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func newTestAdapter(t *testing.T, baseURL string, timeout time.Duration) *Adapter {
	t.Helper()
	gw, err := NewFactory().NewAdapter(paymentdomain.AdapterConfig{
		APIKey:        "sk_test_123",
		WebhookSecret: testSecret,
		BaseURL:       baseURL,
		Timeout:       timeout,
	})
	require.NoError(t, err)
	return gw.(*Adapter)
}

func checkoutRequest() paymentdomain.CheckoutSessionRequest {
	return paymentdomain.CheckoutSessionRequest{
		Amount:      decimal.RequireFromString("19.99"),
		Currency:    "usd",
		Description: "Premium Plan",
		SuccessURL:  "https://gizzle.test/subscription-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   "https://gizzle.test/subscriptions",
		Metadata:    map[string]string{"plan_id": "premium", "type": "subscription"},
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	var form map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/checkout/sessions"))
		require.NoError(t, r.ParseForm())
		form = map[string]string{}
		for key := range r.PostForm {
			form[key] = r.PostForm.Get(key)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/pay/cs_test_1"}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, time.Second)
	session, err := adapter.CreateCheckoutSession(context.Background(), checkoutRequest())
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", session.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_1", session.URL)
	assert.Equal(t, "1999", form["line_items[0][price_data][unit_amount]"])
	assert.Equal(t, "usd", form["line_items[0][price_data][currency]"])
	assert.Equal(t, "Premium Plan", form["line_items[0][price_data][product_data][name]"])
	assert.Equal(t, "payment", form["mode"])
	assert.Equal(t, "premium", form["metadata[plan_id]"])
	assert.Equal(t, "https://gizzle.test/subscriptions", form["cancel_url"])
}

func TestCreateCheckoutSessionWithoutKey(t *testing.T) {
	gw, err := NewFactory().NewAdapter(paymentdomain.AdapterConfig{WebhookSecret: testSecret})
	require.NoError(t, err)

	_, err = gw.CreateCheckoutSession(context.Background(), checkoutRequest())
	assert.ErrorIs(t, err, paymentdomain.ErrGatewayUnavailable)

	_, err = gw.GetSessionStatus(context.Background(), "cs_test_1")
	assert.ErrorIs(t, err, paymentdomain.ErrGatewayUnavailable)
}

func TestGetSessionStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/checkout/sessions/cs_test_1"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"cs_test_1",
			"object":"checkout.session",
			"status":"complete",
			"payment_status":"paid",
			"amount_total":1999,
			"currency":"usd",
			"metadata":{"plan_id":"premium"}
		}`))
	}))
	defer server.Close()

	status, err := newTestAdapter(t, server.URL, time.Second).GetSessionStatus(context.Background(), "cs_test_1")
	require.NoError(t, err)

	assert.Equal(t, "complete", status.Status)
	assert.Equal(t, paymentdomain.PaymentStatusPaid, status.PaymentStatus)
	assert.Equal(t, int64(1999), status.AmountTotal)
	assert.Equal(t, "usd", status.Currency)
	assert.Equal(t, "premium", status.Metadata["plan_id"])
}

func TestGetSessionStatusUnknownSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such checkout.session: cs_missing"}}`))
	}))
	defer server.Close()

	_, err := newTestAdapter(t, server.URL, time.Second).GetSessionStatus(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, paymentdomain.ErrGatewayError)
}

func TestGatewayTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := newTestAdapter(t, server.URL, 50*time.Millisecond).GetSessionStatus(context.Background(), "cs_slow")
	assert.ErrorIs(t, err, paymentdomain.ErrGatewayError)
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, time.Second)
	for i := 0; i < breakerThreshold+2; i++ {
		_, err := adapter.GetSessionStatus(context.Background(), "cs_test_1")
		assert.ErrorIs(t, err, paymentdomain.ErrGatewayError)
	}
	assert.Equal(t, int32(breakerThreshold), hits.Load())
}

func TestParseWebhookEventCompleted(t *testing.T) {
	payload := []byte(`{
		"id":"evt_1",
		"object":"event",
		"api_version":"2020-08-27",
		"type":"checkout.session.completed",
		"data":{"object":{"id":"cs_test_1","object":"checkout.session","payment_status":"paid"}}
	}`)
	header := buildStripeSignatureHeader(testSecret, payload, time.Now().Unix())

	event, err := newTestAdapter(t, "", time.Second).ParseWebhookEvent(context.Background(), payload, header)
	require.NoError(t, err)

	assert.Equal(t, "evt_1", event.EventID)
	assert.Equal(t, paymentdomain.EventCheckoutSessionCompleted, event.EventType)
	assert.Equal(t, "cs_test_1", event.SessionID)
	assert.Equal(t, paymentdomain.PaymentStatusPaid, event.PaymentStatus)
}

func TestParseWebhookEventNonCheckoutType(t *testing.T) {
	payload := []byte(`{"id":"evt_2","object":"event","api_version":"2020-08-27","type":"charge.succeeded","data":{"object":{"id":"ch_1","object":"charge"}}}`)
	header := buildStripeSignatureHeader(testSecret, payload, time.Now().Unix())

	event, err := newTestAdapter(t, "", time.Second).ParseWebhookEvent(context.Background(), payload, header)
	require.NoError(t, err)
	assert.Equal(t, "charge.succeeded", event.EventType)
	assert.Empty(t, event.SessionID)
}

func TestParseWebhookEventRejectsBadSignatures(t *testing.T) {
	payload := []byte(`{"id":"evt_1","object":"event","api_version":"2020-08-27","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`)
	adapter := newTestAdapter(t, "", time.Second)
	now := time.Now().Unix()

	cases := map[string]string{
		"wrong secret": buildStripeSignatureHeader("whsec_other", payload, now),
		"empty header": "",
		"garbage":      "not-a-signature",
		"too old":      buildStripeSignatureHeader(testSecret, payload, now-3600),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := adapter.ParseWebhookEvent(context.Background(), payload, header)
			assert.ErrorIs(t, err, paymentdomain.ErrInvalidSignature)
		})
	}
}

func TestParseWebhookEventWithoutSecretFailsVerification(t *testing.T) {
	gw, err := NewFactory().NewAdapter(paymentdomain.AdapterConfig{APIKey: "sk_test"})
	require.NoError(t, err)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	_, err = gw.ParseWebhookEvent(context.Background(), payload, buildStripeSignatureHeader("", payload, time.Now().Unix()))
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidSignature)
}

func TestParseWebhookEventMalformedPayload(t *testing.T) {
	payload := []byte(`{"id":`)
	header := buildStripeSignatureHeader(testSecret, payload, time.Now().Unix())

	_, err := newTestAdapter(t, "", time.Second).ParseWebhookEvent(context.Background(), payload, header)
	assert.ErrorIs(t, err, paymentdomain.ErrMalformedPayload)
}

func TestToMinorUnits(t *testing.T) {
	cents, err := toMinorUnits(decimal.RequireFromString("9.99"))
	require.NoError(t, err)
	assert.Equal(t, int64(999), cents)

	cents, err = toMinorUnits(decimal.RequireFromString("2.005"))
	require.NoError(t, err)
	assert.Equal(t, int64(201), cents)

	_, err = toMinorUnits(decimal.Zero)
	assert.Error(t, err)
}

func buildStripeSignatureHeader(secret string, payload []byte, timestamp int64) string {
	signedPayload := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}
