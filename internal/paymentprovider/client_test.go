package paymentprovider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/eltawla-payments/internal/lib/payerr"
	"github.com/magabrotheeeer/eltawla-payments/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("stripe", srv.URL+"/v1/", "sk_test", time.Second)
}

func TestClient_CreatePaymentMethod(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_methods", r.URL.Path)
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "sk_test", user)

		var req CreatePaymentMethodRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "card", req.Type)
		assert.Equal(t, "4242424242424242", req.Card.Number)
		assert.Equal(t, 12, req.Card.ExpMonth)
		assert.Equal(t, 2030, req.Card.ExpYear)
		assert.Equal(t, "Amira Ben Salah", req.BillingDetails.Name)

		_, _ = w.Write([]byte(`{"id":"pm_1","type":"card","card":{"brand":"visa","last4":"4242","exp_month":12,"exp_year":2030}}`))
	})

	got, err := client.CreatePaymentMethod(context.Background(), models.CardDetails{
		Number:     "4242424242424242",
		CVC:        "123",
		HolderName: "Amira Ben Salah",
	}, 12, 2030)
	require.NoError(t, err)
	assert.Equal(t, &models.RegisteredCard{
		ProviderMethodID: "pm_1",
		Brand:            "visa",
		Last4:            "4242",
		ExpMonth:         12,
		ExpYear:          2030,
	}, got)
}

func TestClient_GatewayErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode payerr.Code
		wantRaw  string
	}{
		{
			name:     "invalid card",
			status:   http.StatusPaymentRequired,
			body:     `{"error":{"type":"card_error","code":"invalid_card","message":"Invalid card"}}`,
			wantCode: payerr.CodeInvalidCard,
			wantRaw:  "invalid_card",
		},
		{
			name:     "decline code wins when known",
			status:   http.StatusPaymentRequired,
			body:     `{"error":{"type":"card_error","code":"card_declined","decline_code":"insufficient_funds"}}`,
			wantCode: payerr.CodeInsufficientFunds,
			wantRaw:  "insufficient_funds",
		},
		{
			name:     "unknown decline code keeps main code",
			status:   http.StatusPaymentRequired,
			body:     `{"error":{"type":"card_error","code":"card_declined","decline_code":"do_not_honor"}}`,
			wantCode: payerr.CodeCardDeclined,
			wantRaw:  "card_declined",
		},
		{
			name:     "unknown code",
			status:   http.StatusBadRequest,
			body:     `{"error":{"code":"unknown_xyz"}}`,
			wantCode: payerr.CodeUnrecognized,
			wantRaw:  "unknown_xyz",
		},
		{
			name:     "server error without body",
			status:   http.StatusBadGateway,
			body:     `oops`,
			wantCode: payerr.CodeAPIConnection,
			wantRaw:  "api_connection_error",
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     ``,
			wantCode: payerr.CodeRateLimit,
			wantRaw:  "rate_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.CreatePaymentMethod(context.Background(), models.CardDetails{Number: "4000000000000002"}, 1, 2030)
			require.Error(t, err)

			var gwErr *payerr.GatewayError
			require.True(t, errors.As(err, &gwErr))
			assert.Equal(t, tt.wantCode, gwErr.Code)
			assert.Equal(t, tt.wantRaw, gwErr.RawCode)
			assert.Equal(t, tt.status, gwErr.StatusCode)
		})
	}
}

func TestClient_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	client := NewClient("stripe", srv.URL, "sk_test", time.Second)

	err := client.DetachPaymentMethod(context.Background(), "pm_1")

	var gwErr *payerr.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, payerr.CodeAPIConnection, gwErr.Code)
}

func TestClient_DetachPaymentMethod(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "/v1/payment_methods/pm_1/detach", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"pm_1"}`))
	})

	require.NoError(t, client.DetachPaymentMethod(context.Background(), "pm_1"))
	assert.True(t, called)

	err := client.DetachPaymentMethod(context.Background(), "")
	assert.True(t, payerr.IsValidation(err))
}

func TestClient_EmptyIntentIDIsValidation(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("gateway must not be called")
	})

	_, err := client.ConfirmPaymentIntent(context.Background(), "", "pm_1")
	assert.True(t, payerr.IsValidation(err))
	_, err = client.RetrievePaymentIntent(context.Background(), "")
	assert.True(t, payerr.IsValidation(err))
}

func TestClient_RetrievePaymentIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payment_intents/pi_7", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"pi_7","amount":900,"currency":"tnd","status":"requires_confirmation",
			"metadata":{"user_id":"u1"}}`))
	})

	got, err := client.RetrievePaymentIntent(context.Background(), "pi_7")
	require.NoError(t, err)
	assert.Equal(t, "pi_7", got.ID)
	assert.Equal(t, "TND", got.Currency)
	assert.Equal(t, "u1", got.Metadata["user_id"])
}

func TestClient_CreatePaymentIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))

		var req CreatePaymentIntentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(45000), req.Amount)
		assert.Equal(t, "tnd", req.Currency)
		assert.Equal(t, "pm_123", req.PaymentMethod)
		assert.True(t, req.Confirm)
		assert.Equal(t, "u1", req.Metadata["user_id"])

		_, _ = w.Write([]byte(`{"id":"pi_1","amount":45000,"currency":"tnd","status":"succeeded","payment_method":"pm_123",
			"description":"Dinner reservation","metadata":{"user_id":"u1"},
			"payment_method_details":{"card":{"brand":"visa","last4":"4242"}}}`))
	})

	got, err := client.CreatePaymentIntent(context.Background(), models.IntentParams{
		Amount:          45000,
		Currency:        "TND",
		PaymentMethodID: "pm_123",
		Description:     "Dinner reservation",
		Metadata:        map[string]string{"user_id": "u1"},
		Confirm:         true,
		IdempotencyKey:  "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, &models.PaymentIntent{
		ID:              "pi_1",
		Amount:          45000,
		Currency:        "TND",
		Status:          "succeeded",
		PaymentMethodID: "pm_123",
		Description:     "Dinner reservation",
		Metadata:        map[string]string{"user_id": "u1"},
		CardBrand:       "visa",
		CardLast4:       "4242",
	}, got)
}

func TestClient_CreatePaymentIntent_GeneratesIdempotencyKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Len(t, r.Header.Get("Idempotency-Key"), 36)
		_, _ = w.Write([]byte(`{"id":"pi_2","status":"processing"}`))
	})

	got, err := client.CreatePaymentIntent(context.Background(), models.IntentParams{Amount: 100, Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, "pi_2", got.ID)
}

func TestClient_ConfirmPaymentIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_9/confirm", r.URL.Path)

		var req ConfirmPaymentIntentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pm_9", req.PaymentMethod)

		_, _ = w.Write([]byte(`{"id":"pi_9","amount":1200,"currency":"eur","status":"succeeded","payment_method":"pm_9"}`))
	})

	got, err := client.ConfirmPaymentIntent(context.Background(), "pi_9", "pm_9")
	require.NoError(t, err)
	assert.Equal(t, "succeeded", got.Status)
	assert.Equal(t, "EUR", got.Currency)
}

func TestClient_InvalidResponseBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := client.ConfirmPaymentIntent(context.Background(), "pi_1", "pm_1")
	assert.True(t, payerr.IsGateway(err))
}
