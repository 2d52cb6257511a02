package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/handler"
	"github.com/sakif/repo-explainer/internal/payment"
)

func newPaymentHandler(t *testing.T, upstream http.HandlerFunc, keyID string) *handler.PaymentHandler {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)
	client := payment.NewClient(payment.Config{KeyID: keyID, KeySecret: "rzp_secret", BaseURL: srv.URL}, zap.NewNop())
	return handler.NewPaymentHandler(client, zap.NewNop())
}

func postOrder(h *handler.PaymentHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/razorpay/order", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h.HandleCreateOrder(rr, req)
	return rr
}

func TestPaymentHandler_CreateOrder(t *testing.T) {
	h := newPaymentHandler(t, func(w http.ResponseWriter, r *http.Request) {
		var got struct {
			Amount int64 `json:"amount"`
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"order_9","amount":%d,"currency":"INR"}`, got.Amount)
	}, "rzp_key")

	rr := postOrder(h, `{"amount":250}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var order payment.Order
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&order))
	assert.Equal(t, payment.Order{KeyID: "rzp_key", OrderID: "order_9", Amount: 25000, Currency: "INR"}, order)
}

func TestPaymentHandler_EmptyBodyUsesDefault(t *testing.T) {
	h := newPaymentHandler(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"order_d","amount":9900,"currency":"INR"}`)
	}, "rzp_key")

	rr := postOrder(h, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"amount":9900`)
}

func TestPaymentHandler_Errors(t *testing.T) {
	rejecting := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"description":"amount too small"}}`)
	}

	tests := []struct {
		name        string
		keyID       string
		body        string
		wantStatus  int
		wantError   string
		wantDetails string
	}{
		{name: "malformed body", keyID: "rzp_key", body: `{"amount":`, wantStatus: http.StatusBadRequest, wantError: "Invalid request"},
		{name: "not configured", keyID: "", body: `{}`, wantStatus: http.StatusInternalServerError, wantError: "Razorpay keys are not configured"},
		{name: "upstream rejects", keyID: "rzp_key", body: `{"amount":1}`, wantStatus: http.StatusInternalServerError, wantError: "Failed to create order", wantDetails: "amount too small"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newPaymentHandler(t, rejecting, tt.keyID)
			rr := postOrder(h, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)

			var body handler.ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantError, body.Error)
			if tt.wantDetails != "" {
				assert.Contains(t, body.Details, tt.wantDetails)
			} else {
				assert.Empty(t, body.Details)
			}
		})
	}
}
