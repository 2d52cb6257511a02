package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/payment"
)

type PaymentHandler struct {
	payments *payment.Client
	logger   *zap.Logger
}

func NewPaymentHandler(payments *payment.Client, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

// HandleCreateOrder answers POST /api/razorpay/order. An empty body or a
// zero amount orders the default support amount.
func (h *PaymentHandler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req payment.OrderRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req, "Invalid request"); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}

	order, err := h.payments.CreateOrder(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, order)
}
