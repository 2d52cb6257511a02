// Package payment creates Razorpay orders for voluntary donations.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/apperror"
	"github.com/sakif/repo-explainer/internal/httpjson"
)

const (
	// DefaultAmount is charged, in rupees, when the request names none.
	DefaultAmount = 99
	Currency      = "INR"
)

var ErrNotConfigured = apperror.Internal("Razorpay keys are not configured")

type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

// OrderRequest is what the donate button posts. Amount is in rupees.
type OrderRequest struct {
	Amount   float64 `json:"amount"`
	Note     *string `json:"note,omitempty"`
	Quantity *int    `json:"quantity,omitempty"`
}

// Order is handed to the browser checkout widget.
type Order struct {
	KeyID    string `json:"keyId"`
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type orderNotes struct {
	Purpose  string  `json:"purpose"`
	Note     *string `json:"note,omitempty"`
	Quantity *int    `json:"quantity,omitempty"`
}

type createOrderBody struct {
	Amount   int64      `json:"amount"`
	Currency string     `json:"currency"`
	Receipt  string     `json:"receipt"`
	Notes    orderNotes `json:"notes"`
}

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

func (c *Client) Configured() bool {
	return c.cfg.KeyID != "" && c.cfg.KeySecret != ""
}

// Paise converts a rupee amount to paise, substituting DefaultAmount for
// anything not positive.
func Paise(rupees float64) int64 {
	if !(rupees > 0) || math.IsInf(rupees, 0) {
		rupees = DefaultAmount
	}
	return int64(math.Round(rupees * 100))
}

// CreateOrder registers an order with Razorpay. A non-2xx answer becomes
// an upstream error whose Detail is the raw response body.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body := createOrderBody{
		Amount:   Paise(req.Amount),
		Currency: Currency,
		Receipt:  "support_" + xid.New().String(),
		Notes: orderNotes{
			Purpose:  "Support the project",
			Note:     req.Note,
			Quantity: req.Quantity,
		},
	}

	var created razorpayOrder
	err := httpjson.Do(ctx, c.http, http.MethodPost, c.cfg.BaseURL+"/orders", body, &created,
		httpjson.WithBasicAuth(c.cfg.KeyID, c.cfg.KeySecret))
	if err != nil {
		var se *httpjson.StatusError
		if errors.As(err, &se) {
			c.logger.Warn("razorpay rejected order",
				zap.Int("status", se.StatusCode),
				zap.Int64("amount", body.Amount),
			)
			return nil, apperror.UpstreamFailure("Failed to create order", se.Body)
		}
		return nil, fmt.Errorf("payment: creating order: %w",
			apperror.UpstreamFailure("Failed to create order", err.Error()))
	}

	c.logger.Info("razorpay order created",
		zap.String("orderId", created.ID),
		zap.Int64("amount", created.Amount),
	)

	return &Order{
		KeyID:    c.cfg.KeyID,
		OrderID:  created.ID,
		Amount:   created.Amount,
		Currency: created.Currency,
	}, nil
}
