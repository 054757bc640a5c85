// Package payment receives credit purchases from Stripe Checkout.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"bookscan/internal/httpx"
	"bookscan/internal/ledger"
)

const (
	eventCheckoutCompleted = "checkout.session.completed"
	signatureHeader        = "Stripe-Signature"
	maxPayloadBytes        = 64 << 10
)

var ErrUnpaid = errors.New("checkout session not paid")

type Crediter interface {
	CreditPurchaseCompleted(ctx context.Context, evt ledger.PaymentEvent) (ledger.Profile, error)
}

type WebhookHandler struct {
	ledger Crediter
	secret string
	logger *zap.Logger
}

func NewWebhookHandler(ledger Crediter, secret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{ledger: ledger, secret: secret, logger: logger}
}

// PaymentEvent extracts the credit purchase carried by a completed checkout
// session event.
func PaymentEvent(evt stripe.Event) (ledger.PaymentEvent, error) {
	if evt.Data == nil {
		return ledger.PaymentEvent{}, fmt.Errorf("%w: event %s has no data", ledger.ErrInvalidPayment, evt.ID)
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
		return ledger.PaymentEvent{}, fmt.Errorf("%w: decode checkout session: %v", ledger.ErrInvalidPayment, err)
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return ledger.PaymentEvent{}, fmt.Errorf("%w: session %s is %q", ErrUnpaid, session.ID, session.PaymentStatus)
	}
	return ledger.PaymentEvent{
		ID:          evt.ID,
		UserID:      session.ClientReferenceID,
		AmountMinor: session.AmountTotal,
		Currency:    string(session.Currency),
	}, nil
}

// Handle handles POST /v1/payments/webhook
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		httpx.JSONError(w, r, http.StatusServiceUnavailable, "PAYMENTS_DISABLED", "Payments are not configured", nil)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Unreadable body", nil)
		return
	}

	evt, err := webhook.ConstructEventWithOptions(payload, r.Header.Get(signatureHeader), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.logger.Warn("webhook signature rejected", zap.Error(err))
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_SIGNATURE", "Invalid signature", nil)
		return
	}

	log := h.logger.With(zap.String("event_id", evt.ID), zap.String("event_type", string(evt.Type)))
	if string(evt.Type) != eventCheckoutCompleted {
		log.Debug("webhook event ignored")
		httpx.JSONSuccess(w, r, map[string]any{"received": true}, nil)
		return
	}

	purchase, err := PaymentEvent(evt)
	if errors.Is(err, ErrUnpaid) {
		log.Info("unpaid checkout session ignored", zap.Error(err))
		httpx.JSONSuccess(w, r, map[string]any{"received": true}, nil)
		return
	}
	if err != nil {
		h.reject(w, r, log, err)
		return
	}

	p, err := h.ledger.CreditPurchaseCompleted(r.Context(), purchase)
	switch {
	case errors.Is(err, ledger.ErrDuplicateEvent):
		httpx.JSONSuccess(w, r, map[string]any{"received": true, "duplicate": true, "credits": p.Credits}, nil)
	case errors.Is(err, ledger.ErrInvalidPayment):
		h.reject(w, r, log, err)
	case err != nil:
		// Non-2xx makes Stripe redeliver.
		log.Error("credit purchase failed", zap.Error(err))
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	default:
		httpx.JSONSuccess(w, r, map[string]any{"received": true, "credits": p.Credits}, nil)
	}
}

// reject acknowledges a signed event that can never be credited, such as a
// paid session without client_reference_id. Redelivery cannot fix it, so it
// is logged for manual follow-up and answered 200.
func (h *WebhookHandler) reject(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	log.Error("checkout session cannot be credited", zap.Error(err))
	httpx.JSONSuccess(w, r, map[string]any{"received": true, "rejected": true}, nil)
}
