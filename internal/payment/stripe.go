package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coursemart/internal/config"

	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Stripe rejects checkout sessions that expire sooner than 30 minutes after creation.
// The extra minute keeps request latency from pushing expires_at under that floor.
const stripeSessionTTL = 31 * time.Minute

type checkoutSessions interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeGateway struct {
	sessions      checkoutSessions
	webhookSecret string
	now           func() time.Time
}

// NewStripe builds the Stripe checkout gateway from config.
func NewStripe(cfg *config.Config) Gateway {
	sessions := &checkoutsession.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.StripeSecretKey}
	return newStripe(sessions, cfg.StripeWebhookSecret)
}

func newStripe(sessions checkoutSessions, webhookSecret string) *stripeGateway {
	return &stripeGateway{sessions: sessions, webhookSecret: webhookSecret, now: time.Now}
}

func (s *stripeGateway) Name() string { return GatewayStripe }

func (s *stripeGateway) OrderTTL() time.Duration { return stripeSessionTTL }

func (s *stripeGateway) Initiate(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.MerchantOrderID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(req.Currency)),
				UnitAmount: stripe.Int64(req.AmountPaise),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.CourseTitle),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(appendQuery(req.RedirectURL, "status", "success")),
		CancelURL:  stripe.String(appendQuery(req.RedirectURL, "status", "cancel")),
		ExpiresAt:  stripe.Int64(s.now().Add(stripeSessionTTL).Unix()),
		Metadata: map[string]string{
			"merchant_order_id": req.MerchantOrderID,
			"user_id":           req.UserID,
			"course_id":         req.CourseID,
		},
	}
	if req.UserEmail != "" {
		params.CustomerEmail = stripe.String(req.UserEmail)
	}
	params.Context = ctx

	sess, err := s.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session for %s: %w", req.MerchantOrderID, err)
	}
	return &CheckoutSession{GatewayOrderID: sess.ID, RedirectURL: sess.URL}, nil
}

func (s *stripeGateway) Status(ctx context.Context, merchantOrderID, gatewayOrderID string) (*OrderStatus, error) {
	if gatewayOrderID == "" {
		return nil, fmt.Errorf("stripe status %s: no checkout session recorded: %w", merchantOrderID, ErrOrderNotFound)
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := s.sessions.Get(gatewayOrderID, params)
	if err != nil {
		return nil, fmt.Errorf("fetch stripe checkout session %s: %w", gatewayOrderID, err)
	}
	st := sessionStatus(sess)
	st.MerchantOrderID = merchantOrderID
	return st, nil
}

func (s *stripeGateway) ParseWebhook(r *http.Request, body []byte) (*OrderStatus, error) {
	event, err := webhook.ConstructEventWithOptions(body, r.Header.Get("Stripe-Signature"), s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}

	switch event.Type {
	case "checkout.session.completed",
		"checkout.session.async_payment_succeeded",
		"checkout.session.async_payment_failed",
		"checkout.session.expired":
	default:
		return nil, fmt.Errorf("%w: %s", ErrIgnoredEvent, event.Type)
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	if sess.ClientReferenceID == "" {
		return nil, fmt.Errorf("%w: session %s has no client_reference_id", ErrInvalidWebhook, sess.ID)
	}

	st := sessionStatus(&sess)
	st.MerchantOrderID = sess.ClientReferenceID
	switch event.Type {
	case "checkout.session.async_payment_failed":
		st.State = StateFailed
		st.Reason = "async_payment_failed"
	case "checkout.session.expired":
		st.State = StateFailed
		st.Reason = "expired"
	}
	return st, nil
}

func sessionStatus(sess *stripe.CheckoutSession) *OrderStatus {
	st := &OrderStatus{
		GatewayOrderID: sess.ID,
		State:          StatePending,
		AmountPaise:    sess.AmountTotal,
	}
	switch {
	case sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		st.State = StateCompleted
	case sess.Status == stripe.CheckoutSessionStatusExpired:
		st.State = StateFailed
		st.Reason = "expired"
	}
	return st
}

func appendQuery(u, key, value string) string {
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
}
