// Package payment implements the checkout gateways a course can be bought through.
package payment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"coursemart/internal/config"
)

// Gateway names as stored on a purchase.
const (
	GatewayPhonePe = "phonepe"
	GatewayStripe  = "stripe"
	GatewayFree    = "free"
)

// Normalised order states. They match the purchase states.
const (
	StatePending   = "PENDING"
	StateCompleted = "COMPLETED"
	StateFailed    = "FAILED"
)

var (
	// ErrInvalidWebhook is returned when a webhook fails authentication or cannot be parsed.
	ErrInvalidWebhook = errors.New("invalid webhook")
	// ErrIgnoredEvent is returned for authentic webhooks that carry no order state change.
	ErrIgnoredEvent = errors.New("webhook event ignored")
	// ErrOrderNotFound is returned by Status when the gateway has no record of the order to query.
	ErrOrderNotFound = errors.New("order unknown to gateway")
)

// Gateway is a hosted checkout provider.
type Gateway interface {
	Name() string
	// OrderTTL is how long a created order stays payable.
	OrderTTL() time.Duration
	Initiate(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// Status fetches the current state of an order. gatewayOrderID is the id returned by Initiate.
	Status(ctx context.Context, merchantOrderID, gatewayOrderID string) (*OrderStatus, error)
	// ParseWebhook authenticates a webhook request and extracts the order state it reports.
	ParseWebhook(r *http.Request, body []byte) (*OrderStatus, error)
}

type CheckoutRequest struct {
	MerchantOrderID string
	UserID          string
	UserEmail       string
	CourseID        string
	CourseTitle     string
	AmountPaise     int64
	Currency        string
	// RedirectURL is where the buyer lands after paying or cancelling.
	RedirectURL string
}

type CheckoutSession struct {
	GatewayOrderID string
	RedirectURL    string
}

// OrderStatus is a gateway's view of an order.
type OrderStatus struct {
	MerchantOrderID string
	GatewayOrderID  string
	State           string
	// AmountPaise is what the gateway charged, 0 when it did not say.
	AmountPaise int64
	Reason      string
}

// normaliseState maps a gateway state to PENDING, COMPLETED or FAILED.
func normaliseState(s string) string {
	switch s {
	case StateCompleted:
		return StateCompleted
	case StateFailed:
		return StateFailed
	default:
		return StatePending
	}
}

// NewGatewaysFromConfig builds every gateway that has credentials configured.
func NewGatewaysFromConfig(cfg *config.Config) []Gateway {
	var gateways []Gateway
	if cfg.PhonePeClientID != "" && cfg.PhonePeClientSecret != "" {
		gateways = append(gateways, NewPhonePe(cfg))
	}
	if cfg.StripeSecretKey != "" {
		gateways = append(gateways, NewStripe(cfg))
	}
	return gateways
}
