package model

import "time"

// Purchase states. PENDING is the only non-terminal state.
const (
	PurchaseStatePending   = "PENDING"
	PurchaseStateCompleted = "COMPLETED"
	PurchaseStateFailed    = "FAILED"
)

// Purchase records a checkout attempt for a course by a user
type Purchase struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"user_id"`
	UserEmail       string     `db:"user_email" json:"user_email"`
	CourseID        string     `db:"course_id" json:"course_id"`
	Gateway         string     `db:"gateway" json:"gateway"`
	MerchantOrderID string     `db:"merchant_order_id" json:"merchant_order_id"`
	GatewayOrderID  string     `db:"gateway_order_id" json:"gateway_order_id"`
	AmountPaise     int64      `db:"amount_paise" json:"amount_paise"`
	Currency        string     `db:"currency" json:"currency"`
	State           string     `db:"state" json:"state"`
	FailureReason   string     `db:"failure_reason" json:"failure_reason"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// IsTerminal reports whether the purchase can no longer change state.
func (p *Purchase) IsTerminal() bool {
	return p.State == PurchaseStateCompleted || p.State == PurchaseStateFailed
}
