package dto

import "time"

type CheckoutRequestDTO struct {
	CourseID string `json:"course_id" format:"uuid" doc:"Course to buy"`
	Gateway  string `json:"gateway,omitempty" enum:"phonepe,stripe" doc:"Payment gateway; the configured default when empty"`
}

type CheckoutResponseDTO struct {
	MerchantOrderID string `json:"merchant_order_id"`
	State           string `json:"state"`
	RedirectURL     string `json:"redirect_url,omitempty" doc:"Gateway page to send the buyer to; empty for free courses"`
}

type PurchaseResponseDTO struct {
	MerchantOrderID string     `json:"merchant_order_id"`
	CourseID        string     `json:"course_id"`
	Gateway         string     `json:"gateway"`
	AmountPaise     int64      `json:"amount_paise"`
	Amount          string     `json:"amount"`
	Currency        string     `json:"currency"`
	State           string     `json:"state"`
	FailureReason   string     `json:"failure_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}
