package operation

import "coursemart/internal/api/v1/dto"

// Checkout Operations

type CheckoutInput struct {
	Body dto.CheckoutRequestDTO `json:"body"`
}

type CheckoutOutput struct {
	Body dto.CheckoutResponseDTO `json:"body"`
}

type GetCheckoutInput struct {
	MerchantOrderID string `path:"merchantOrderId" doc:"Merchant order ID returned by checkout"`
}

type GetCheckoutOutput struct {
	Body dto.PurchaseResponseDTO `json:"body"`
}

type MyPurchasesInput struct{}

type MyPurchasesOutput struct {
	Body []dto.PurchaseResponseDTO `json:"body"`
}
