package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/api/v1/operation"
	"coursemart/internal/middleware"
	"coursemart/internal/model"
	"coursemart/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CheckoutHandler handles purchases and the gateway webhooks.
type CheckoutHandler struct {
	checkout service.CheckoutService
	catalog  service.CatalogService
	logger   zerolog.Logger
}

func NewCheckoutHandler(checkout service.CheckoutService, catalog service.CatalogService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		catalog:  catalog,
		logger:   logger,
	}
}

func getUserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := middleware.UserFromContext(ctx)
	if !ok || user.UserID == "" {
		return nil, huma.Error401Unauthorized("User ID not found in context")
	}
	return user, nil
}

func (h *CheckoutHandler) Checkout(ctx context.Context, input *operation.CheckoutInput) (*operation.CheckoutOutput, error) {
	user, err := getUserFromContext(ctx)
	if err != nil {
		return nil, err
	}
	res, err := h.checkout.Checkout(ctx, user, input.Body.CourseID, input.Body.Gateway)
	if err != nil {
		return nil, humaError(err, "Failed to start checkout")
	}
	return &operation.CheckoutOutput{
		Body: dto.CheckoutResponseDTO{
			MerchantOrderID: res.Purchase.MerchantOrderID,
			State:           res.Purchase.State,
			RedirectURL:     res.RedirectURL,
		},
	}, nil
}

func (h *CheckoutHandler) GetCheckout(ctx context.Context, input *operation.GetCheckoutInput) (*operation.GetCheckoutOutput, error) {
	user, err := getUserFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := h.checkout.Status(ctx, user, input.MerchantOrderID)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			// Other users' orders are indistinguishable from missing ones.
			return nil, huma.Error404NotFound(service.ErrPurchaseNotFound.Error())
		}
		return nil, humaError(err, "Failed to retrieve purchase")
	}
	return &operation.GetCheckoutOutput{Body: toPurchaseDTO(p)}, nil
}

func (h *CheckoutHandler) MyPurchases(ctx context.Context, input *operation.MyPurchasesInput) (*operation.MyPurchasesOutput, error) {
	user, err := getUserFromContext(ctx)
	if err != nil {
		return nil, err
	}
	purchases, err := h.catalog.MyPurchases(ctx, user.UserID)
	if err != nil {
		return nil, humaError(err, "Failed to list purchases")
	}
	out := make([]dto.PurchaseResponseDTO, 0, len(purchases))
	for i := range purchases {
		out = append(out, toPurchaseDTO(&purchases[i]))
	}
	return &operation.MyPurchasesOutput{Body: out}, nil
}

// Webhook receives a payment notification for the gateway named in the path.
// Ignored events are acknowledged so the gateway stops retrying them.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	gateway := chi.URLParam(r, "gateway")
	log := h.logger.With().Str("gateway", gateway).Logger()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	p, err := h.checkout.HandleWebhook(r.Context(), gateway, r, body)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"merchant_order_id": p.MerchantOrderID, "state": p.State}, log)
	case errors.Is(err, service.ErrIgnoredEvent):
		log.Debug().Err(err).Msg("Webhook ignored")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"}, log)
	case errors.Is(err, service.ErrUnknownGateway):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidWebhook):
		log.Warn().Err(err).Msg("Rejected webhook")
		writeError(w, http.StatusUnauthorized, "invalid webhook")
	default:
		writeServiceError(w, err, "Failed to process webhook", log)
	}
}
