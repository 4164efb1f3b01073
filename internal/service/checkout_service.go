package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coursemart/internal/config"
	"coursemart/internal/model"
	"coursemart/internal/notifications"
	"coursemart/internal/payment"
	"coursemart/internal/pubsub"
	"coursemart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Failure reasons recorded on purchases.
const (
	ReasonAmountMismatch    = "amount_mismatch"
	ReasonDuplicatePurchase = "duplicate_purchase"
	ReasonExpired           = "expired"
	ReasonPaymentFailed     = "payment_failed"
)

// unconfiguredOrderTTL stands in for the order TTL of a gateway that is no longer configured.
const unconfiguredOrderTTL = 24 * time.Hour

// CheckoutResult is returned when a checkout starts. RedirectURL is empty for free courses.
type CheckoutResult struct {
	Purchase    *model.Purchase
	RedirectURL string
}

// CheckoutService runs purchases from checkout to a terminal state.
type CheckoutService interface {
	Checkout(ctx context.Context, user *model.User, courseID, gateway string) (*CheckoutResult, error)
	// Status returns the caller's purchase, reconciling it first while it is PENDING.
	Status(ctx context.Context, user *model.User, merchantOrderID string) (*model.Purchase, error)
	HandleWebhook(ctx context.Context, gateway string, r *http.Request, body []byte) (*model.Purchase, error)
	// Reconcile asks the gateway for the order state and applies it.
	Reconcile(ctx context.Context, p *model.Purchase) (*model.Purchase, error)
	ListPending(ctx context.Context, olderThan time.Duration, limit int) ([]model.Purchase, error)
	GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*model.Purchase, error)
}

// CheckoutConfig holds the checkout settings taken from config.
type CheckoutConfig struct {
	DefaultGateway  string
	FrontendBaseURL string
	PurchaseTopic   string
	// Grace is added to a gateway's order TTL before a PENDING order is given up on.
	Grace time.Duration
}

// NewCheckoutConfig takes the checkout settings from the process config.
func NewCheckoutConfig(cfg *config.Config) CheckoutConfig {
	return CheckoutConfig{
		DefaultGateway:  cfg.PaymentGateway,
		FrontendBaseURL: cfg.FrontendBaseURL,
		PurchaseTopic:   cfg.PubSubPurchaseTopic,
		Grace:           time.Duration(cfg.ReconcileGraceSec) * time.Second,
	}
}

type checkoutService struct {
	courses   repository.CourseRepository
	purchases repository.PurchaseRepository
	gateways  map[string]payment.Gateway
	publisher pubsub.Publisher
	mailer    notifications.Sender
	cfg       CheckoutConfig
	now       func() time.Time
	logger    zerolog.Logger
}

func NewCheckoutService(
	courses repository.CourseRepository,
	purchases repository.PurchaseRepository,
	gateways []payment.Gateway,
	publisher pubsub.Publisher,
	mailer notifications.Sender,
	cfg CheckoutConfig,
	logger zerolog.Logger,
) CheckoutService {
	byName := make(map[string]payment.Gateway, len(gateways))
	for _, g := range gateways {
		byName[g.Name()] = g
	}
	return &checkoutService{
		courses:   courses,
		purchases: purchases,
		gateways:  byName,
		publisher: publisher,
		mailer:    mailer,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.With().Str("service", "CheckoutService").Logger(),
	}
}

// NewMerchantOrderID returns an id PhonePe accepts: at most 63 characters of [A-Za-z0-9_].
func NewMerchantOrderID() string {
	return "CM_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *checkoutService) gateway(name string) (payment.Gateway, error) {
	if name == "" {
		name = s.cfg.DefaultGateway
	}
	g, ok := s.gateways[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, name)
	}
	return g, nil
}

func (s *checkoutService) Checkout(ctx context.Context, user *model.User, courseID, gatewayName string) (*CheckoutResult, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil || !course.Published {
		return nil, ErrCourseNotFound
	}
	owned, err := s.purchases.HasCompleted(ctx, user.UserID, courseID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, ErrAlreadyPurchased
	}

	p := &model.Purchase{
		UserID:          user.UserID,
		UserEmail:       user.Email,
		CourseID:        course.ID,
		MerchantOrderID: NewMerchantOrderID(),
		AmountPaise:     course.PricePaise,
		Currency:        course.Currency,
	}

	if course.IsFree() {
		p.Gateway = payment.GatewayFree
		p.State = model.PurchaseStateCompleted
		if err := s.purchases.Create(ctx, p); err != nil {
			if errors.Is(err, repository.ErrDuplicatePurchase) {
				return nil, ErrAlreadyPurchased
			}
			return nil, err
		}
		s.logger.Info().Str("merchant_order_id", p.MerchantOrderID).Str("course_id", course.ID).Msg("Free enrollment recorded")
		s.onCompleted(ctx, p, course)
		return &CheckoutResult{Purchase: p}, nil
	}

	gw, err := s.gateway(gatewayName)
	if err != nil {
		return nil, err
	}
	if gw.Name() == payment.GatewayPhonePe && !strings.EqualFold(course.Currency, "INR") {
		return nil, ErrCourseNotPurchasable
	}

	p.Gateway = gw.Name()
	p.State = model.PurchaseStatePending
	if err := s.purchases.Create(ctx, p); err != nil {
		return nil, err
	}

	sess, err := gw.Initiate(ctx, payment.CheckoutRequest{
		MerchantOrderID: p.MerchantOrderID,
		UserID:          user.UserID,
		UserEmail:       user.Email,
		CourseID:        course.ID,
		CourseTitle:     course.Title,
		AmountPaise:     p.AmountPaise,
		Currency:        p.Currency,
		RedirectURL:     s.returnURL(p.MerchantOrderID),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("merchant_order_id", p.MerchantOrderID).Str("gateway", gw.Name()).Msg("Gateway rejected checkout")
		if _, markErr := s.purchases.MarkFailed(ctx, p.MerchantOrderID, truncate(err.Error(), 500)); markErr != nil {
			s.logger.Error().Err(markErr).Str("merchant_order_id", p.MerchantOrderID).Msg("Failed to mark purchase failed")
		}
		return nil, fmt.Errorf("initiate %s checkout: %w", gw.Name(), err)
	}

	if err := s.purchases.SetGatewayOrderID(ctx, p.MerchantOrderID, sess.GatewayOrderID); err != nil {
		s.logger.Error().Err(err).Str("merchant_order_id", p.MerchantOrderID).Msg("Failed to store gateway order id")
		return nil, err
	}
	p.GatewayOrderID = sess.GatewayOrderID

	s.logger.Info().
		Str("merchant_order_id", p.MerchantOrderID).
		Str("gateway", gw.Name()).
		Str("course_id", course.ID).
		Int64("amount_paise", p.AmountPaise).
		Msg("Checkout started")
	return &CheckoutResult{Purchase: p, RedirectURL: sess.RedirectURL}, nil
}

func (s *checkoutService) returnURL(merchantOrderID string) string {
	return strings.TrimRight(s.cfg.FrontendBaseURL, "/") + "/checkout/return?merchantOrderId=" + url.QueryEscape(merchantOrderID)
}

func (s *checkoutService) Status(ctx context.Context, user *model.User, merchantOrderID string) (*model.Purchase, error) {
	p, err := s.purchases.GetByMerchantOrderID(ctx, merchantOrderID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPurchaseNotFound
	}
	if p.UserID != user.UserID {
		return nil, ErrForbidden
	}
	if p.IsTerminal() {
		return p, nil
	}
	updated, err := s.Reconcile(ctx, p)
	if err != nil {
		// The buyer still gets the stored state; the reconcile worker retries later.
		s.logger.Warn().Err(err).Str("merchant_order_id", merchantOrderID).Msg("Status reconcile failed")
		return p, nil
	}
	return updated, nil
}

func (s *checkoutService) HandleWebhook(ctx context.Context, gatewayName string, r *http.Request, body []byte) (*model.Purchase, error) {
	gw, ok := s.gateways[gatewayName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, gatewayName)
	}
	st, err := gw.ParseWebhook(r, body)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("gateway", gatewayName).
		Str("merchant_order_id", st.MerchantOrderID).
		Str("state", st.State).
		Msg("Webhook received")
	return s.apply(ctx, st)
}

func (s *checkoutService) Reconcile(ctx context.Context, p *model.Purchase) (*model.Purchase, error) {
	if p.IsTerminal() {
		return p, nil
	}
	if err := s.purchases.MarkChecked(ctx, p.MerchantOrderID); err != nil {
		return nil, err
	}

	gw, err := s.gateway(p.Gateway)
	if err != nil {
		// Nobody can answer for this order any more; it can only run out its time.
		return s.expireIfStale(ctx, p, unconfiguredOrderTTL, err)
	}
	st, err := gw.Status(ctx, p.MerchantOrderID, p.GatewayOrderID)
	if err != nil {
		if errors.Is(err, payment.ErrOrderNotFound) {
			return s.expireIfStale(ctx, p, gw.OrderTTL(), err)
		}
		return nil, err
	}
	st.MerchantOrderID = p.MerchantOrderID

	updated, err := s.apply(ctx, st)
	if err != nil {
		return nil, err
	}
	if updated.State != model.PurchaseStatePending {
		return updated, nil
	}
	return s.expireIfStale(ctx, updated, gw.OrderTTL(), nil)
}

// expireIfStale fails a PENDING purchase once ttl plus the grace period has passed since it was created.
// Before the deadline it returns cause, or the purchase unchanged when cause is nil.
func (s *checkoutService) expireIfStale(ctx context.Context, p *model.Purchase, ttl time.Duration, cause error) (*model.Purchase, error) {
	deadline := p.CreatedAt.Add(ttl + s.cfg.Grace)
	if s.now().Before(deadline) {
		if cause != nil {
			return nil, cause
		}
		return p, nil
	}
	if _, err := s.purchases.MarkFailed(ctx, p.MerchantOrderID, ReasonExpired); err != nil {
		return nil, err
	}
	s.logger.Info().Err(cause).Str("merchant_order_id", p.MerchantOrderID).Time("deadline", deadline).Msg("Pending order expired")
	return s.reload(ctx, p.MerchantOrderID)
}

// apply moves a PENDING purchase to the state the gateway reports. Terminal purchases are left alone,
// so replays and out-of-order notifications are harmless. Side effects run only on the transition.
func (s *checkoutService) apply(ctx context.Context, st *payment.OrderStatus) (*model.Purchase, error) {
	p, err := s.purchases.GetByMerchantOrderID(ctx, st.MerchantOrderID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPurchaseNotFound
	}
	if p.IsTerminal() {
		return p, nil
	}

	switch st.State {
	case payment.StateCompleted:
		if st.AmountPaise != 0 && st.AmountPaise != p.AmountPaise {
			s.logger.Error().
				Str("merchant_order_id", p.MerchantOrderID).
				Int64("expected_paise", p.AmountPaise).
				Int64("paid_paise", st.AmountPaise).
				Msg("Gateway amount does not match purchase")
			if _, err := s.purchases.MarkFailed(ctx, p.MerchantOrderID, ReasonAmountMismatch); err != nil {
				return nil, err
			}
			break
		}
		moved, err := s.purchases.MarkCompleted(ctx, p.MerchantOrderID, st.GatewayOrderID)
		if errors.Is(err, repository.ErrDuplicatePurchase) {
			// Paid through a second order while another one already completed.
			s.logger.Error().
				Str("merchant_order_id", p.MerchantOrderID).
				Str("gateway", p.Gateway).
				Str("gateway_order_id", st.GatewayOrderID).
				Str("user_id", p.UserID).
				Str("course_id", p.CourseID).
				Int64("amount_paise", p.AmountPaise).
				Msg("Payment captured for a course the user already owns; refund required")
			if _, err := s.purchases.MarkFailed(ctx, p.MerchantOrderID, ReasonDuplicatePurchase); err != nil {
				return nil, err
			}
			break
		}
		if err != nil {
			return nil, err
		}
		if moved {
			updated, err := s.reload(ctx, p.MerchantOrderID)
			if err != nil {
				return nil, err
			}
			s.logger.Info().Str("merchant_order_id", p.MerchantOrderID).Msg("Purchase completed")
			s.onCompleted(ctx, updated, nil)
			return updated, nil
		}
	case payment.StateFailed:
		reason := st.Reason
		if reason == "" {
			reason = ReasonPaymentFailed
		}
		moved, err := s.purchases.MarkFailed(ctx, p.MerchantOrderID, reason)
		if err != nil {
			return nil, err
		}
		if moved {
			s.logger.Info().Str("merchant_order_id", p.MerchantOrderID).Str("reason", reason).Msg("Purchase failed")
		}
	default:
		return p, nil
	}
	return s.reload(ctx, p.MerchantOrderID)
}

func (s *checkoutService) reload(ctx context.Context, merchantOrderID string) (*model.Purchase, error) {
	p, err := s.purchases.GetByMerchantOrderID(ctx, merchantOrderID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPurchaseNotFound
	}
	return p, nil
}

// onCompleted publishes the purchase event and mails the receipt. Both are best-effort.
func (s *checkoutService) onCompleted(ctx context.Context, p *model.Purchase, course *model.Course) {
	completedAt := s.now()
	if p.CompletedAt != nil {
		completedAt = *p.CompletedAt
	}
	if _, err := pubsub.PublishJSON(ctx, s.publisher, s.cfg.PurchaseTopic, pubsub.PurchaseCompleted{
		Type:            pubsub.PurchaseCompletedType,
		PurchaseID:      p.ID,
		MerchantOrderID: p.MerchantOrderID,
		UserID:          p.UserID,
		CourseID:        p.CourseID,
		Gateway:         p.Gateway,
		AmountPaise:     p.AmountPaise,
		Currency:        p.Currency,
		CompletedAt:     completedAt,
	}); err != nil {
		s.logger.Error().Err(err).Str("merchant_order_id", p.MerchantOrderID).Msg("Failed to publish purchase event")
	}

	if p.AmountPaise == 0 || p.UserEmail == "" {
		return
	}
	if course == nil {
		c, err := s.courses.GetByID(ctx, p.CourseID)
		if err != nil || c == nil {
			s.logger.Error().Err(err).Str("course_id", p.CourseID).Msg("Failed to load course for receipt")
			return
		}
		course = c
	}
	if err := s.mailer.SendPurchaseReceipt(ctx, notifications.Receipt{
		Email:           p.UserEmail,
		CourseTitle:     course.Title,
		AmountPaise:     p.AmountPaise,
		Currency:        p.Currency,
		MerchantOrderID: p.MerchantOrderID,
	}); err != nil {
		s.logger.Error().Err(err).Str("merchant_order_id", p.MerchantOrderID).Msg("Failed to send receipt")
	}
}

func (s *checkoutService) ListPending(ctx context.Context, olderThan time.Duration, limit int) ([]model.Purchase, error) {
	return s.purchases.ListPending(ctx, s.now().Add(-olderThan), limit)
}

func (s *checkoutService) GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*model.Purchase, error) {
	p, err := s.purchases.GetByMerchantOrderID(ctx, merchantOrderID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPurchaseNotFound
	}
	return p, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
