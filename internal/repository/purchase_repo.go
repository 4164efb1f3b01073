package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicatePurchase is returned when the user already completed a purchase of the course.
var ErrDuplicatePurchase = errors.New("course already purchased")

// PurchaseRepository defines data access for purchases.
// State changes only ever leave PENDING; terminal rows are never rewritten.
type PurchaseRepository interface {
	Create(ctx context.Context, p *model.Purchase) error
	GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*model.Purchase, error)
	ListByUser(ctx context.Context, userID string) ([]model.Purchase, error)
	HasCompleted(ctx context.Context, userID, courseID string) (bool, error)
	// ListPending returns PENDING purchases created before the cutoff. Purchases never checked
	// come first, then the least recently checked, so a stuck order cannot hold the head of the list.
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]model.Purchase, error)
	// MarkChecked records that the purchase was just reconciled against its gateway.
	MarkChecked(ctx context.Context, merchantOrderID string) error
	SetGatewayOrderID(ctx context.Context, merchantOrderID, gatewayOrderID string) error
	// MarkCompleted moves a PENDING purchase to COMPLETED and reports whether it did.
	// It returns ErrDuplicatePurchase when the user already has another COMPLETED purchase of the course.
	MarkCompleted(ctx context.Context, merchantOrderID, gatewayOrderID string) (bool, error)
	// MarkFailed moves a PENDING purchase to FAILED and reports whether it did.
	MarkFailed(ctx context.Context, merchantOrderID, reason string) (bool, error)
}

type purchaseRepo struct {
	pool *pgxpool.Pool
}

// NewPurchaseRepo creates a new PurchaseRepository.
func NewPurchaseRepo(pool *pgxpool.Pool) PurchaseRepository {
	return &purchaseRepo{pool: pool}
}

const purchaseColumns = `id, user_id, user_email, course_id, gateway, merchant_order_id, gateway_order_id,
	amount_paise, currency, state, failure_reason, created_at, updated_at, completed_at`

func scanPurchase(row pgx.Row, p *model.Purchase) error {
	return row.Scan(
		&p.ID,
		&p.UserID,
		&p.UserEmail,
		&p.CourseID,
		&p.Gateway,
		&p.MerchantOrderID,
		&p.GatewayOrderID,
		&p.AmountPaise,
		&p.Currency,
		&p.State,
		&p.FailureReason,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.CompletedAt,
	)
}

func (r *purchaseRepo) Create(ctx context.Context, p *model.Purchase) error {
	const q = `
		INSERT INTO purchases (user_id, user_email, course_id, gateway, merchant_order_id, gateway_order_id,
			amount_paise, currency, state, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CASE WHEN $9 = 'COMPLETED' THEN NOW() END)
		RETURNING ` + purchaseColumns
	row := r.pool.QueryRow(ctx, q, p.UserID, p.UserEmail, p.CourseID, p.Gateway, p.MerchantOrderID,
		p.GatewayOrderID, p.AmountPaise, p.Currency, p.State)
	if err := scanPurchase(row, p); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePurchase
		}
		return fmt.Errorf("insert purchase %s: %w", p.MerchantOrderID, err)
	}
	return nil
}

func (r *purchaseRepo) GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*model.Purchase, error) {
	var p model.Purchase
	err := scanPurchase(r.pool.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE merchant_order_id = $1`, merchantOrderID), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch purchase %s: %w", merchantOrderID, err)
	}
	return &p, nil
}

func (r *purchaseRepo) ListByUser(ctx context.Context, userID string) ([]model.Purchase, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases for user %s: %w", userID, err)
	}
	return collectPurchases(rows)
}

func (r *purchaseRepo) HasCompleted(ctx context.Context, userID, courseID string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM purchases
			WHERE user_id = $1 AND course_id = $2 AND state = 'COMPLETED'
		)
	`
	var owned bool
	if err := r.pool.QueryRow(ctx, q, userID, courseID).Scan(&owned); err != nil {
		return false, fmt.Errorf("check ownership of course %s for user %s: %w", courseID, userID, err)
	}
	return owned, nil
}

func (r *purchaseRepo) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]model.Purchase, error) {
	const q = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE state = 'PENDING' AND gateway <> 'free' AND created_at < $1
		ORDER BY last_checked_at NULLS FIRST, created_at
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, q, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending purchases: %w", err)
	}
	return collectPurchases(rows)
}

func (r *purchaseRepo) MarkChecked(ctx context.Context, merchantOrderID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE purchases SET last_checked_at = NOW() WHERE merchant_order_id = $1`, merchantOrderID)
	if err != nil {
		return fmt.Errorf("mark purchase %s checked: %w", merchantOrderID, err)
	}
	return nil
}

func (r *purchaseRepo) SetGatewayOrderID(ctx context.Context, merchantOrderID, gatewayOrderID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE purchases SET gateway_order_id = $1, updated_at = NOW()
		WHERE merchant_order_id = $2
	`, gatewayOrderID, merchantOrderID)
	if err != nil {
		return fmt.Errorf("set gateway order id for %s: %w", merchantOrderID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *purchaseRepo) MarkCompleted(ctx context.Context, merchantOrderID, gatewayOrderID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE purchases
		SET state = 'COMPLETED',
			gateway_order_id = COALESCE(NULLIF($2, ''), gateway_order_id),
			completed_at = NOW(),
			updated_at = NOW()
		WHERE merchant_order_id = $1 AND state = 'PENDING'
	`, merchantOrderID, gatewayOrderID)
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrDuplicatePurchase
		}
		return false, fmt.Errorf("mark purchase %s completed: %w", merchantOrderID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *purchaseRepo) MarkFailed(ctx context.Context, merchantOrderID, reason string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE purchases
		SET state = 'FAILED', failure_reason = $2, updated_at = NOW()
		WHERE merchant_order_id = $1 AND state = 'PENDING'
	`, merchantOrderID, reason)
	if err != nil {
		return false, fmt.Errorf("mark purchase %s failed: %w", merchantOrderID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func collectPurchases(rows pgx.Rows) ([]model.Purchase, error) {
	defer rows.Close()
	purchases := []model.Purchase{}
	for rows.Next() {
		var p model.Purchase
		if err := scanPurchase(rows, &p); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}
	return purchases, nil
}
