package main

import (
	"strings"
	"testing"
	"time"

	"coursemart/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseRows(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := courseRows([]model.Course{
		{Slug: "go-basics", Title: "Go Basics", PricePaise: 149900, Currency: "INR", Published: true, UpdatedAt: now.Add(-2 * time.Hour)},
		{Slug: "intro", Title: "Intro", PricePaise: 0, Currency: "INR", UpdatedAt: now.Add(-3 * 24 * time.Hour)},
	}, now)

	require.Len(t, rows, 2)
	assert.Equal(t, "go-basics", rows[0][0])
	assert.Contains(t, rows[0][2], "1,499")
	assert.Equal(t, "yes", rows[0][3])
	assert.Equal(t, "2 hours ago", rows[0][4])
	assert.Equal(t, "free", rows[1][2])
	assert.Equal(t, "no", rows[1][3])
	assert.Equal(t, "3 days ago", rows[1][4])
}

func TestPurchaseRows(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := purchaseRows([]model.Purchase{{
		MerchantOrderID: "CM_0123",
		Gateway:         "phonepe",
		AmountPaise:     49900,
		Currency:        "INR",
		UserEmail:       "buyer@example.com",
		CreatedAt:       now.Add(-15 * time.Minute),
	}}, now)

	require.Len(t, rows, 1)
	assert.Equal(t, []string{"CM_0123", "phonepe", rows[0][2], "buyer@example.com", "15 minutes ago"}, rows[0])
	assert.Contains(t, rows[0][2], "499")
}

func TestReconcileSummary(t *testing.T) {
	p := &model.Purchase{MerchantOrderID: "CM_1", State: model.PurchaseStatePending}
	assert.Equal(t, "CM_1 is still PENDING", reconcileSummary(model.PurchaseStatePending, p))

	p.State = model.PurchaseStateFailed
	p.FailureReason = "expired"
	assert.Equal(t, "CM_1: PENDING -> FAILED (expired)", reconcileSummary(model.PurchaseStatePending, p))
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "3"}}, []columnAlignment{alignLeft, alignRight})
	assert.True(t, strings.Contains(out, "A") && strings.Contains(out, "B"))
	assert.Contains(t, out, "3")
	assert.Empty(t, renderTable(nil, nil, nil))
}
