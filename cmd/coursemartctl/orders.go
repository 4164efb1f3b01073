package main

import (
	"errors"
	"fmt"
	"time"

	"coursemart/internal/model"
	"coursemart/internal/notifications"
	"coursemart/internal/service"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect and settle purchases",
	}
	cmd.AddCommand(ordersPendingCmd())
	cmd.AddCommand(ordersReconcileCmd())
	return cmd
}

func ordersPendingCmd() *cobra.Command {
	var (
		olderThan time.Duration
		limit     int
		verbose   bool
	)
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List purchases still waiting on the gateway, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := openBackend(ctx, verbose)
			if err != nil {
				return err
			}
			defer b.close()

			purchases, err := b.checkout.ListPending(ctx, olderThan, limit)
			if err != nil {
				return err
			}
			if len(purchases) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending orders")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Merchant order", "Gateway", "Amount", "Buyer", "Created"},
				purchaseRows(purchases, time.Now()),
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Only list orders at least this old")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum orders to list")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")
	return cmd
}

func ordersReconcileCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "reconcile <merchantOrderId>",
		Short: "Ask the gateway for the state of an order and apply it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := openBackend(ctx, verbose)
			if err != nil {
				return err
			}
			defer b.close()

			p, err := b.checkout.GetByMerchantOrderID(ctx, args[0])
			if err != nil {
				if errors.Is(err, service.ErrPurchaseNotFound) {
					return fmt.Errorf("no order %s", args[0])
				}
				return err
			}
			before := p.State
			updated, err := b.checkout.Reconcile(ctx, p)
			if err != nil {
				return fmt.Errorf("reconcile %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), reconcileSummary(before, updated))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")
	return cmd
}

func purchaseRows(purchases []model.Purchase, now time.Time) [][]string {
	rows := make([][]string, 0, len(purchases))
	for _, p := range purchases {
		rows = append(rows, []string{
			p.MerchantOrderID,
			p.Gateway,
			notifications.FormatAmount(p.AmountPaise, p.Currency),
			p.UserEmail,
			humanize.RelTime(p.CreatedAt, now, "ago", "from now"),
		})
	}
	return rows
}

func reconcileSummary(before string, p *model.Purchase) string {
	if before == p.State {
		return fmt.Sprintf("%s is still %s", p.MerchantOrderID, p.State)
	}
	msg := fmt.Sprintf("%s: %s -> %s", p.MerchantOrderID, before, p.State)
	if p.FailureReason != "" {
		msg += " (" + p.FailureReason + ")"
	}
	return msg
}
