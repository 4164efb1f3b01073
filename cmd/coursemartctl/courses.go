package main

import (
	"fmt"
	"time"

	"coursemart/internal/model"
	"coursemart/internal/notifications"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func coursesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Inspect the course catalog",
	}
	cmd.AddCommand(coursesListCmd())
	return cmd
}

func coursesListCmd() *cobra.Command {
	var publishedOnly, verbose bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List courses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := openBackend(ctx, verbose)
			if err != nil {
				return err
			}
			defer b.close()

			courses, err := b.courses.List(ctx, publishedOnly)
			if err != nil {
				return err
			}
			if len(courses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No courses")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Slug", "Title", "Price", "Published", "Updated"},
				courseRows(courses, time.Now()),
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&publishedOnly, "published", false, "Only list published courses")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")
	return cmd
}

func courseRows(courses []model.Course, now time.Time) [][]string {
	rows := make([][]string, 0, len(courses))
	for _, c := range courses {
		published := "no"
		if c.Published {
			published = "yes"
		}
		price := notifications.FormatAmount(c.PricePaise, c.Currency)
		if c.IsFree() {
			price = "free"
		}
		rows = append(rows, []string{
			c.Slug,
			c.Title,
			price,
			published,
			humanize.RelTime(c.UpdatedAt, now, "ago", "from now"),
		})
	}
	return rows
}
