package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/services"
)

func reconcileCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute budget spending from recorded transactions",
		Long: `Recompute the spent amount of every budget owned by a user from the
expense transactions created since each budget, writing back any drift.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			userID := user
			if strings.Contains(user, "@") {
				u, err := store.Store.GetUserByEmail(ctx, user)
				if err != nil {
					return fmt.Errorf("look up %s: %w", user, err)
				}
				userID = u.ID
			}

			results, err := services.NewBudgetService(store.Store, store.Store, logger()).Reconcile(ctx, userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			changed := 0
			for _, r := range results {
				mark := " "
				if r.Changed {
					mark = "*"
					changed++
				}
				fmt.Fprintf(out, "%s %-24s %12s -> %12s (limit %s)\n",
					mark, r.Budget.Category, r.Previous, r.Budget.Spent, r.Budget.Limit)
			}
			fmt.Fprintf(out, "%d budgets checked, %d corrected\n", len(results), changed)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id or email (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
