package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/worker"
)

func purgeTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-tokens",
		Short: "Delete token revocations past their expiry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := worker.NewTokenJanitor(store.Store, 0, logger()).Purge(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired revocations\n", n)
			return nil
		},
	}
}
