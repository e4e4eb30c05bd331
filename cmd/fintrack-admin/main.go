// Command fintrack-admin runs maintenance tasks against the SQLite store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

var (
	dbPath  string
	rootCmd = &cobra.Command{
		Use:   "fintrack-admin",
		Short: "Maintenance commands for the fintrack store",
		Long: `fintrack-admin applies schema migrations, recomputes budget spending
from recorded transactions and purges expired token revocations.

It reads the same environment as the API server; --db overrides SQLITE_DB_PATH.`,
		SilenceUsage:      true,
		PersistentPreRunE: initLogging,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default: $SQLITE_DB_PATH)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(purgeTokensCmd())
}

func main() {
	cli.LoadEnvFile()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogging(_ *cobra.Command, _ []string) error {
	cli.SetupLogger(config.Load())
	return nil
}

// sqlitePath resolves the database the command operates on.
func sqlitePath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	cfg := config.Load()
	if cfg.DataBackend != string(backend.SQLiteBackend) {
		return "", fmt.Errorf("DATA_BACKEND is %q; admin commands need sqlite or an explicit --db", cfg.DataBackend)
	}
	return cfg.SQLiteDBPath, nil
}

// openStore opens the SQLite store, running pending migrations.
func openStore(ctx context.Context) (*backend.Result, error) {
	path, err := sqlitePath()
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(slog.Default()).Open(ctx, backend.Config{
		Type:         backend.SQLiteBackend,
		SQLiteDBPath: path,
	})
}

func logger() *slog.Logger {
	return slog.Default().With(log.FieldComponent, "admin")
}
