package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply ledger database migrations",
	Long: `Create or upgrade the attendance_records table for the configured
ledger driver (postgres, mysql or sqlite3). Running it twice is a no-op.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	l, err := openLedger(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	version, err := l.Migrate(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	fmt.Printf("Ledger schema at version %d (%s)\n", version, l.Driver())
	return nil
}
