package ledger

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/kozaktomas/face-attendance/internal/config"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

var gooseDialects = map[string]goose.Dialect{
	config.DriverPostgres: goose.DialectPostgres,
	config.DriverSQLite:   goose.DialectSQLite3,
	config.DriverMySQL:    goose.DialectMySQL,
}

func (l *SQLLedger) provider() (*goose.Provider, error) {
	dialect, ok := gooseDialects[l.driver]
	if !ok {
		return nil, fmt.Errorf("no migrations for driver %q", l.driver)
	}
	sub, err := fs.Sub(migrationsFS, "migrations/"+l.driver)
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}
	p, err := goose.NewProvider(dialect, l.db, sub)
	if err != nil {
		return nil, fmt.Errorf("creating migration provider: %w", err)
	}
	return p, nil
}

// Migrate applies all pending migrations and returns the resulting schema version.
func (l *SQLLedger) Migrate(ctx context.Context) (int64, error) {
	p, err := l.provider()
	if err != nil {
		return 0, err
	}
	if _, err := p.Up(ctx); err != nil {
		return 0, fmt.Errorf("applying migrations: %w", err)
	}
	version, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}
