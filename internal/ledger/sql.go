package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kozaktomas/face-attendance/internal/config"
)

const (
	insertPostgres = `INSERT INTO attendance_records (email, class_name, created_at) VALUES ($1, $2, $3) RETURNING id`
	insertDefault  = `INSERT INTO attendance_records (email, class_name, created_at) VALUES (?, ?, ?)`
	selectAll      = `SELECT id, email, class_name, created_at FROM attendance_records ORDER BY id`
)

// SQLLedger stores records in the attendance_records table of a PostgreSQL,
// SQLite or MySQL database.
type SQLLedger struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// Open connects to the configured database and verifies the connection.
// SQLite is limited to one connection so concurrent appends are serialized.
func Open(ctx context.Context, cfg config.LedgerConfig) (*SQLLedger, error) {
	if cfg.DSN == "" {
		return nil, errors.New("ledger DSN is required")
	}

	dsn := cfg.DSN
	switch cfg.Driver {
	case config.DriverPostgres, config.DriverSQLite:
	case config.DriverMySQL:
		// created_at must scan into time.Time.
		mcfg, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql DSN: %w", err)
		}
		mcfg.ParseTime = true
		mcfg.Loc = time.UTC
		dsn = mcfg.FormatDSN()
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(time.Hour)
		db.SetConnMaxIdleTime(10 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(db, cfg.Driver)
}

// New wraps an already opened database.
func New(db *sql.DB, driver string) (*SQLLedger, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	switch driver {
	case config.DriverPostgres, config.DriverSQLite, config.DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}
	return &SQLLedger{
		db:     db,
		driver: driver,
		now:    time.Now,
	}, nil
}

// DB returns the underlying sql.DB for direct access.
func (l *SQLLedger) DB() *sql.DB {
	return l.db
}

// Driver returns the database/sql driver name.
func (l *SQLLedger) Driver() string {
	return l.driver
}

func (l *SQLLedger) Append(ctx context.Context, identity, sessionLabel string) (Record, error) {
	rec := Record{
		Email:     identity,
		ClassName: sessionLabel,
		Timestamp: l.now().UTC().Truncate(time.Microsecond),
	}

	if l.driver == config.DriverPostgres {
		err := l.db.QueryRowContext(ctx, insertPostgres, rec.Email, rec.ClassName, rec.Timestamp).Scan(&rec.ID)
		if err != nil {
			return Record{}, fmt.Errorf("inserting attendance record: %w", err)
		}
		return rec, nil
	}

	result, err := l.db.ExecContext(ctx, insertDefault, rec.Email, rec.ClassName, rec.Timestamp)
	if err != nil {
		return Record{}, fmt.Errorf("inserting attendance record: %w", err)
	}
	rec.ID, err = result.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("reading attendance record id: %w", err)
	}
	return rec, nil
}

func (l *SQLLedger) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, selectAll)
	if err != nil {
		return nil, fmt.Errorf("querying attendance records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.ClassName, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning attendance record: %w", err)
		}
		rec.Timestamp = rec.Timestamp.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attendance records: %w", err)
	}
	return records, nil
}

// Close closes the connection pool.
func (l *SQLLedger) Close() error {
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("closing database connection: %w", err)
	}
	return nil
}
