package mysql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"timebill/internal/domain"
)

// Client implements ports.AuditSink by appending fetched entries to a
// MySQL audit table. Computed summaries are never stored, only the raw
// intervals each request fetched.
type Client struct {
	db  *sql.DB
	log *slog.Logger
}

// NewClient opens a MySQL connection using the provided DSN.
// Example DSN: user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
func NewClient(ctx context.Context, dsn string, log *slog.Logger) (*Client, error) {
	if dsn == "" {
		return nil, errors.New("mysql: DSN is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, err
	}
	return &Client{db: db, log: log}, nil
}

// RecordEntries appends one audit row per fetched entry. Rows are plain
// inserts, not upserts: each fetch is its own audit event.
func (c *Client) RecordEntries(ctx context.Context, userID, accountID int64, rng domain.DateRange, entries []domain.TimeEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	const q = `
INSERT INTO billing_fetch_audit
  (user_id, account_id, range_start, range_end, entry_start, entry_end, fetched_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?);
`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	fetchedAt := time.Now().UTC()
	for _, e := range entries {
		if _, err := stmt.ExecContext(
			ctx,
			userID,
			accountID,
			rng.Start.UTC(),
			rng.End.UTC(),
			e.Start.UTC(),
			e.End.UTC(),
			fetchedAt,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.log.Debug("audit sink recorded entries", slog.Int("count", len(entries)))
	return nil
}

// Close closes the underlying DB. Not wired via interface to keep ports minimal.
func (c *Client) Close() error { return c.db.Close() }
