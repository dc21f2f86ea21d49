package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// NewDBConnection opens the pool and pings it.
func NewDBConnection(connString string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS whatsapp_dispatches (
	id                TEXT PRIMARY KEY,
	to_address        TEXT NOT NULL,
	from_address      TEXT NOT NULL,
	content_sid       TEXT NOT NULL,
	content_variables JSONB NOT NULL DEFAULT '{}'::jsonb,
	status            TEXT NOT NULL,
	message_sid       TEXT,
	provider_status   TEXT,
	error_code        INTEGER,
	error_message     TEXT,
	created_at        TIMESTAMPTZ NOT NULL,
	completed_at      TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_whatsapp_dispatches_created_at ON whatsapp_dispatches (created_at DESC);
`

// Migrate creates the journal table when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
