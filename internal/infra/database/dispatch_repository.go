package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xavierca1/whatsapp-notifier/internal/entity"
)

type DispatchRepository struct {
	DB *sql.DB
}

func NewDispatchRepository(db *sql.DB) *DispatchRepository {
	return &DispatchRepository{DB: db}
}

// Record upserts by id, so replays of the same event are harmless.
func (r *DispatchRepository) Record(ctx context.Context, d *entity.Dispatch) error {
	vars, err := json.Marshal(d.ContentVariables)
	if err != nil {
		return fmt.Errorf("encode content variables: %w", err)
	}

	query := `
		INSERT INTO whatsapp_dispatches
			(id, to_address, from_address, content_sid, content_variables, status,
			 message_sid, provider_status, error_code, error_message, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id)
		DO UPDATE SET
			status = EXCLUDED.status,
			message_sid = EXCLUDED.message_sid,
			provider_status = EXCLUDED.provider_status,
			error_code = EXCLUDED.error_code,
			error_message = EXCLUDED.error_message,
			completed_at = EXCLUDED.completed_at
	`

	_, err = r.DB.ExecContext(ctx, query,
		d.ID,
		d.To,
		d.From,
		d.ContentSID,
		string(vars),
		d.Status,
		nullString(d.MessageSID),
		nullString(d.ProviderStatus),
		nullInt(d.ErrorCode),
		nullString(d.ErrorMessage),
		d.CreatedAt,
		d.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("record dispatch %s: %w", d.ID, err)
	}

	return nil
}

const selectColumns = `
	SELECT id, to_address, from_address, content_sid, content_variables, status,
	       message_sid, provider_status, error_code, error_message, created_at, completed_at
	FROM whatsapp_dispatches
`

// FindByID returns nil, nil when the dispatch does not exist.
func (r *DispatchRepository) FindByID(ctx context.Context, id string) (*entity.Dispatch, error) {
	row := r.DB.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)

	d, err := scanDispatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (r *DispatchRepository) ListRecent(ctx context.Context, limit int) ([]*entity.Dispatch, error) {
	rows, err := r.DB.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dispatches []*entity.Dispatch
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		dispatches = append(dispatches, d)
	}

	return dispatches, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDispatch(s scanner) (*entity.Dispatch, error) {
	var (
		d              entity.Dispatch
		vars           []byte
		messageSID     sql.NullString
		providerStatus sql.NullString
		errorCode      sql.NullInt64
		errorMessage   sql.NullString
		completedAt    sql.NullTime
	)

	err := s.Scan(
		&d.ID,
		&d.To,
		&d.From,
		&d.ContentSID,
		&vars,
		&d.Status,
		&messageSID,
		&providerStatus,
		&errorCode,
		&errorMessage,
		&d.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(vars) > 0 {
		if err := json.Unmarshal(vars, &d.ContentVariables); err != nil {
			return nil, fmt.Errorf("decode content variables: %w", err)
		}
	}

	d.MessageSID = messageSID.String
	d.ProviderStatus = providerStatus.String
	d.ErrorCode = int(errorCode.Int64)
	d.ErrorMessage = errorMessage.String
	if completedAt.Valid {
		t := completedAt.Time
		d.CompletedAt = &t
	}

	return &d, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
