package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"creditgw/internal/audit"
)

const creditLogSchema = `
CREATE TABLE IF NOT EXISTS credit_log (
	seq      BIGSERIAL PRIMARY KEY,
	id       UUID        NOT NULL UNIQUE,
	ts       TIMESTAMPTZ NOT NULL,
	level    TEXT        NOT NULL,
	source   TEXT        NOT NULL,
	message  TEXT        NOT NULL,
	payload  JSONB       NOT NULL DEFAULT '{}'::jsonb
);
CREATE INDEX IF NOT EXISTS credit_log_ts_idx ON credit_log (ts);`

// CreditLog stores audit entries in the credit_log table. Ordering follows insertion.
type CreditLog struct {
	db *pgxpool.Pool
}

func NewCreditLog(db *pgxpool.Pool) *CreditLog { return &CreditLog{db: db} }

// EnsureSchema creates the table and index when missing.
func (r *CreditLog) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, creditLogSchema)
	return err
}

func (r *CreditLog) Append(ctx context.Context, e audit.Entry) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO credit_log (id, ts, level, source, message, payload)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.TS, e.Level, e.Source, e.Message, payload,
	)
	return err
}

func (r *CreditLog) List(ctx context.Context, limit int, since time.Time) ([]audit.Entry, error) {
	if limit <= 0 || limit > audit.MaxEntries {
		limit = audit.MaxEntries
	}
	var sinceArg *time.Time
	if !since.IsZero() {
		sinceArg = &since
	}
	rows, err := r.db.Query(ctx, `
		SELECT id::text, ts, level, source, message, payload
		  FROM (SELECT seq, id, ts, level, source, message, payload
		          FROM credit_log
		         WHERE $1::timestamptz IS NULL OR ts >= $1
		         ORDER BY seq DESC
		         LIMIT $2) t
		 ORDER BY seq ASC`,
		sinceArg, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]audit.Entry, 0, limit)
	for rows.Next() {
		var e audit.Entry
		var payload []byte
		if err := rows.Scan(&e.ID, &e.TS, &e.Level, &e.Source, &e.Message, &payload); err != nil {
			return nil, err
		}
		e.Payload = map[string]any{}
		if len(payload) > 0 {
			_ = json.Unmarshal(payload, &e.Payload)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *CreditLog) Clear(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM credit_log`)
	return err
}

// Trim keeps the newest max rows inside one transaction.
func (r *CreditLog) Trim(ctx context.Context, max int) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		DELETE FROM credit_log
		 WHERE seq <= COALESCE((SELECT seq FROM credit_log ORDER BY seq DESC OFFSET $1 LIMIT 1), 0)`,
		max,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
