package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists audit events in PostgreSQL for regulated
// deployments where the trail must survive process restarts.
//
// Expected schema:
//
//	CREATE TABLE session_audit (
//	    id          UUID PRIMARY KEY,
//	    occurred_at TIMESTAMPTZ NOT NULL,
//	    action      TEXT NOT NULL,
//	    session_id  TEXT NOT NULL DEFAULT '',
//	    user_id     TEXT NOT NULL DEFAULT '',
//	    provider    TEXT NOT NULL DEFAULT '',
//	    reason      TEXT NOT NULL DEFAULT '',
//	    request_id  TEXT NOT NULL DEFAULT '',
//	    browser     TEXT NOT NULL DEFAULT '',
//	    os          TEXT NOT NULL DEFAULT ''
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	const query = `
		INSERT INTO session_audit (id, occurred_at, action, session_id, user_id, provider, reason, request_id, browser, os)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID, event.Timestamp, string(event.Action), event.SessionID,
		event.UserID, event.Provider, event.Reason, event.RequestID,
		event.Browser, event.OS,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySession(ctx context.Context, sessionID string) ([]Event, error) {
	const query = `
		SELECT id, occurred_at, action, session_id, user_id, provider, reason, request_id, browser, os
		FROM session_audit
		WHERE session_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	const query = `
		SELECT id, occurred_at, action, session_id, user_id, provider, reason, request_id, browser, os
		FROM session_audit
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var out []Event
	for rows.Next() {
		var event Event
		var action string
		if err := rows.Scan(&event.ID, &event.Timestamp, &action, &event.SessionID,
			&event.UserID, &event.Provider, &event.Reason, &event.RequestID,
			&event.Browser, &event.OS); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = Action(action)
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
