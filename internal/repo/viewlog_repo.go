package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/vidgate/server/internal/model"
)

// ViewLogRepo defines the interface for the append-only view audit log.
type ViewLogRepo interface {
	Append(ctx context.Context, e model.ViewLogEntry) error
	ListForToken(ctx context.Context, tokenID uuid.UUID) ([]model.ViewLogEntry, error)
}

type viewLogRepo struct {
	db *sql.DB
}

// NewViewLogRepo creates a new ViewLogRepo instance
func NewViewLogRepo(db *sql.DB) ViewLogRepo {
	return &viewLogRepo{db: db}
}

// Append inserts one audit record. Entries are never updated or deleted by
// normal operation; they only go away when their token is purged.
func (r *viewLogRepo) Append(ctx context.Context, e model.ViewLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO view_logs (token_id, email, video_id, ip_address, user_agent, device_fingerprint)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.TokenID, e.Email, e.VideoID, e.IPAddress, e.UserAgent, e.Fingerprint)
	if err != nil {
		return fmt.Errorf("append view log: %w", err)
	}
	return nil
}

// ListForToken returns the audit trail for a token, newest first.
func (r *viewLogRepo) ListForToken(ctx context.Context, tokenID uuid.UUID) ([]model.ViewLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, token_id, email, video_id, viewed_at, ip_address, user_agent, device_fingerprint
		FROM view_logs
		WHERE token_id = $1
		ORDER BY viewed_at DESC
	`, tokenID)
	if err != nil {
		return nil, fmt.Errorf("list view logs: %w", err)
	}
	defer rows.Close()

	var entries []model.ViewLogEntry
	for rows.Next() {
		var e model.ViewLogEntry
		var idStr, tokenIDStr string
		err := rows.Scan(&idStr, &tokenIDStr, &e.Email, &e.VideoID, &e.ViewedAt, &e.IPAddress, &e.UserAgent, &e.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("scan view log: %w", err)
		}
		if e.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("parse view log ID: %w", err)
		}
		if e.TokenID, err = uuid.Parse(tokenIDStr); err != nil {
			return nil, fmt.Errorf("parse view log token ID: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate view logs: %w", err)
	}
	return entries, nil
}
