package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vidgate/server/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// CreateTokenParams holds the fields for a new access token.
type CreateTokenParams struct {
	Token        string
	Email        *string
	VideoID      string
	Notes        *string
	ExpiresAt    *time.Time
	MaxViews     int
	MaxDevices   int
	ShareBlocked bool
}

// TokenRepo defines the interface for access token repository operations
type TokenRepo interface {
	Create(ctx context.Context, p CreateTokenParams) (model.AccessToken, error)
	GetByToken(ctx context.Context, token string) (model.AccessToken, error)
	List(ctx context.Context) ([]model.AccessToken, error)
	// ConsumeView atomically increments current_views if the view budget
	// allows it. Returns false when zero rows were affected (exhausted).
	ConsumeView(ctx context.Context, tokenID uuid.UUID) (bool, error)
	Deactivate(ctx context.Context, token string) error
	Delete(ctx context.Context, token string) error
	Stats(ctx context.Context) (model.GlobalTokenStats, error)
	StatsFor(ctx context.Context, token string) (model.TokenStats, error)
}

type tokenRepo struct {
	db *sql.DB
}

// NewTokenRepo creates a new TokenRepo instance
func NewTokenRepo(db *sql.DB) TokenRepo {
	return &tokenRepo{db: db}
}

const tokenColumns = `t.id, t.token, t.email, t.video_id, t.notes, t.created_at, t.expires_at,
       t.max_views, t.current_views, t.max_devices, t.is_active, t.share_blocked,
       (SELECT COUNT(*) FROM device_bindings b WHERE b.token_id = t.id) AS current_devices`

func scanToken(row interface{ Scan(...any) error }) (model.AccessToken, error) {
	var tok model.AccessToken
	var idStr string
	err := row.Scan(
		&idStr,
		&tok.Token,
		&tok.Email,
		&tok.VideoID,
		&tok.Notes,
		&tok.CreatedAt,
		&tok.ExpiresAt,
		&tok.MaxViews,
		&tok.CurrentViews,
		&tok.MaxDevices,
		&tok.IsActive,
		&tok.ShareBlocked,
		&tok.CurrentDevices,
	)
	if err != nil {
		return model.AccessToken{}, err
	}
	tok.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.AccessToken{}, fmt.Errorf("parse token ID: %w", err)
	}
	return tok, nil
}

// Create inserts a new access token record.
func (r *tokenRepo) Create(ctx context.Context, p CreateTokenParams) (model.AccessToken, error) {
	query := `
		INSERT INTO access_tokens (token, email, video_id, notes, expires_at, max_views, max_devices, share_blocked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	var idStr string
	var createdAt time.Time
	err := r.db.QueryRowContext(ctx, query,
		p.Token, p.Email, p.VideoID, p.Notes, p.ExpiresAt, p.MaxViews, p.MaxDevices, p.ShareBlocked,
	).Scan(&idStr, &createdAt)
	if err != nil {
		return model.AccessToken{}, fmt.Errorf("insert token: %w", err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return model.AccessToken{}, fmt.Errorf("parse token ID: %w", err)
	}
	return model.AccessToken{
		ID:           id,
		Token:        p.Token,
		Email:        p.Email,
		VideoID:      p.VideoID,
		Notes:        p.Notes,
		CreatedAt:    createdAt,
		ExpiresAt:    p.ExpiresAt,
		MaxViews:     p.MaxViews,
		MaxDevices:   p.MaxDevices,
		IsActive:     true,
		ShareBlocked: p.ShareBlocked,
	}, nil
}

// GetByToken retrieves a token record by its opaque token string.
func (r *tokenRepo) GetByToken(ctx context.Context, token string) (model.AccessToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM access_tokens t WHERE t.token = $1`
	tok, err := scanToken(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AccessToken{}, ErrNotFound
		}
		return model.AccessToken{}, fmt.Errorf("query token: %w", err)
	}
	return tok, nil
}

// List returns all tokens, newest first.
func (r *tokenRepo) List(ctx context.Context) ([]model.AccessToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM access_tokens t ORDER BY t.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.AccessToken
	for rows.Next() {
		tok, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, tok)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens: %w", err)
	}
	return tokens, nil
}

// ConsumeView is the single conditional update that makes the exhaustion
// check race-free: two concurrent requests against one remaining view slot
// cannot both see an affected row.
func (r *tokenRepo) ConsumeView(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE access_tokens
		SET current_views = current_views + 1
		WHERE id = $1 AND current_views < max_views
	`, tokenID)
	if err != nil {
		return false, fmt.Errorf("consume view: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume view rows: %w", err)
	}
	return n == 1, nil
}

// Deactivate flips the kill-switch. The record and its logs remain.
func (r *tokenRepo) Deactivate(ctx context.Context, token string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE access_tokens SET is_active = FALSE WHERE token = $1
	`, token)
	if err != nil {
		return fmt.Errorf("deactivate token: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete physically removes the token; bindings and view logs cascade.
func (r *tokenRepo) Delete(ctx context.Context, token string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats returns global token counters.
func (r *tokenRepo) Stats(ctx context.Context) (model.GlobalTokenStats, error) {
	var s model.GlobalTokenStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE NOT is_active),
		       COALESCE(SUM(current_views), 0)
		FROM access_tokens
	`).Scan(&s.TotalTokens, &s.ActiveTokens, &s.InactiveTokens, &s.TotalViews)
	if err != nil {
		return model.GlobalTokenStats{}, fmt.Errorf("token stats: %w", err)
	}
	return s, nil
}

// StatsFor returns one token with its device and view-log aggregates.
func (r *tokenRepo) StatsFor(ctx context.Context, token string) (model.TokenStats, error) {
	tok, err := r.GetByToken(ctx, token)
	if err != nil {
		return model.TokenStats{}, err
	}

	var stats model.TokenStats
	stats.Token = tok
	err = r.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(DISTINCT device_fingerprint) FROM device_bindings WHERE token_id = $1),
		       (SELECT COUNT(*) FROM view_logs WHERE token_id = $1)
	`, tok.ID).Scan(&stats.UniqueDevices, &stats.TotalViews)
	if err != nil {
		return model.TokenStats{}, fmt.Errorf("token usage stats: %w", err)
	}
	return stats, nil
}
