package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vidgate/server/internal/model"
)

// CreateVideoParams holds the fields for a new catalog entry.
type CreateVideoParams struct {
	VideoID     string
	Title       string
	Description string
	Provider    string
	ProviderRef string
	FileSize    int64
	Duration    int
	Notes       string
}

// VideoRepo defines the interface for video catalog repository operations
type VideoRepo interface {
	Create(ctx context.Context, p CreateVideoParams) (model.VideoDescriptor, error)
	GetByVideoID(ctx context.Context, videoID string) (model.VideoDescriptor, error)
	List(ctx context.Context, activeOnly bool) ([]model.VideoDescriptor, error)
	SetActive(ctx context.Context, videoID string, active bool) error
	UpdateNotes(ctx context.Context, videoID, notes string) error
	Delete(ctx context.Context, videoID string) error
	Stats(ctx context.Context) (model.VideoStats, error)
}

type videoRepo struct {
	db *sql.DB
}

// NewVideoRepo creates a new VideoRepo instance
func NewVideoRepo(db *sql.DB) VideoRepo {
	return &videoRepo{db: db}
}

const videoColumns = `id, video_id, title, description, provider, provider_ref,
       file_size, duration, notes, is_active, created_at`

func scanVideo(row interface{ Scan(...any) error }) (model.VideoDescriptor, error) {
	var v model.VideoDescriptor
	var idStr string
	err := row.Scan(
		&idStr,
		&v.VideoID,
		&v.Title,
		&v.Description,
		&v.Provider,
		&v.ProviderRef,
		&v.FileSize,
		&v.Duration,
		&v.Notes,
		&v.IsActive,
		&v.CreatedAt,
	)
	if err != nil {
		return model.VideoDescriptor{}, err
	}
	if v.ID, err = uuid.Parse(idStr); err != nil {
		return model.VideoDescriptor{}, fmt.Errorf("parse video ID: %w", err)
	}
	return v, nil
}

// Create inserts a new video descriptor.
func (r *videoRepo) Create(ctx context.Context, p CreateVideoParams) (model.VideoDescriptor, error) {
	var idStr string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO videos (video_id, title, description, provider, provider_ref, file_size, duration, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, p.VideoID, p.Title, p.Description, p.Provider, p.ProviderRef, p.FileSize, p.Duration, p.Notes).Scan(&idStr)
	if err != nil {
		return model.VideoDescriptor{}, fmt.Errorf("insert video: %w", err)
	}
	return r.GetByVideoID(ctx, p.VideoID)
}

// GetByVideoID retrieves a video by its provider-neutral identifier.
func (r *videoRepo) GetByVideoID(ctx context.Context, videoID string) (model.VideoDescriptor, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE video_id = $1`
	v, err := scanVideo(r.db.QueryRowContext(ctx, query, videoID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.VideoDescriptor{}, ErrNotFound
		}
		return model.VideoDescriptor{}, fmt.Errorf("query video: %w", err)
	}
	return v, nil
}

// List returns catalog entries, newest first.
func (r *videoRepo) List(ctx context.Context, activeOnly bool) ([]model.VideoDescriptor, error) {
	query := `SELECT ` + videoColumns + ` FROM videos`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []model.VideoDescriptor
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

// SetActive toggles the soft-delete flag.
func (r *videoRepo) SetActive(ctx context.Context, videoID string, active bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE videos SET is_active = $2 WHERE video_id = $1
	`, videoID, active)
	if err != nil {
		return fmt.Errorf("set video active: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateNotes replaces the free-form notes.
func (r *videoRepo) UpdateNotes(ctx context.Context, videoID, notes string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE videos SET notes = $2 WHERE video_id = $1
	`, videoID, notes)
	if err != nil {
		return fmt.Errorf("update video notes: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete permanently removes a catalog entry.
func (r *videoRepo) Delete(ctx context.Context, videoID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE video_id = $1`, videoID)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats returns catalog counters.
func (r *videoRepo) Stats(ctx context.Context) (model.VideoStats, error) {
	var s model.VideoStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE NOT is_active),
		       COALESCE(SUM(file_size), 0)
		FROM videos
	`).Scan(&s.TotalVideos, &s.ActiveVideos, &s.InactiveVideos, &s.TotalSize)
	if err != nil {
		return model.VideoStats{}, fmt.Errorf("video stats: %w", err)
	}
	return s, nil
}
