package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/vidgate/server/internal/model"
)

// DeviceRepo defines the interface for device binding repository operations
type DeviceRepo interface {
	// Admit enforces the per-token device cap against a consistent snapshot:
	// already-bound fingerprints are always admitted (their last_access is
	// refreshed), new fingerprints only while fewer than maxDevices bindings
	// exist. Returns false when the cap rejects a new device.
	Admit(ctx context.Context, tokenID uuid.UUID, fingerprint string, ip, userAgent *string, maxDevices int) (bool, error)
	CountForToken(ctx context.Context, tokenID uuid.UUID) (int, error)
	ListForToken(ctx context.Context, tokenID uuid.UUID) ([]model.DeviceBinding, error)
}

type deviceRepo struct {
	db *sql.DB
}

// NewDeviceRepo creates a new DeviceRepo instance
func NewDeviceRepo(db *sql.DB) DeviceRepo {
	return &deviceRepo{db: db}
}

// Admit runs the count-then-verify-existing sequence inside one transaction
// serialized per token with an advisory lock, so two unseen devices cannot
// both claim the final slot. The lock is released on COMMIT/ROLLBACK.
func (r *deviceRepo) Admit(ctx context.Context, tokenID uuid.UUID, fingerprint string, ip, userAgent *string, maxDevices int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(2, hashtext($1))`, tokenID.String())
	if err != nil {
		return false, fmt.Errorf("advisory lock: %w", err)
	}

	// Known device: refresh last_access and admit regardless of the cap.
	result, err := tx.ExecContext(ctx, `
		UPDATE device_bindings
		SET last_access = now()
		WHERE token_id = $1 AND device_fingerprint = $2
	`, tokenID, fingerprint)
	if err != nil {
		return false, fmt.Errorf("refresh binding: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("commit: %w", err)
		}
		return true, nil
	}

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM device_bindings WHERE token_id = $1
	`, tokenID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count bindings: %w", err)
	}
	if count >= maxDevices {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO device_bindings (token_id, device_fingerprint, ip_address, user_agent)
		VALUES ($1, $2, $3, $4)
	`, tokenID, fingerprint, ip, userAgent)
	if err != nil {
		return false, fmt.Errorf("insert binding: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// CountForToken returns the number of distinct bound devices for a token.
func (r *deviceRepo) CountForToken(ctx context.Context, tokenID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM device_bindings WHERE token_id = $1
	`, tokenID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count bindings: %w", err)
	}
	return count, nil
}

// ListForToken returns the bindings for a token, oldest first.
func (r *deviceRepo) ListForToken(ctx context.Context, tokenID uuid.UUID) ([]model.DeviceBinding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, token_id, device_fingerprint, ip_address, user_agent, first_access, last_access
		FROM device_bindings
		WHERE token_id = $1
		ORDER BY first_access ASC
	`, tokenID)
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}
	defer rows.Close()

	var bindings []model.DeviceBinding
	for rows.Next() {
		var b model.DeviceBinding
		var idStr, tokenIDStr string
		err := rows.Scan(&idStr, &tokenIDStr, &b.Fingerprint, &b.IPAddress, &b.UserAgent, &b.FirstAccess, &b.LastAccess)
		if err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		if b.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("parse binding ID: %w", err)
		}
		if b.TokenID, err = uuid.Parse(tokenIDStr); err != nil {
			return nil, fmt.Errorf("parse binding token ID: %w", err)
		}
		bindings = append(bindings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bindings: %w", err)
	}
	return bindings, nil
}
