package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account-security-service/internal/domain"
	"account-security-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) GetSession(ctx context.Context, userID, deviceID string) (*domain.DeviceSession, error) {
	query := `
		SELECT id, user_id, device_id, ip_address, user_agent,
		       last_verified_at, is_active, created_at
		FROM device_sessions
		WHERE user_id = $1 AND device_id = $2
		LIMIT 1
	`

	s := &domain.DeviceSession{}
	err := r.db.QueryRow(ctx, query, userID, deviceID).Scan(
		&s.ID,
		&s.UserID,
		&s.DeviceID,
		&s.IPAddress,
		&s.UserAgent,
		&s.LastVerifiedAt,
		&s.IsActive,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return s, nil
}

// ValidateSession satisfies the auth middleware's SessionValidator.
func (r *SessionRepository) ValidateSession(ctx context.Context, userID, deviceID string) error {
	s, err := r.GetSession(ctx, userID, deviceID)
	if err != nil {
		return err
	}
	if !s.IsActive {
		return xerrors.ErrSessionRevoked
	}
	return nil
}

// TouchLastVerified stamps the session after a successful step-up check.
func (r *SessionRepository) TouchLastVerified(ctx context.Context, userID, deviceID string, at time.Time) error {
	query := `
		UPDATE device_sessions
		SET last_verified_at = $3
		WHERE user_id = $1 AND device_id = $2
	`

	tag, err := r.db.Exec(ctx, query, userID, deviceID, at)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrSessionNotFound
	}

	return nil
}

// RevokeOtherSessions deactivates every session except the acting device.
// Used after a password change.
func (r *SessionRepository) RevokeOtherSessions(ctx context.Context, userID, keepDeviceID string) (int64, error) {
	query := `
		UPDATE device_sessions
		SET is_active = FALSE
		WHERE user_id = $1 AND device_id <> $2 AND is_active = TRUE
	`

	tag, err := r.db.Exec(ctx, query, userID, keepDeviceID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}
