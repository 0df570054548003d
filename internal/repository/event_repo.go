// security event rows, adapted from the audit log schema
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"account-security-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// CreateSecurityEvent inserts one event row. Metadata is stored as jsonb.
func (r *EventRepository) CreateSecurityEvent(ctx context.Context, ev *domain.SecurityEvent) error {
	query := `
		INSERT INTO security_events (
			id, user_id, device_id, event_type, severity,
			ip_address, user_agent, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	metadataJSON, _ := json.Marshal(ev.Metadata)

	severity := ev.Severity
	if severity == "" {
		severity = domain.SeverityInfo
	}

	err := r.db.QueryRow(ctx, query,
		ev.ID,
		ev.UserID,
		ev.DeviceID,
		ev.EventType,
		severity,
		ev.IPAddress,
		ev.UserAgent,
		metadataJSON,
	).Scan(&ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create security event: %w", err)
	}

	return nil
}

// ListByUser returns the most recent events for a user, newest first.
func (r *EventRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.SecurityEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, user_id, device_id, event_type, severity,
		       ip_address, user_agent, metadata, created_at
		FROM security_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list security events: %w", err)
	}
	defer rows.Close()

	var events []*domain.SecurityEvent
	for rows.Next() {
		ev := &domain.SecurityEvent{}
		var metadataJSON []byte
		if err := rows.Scan(
			&ev.ID,
			&ev.UserID,
			&ev.DeviceID,
			&ev.EventType,
			&ev.Severity,
			&ev.IPAddress,
			&ev.UserAgent,
			&metadataJSON,
			&ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan security event: %w", err)
		}
		if len(metadataJSON) > 0 {
			_ = json.Unmarshal(metadataJSON, &ev.Metadata)
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}
