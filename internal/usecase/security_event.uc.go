package usecase

import (
	"context"
	"log"
	"time"

	"account-security-service/internal/domain"
	"account-security-service/pkg/kafka"

	"github.com/google/uuid"
)

type EventStore interface {
	CreateSecurityEvent(ctx context.Context, ev *domain.SecurityEvent) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.SecurityEvent, error)
}

// SecurityEventUsecase records audit events and fans them out to the bus.
// Recording is best-effort: a failed insert or publish never fails the
// action that triggered it, it only logs.
type SecurityEventUsecase struct {
	events   EventStore
	producer *kafka.SecurityEventProducer
}

func NewSecurityEventUsecase(events EventStore, producer *kafka.SecurityEventProducer) *SecurityEventUsecase {
	return &SecurityEventUsecase{events: events, producer: producer}
}

// Record inserts the event row and publishes it to security.events.
func (uc *SecurityEventUsecase) Record(ctx context.Context, ev *domain.SecurityEvent) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Severity == "" {
		ev.Severity = domain.SeverityInfo
	}

	if err := uc.events.CreateSecurityEvent(ctx, ev); err != nil {
		log.Printf("[SecurityEvent] failed to store %s for user %s: %v", ev.EventType, ev.UserID, err)
	}

	if uc.producer == nil {
		return
	}

	msg := &kafka.SecurityEventMessage{
		EventID:   ev.ID,
		UserID:    ev.UserID,
		EventType: ev.EventType,
		Severity:  ev.Severity,
		Metadata:  ev.Metadata,
		Timestamp: time.Now(),
	}
	if ev.DeviceID != nil {
		msg.DeviceID = *ev.DeviceID
	}
	if ev.IPAddress != nil {
		msg.IPAddress = *ev.IPAddress
	}
	if ev.UserAgent != nil {
		msg.UserAgent = *ev.UserAgent
	}

	if err := uc.producer.PublishEvent(ctx, msg); err != nil {
		log.Printf("[SecurityEvent] failed to publish %s for user %s: %v", ev.EventType, ev.UserID, err)
	}
}

// SendAlertEmail queues a notification for the external email sender.
func (uc *SecurityEventUsecase) SendAlertEmail(ctx context.Context, userID, recipient, template, subject string, payload map[string]string) {
	if uc.producer == nil || recipient == "" {
		return
	}

	msg := &kafka.EmailAlertMessage{
		RequestID: uuid.NewString(),
		UserID:    userID,
		Recipient: recipient,
		Template:  template,
		Subject:   subject,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	if err := uc.producer.PublishEmailAlert(ctx, msg); err != nil {
		log.Printf("[SecurityEvent] failed to queue %s email for user %s: %v", template, userID, err)
	}
}

// History returns the user's recent security events, newest first.
func (uc *SecurityEventUsecase) History(ctx context.Context, userID string, limit int) ([]*domain.SecurityEvent, error) {
	return uc.events.ListByUser(ctx, userID, limit)
}
