// pkg/kafka/event_producer.go
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

const (
	TopicSecurityEvents = "security.events"
	TopicEmailAlerts    = "security.alerts.email"
)

// SecurityEventMessage mirrors the security_events row shipped to the bus.
type SecurityEventMessage struct {
	EventID   string            `json:"event_id"`
	UserID    string            `json:"user_id"`
	DeviceID  string            `json:"device_id,omitempty"`
	EventType string            `json:"event_type"`
	Severity  string            `json:"severity"`
	IPAddress string            `json:"ip_address,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// EmailAlertMessage is consumed by the external email sender.
type EmailAlertMessage struct {
	RequestID string            `json:"request_id"`
	UserID    string            `json:"user_id"`
	Recipient string            `json:"recipient"`
	Template  string            `json:"template"`
	Subject   string            `json:"subject"`
	Payload   map[string]string `json:"payload,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

type SecurityEventProducer struct {
	producer sarama.SyncProducer
}

func NewSecurityEventProducer(brokers []string) (*SecurityEventProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll // Wait for all replicas
	config.Producer.Retry.Max = 3
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return &SecurityEventProducer{producer: producer}, nil
}

// PublishEvent ships a security event to Kafka. Partitioned by user ID so
// a user's events stay ordered.
func (p *SecurityEventProducer) PublishEvent(ctx context.Context, msg *SecurityEventMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic: TopicSecurityEvents,
		Key:   sarama.StringEncoder(msg.UserID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(kafkaMsg)
	if err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}

	log.Printf("[Kafka] Event %s sent to partition %d at offset %d", msg.EventType, partition, offset)
	return nil
}

// PublishEmailAlert hands an alert email off to the email service's topic.
func (p *SecurityEventProducer) PublishEmailAlert(ctx context.Context, msg *EmailAlertMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic: TopicEmailAlerts,
		Key:   sarama.StringEncoder(msg.UserID),
		Value: sarama.ByteEncoder(data),
	}

	if _, _, err := p.producer.SendMessage(kafkaMsg); err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	return nil
}

func (p *SecurityEventProducer) Close() error {
	return p.producer.Close()
}
