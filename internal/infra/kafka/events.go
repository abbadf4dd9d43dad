package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
	"github.com/Lmagalhaesz/classly/internal/core/port"
	"github.com/Lmagalhaesz/classly/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: envelopeMetadata{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserLoggedIn publishes auth.user.logged_in events.
func (p *EventPublisher) PublishUserLoggedIn(ctx context.Context, event domain.UserLoggedInEvent) error {
	payload := struct {
		UserID     string    `json:"user_id"`
		SessionID  string    `json:"session_id"`
		UserAgent  string    `json:"user_agent"`
		IPAddress  string    `json:"ip_address"`
		LoggedInAt time.Time `json:"logged_in_at"`
	}{
		UserID:     event.UserID,
		SessionID:  event.SessionID,
		UserAgent:  event.UserAgent,
		IPAddress:  event.IPAddress,
		LoggedInAt: event.LoggedInAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.user.logged_in", event.UserID, event.LoggedInAt, payload)
}

// PublishSessionRevoked publishes auth.session.revoked events.
func (p *EventPublisher) PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error {
	payload := struct {
		SessionID string    `json:"session_id"`
		UserID    string    `json:"user_id"`
		Reason    string    `json:"reason"`
		RevokedAt time.Time `json:"revoked_at"`
	}{
		SessionID: event.SessionID,
		UserID:    event.UserID,
		Reason:    event.Reason,
		RevokedAt: event.RevokedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.session.revoked", event.UserID, event.RevokedAt, payload)
}

// PublishTokenVersionBumped publishes auth.tokens.revoked_all events.
func (p *EventPublisher) PublishTokenVersionBumped(ctx context.Context, event domain.TokenVersionBumpedEvent) error {
	payload := struct {
		UserID       string    `json:"user_id"`
		TokenVersion int64     `json:"token_version"`
		Reason       string    `json:"reason"`
		BumpedAt     time.Time `json:"bumped_at"`
	}{
		UserID:       event.UserID,
		TokenVersion: event.TokenVersion,
		Reason:       event.Reason,
		BumpedAt:     event.BumpedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.tokens.revoked_all", event.UserID, event.BumpedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
