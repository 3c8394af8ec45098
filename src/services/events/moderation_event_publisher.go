package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"curationsapi/src/domain"
	"curationsapi/src/domain/entities"
	"curationsapi/src/infra/kafka"

	"github.com/google/uuid"
)

// MessageProducer is the publishing side of *kafka.KafkaClient.
type MessageProducer interface {
	Producer(messages []kafka.Message, topic string) error
}

// ModerationEventPublisher avisa o consumidor de e-mail que uma curation saiu de needs-moderation.
type ModerationEventPublisher struct {
	logger   *slog.Logger
	producer MessageProducer
	topic    string
	now      func() time.Time
}

func NewModerationEventPublisher(
	logger *slog.Logger,
	producer MessageProducer,
	topic string,
) *ModerationEventPublisher {
	return &ModerationEventPublisher{
		logger:   logger,
		producer: producer,
		topic:    topic,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NotifyModerationOutcome publishes one approved/denied event keyed by curation id.
func (p *ModerationEventPublisher) NotifyModerationOutcome(ctx context.Context, curation entities.Curation) error {
	eventType, err := eventTypeFor(curation.Status)
	if err != nil {
		return err
	}

	event := domain.ModerationOutcomeEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: p.now(),
		Curation:   curation,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ModerationEventPublisher.NotifyModerationOutcome - failed to marshal event: %w", err)
	}

	message := kafka.Message{
		// Particiona por curation para manter a ordem das decisões de um mesmo registro
		Key:     strconv.FormatInt(curation.ID, 10),
		Value:   eventBytes,
		Headers: p.createEventHeaders(event),
	}

	if err := p.producer.Producer([]kafka.Message{message}, p.topic); err != nil {
		return fmt.Errorf("ModerationEventPublisher.NotifyModerationOutcome - failed to publish to topic %s: %w", p.topic, err)
	}

	p.logger.Debug("Published moderation outcome",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"curation_id", curation.ID)

	return nil
}

func (p *ModerationEventPublisher) createEventHeaders(event domain.ModerationOutcomeEvent) map[string]string {
	return map[string]string{
		"event_type":     event.EventType,
		"event_id":       event.EventID,
		"source_service": "curations-api",
		"schema_version": "v1",
		"entity_type":    event.Curation.Entity,
	}
}

func eventTypeFor(status entities.CurationStatus) (string, error) {
	switch status {
	case entities.StatusApproved:
		return domain.EventTypeCurationApproved, nil
	case entities.StatusDenied:
		return domain.EventTypeCurationDenied, nil
	}
	return "", fmt.Errorf("ModerationEventPublisher - no moderation outcome for status %q", status)
}
