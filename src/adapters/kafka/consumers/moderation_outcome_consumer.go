package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"curationsapi/src/domain"
	"curationsapi/src/domain/entities"
	"curationsapi/src/infra/kafka"
)

// MessageConsumer is the consuming side of *kafka.KafkaClient.
type MessageConsumer interface {
	Consumer(ctx context.Context, handler kafka.Handler, topic string) error
}

// ModerationMailer is satisfied by *notification.ModerationMailer.
type ModerationMailer interface {
	SendModerationEmail(ctx context.Context, curation entities.Curation) error
}

// ModerationOutcomeConsumer lê os eventos de decisão e dispara o e-mail para quem submeteu.
type ModerationOutcomeConsumer struct {
	logger *slog.Logger
	mailer ModerationMailer
}

func NewModerationOutcomeConsumer(logger *slog.Logger, mailer ModerationMailer) *ModerationOutcomeConsumer {
	return &ModerationOutcomeConsumer{
		logger: logger,
		mailer: mailer,
	}
}

func (c *ModerationOutcomeConsumer) Start(ctx context.Context, kafkaClient MessageConsumer, topic string) error {
	c.logger.Info("Starting moderation outcome consumer", "topic", topic)

	handler := func(messages []kafka.Message) error {
		return c.HandleMessages(ctx, messages)
	}

	return kafkaClient.Consumer(ctx, handler, topic)
}

// HandleMessages envia um e-mail por evento. Mensagens inválidas e falhas de envio são logadas e
// descartadas: reprocessar o lote reenviaria os e-mails que já saíram.
func (c *ModerationOutcomeConsumer) HandleMessages(ctx context.Context, messages []kafka.Message) error {
	if len(messages) == 0 {
		return nil
	}

	c.logger.Debug("Processing moderation outcome batch", "count", len(messages))

	sent := 0
	for _, msg := range messages {
		eventType := msg.Headers["event_type"]
		if eventType != "" && eventType != domain.EventTypeCurationApproved && eventType != domain.EventTypeCurationDenied {
			continue
		}

		var event domain.ModerationOutcomeEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Error("Failed to unmarshal moderation outcome event",
				"error", err,
				"key", msg.Key,
				"value", string(msg.Value))
			continue
		}

		if err := c.mailer.SendModerationEmail(ctx, event.Curation); err != nil {
			c.logger.Error("Failed to send moderation email",
				"error", err,
				"event_id", event.EventID,
				"curation_id", event.Curation.ID)
			continue
		}
		sent++
	}

	c.logger.Info("Moderation outcome batch processed", "count", len(messages), "sent", sent)
	return nil
}
