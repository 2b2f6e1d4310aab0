package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"eshop/internal/mail"
	"eshop/internal/queue"
)

type Purger interface {
	PurgePending(ctx context.Context, retention time.Duration) (int, error)
}

type Processor struct {
	sender    mail.Sender
	purger    Purger
	retention time.Duration
	logger    zerolog.Logger
}

type TaskPayload struct {
	Type    string `json:"type"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func NewProcessor(sender mail.Sender, purger Purger, retention time.Duration, logger zerolog.Logger) *Processor {
	return &Processor{
		sender:    sender,
		purger:    purger,
		retention: retention,
		logger:    logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case queue.TaskMail:
		return p.handleMail(ctx, payload)
	case queue.TaskCleanup:
		return p.handleCleanup(ctx)
	default:
		p.logger.Warn().Str("type", payload.Type).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

func (p *Processor) handleMail(ctx context.Context, payload TaskPayload) error {
	msg := mail.Message{To: payload.To, Subject: payload.Subject, Body: payload.Body}
	if err := msg.Validate(); err != nil {
		// Retrying cannot fix a task without a recipient.
		p.logger.Warn().Err(err).Msg("dropping mail task")
		return nil
	}
	if err := p.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", payload.To, err)
	}
	p.logger.Info().Str("to", payload.To).Str("subject", payload.Subject).Msg("mail sent")
	return nil
}

func (p *Processor) handleCleanup(ctx context.Context) error {
	purged, err := p.purger.PurgePending(ctx, p.retention)
	if err != nil {
		return fmt.Errorf("purge pending accounts: %w", err)
	}
	p.logger.Info().Int("purged", purged).Dur("retention", p.retention).Msg("pending accounts purged")
	return nil
}
