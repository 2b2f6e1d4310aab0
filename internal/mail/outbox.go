package mail

import (
	"context"

	"github.com/rs/zerolog"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, values map[string]any) (string, error)
}

// Outbox hands mail to the task stream and sends inline when the stream is
// unavailable.
type Outbox struct {
	queue  Enqueuer
	sender Sender
	log    zerolog.Logger
}

func NewOutbox(queue Enqueuer, sender Sender, log zerolog.Logger) *Outbox {
	return &Outbox{queue: queue, sender: sender, log: log}
}

func (o *Outbox) Deliver(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	if o.queue != nil {
		id, err := o.queue.Enqueue(ctx, msg.Values())
		if err == nil {
			o.log.Debug().Str("task_id", id).Str("to", msg.To).Msg("mail queued")
			return nil
		}
		o.log.Warn().Err(err).Str("to", msg.To).Msg("enqueue mail failed, sending inline")
	}

	return o.sender.Send(ctx, msg)
}
