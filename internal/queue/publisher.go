package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	TaskMail    = "mail"
	TaskCleanup = "cleanup"
)

type Publisher struct {
	client *redis.Client
	stream string
}

func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

// Enqueue appends a task to the stream. values must carry a "type" field.
func (p *Publisher) Enqueue(ctx context.Context, values map[string]any) (string, error) {
	if p == nil || p.client == nil {
		return "", fmt.Errorf("queue: publisher not configured")
	}
	if _, ok := values["type"]; !ok {
		return "", fmt.Errorf("queue: task type missing")
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return id, nil
}
