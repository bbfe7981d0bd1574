package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const payloadField = "payload"

type RedisPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream}
}

var _ Publisher = (*RedisPublisher)(nil)

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":       string(event.Type),
			payloadField: payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}
	return nil
}

// RedisReceiver reads a stream as one consumer of a consumer group.
type RedisReceiver struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string

	// Block is how long one read waits for new entries.
	Block time.Duration
}

func NewRedisReceiver(ctx context.Context, client *redis.Client, stream, group, consumer string) (*RedisReceiver, error) {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && err != redis.Nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &RedisReceiver{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		Block:    5 * time.Second,
	}, nil
}

// Receive hands every new entry to handler and acknowledges it when handler
// succeeds. Failed entries stay pending and are retried first on the next
// Receive by the same consumer. It returns when ctx is done.
func (r *RedisReceiver) Receive(ctx context.Context, handler Handler) error {
	// An id replays this consumer's pending entries after it, ">" reads new ones.
	start := "0"
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    r.group,
			Consumer: r.consumer,
			Streams:  []string{r.stream, start},
			Count:    10,
			Block:    r.Block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read events: %w", err)
		}

		last := ""
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				r.handle(ctx, msg, handler)
				last = msg.ID
			}
		}
		switch {
		case start == ">":
		case last == "":
			start = ">"
		default:
			// Continue after the replayed entries so failures are not retried in a loop.
			start = last
		}
	}
}

func (r *RedisReceiver) handle(ctx context.Context, msg redis.XMessage, handler Handler) {
	event, err := decode(msg)
	if err != nil {
		// A malformed entry will never succeed; drop it.
		slog.Error("dropping malformed event", "id", msg.ID, "error", err)
		r.ack(ctx, msg.ID)
		return
	}

	if err := handler(ctx, event); err != nil {
		slog.Error("failed to handle event", "id", msg.ID, "type", event.Type, "error", err)
		return
	}
	r.ack(ctx, msg.ID)
}

func (r *RedisReceiver) ack(ctx context.Context, id string) {
	// Acknowledge even if the receiver is shutting down.
	ctx = context.WithoutCancel(ctx)
	if err := r.client.XAck(ctx, r.stream, r.group, id).Err(); err != nil {
		slog.Error("failed to acknowledge event", "id", id, "error", err)
	}
}

func decode(msg redis.XMessage) (Event, error) {
	raw, ok := msg.Values[payloadField].(string)
	if !ok {
		return Event{}, fmt.Errorf("missing %q field", payloadField)
	}
	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return Event{}, err
	}
	return event, nil
}
