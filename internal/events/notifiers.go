package events

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// LogNotifier writes every event to the structured log.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, ev Event) error {
	n.Logger.Info().
		Str("event_id", ev.ID.String()).
		Str("topic", ev.Topic).
		Str("aggregate_id", ev.AggregateID).
		Msg("domain event")
	return nil
}

// RedisPublisher publishes events on "<Prefix><topic>" pub/sub channels.
type RedisPublisher struct {
	R      redis.Cmdable
	Prefix string
}

// Channel returns the channel name used for topic.
func (p RedisPublisher) Channel(topic string) string {
	prefix := p.Prefix
	if prefix == "" {
		prefix = "lims:events:"
	}
	return prefix + topic
}

// Notify implements Notifier.
func (p RedisPublisher) Notify(ctx context.Context, ev Event) error {
	if p.R == nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.R.Publish(ctx, p.Channel(ev.Topic), data).Err()
}
