package events

import (
	"context"

	"github.com/noah-isme/backend-lims/internal/db"
)

// PGStore persists events into domain_events.
type PGStore struct {
	DB db.DBTX
}

const insertEventSQL = `INSERT INTO domain_events (id, topic, aggregate_id, payload, occurred_at)
VALUES ($1, $2, $3, $4, $5)`

// InsertEvent implements EventStore.
func (s PGStore) InsertEvent(ctx context.Context, ev Event) error {
	_, err := s.DB.Exec(ctx, insertEventSQL, ev.ID, ev.Topic, ev.AggregateID, []byte(ev.Payload), ev.OccurredAt)
	return err
}
