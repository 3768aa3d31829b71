package postgres

import (
	"context"

	"github.com/google/uuid"
)

// InsertDomainEvent appends an event row to the domain event log.
func (s *Store) InsertDomainEvent(ctx context.Context, id uuid.UUID, topic string, aggregateID int64, payload []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO domain_events (id, topic, aggregate_id, payload, occurred_at)
		VALUES ($1, $2, $3, $4, now())
	`, id, topic, aggregateID, payload)
	return mapRowErr(err)
}
