package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrWong99/entigraph/pkg/deletion"
)

// Compile-time assertion that TombstoneStore satisfies deletion.TombstoneStore.
var _ deletion.TombstoneStore = (*TombstoneStore)(nil)

// TombstoneStore is the PostgreSQL-backed [deletion.TombstoneStore]: a thin
// insert-only wrapper, since the deletion coordinator's protocol (spec
// §4.7 step 5) only ever appends provenance rows, never reads them back
// through this interface.
type TombstoneStore struct {
	pool dbPool
}

// NewTombstoneStore returns a TombstoneStore backed by pool. pool may be a
// raw *pgxpool.Pool or a [BreakerPool].
func NewTombstoneStore(pool dbPool) *TombstoneStore {
	return &TombstoneStore{pool: pool}
}

// Insert implements [deletion.TombstoneStore.Insert].
func (s *TombstoneStore) Insert(ctx context.Context, t deletion.Tombstone) error {
	kind, user, machine := actorToColumns(t.DeletedBy)

	const q = `
		INSERT INTO tombstones (
			web_id, entity_uuid, deleted_at_transaction_time, deleted_at_decision_time,
			deleted_by_kind, deleted_by_user, deleted_by_machine
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, q,
		uuid.UUID(t.WebId), uuid.UUID(t.EntityUuid), t.DeletedAtTransactionTime, t.DeletedAtDecisionTime,
		kind, user, machine,
	)
	if err != nil {
		return fmt.Errorf("pgstore: insert tombstone: %w", err)
	}
	return nil
}
