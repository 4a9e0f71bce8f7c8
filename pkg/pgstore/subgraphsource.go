package pgstore

import (
	"context"

	"github.com/MrWong99/entigraph/pkg/entity"
	"github.com/MrWong99/entigraph/pkg/subgraph"
	"github.com/MrWong99/entigraph/pkg/temporal"
)

var (
	_ subgraph.EntitySource   = (*EntitySource)(nil)
	_ subgraph.OntologySource = (*OntologyStore)(nil)
)

// EntitySource adapts [EntityStore] to [subgraph.EntitySource]: GetEntity
// delegates straight through, and LinksOf layers an in-Go temporal-axes
// filter on top of [EntityStore.ListLinksReferencing], which only knows
// about "currently live", the same way [entity.MemStore.ListLiveUuids]
// filters its full scan with [temporal.Interval.Contains] rather than
// pushing the axes check into the store's read path.
type EntitySource struct {
	Store *EntityStore
}

// NewEntitySource returns an EntitySource backed by store.
func NewEntitySource(store *EntityStore) *EntitySource {
	return &EntitySource{Store: store}
}

// GetEntity implements subgraph.EntitySource.
func (s *EntitySource) GetEntity(ctx context.Context, id entity.EntityId) (entity.Entity, error) {
	return s.Store.GetEntity(ctx, id)
}

// LinksOf implements subgraph.EntitySource: it lists every link entity
// referencing id's current edition, then keeps only the ones alive under
// axes.
func (s *EntitySource) LinksOf(ctx context.Context, id entity.EntityId, axes temporal.TemporalAxes) ([]entity.Entity, error) {
	links, err := s.Store.ListLinksReferencing(ctx, id.EntityUuid)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Entity, 0, len(links))
	for _, l := range links {
		if aliveUnderAxes(l.Versioning, axes) {
			out = append(out, l)
		}
	}
	return out, nil
}

// aliveUnderAxes reports whether v overlaps axes: the pinned axis must
// contain its single instant, the variable axis must overlap its interval.
func aliveUnderAxes(v entity.TemporalVersioning, axes temporal.TemporalAxes) bool {
	if dt, pinned := axes.DecisionTimestamp(); pinned {
		if !v.DecisionTime.Contains(dt) {
			return false
		}
	} else if variable, ok := axes.DecisionInterval(); ok {
		if _, overlaps := v.DecisionTime.Intersect(variable.Interval()); !overlaps {
			return false
		}
	}
	if tt, pinned := axes.TransactionTimestamp(); pinned {
		if !v.TransactionTime.Contains(tt) {
			return false
		}
	} else if variable, ok := axes.TransactionInterval(); ok {
		if _, overlaps := v.TransactionTime.Intersect(variable.Interval()); !overlaps {
			return false
		}
	}
	return true
}

// OntologyStore already satisfies [subgraph.OntologySource] directly: its
// Get method's signature matches exactly, so no wrapper is needed — see the
// compile-time assertion above.
