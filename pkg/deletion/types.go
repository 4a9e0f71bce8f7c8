// Package deletion implements the bitemporal delete protocol and its
// tombstone provenance (spec §4.7): selecting entities alive at a
// caller-supplied decision time, collecting every edition ever recorded for
// them regardless of temporal window, and removing them atomically behind a
// tombstone row that documents who deleted what and when.
package deletion

import (
	"context"
	"time"

	"github.com/MrWong99/entigraph/pkg/ids"
)

// LinkBehavior controls what [Coordinator.DeleteEntities] does when a
// selected entity is still referenced by a live link entity that is not
// itself part of the deletion set (spec §4.7).
type LinkBehavior int

const (
	// Ignore fails the whole call with [DependentLinkExists] when a
	// dependent link is found.
	Ignore LinkBehavior = iota

	// Cascade transitively extends the deletion set to every link entity
	// referencing a selected entity, and their referencing links in turn.
	Cascade
)

// Scope names the deletion strategy. Purge is the only scope spec §4.7
// defines; it is modelled as a type (rather than a bare constant) so a
// future soft-delete scope can be added without changing the Params shape.
type Scope struct {
	LinkBehavior LinkBehavior
}

// Params describes one delete_entities call (spec §4.7).
type Params struct {
	// WebId restricts selection to one web. Nil selects across every web
	// the actor can see, narrowed by the authorization check below.
	WebId *ids.WebId

	// EntityUuids optionally narrows selection to a specific set of
	// entities within WebId; nil selects every live entity. This stands in
	// for the general filter expression of spec §4.7's params.filter — the
	// entity store's ListLiveUuids contract does not (yet) accept an
	// arbitrary compiled Filter, so callers that need predicate-based
	// selection resolve it to a uuid set with pkg/filter first.
	EntityUuids []ids.EntityUuid

	IncludeDrafts bool
	Scope         Scope

	// DecisionTime pins the decision axis for selection; nil defaults to
	// the transaction time bound at call start (spec §4.7 step 2).
	DecisionTime *time.Time
}

// DeletionSummary reports counts of fully-deleted entities and draft-only
// deletions separately so the caller can confirm intent (spec §4.7, §7).
type DeletionSummary struct {
	FullEntities   int
	DraftDeletions int
}

// Tombstone is the provenance record left behind for a deleted entity (spec
// §4.7 step 5, §3.3 glossary "Tombstone").
type Tombstone struct {
	WebId                    ids.WebId
	EntityUuid               ids.EntityUuid
	DeletedAtTransactionTime time.Time
	DeletedAtDecisionTime    time.Time
	DeletedBy                ids.ActorId
}

// TombstoneStore persists deletion provenance rows.
type TombstoneStore interface {
	Insert(ctx context.Context, t Tombstone) error
}
