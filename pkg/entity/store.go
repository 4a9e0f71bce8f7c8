package entity

import (
	"context"
	"time"

	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/ontology"
)

// CreateParams describes a new entity (spec §4.3).
type CreateParams struct {
	WebId      ids.WebId
	EntityUuid *ids.EntityUuid // nil generates a fresh one
	Draft      bool
	Types      []ontology.EntityTypeId
	Properties PropertyObject
	Metadata   PropertyMetadata
	LinkData   *LinkData
}

// PatchOpKind discriminates the three patch operations (spec §4.3).
type PatchOpKind int

const (
	PatchReplace PatchOpKind = iota
	PatchRemove
	PatchAdd
)

// PatchOp is one step of a patch_entity operation list. Path is a gjson/sjson
// style dotted path into the property object, with the dots of each BaseUrl
// key escaped (e.g. [PathForBaseUrl] of
// "https://example.com/property-type/name/"). Value is ignored for
// PatchRemove.
type PatchOp struct {
	Kind  PatchOpKind
	Path  string
	Value Property
}

// PatchParams describes a patch_entity call.
type PatchParams struct {
	Id           EntityId
	Ops          []PatchOp
	DecisionTime *time.Time // nil means now
}

// Store is the entity store's operation contract (spec §4.3). A single
// implementation backs both canonical and draft entities; DraftId in
// EntityId selects which.
type Store interface {
	// CreateEntity inserts the first edition. Fails with *ValidationFailed
	// when params.Types is empty, or ErrUnauthorizedWeb when the store's
	// AuthChecker denies actor. Neither MemStore nor the Postgres-backed
	// store validates params.Properties against the types or checks link
	// structure (ErrNotLink/ErrIsLink); [ValidateProperties] and
	// [ValidateLink] are separate functions that are not called here.
	CreateEntity(ctx context.Context, actor ids.ActorId, params CreateParams) (Entity, error)

	// GetEntity resolves the live edition of id as of now.
	GetEntity(ctx context.Context, id EntityId) (Entity, error)

	// GetEdition resolves one immutable historical edition.
	GetEdition(ctx context.Context, editionId ids.EntityEditionId) (Edition, error)

	// PatchEntity applies params.Ops in order; all succeed or none. On
	// success a new edition is allocated with a decision-time interval
	// starting at params.DecisionTime (or now).
	PatchEntity(ctx context.Context, actor ids.ActorId, params PatchParams) (Entity, error)

	// FinalizeDraft promotes a draft edition to a canonical (non-draft)
	// edition, clearing DraftId from every edition of uuid. Fails with
	// ErrNotFound if uuid has no draft edition (SPEC_FULL §12).
	FinalizeDraft(ctx context.Context, actor ids.ActorId, uuid ids.EntityUuid) (Entity, error)

	// ListEditions returns every edition ever recorded for uuid, live or
	// archived, with no temporal restriction — the subgraph resolver and
	// the deletion coordinator's collect_entity_edition_ids step (spec
	// §4.7 step 4) both need the unrestricted history, not just the
	// currently-live edition.
	ListEditions(ctx context.Context, uuid ids.EntityUuid) ([]Edition, error)

	// ListLiveUuids returns the EntityUuids alive under web (or every web
	// when web is nil) at the given decision time, used by the deletion
	// coordinator's select_entities_for_deletion step (spec §4.7 step 3).
	ListLiveUuids(ctx context.Context, web *ids.WebId, decisionTime time.Time) ([]ids.EntityUuid, error)

	// DeleteEditions atomically removes every edition in editionIds along
	// with their temporal metadata rows (spec §4.7 step 6).
	DeleteEditions(ctx context.Context, editionIds []ids.EntityEditionId) error

	// ListLinksReferencing returns every live (non-archived) link entity
	// whose LinkData names uuid as either endpoint, used by the deletion
	// coordinator's DependentLinkExists check and Cascade link-behaviour
	// (spec §4.7).
	ListLinksReferencing(ctx context.Context, uuid ids.EntityUuid) ([]Entity, error)
}
