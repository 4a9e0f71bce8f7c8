package ontology

import (
	"context"
	"encoding/json"

	"github.com/MrWong99/entigraph/pkg/ids"
)

// ActorResolver reports whether an actor or web is known to the system. The
// catalog calls it to satisfy the "fails with UnknownActor if any referenced
// account is absent" clause of spec §4.2 without taking a hard dependency on
// an accounts package.
type ActorResolver interface {
	ActorExists(ctx context.Context, actor ids.ActorId) (bool, error)
	WebExists(ctx context.Context, web ids.WebId) (bool, error)
}

// CreateParams describes a new ontology type edition.
type CreateParams struct {
	Kind          Kind
	Base          BaseUrl
	Schema        json.RawMessage
	OwnedBy       *ids.WebId
	OnConflict    OnConflict
	Relationships []RelationshipEdge
}

// UpdateParams describes a new edition of an existing base URL. The next
// version number is allocated by the Catalog, not supplied by the caller
// (spec §4.2: "update ... allocates the next integer version for the base
// URL").
type UpdateParams struct {
	Base          BaseUrl
	Schema        json.RawMessage
	Relationships []RelationshipEdge
}

// Catalog is the operation contract shared identically by data types,
// property types, and entity types (spec §4.2). A single implementation
// serves all three kinds, keyed by the Kind field of the records it stores.
type Catalog interface {
	// Create inserts the first or a colliding edition of base_url/version.
	// It fails with ErrAlreadyExists unless params.OnConflict is
	// OnConflictSkip, in which case the existing record is returned.
	Create(ctx context.Context, actor ids.ActorId, params CreateParams) (Record, error)

	// Get resolves a single edition by its VersionedUrl. Structural-query
	// based retrieval with temporal axes, resolve depths, and policy
	// filtering lives in pkg/subgraph and pkg/filter, which call Catalog
	// implementations as their leaf data source.
	Get(ctx context.Context, id VersionedUrl) (Record, error)

	// ListVersions returns every edition (including archived ones) known
	// for a base URL, ordered by version ascending.
	ListVersions(ctx context.Context, base BaseUrl) ([]Record, error)

	// Update allocates the next dense version for params.Base and stores
	// the new schema and relationships under it.
	Update(ctx context.Context, actor ids.ActorId, params UpdateParams) (Record, error)

	// Archive tombstones the latest live edition of base without removing
	// history. Fails with ErrNoLiveEditions if none is live.
	Archive(ctx context.Context, base BaseUrl) error

	// Unarchive clears the tombstone on the latest edition of base.
	Unarchive(ctx context.Context, base BaseUrl) error
}
