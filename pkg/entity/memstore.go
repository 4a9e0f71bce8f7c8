package entity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/ontology"
	"github.com/MrWong99/entigraph/pkg/temporal"
)

// Compile-time assertion that MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// AuthChecker reports whether actor may perform Create in web. The
// Postgres-backed store wires this to pkg/authz; MemStore callers that don't
// need authorization can pass nil to allow everything.
type AuthChecker interface {
	CanCreate(ctx context.Context, actor ids.ActorId, web ids.WebId) (bool, error)
}

// MemStore is a thread-safe, in-memory [Store] keyed by entity UUID, each
// holding its full edition history (spec §3.3: "entities have one or more
// editions"). It is the unit-test and fixture-seeding counterpart to the
// Postgres-backed store in pkg/pgstore, mirroring
// internal/entity/memstore.go's mutex-guarded map shape.
type MemStore struct {
	mu       sync.RWMutex
	auth     AuthChecker
	editions map[ids.EntityUuid][]Edition
}

// NewMemStore returns an initialised MemStore. auth may be nil.
func NewMemStore(auth AuthChecker) *MemStore {
	return &MemStore{auth: auth, editions: make(map[ids.EntityUuid][]Edition)}
}

func (s *MemStore) checkCreate(ctx context.Context, actor ids.ActorId, web ids.WebId) error {
	if s.auth == nil {
		return nil
	}
	ok, err := s.auth.CanCreate(ctx, actor, web)
	if err != nil {
		return fmt.Errorf("entity: check authorization: %w", err)
	}
	if !ok {
		return ErrUnauthorizedWeb
	}
	return nil
}

// CreateEntity implements [Store.CreateEntity]. Property-tree validation
// against ontology types is the caller's responsibility (via ValidateProperties)
// before calling this method — MemStore stores whatever it's given, matching
// the teacher's MemStore/Validate separation in internal/entity.
func (s *MemStore) CreateEntity(ctx context.Context, actor ids.ActorId, params CreateParams) (Entity, error) {
	if err := s.checkCreate(ctx, actor, params.WebId); err != nil {
		return Entity{}, err
	}
	if len(params.Types) == 0 {
		return Entity{}, &ValidationFailed{Path: "$.types", Reason: "at least one entity type is required"}
	}

	uuid := ids.NewEntityUuid()
	if params.EntityUuid != nil {
		uuid = *params.EntityUuid
	}
	eid := EntityId{WebId: params.WebId, EntityUuid: uuid}
	if params.Draft {
		draft := ids.NewDraftId()
		eid.DraftId = &draft
	}

	now := time.Now().UTC()
	decision, err := temporal.NewInterval(
		temporal.InclusiveBound(temporal.TimestampFrom[temporal.DecisionTime](now)),
		temporal.UnboundedBound[temporal.DecisionTime](),
	)
	if err != nil {
		return Entity{}, fmt.Errorf("entity: build decision interval: %w", err)
	}
	transaction, err := temporal.NewInterval(
		temporal.InclusiveBound(temporal.TimestampFrom[temporal.TransactionTime](now)),
		temporal.UnboundedBound[temporal.TransactionTime](),
	)
	if err != nil {
		return Entity{}, fmt.Errorf("entity: build transaction interval: %w", err)
	}

	ed := Edition{
		EditionId:  ids.NewEntityEditionId(),
		EntityId:   eid,
		Types:      append([]ontology.EntityTypeId(nil), params.Types...),
		Properties: params.Properties,
		Metadata:   params.Metadata,
		LinkData:   params.LinkData,
		Versioning: TemporalVersioning{DecisionTime: decision, TransactionTime: transaction},
		Provenance: Provenance{CreatedById: actor},
	}

	s.mu.Lock()
	s.editions[uuid] = append(s.editions[uuid], ed)
	s.mu.Unlock()

	return editionToEntity(ed), nil
}

// GetEntity implements [Store.GetEntity]: the latest non-archived edition.
func (s *MemStore) GetEntity(ctx context.Context, id EntityId) (Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eds := s.editions[id.EntityUuid]
	for i := len(eds) - 1; i >= 0; i-- {
		if !eds[i].Archived {
			return editionToEntity(eds[i]), nil
		}
	}
	return Entity{}, fmt.Errorf("%w: %s", ErrNotFound, id.EntityUuid)
}

// GetEdition implements [Store.GetEdition].
func (s *MemStore) GetEdition(ctx context.Context, editionId ids.EntityEditionId) (Edition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, eds := range s.editions {
		for _, ed := range eds {
			if ed.EditionId == editionId {
				return ed, nil
			}
		}
	}
	return Edition{}, fmt.Errorf("%w: edition %s", ErrNotFound, editionId)
}

// PatchEntity implements [Store.PatchEntity]. It applies params.Ops via
// ApplyPatch and allocates a new edition whose decision-time interval starts
// at params.DecisionTime (or now), closing out the previous edition's
// decision-time interval at the same instant (spec §4.3).
func (s *MemStore) PatchEntity(ctx context.Context, actor ids.ActorId, params PatchParams) (Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eds := s.editions[params.Id.EntityUuid]
	var current *Edition
	for i := len(eds) - 1; i >= 0; i-- {
		if !eds[i].Archived {
			current = &eds[i]
			break
		}
	}
	if current == nil {
		return Entity{}, fmt.Errorf("%w: %s", ErrNotFound, params.Id.EntityUuid)
	}

	at := time.Now().UTC()
	if params.DecisionTime != nil {
		at = *params.DecisionTime
	}
	newDecisionStart := temporal.TimestampFrom[temporal.DecisionTime](at)
	if currentStart, ok := boundTime(current.Versioning.DecisionTime.Start); ok && newDecisionStart.Before(currentStart) {
		return Entity{}, ErrInvalidDecisionTime
	}

	patched, err := ApplyPatch(current.Properties, params.Ops)
	if err != nil {
		return Entity{}, fmt.Errorf("entity: apply patch: %w", err)
	}

	closed := *current
	closed.Versioning.DecisionTime, err = temporal.NewInterval(closed.Versioning.DecisionTime.Start, temporal.ExclusiveBound(newDecisionStart))
	if err != nil {
		return Entity{}, fmt.Errorf("entity: close previous edition: %w", err)
	}

	next := Edition{
		EditionId:  ids.NewEntityEditionId(),
		EntityId:   params.Id,
		Types:      current.Types,
		Properties: patched,
		Metadata:   current.Metadata,
		LinkData:   current.LinkData,
		Versioning: TemporalVersioning{
			DecisionTime: mustInterval(temporal.NewInterval(
				temporal.InclusiveBound(newDecisionStart),
				temporal.UnboundedBound[temporal.DecisionTime](),
			)),
			TransactionTime: mustInterval(temporal.NewInterval(
				temporal.InclusiveBound(temporal.TimestampFrom[temporal.TransactionTime](time.Now().UTC())),
				temporal.UnboundedBound[temporal.TransactionTime](),
			)),
		},
		Provenance: Provenance{CreatedById: actor},
	}

	for i := range eds {
		if eds[i].EditionId == current.EditionId {
			eds[i] = closed
			break
		}
	}
	eds = append(eds, next)
	s.editions[params.Id.EntityUuid] = eds

	return editionToEntity(next), nil
}

// FinalizeDraft implements [Store.FinalizeDraft]. It clears DraftId from
// every edition of uuid in place rather than allocating a new edition, unlike
// PatchEntity, which appends one (SPEC_FULL §12).
func (s *MemStore) FinalizeDraft(ctx context.Context, actor ids.ActorId, uuid ids.EntityUuid) (Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eds, ok := s.editions[uuid]
	if !ok || len(eds) == 0 {
		return Entity{}, fmt.Errorf("%w: %s", ErrNotFound, uuid)
	}
	if eds[len(eds)-1].EntityId.DraftId == nil {
		return Entity{}, fmt.Errorf("%w: %s is not a draft", ErrNotFound, uuid)
	}

	for i := range eds {
		eds[i].EntityId.DraftId = nil
	}
	s.editions[uuid] = eds

	var latest *Edition
	for i := len(eds) - 1; i >= 0; i-- {
		if !eds[i].Archived {
			latest = &eds[i]
			break
		}
	}
	if latest == nil {
		return Entity{}, fmt.Errorf("%w: %s", ErrNotFound, uuid)
	}
	return editionToEntity(*latest), nil
}

// ListEditions implements [Store.ListEditions].
func (s *MemStore) ListEditions(ctx context.Context, uuid ids.EntityUuid) ([]Edition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eds := s.editions[uuid]
	out := make([]Edition, len(eds))
	copy(out, eds)
	return out, nil
}

// ListLiveUuids implements [Store.ListLiveUuids]. An entity is alive at
// decisionTime when some edition's decision-time interval contains it and
// the edition is not archived.
func (s *MemStore) ListLiveUuids(ctx context.Context, web *ids.WebId, decisionTime time.Time) ([]ids.EntityUuid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	at := temporal.TimestampFrom[temporal.DecisionTime](decisionTime)
	var out []ids.EntityUuid
	for uuid, eds := range s.editions {
		for _, ed := range eds {
			if ed.Archived {
				continue
			}
			if web != nil && ed.EntityId.WebId != *web {
				continue
			}
			if ed.Versioning.DecisionTime.Contains(at) {
				out = append(out, uuid)
				break
			}
		}
	}
	return out, nil
}

// DeleteEditions implements [Store.DeleteEditions].
func (s *MemStore) DeleteEditions(ctx context.Context, editionIds []ids.EntityEditionId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	toDelete := make(map[ids.EntityEditionId]bool, len(editionIds))
	for _, id := range editionIds {
		toDelete[id] = true
	}

	for uuid, eds := range s.editions {
		kept := eds[:0:0]
		for _, ed := range eds {
			if !toDelete[ed.EditionId] {
				kept = append(kept, ed)
			}
		}
		if len(kept) == 0 {
			delete(s.editions, uuid)
		} else {
			s.editions[uuid] = kept
		}
	}
	return nil
}

// ListLinksReferencing implements [Store.ListLinksReferencing]: a scan over
// every uuid's latest non-archived edition looking for LinkData endpoints
// that name uuid. The Postgres-backed store does this with an indexed
// lookup on left_entity_uuid/right_entity_uuid instead of a full scan.
func (s *MemStore) ListLinksReferencing(ctx context.Context, uuid ids.EntityUuid) ([]Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entity
	for _, eds := range s.editions {
		for i := len(eds) - 1; i >= 0; i-- {
			ed := eds[i]
			if ed.Archived {
				continue
			}
			if ed.LinkData == nil {
				break
			}
			if ed.LinkData.LeftEntityId.EntityUuid == uuid || ed.LinkData.RightEntityId.EntityUuid == uuid {
				out = append(out, editionToEntity(ed))
			}
			break
		}
	}
	return out, nil
}

func editionToEntity(ed Edition) Entity {
	return Entity{
		Id:         ed.EntityId,
		Types:      ed.Types,
		Properties: ed.Properties,
		Metadata:   ed.Metadata,
		LinkData:   ed.LinkData,
		Versioning: ed.Versioning,
		Provenance: ed.Provenance,
	}
}

func boundTime(b temporal.Bound[temporal.DecisionTime]) (temporal.Timestamp[temporal.DecisionTime], bool) {
	if b.Kind == temporal.Unbounded {
		return temporal.Timestamp[temporal.DecisionTime]{}, false
	}
	return b.At, true
}

func mustInterval[A any](iv temporal.Interval[A], err error) temporal.Interval[A] {
	if err != nil {
		panic(err)
	}
	return iv
}
