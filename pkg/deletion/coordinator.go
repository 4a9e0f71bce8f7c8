package deletion

import (
	"context"
	"time"

	"github.com/MrWong99/entigraph/internal/observe"
	"github.com/MrWong99/entigraph/pkg/authz"
	"github.com/MrWong99/entigraph/pkg/entity"
	"github.com/MrWong99/entigraph/pkg/grapherr"
	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/ontology"
)

// Coordinator implements delete_entities (spec §4.7): the six-step
// bitemporal delete protocol plus tombstone provenance. It composes the
// entity store (selection, edition history, atomic removal), the
// authorization engine (the Delete action gate), and a tombstone sink.
type Coordinator struct {
	entities   entity.Store
	tombstones TombstoneStore
	engine     *authz.Engine
	metrics    *observe.Metrics
}

// NewCoordinator builds a Coordinator. metrics may be nil, in which case
// [observe.DefaultMetrics] is used.
func NewCoordinator(entities entity.Store, tombstones TombstoneStore, engine *authz.Engine, metrics *observe.Metrics) *Coordinator {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Coordinator{entities: entities, tombstones: tombstones, engine: engine, metrics: metrics}
}

// DeleteEntities runs the full protocol. A decision time before any selected
// entity existed is not an error — it yields a zero-valued DeletionSummary,
// per spec §4.7's "NotFound is not an error" rule (concrete scenario 3 in
// spec §8).
func (c *Coordinator) DeleteEntities(ctx context.Context, actor ids.ActorId, params Params) (DeletionSummary, error) {
	ctx, span := observe.StartSpan(ctx, "deletion.DeleteEntities")
	defer span.End()

	// Step 1: bind transaction_time = now(); reject a future decision time.
	transactionTime := time.Now().UTC()
	decisionTime := transactionTime
	if params.DecisionTime != nil {
		decisionTime = params.DecisionTime.UTC()
	}
	if decisionTime.After(transactionTime) {
		return DeletionSummary{}, &InvalidDecisionTime{
			DecisionTime:    decisionTime.Format(time.RFC3339Nano),
			TransactionTime: transactionTime.Format(time.RFC3339Nano),
		}
	}

	// Step 3: select entities alive at decisionTime.
	live, err := c.entities.ListLiveUuids(ctx, params.WebId, decisionTime)
	if err != nil {
		return DeletionSummary{}, grapherr.Wrap(err, "deletion: select entities for deletion")
	}
	selected := intersectOrAll(live, params.EntityUuids)
	if len(selected) == 0 {
		return DeletionSummary{}, nil
	}

	// Resolve each candidate's current edition up front: it tells us
	// whether the entity is still draft-only, supplies the Resource
	// attributes the authorization check needs, and is reused for the
	// link-behaviour pass below.
	current := make(map[ids.EntityUuid]entity.Entity, len(selected))
	for _, uuid := range selected {
		ent, err := c.entities.GetEntity(ctx, entity.EntityId{EntityUuid: uuid})
		if err != nil {
			return DeletionSummary{}, grapherr.Wrap(err, "deletion: load candidate entity")
		}
		if ent.Id.IsDraft() && !params.IncludeDrafts {
			continue
		}
		current[uuid] = ent
	}
	if len(current) == 0 {
		return DeletionSummary{}, nil
	}

	if err := c.authorizeAll(ctx, actor, current); err != nil {
		return DeletionSummary{}, err
	}

	deletionSet, err := c.applyLinkBehavior(ctx, params.Scope.LinkBehavior, current)
	if err != nil {
		return DeletionSummary{}, err
	}

	summary, err := c.commit(ctx, actor, transactionTime, decisionTime, deletionSet)
	if err != nil {
		return DeletionSummary{}, err
	}

	observe.Logger(ctx).Info("deletion.DeleteEntities",
		"actor", actor.String(),
		"full_entities", summary.FullEntities,
		"draft_deletions", summary.DraftDeletions,
	)
	return summary, nil
}

// authorizeAll checks ActionDelete for every candidate. Partial failures are
// impossible per spec §7 — if any candidate is unauthorized the whole call
// fails before anything is touched.
func (c *Coordinator) authorizeAll(ctx context.Context, actor ids.ActorId, candidates map[ids.EntityUuid]entity.Entity) error {
	if c.engine == nil {
		return nil
	}
	for uuid, ent := range candidates {
		resource := authz.Resource{
			Kind:               authz.ResourceEntity,
			WebId:              &ent.Id.WebId,
			EntityTypeBaseUrls: entityTypeBaseUrls(ent),
			CreatedBy:          ent.Provenance.CreatedById,
		}
		ok, err := c.engine.Authorize(ctx, actor, authz.ActionDelete, resource)
		if err != nil {
			return grapherr.Wrap(err, "deletion: authorize")
		}
		if !ok {
			c.metrics.RecordAuthorizationDenied(ctx, authz.ActionDelete.String(), authz.ResourceEntity.String())
			return &Unauthorized{EntityUuid: uuid}
		}
	}
	return nil
}

// applyLinkBehavior resolves Scope.LinkBehavior against the selected
// candidates, returning the full set of entities the commit phase must
// tombstone and delete. Ignore fails on the first dependent link found
// outside the set; Cascade transitively folds referencing links in.
func (c *Coordinator) applyLinkBehavior(ctx context.Context, behavior LinkBehavior, candidates map[ids.EntityUuid]entity.Entity) (map[ids.EntityUuid]entity.Entity, error) {
	set := make(map[ids.EntityUuid]entity.Entity, len(candidates))
	for uuid, ent := range candidates {
		set[uuid] = ent
	}

	// Process a worklist so Cascade's newly-added link entities are
	// themselves checked for dependents.
	worklist := make([]ids.EntityUuid, 0, len(set))
	for uuid := range set {
		worklist = append(worklist, uuid)
	}

	for len(worklist) > 0 {
		uuid := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		links, err := c.entities.ListLinksReferencing(ctx, uuid)
		if err != nil {
			return nil, grapherr.Wrap(err, "deletion: list dependent links")
		}
		for _, link := range links {
			if _, already := set[link.Id.EntityUuid]; already {
				continue
			}
			switch behavior {
			case Ignore:
				return nil, &DependentLinkExists{EntityUuid: uuid, LinkEntityUuid: link.Id.EntityUuid}
			case Cascade:
				set[link.Id.EntityUuid] = link
				worklist = append(worklist, link.Id.EntityUuid)
			}
		}
	}
	return set, nil
}

// commit runs steps 4-6 of the protocol: collect every edition ever
// recorded for each selected entity (no temporal restriction), insert one
// tombstone per entity, then delete every collected edition atomically.
func (c *Coordinator) commit(ctx context.Context, actor ids.ActorId, transactionTime, decisionTime time.Time, set map[ids.EntityUuid]entity.Entity) (DeletionSummary, error) {
	var (
		editionIds []ids.EntityEditionId
		summary    DeletionSummary
	)

	for uuid, ent := range set {
		// Step 4: collect_entity_edition_ids — every edition, live or
		// archived, regardless of whether it was alive at decisionTime.
		editions, err := c.entities.ListEditions(ctx, uuid)
		if err != nil {
			return DeletionSummary{}, grapherr.Wrap(err, "deletion: collect entity edition ids")
		}
		for _, ed := range editions {
			editionIds = append(editionIds, ed.EditionId)
		}

		// Step 5: one tombstone row per entity uuid.
		if c.tombstones != nil {
			if err := c.tombstones.Insert(ctx, Tombstone{
				WebId:                    ent.Id.WebId,
				EntityUuid:               uuid,
				DeletedAtTransactionTime: transactionTime,
				DeletedAtDecisionTime:    decisionTime,
				DeletedBy:                actor,
			}); err != nil {
				return DeletionSummary{}, grapherr.Wrap(err, "deletion: insert tombstone")
			}
		}

		if ent.Id.IsDraft() {
			summary.DraftDeletions++
		} else {
			summary.FullEntities++
		}
		c.metrics.RecordDeletion(ctx, ent.Id.IsDraft())
	}

	// Step 6: delete temporal metadata rows and edition rows atomically.
	// MemStore and the Postgres-backed store both implement this as a
	// single transaction over editionIds.
	if err := c.entities.DeleteEditions(ctx, editionIds); err != nil {
		return DeletionSummary{}, grapherr.Wrap(err, "deletion: delete editions")
	}

	return summary, nil
}

func entityTypeBaseUrls(ent entity.Entity) []ontology.BaseUrl {
	out := make([]ontology.BaseUrl, len(ent.Types))
	for i, t := range ent.Types {
		out[i] = t.Base
	}
	return out
}

// intersectOrAll returns live unchanged when filter is nil/empty, otherwise
// the subset of live present in filter.
func intersectOrAll(live []ids.EntityUuid, filter []ids.EntityUuid) []ids.EntityUuid {
	if len(filter) == 0 {
		return live
	}
	allowed := make(map[ids.EntityUuid]bool, len(filter))
	for _, id := range filter {
		allowed[id] = true
	}
	out := make([]ids.EntityUuid, 0, len(live))
	for _, id := range live {
		if allowed[id] {
			out = append(out, id)
		}
	}
	return out
}
