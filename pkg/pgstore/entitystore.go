package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrWong99/entigraph/pkg/entity"
	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/ontology"
	"github.com/MrWong99/entigraph/pkg/temporal"
)

// Compile-time assertion that EntityStore satisfies entity.Store.
var _ entity.Store = (*EntityStore)(nil)

// EntityStore is the PostgreSQL-backed [entity.Store]. It ports
// pkg/entity.MemStore's exact business rules — edition ordering, decision-
// time interval closing on patch, draft finalisation — onto the
// entity_editions table, scanning and writing rows with the teacher's
// pgx.CollectRows idiom (pkg/memory/postgres/knowledge_graph.go) instead of
// MemStore's mutex-guarded slice.
type EntityStore struct {
	pool dbPool
	auth entity.AuthChecker
}

// NewEntityStore returns an EntityStore backed by pool. auth may be nil, in
// which case CreateEntity's authorization check is skipped. pool may be a
// raw *pgxpool.Pool or a [BreakerPool].
func NewEntityStore(pool dbPool, auth entity.AuthChecker) *EntityStore {
	return &EntityStore{pool: pool, auth: auth}
}

// CreateEntity implements [entity.Store.CreateEntity].
func (s *EntityStore) CreateEntity(ctx context.Context, actor ids.ActorId, params entity.CreateParams) (entity.Entity, error) {
	if s.auth != nil {
		ok, err := s.auth.CanCreate(ctx, actor, params.WebId)
		if err != nil {
			return entity.Entity{}, fmt.Errorf("pgstore: check authorization: %w", err)
		}
		if !ok {
			return entity.Entity{}, entity.ErrUnauthorizedWeb
		}
	}
	if len(params.Types) == 0 {
		return entity.Entity{}, &entity.ValidationFailed{Path: "$.types", Reason: "at least one entity type is required"}
	}

	entityUuid := ids.NewEntityUuid()
	if params.EntityUuid != nil {
		entityUuid = *params.EntityUuid
	}
	eid := entity.EntityId{WebId: params.WebId, EntityUuid: entityUuid}
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
		return entity.Entity{}, fmt.Errorf("pgstore: build decision interval: %w", err)
	}
	transaction, err := temporal.NewInterval(
		temporal.InclusiveBound(temporal.TimestampFrom[temporal.TransactionTime](now)),
		temporal.UnboundedBound[temporal.TransactionTime](),
	)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("pgstore: build transaction interval: %w", err)
	}

	ed := entity.Edition{
		EditionId:  ids.NewEntityEditionId(),
		EntityId:   eid,
		Types:      append([]ontology.EntityTypeId(nil), params.Types...),
		Properties: params.Properties,
		Metadata:   params.Metadata,
		LinkData:   params.LinkData,
		Versioning: entity.TemporalVersioning{DecisionTime: decision, TransactionTime: transaction},
		Provenance: entity.Provenance{CreatedById: actor},
	}

	if err := s.insertEdition(ctx, ed); err != nil {
		return entity.Entity{}, fmt.Errorf("pgstore: insert edition: %w", err)
	}
	return editionToEntity(ed), nil
}

// GetEntity implements [entity.Store.GetEntity]: the latest non-archived
// edition, ordered by insertion sequence like MemStore's append-ordered
// slice scan.
func (s *EntityStore) GetEntity(ctx context.Context, id entity.EntityId) (entity.Entity, error) {
	const q = `
		SELECT ` + editionColumns + `
		FROM   entity_editions
		WHERE  entity_uuid = $1 AND archived = FALSE
		ORDER BY seq DESC
		LIMIT 1`

	rows, err := s.pool.Query(ctx, q, uuid.UUID(id.EntityUuid))
	if err != nil {
		return entity.Entity{}, fmt.Errorf("pgstore: get entity: %w", err)
	}
	eds, err := collectEditions(rows)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("pgstore: get entity: %w", err)
	}
	if len(eds) == 0 {
		return entity.Entity{}, fmt.Errorf("%w: %s", entity.ErrNotFound, id.EntityUuid)
	}
	return editionToEntity(eds[0]), nil
}

// GetEdition implements [entity.Store.GetEdition].
func (s *EntityStore) GetEdition(ctx context.Context, editionId ids.EntityEditionId) (entity.Edition, error) {
	const q = `SELECT ` + editionColumns + ` FROM entity_editions WHERE edition_id = $1`

	rows, err := s.pool.Query(ctx, q, uuid.UUID(editionId))
	if err != nil {
		return entity.Edition{}, fmt.Errorf("pgstore: get edition: %w", err)
	}
	eds, err := collectEditions(rows)
	if err != nil {
		return entity.Edition{}, fmt.Errorf("pgstore: get edition: %w", err)
	}
	if len(eds) == 0 {
		return entity.Edition{}, fmt.Errorf("%w: edition %s", entity.ErrNotFound, editionId)
	}
	return eds[0], nil
}

// PatchEntity implements [entity.Store.PatchEntity]. It runs inside a single
// transaction: read the current live edition, validate and apply the patch,
// close the current edition's decision-time interval, and insert the new
// one — mirroring MemStore.PatchEntity's control flow with SQL reads/writes
// standing in for the in-memory slice mutation.
func (s *EntityStore) PatchEntity(ctx context.Context, actor ids.ActorId, params entity.PatchParams) (entity.Entity, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("pgstore: begin patch tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		SELECT ` + editionColumns + `
		FROM   entity_editions
		WHERE  entity_uuid = $1 AND archived = FALSE
		ORDER BY seq DESC
		LIMIT 1
		FOR UPDATE`

	rows, err := tx.Query(ctx, q, uuid.UUID(params.Id.EntityUuid))
	if err != nil {
		return entity.Entity{}, fmt.Errorf("pgstore: patch entity: %w", err)
	}
	eds, err := collectEditions(rows)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("pgstore: patch entity: %w", err)
	}
	if len(eds) == 0 {
		return entity.Entity{}, fmt.Errorf("%w: %s", entity.ErrNotFound, params.Id.EntityUuid)
	}
	current := eds[0]

	at := time.Now().UTC()
	if params.DecisionTime != nil {
		at = *params.DecisionTime
	}
	newDecisionStart := temporal.TimestampFrom[temporal.DecisionTime](at)
	if current.Versioning.DecisionTime.Start.Kind != temporal.Unbounded &&
		newDecisionStart.Before(current.Versioning.DecisionTime.Start.At) {
		return entity.Entity{}, entity.ErrInvalidDecisionTime
	}

	patched, err := entity.ApplyPatch(current.Properties, params.Ops)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("pgstore: apply patch: %w", err)
	}

	closedDecision, err := temporal.NewInterval(current.Versioning.DecisionTime.Start, temporal.ExclusiveBound(newDecisionStart))
	if err != nil {
		return entity.Entity{}, fmt.Errorf("pgstore: close previous edition: %w", err)
	}
	if err := s.updateDecisionEnd(ctx, tx, current.EditionId, closedDecision.End); err != nil {
		return entity.Entity{}, fmt.Errorf("pgstore: close previous edition: %w", err)
	}

	next := entity.Edition{
		EditionId:  ids.NewEntityEditionId(),
		EntityId:   params.Id,
		Types:      current.Types,
		Properties: patched,
		Metadata:   current.Metadata,
		LinkData:   current.LinkData,
		Versioning: entity.TemporalVersioning{
			DecisionTime: mustInterval(temporal.NewInterval(
				temporal.InclusiveBound(newDecisionStart),
				temporal.UnboundedBound[temporal.DecisionTime](),
			)),
			TransactionTime: mustInterval(temporal.NewInterval(
				temporal.InclusiveBound(temporal.TimestampFrom[temporal.TransactionTime](time.Now().UTC())),
				temporal.UnboundedBound[temporal.TransactionTime](),
			)),
		},
		Provenance: entity.Provenance{CreatedById: actor},
	}

	if err := s.insertEditionTx(ctx, tx, next); err != nil {
		return entity.Entity{}, fmt.Errorf("pgstore: insert patched edition: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return entity.Entity{}, fmt.Errorf("pgstore: commit patch: %w", err)
	}
	return editionToEntity(next), nil
}

// FinalizeDraft implements [entity.Store.FinalizeDraft].
func (s *EntityStore) FinalizeDraft(ctx context.Context, actor ids.ActorId, uid ids.EntityUuid) (entity.Entity, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("pgstore: begin finalize tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const checkQ = `
		SELECT draft_id FROM entity_editions
		WHERE  entity_uuid = $1
		ORDER BY seq DESC
		LIMIT 1
		FOR UPDATE`
	var draftID *uuid.UUID
	if err := tx.QueryRow(ctx, checkQ, uuid.UUID(uid)).Scan(&draftID); err != nil {
		if isNoRows(err) {
			return entity.Entity{}, fmt.Errorf("%w: %s", entity.ErrNotFound, uid)
		}
		return entity.Entity{}, fmt.Errorf("pgstore: finalize draft: %w", err)
	}
	if draftID == nil {
		return entity.Entity{}, fmt.Errorf("%w: %s is not a draft", entity.ErrNotFound, uid)
	}

	const updateQ = `UPDATE entity_editions SET draft_id = NULL WHERE entity_uuid = $1`
	if _, err := tx.Exec(ctx, updateQ, uuid.UUID(uid)); err != nil {
		return entity.Entity{}, fmt.Errorf("pgstore: finalize draft: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return entity.Entity{}, fmt.Errorf("pgstore: commit finalize: %w", err)
	}
	return s.GetEntity(ctx, entity.EntityId{EntityUuid: uid})
}

// ListEditions implements [entity.Store.ListEditions].
func (s *EntityStore) ListEditions(ctx context.Context, uid ids.EntityUuid) ([]entity.Edition, error) {
	const q = `SELECT ` + editionColumns + ` FROM entity_editions WHERE entity_uuid = $1 ORDER BY seq ASC`

	rows, err := s.pool.Query(ctx, q, uuid.UUID(uid))
	if err != nil {
		return nil, fmt.Errorf("pgstore: list editions: %w", err)
	}
	return collectEditions(rows)
}

// ListLiveUuids implements [entity.Store.ListLiveUuids].
func (s *EntityStore) ListLiveUuids(ctx context.Context, web *ids.WebId, decisionTime time.Time) ([]ids.EntityUuid, error) {
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions := []string{"archived = FALSE"}
	if web != nil {
		conditions = append(conditions, "web_id = "+next(uuid.UUID(*web)))
	}
	at := next(decisionTime.UTC())
	conditions = append(conditions,
		fmt.Sprintf("(decision_start_kind = 'unbounded' OR decision_start_at <= %s)", at),
		fmt.Sprintf("(decision_end_kind = 'unbounded' OR decision_end_at > %s)", at),
	)

	q := "SELECT DISTINCT entity_uuid FROM entity_editions"
	for i, c := range conditions {
		if i == 0 {
			q += " WHERE " + c
		} else {
			q += " AND " + c
		}
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list live uuids: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ids.EntityUuid, error) {
		var u uuid.UUID
		if err := row.Scan(&u); err != nil {
			return ids.EntityUuid{}, err
		}
		return ids.EntityUuid(u), nil
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: list live uuids: %w", err)
	}
	return out, nil
}

// DeleteEditions implements [entity.Store.DeleteEditions].
func (s *EntityStore) DeleteEditions(ctx context.Context, editionIds []ids.EntityEditionId) error {
	if len(editionIds) == 0 {
		return nil
	}
	raw := make([]uuid.UUID, len(editionIds))
	for i, id := range editionIds {
		raw[i] = uuid.UUID(id)
	}
	const q = `DELETE FROM entity_editions WHERE edition_id = ANY($1::uuid[])`
	if _, err := s.pool.Exec(ctx, q, raw); err != nil {
		return fmt.Errorf("pgstore: delete editions: %w", err)
	}
	return nil
}

// ListLinksReferencing implements [entity.Store.ListLinksReferencing] as an
// indexed lookup on the link endpoint columns rather than MemStore's full
// scan (pkg/entity/memstore.go documents the scan as the deliberately
// simpler in-memory equivalent).
func (s *EntityStore) ListLinksReferencing(ctx context.Context, uid ids.EntityUuid) ([]entity.Entity, error) {
	const q = `
		SELECT ` + editionColumns + `
		FROM   entity_editions e
		WHERE  e.archived = FALSE
		  AND  (e.link_left_entity_uuid = $1 OR e.link_right_entity_uuid = $1)
		  AND  e.seq = (SELECT MAX(seq) FROM entity_editions WHERE entity_uuid = e.entity_uuid)`

	rows, err := s.pool.Query(ctx, q, uuid.UUID(uid))
	if err != nil {
		return nil, fmt.Errorf("pgstore: list links referencing: %w", err)
	}
	eds, err := collectEditions(rows)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list links referencing: %w", err)
	}
	out := make([]entity.Entity, len(eds))
	for i, ed := range eds {
		out[i] = editionToEntity(ed)
	}
	return out, nil
}

func editionToEntity(ed entity.Edition) entity.Entity {
	return entity.Entity{
		Id:         ed.EntityId,
		Types:      ed.Types,
		Properties: ed.Properties,
		Metadata:   ed.Metadata,
		LinkData:   ed.LinkData,
		Versioning: ed.Versioning,
		Provenance: ed.Provenance,
	}
}

func mustInterval[A any](iv temporal.Interval[A], err error) temporal.Interval[A] {
	if err != nil {
		panic(err)
	}
	return iv
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Row (de)serialisation
// ─────────────────────────────────────────────────────────────────────────────

const editionColumns = `
	edition_id, web_id, entity_uuid, draft_id, types, properties, metadata,
	link_left_web_id, link_left_entity_uuid, link_left_draft_id,
	link_right_web_id, link_right_entity_uuid, link_right_draft_id,
	link_left_confidence, link_right_confidence,
	decision_start_kind, decision_start_at, decision_end_kind, decision_end_at,
	transaction_start_kind, transaction_start_at, transaction_end_kind, transaction_end_at,
	created_by_kind, created_by_user, created_by_machine, provenance_source, archived`

func (s *EntityStore) insertEdition(ctx context.Context, ed entity.Edition) error {
	return s.insertEditionTx(ctx, s.pool, ed)
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, letting
// insertEditionTx and updateDecisionEnd run inside or outside an explicit
// transaction.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *EntityStore) insertEditionTx(ctx context.Context, tx pgxQuerier, ed entity.Edition) error {
	typesJSON, err := json.Marshal(ed.Types)
	if err != nil {
		return fmt.Errorf("marshal types: %w", err)
	}
	propsJSON, err := json.Marshal(ed.Properties)
	if err != nil {
		return fmt.Errorf("marshal properties: %w", err)
	}
	metaJSON, err := json.Marshal(ed.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	var draftID *uuid.UUID
	if ed.EntityId.DraftId != nil {
		d := uuid.UUID(*ed.EntityId.DraftId)
		draftID = &d
	}

	var (
		llWeb, llUuid, llDraft *uuid.UUID
		rlWeb, rlUuid, rlDraft *uuid.UUID
		llConf, rlConf         *float64
	)
	if ed.LinkData != nil {
		w := uuid.UUID(ed.LinkData.LeftEntityId.WebId)
		u := uuid.UUID(ed.LinkData.LeftEntityId.EntityUuid)
		llWeb, llUuid = &w, &u
		if ed.LinkData.LeftEntityId.DraftId != nil {
			d := uuid.UUID(*ed.LinkData.LeftEntityId.DraftId)
			llDraft = &d
		}
		w2 := uuid.UUID(ed.LinkData.RightEntityId.WebId)
		u2 := uuid.UUID(ed.LinkData.RightEntityId.EntityUuid)
		rlWeb, rlUuid = &w2, &u2
		if ed.LinkData.RightEntityId.DraftId != nil {
			d := uuid.UUID(*ed.LinkData.RightEntityId.DraftId)
			rlDraft = &d
		}
		llConf = ed.LinkData.LeftConfidence
		rlConf = ed.LinkData.RightConfidence
	}

	decisionStartKind, decisionStartAt := boundToColumns(ed.Versioning.DecisionTime.Start)
	decisionEndKind, decisionEndAt := boundToColumns(ed.Versioning.DecisionTime.End)
	transactionStartKind, transactionStartAt := boundToColumns(ed.Versioning.TransactionTime.Start)
	transactionEndKind, transactionEndAt := boundToColumns(ed.Versioning.TransactionTime.End)

	createdByKind, createdByUser, createdByMachine := actorToColumns(ed.Provenance.CreatedById)

	const q = `
		INSERT INTO entity_editions (
			edition_id, web_id, entity_uuid, draft_id, types, properties, metadata,
			link_left_web_id, link_left_entity_uuid, link_left_draft_id,
			link_right_web_id, link_right_entity_uuid, link_right_draft_id,
			link_left_confidence, link_right_confidence,
			decision_start_kind, decision_start_at, decision_end_kind, decision_end_at,
			transaction_start_kind, transaction_start_at, transaction_end_kind, transaction_end_at,
			created_by_kind, created_by_user, created_by_machine, provenance_source, archived
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10,
			$11, $12, $13,
			$14, $15,
			$16, $17, $18, $19,
			$20, $21, $22, $23,
			$24, $25, $26, $27, $28
		)`

	_, err = tx.Exec(ctx, q,
		uuid.UUID(ed.EditionId), uuid.UUID(ed.EntityId.WebId), uuid.UUID(ed.EntityId.EntityUuid), draftID,
		typesJSON, propsJSON, metaJSON,
		llWeb, llUuid, llDraft,
		rlWeb, rlUuid, rlDraft,
		llConf, rlConf,
		decisionStartKind, decisionStartAt, decisionEndKind, decisionEndAt,
		transactionStartKind, transactionStartAt, transactionEndKind, transactionEndAt,
		createdByKind, createdByUser, createdByMachine, ed.Provenance.Source, ed.Archived,
	)
	if err != nil {
		return err
	}
	return nil
}

func (s *EntityStore) updateDecisionEnd(ctx context.Context, tx pgxQuerier, editionId ids.EntityEditionId, end temporal.Bound[temporal.DecisionTime]) error {
	kind, at := boundToColumns(end)
	const q = `UPDATE entity_editions SET decision_end_kind = $1, decision_end_at = $2 WHERE edition_id = $3`
	_, err := tx.Exec(ctx, q, kind, at, uuid.UUID(editionId))
	return err
}

func collectEditions(rows pgx.Rows) ([]entity.Edition, error) {
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Edition, error) {
		var (
			editionID, webID, entityUuid                   uuid.UUID
			draftID                                        *uuid.UUID
			typesJSON, propsJSON, metaJSON                 []byte
			llWeb, llUuid, llDraft                         *uuid.UUID
			rlWeb, rlUuid, rlDraft                         *uuid.UUID
			llConf, rlConf                                 *float64
			decisionStartKind, decisionEndKind             string
			decisionStartAt, decisionEndAt                 *time.Time
			transactionStartKind, transactionEndKind       string
			transactionStartAt, transactionEndAt           *time.Time
			createdByKind, provenanceSource                string
			createdByUser, createdByMachine                *uuid.UUID
			archived                                       bool
		)
		if err := row.Scan(
			&editionID, &webID, &entityUuid, &draftID, &typesJSON, &propsJSON, &metaJSON,
			&llWeb, &llUuid, &llDraft,
			&rlWeb, &rlUuid, &rlDraft,
			&llConf, &rlConf,
			&decisionStartKind, &decisionStartAt, &decisionEndKind, &decisionEndAt,
			&transactionStartKind, &transactionStartAt, &transactionEndKind, &transactionEndAt,
			&createdByKind, &createdByUser, &createdByMachine, &provenanceSource, &archived,
		); err != nil {
			return entity.Edition{}, err
		}

		var types []ontology.EntityTypeId
		if err := json.Unmarshal(typesJSON, &types); err != nil {
			return entity.Edition{}, fmt.Errorf("unmarshal types: %w", err)
		}
		var props entity.PropertyObject
		if err := json.Unmarshal(propsJSON, &props); err != nil {
			return entity.Edition{}, fmt.Errorf("unmarshal properties: %w", err)
		}
		var meta entity.PropertyMetadata
		if err := json.Unmarshal(metaJSON, &meta); err != nil {
			return entity.Edition{}, fmt.Errorf("unmarshal metadata: %w", err)
		}

		eid := entity.EntityId{WebId: ids.WebId(webID), EntityUuid: ids.EntityUuid(entityUuid)}
		if draftID != nil {
			d := ids.DraftId(*draftID)
			eid.DraftId = &d
		}

		var link *entity.LinkData
		if llUuid != nil && rlUuid != nil {
			left := entity.EntityId{WebId: ids.WebId(*llWeb), EntityUuid: ids.EntityUuid(*llUuid)}
			if llDraft != nil {
				d := ids.DraftId(*llDraft)
				left.DraftId = &d
			}
			right := entity.EntityId{WebId: ids.WebId(*rlWeb), EntityUuid: ids.EntityUuid(*rlUuid)}
			if rlDraft != nil {
				d := ids.DraftId(*rlDraft)
				right.DraftId = &d
			}
			link = &entity.LinkData{
				LeftEntityId: left, RightEntityId: right,
				LeftConfidence: llConf, RightConfidence: rlConf,
			}
		}

		decisionStart, err := columnsToBound[temporal.DecisionTime](decisionStartKind, decisionStartAt)
		if err != nil {
			return entity.Edition{}, err
		}
		decisionEnd, err := columnsToBound[temporal.DecisionTime](decisionEndKind, decisionEndAt)
		if err != nil {
			return entity.Edition{}, err
		}
		transactionStart, err := columnsToBound[temporal.TransactionTime](transactionStartKind, transactionStartAt)
		if err != nil {
			return entity.Edition{}, err
		}
		transactionEnd, err := columnsToBound[temporal.TransactionTime](transactionEndKind, transactionEndAt)
		if err != nil {
			return entity.Edition{}, err
		}

		actor, err := columnsToActor(createdByKind, createdByUser, createdByMachine)
		if err != nil {
			return entity.Edition{}, err
		}

		return entity.Edition{
			EditionId:  ids.EntityEditionId(editionID),
			EntityId:   eid,
			Types:      types,
			Properties: props,
			Metadata:   meta,
			LinkData:   link,
			Versioning: entity.TemporalVersioning{
				DecisionTime:    temporal.Interval[temporal.DecisionTime]{Start: decisionStart, End: decisionEnd},
				TransactionTime: temporal.Interval[temporal.TransactionTime]{Start: transactionStart, End: transactionEnd},
			},
			Provenance: entity.Provenance{CreatedById: actor, Source: provenanceSource},
			Archived:   archived,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
