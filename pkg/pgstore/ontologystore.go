package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/ontology"
)

// Compile-time assertion that OntologyStore satisfies ontology.Catalog.
var _ ontology.Catalog = (*OntologyStore)(nil)

// OntologyStore is the PostgreSQL-backed [ontology.Catalog]. It ports
// pkg/ontology.MemStore's dense-versioning and single-live-edition rules
// onto the ontology_editions/ontology_edges tables, serialising each
// edition's [ontology.RelationshipEdge] list into its own table rather than
// the schema JSONB blob so the subgraph resolver's per-edge-kind budget
// (spec §4.6) can query edges with an indexed lookup instead of unpacking
// JSON.
type OntologyStore struct {
	pool     dbPool
	resolver ontology.ActorResolver
}

// NewOntologyStore returns an OntologyStore backed by pool. resolver may be
// nil, in which case actor/web existence checks are skipped. pool may be a
// raw *pgxpool.Pool or a [BreakerPool].
func NewOntologyStore(pool dbPool, resolver ontology.ActorResolver) *OntologyStore {
	return &OntologyStore{pool: pool, resolver: resolver}
}

func (s *OntologyStore) checkActor(ctx context.Context, actor ids.ActorId) error {
	if s.resolver == nil {
		return nil
	}
	ok, err := s.resolver.ActorExists(ctx, actor)
	if err != nil {
		return fmt.Errorf("pgstore: resolve actor: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ontology.ErrUnknownActor, actor)
	}
	return nil
}

func (s *OntologyStore) checkWeb(ctx context.Context, web ids.WebId) error {
	if s.resolver == nil {
		return nil
	}
	ok, err := s.resolver.WebExists(ctx, web)
	if err != nil {
		return fmt.Errorf("pgstore: resolve web: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: web %s", ontology.ErrUnknownActor, web)
	}
	return nil
}

// Create implements [ontology.Catalog.Create].
func (s *OntologyStore) Create(ctx context.Context, actor ids.ActorId, params ontology.CreateParams) (ontology.Record, error) {
	if err := s.checkActor(ctx, actor); err != nil {
		return ontology.Record{}, err
	}
	if params.OwnedBy != nil {
		if err := s.checkWeb(ctx, *params.OwnedBy); err != nil {
			return ontology.Record{}, err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ontology.Record{}, fmt.Errorf("pgstore: begin create tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var existingKind *string
	var maxVersion int
	err = tx.QueryRow(ctx, `
		SELECT kind, COALESCE(MAX(version), 0)
		FROM   ontology_editions
		WHERE  base_url = $1
		GROUP BY kind`, string(params.Base)).Scan(&existingKind, &maxVersion)
	if err != nil && !isNoRows(err) {
		return ontology.Record{}, fmt.Errorf("pgstore: create: %w", err)
	}

	if existingKind != nil && *existingKind != params.Kind.String() && maxVersion > 0 {
		return ontology.Record{}, fmt.Errorf("ontology: base url %s already used for kind %s", params.Base, *existingKind)
	}

	version := ontology.OntologyTypeVersion(maxVersion + 1)
	if version != 1 {
		if params.OnConflict == ontology.OnConflictSkip {
			existing, err := s.getTx(ctx, tx, ontology.VersionedUrl{Base: params.Base, Version: ontology.OntologyTypeVersion(maxVersion)})
			if err != nil {
				return ontology.Record{}, fmt.Errorf("pgstore: create on-conflict-skip lookup: %w", err)
			}
			return existing, nil
		}
		return ontology.Record{}, fmt.Errorf("%w: %s", ontology.ErrAlreadyExists, params.Base)
	}

	rec := ontology.Record{
		Id:            ontology.VersionedUrl{Base: params.Base, Version: version},
		Kind:          params.Kind,
		Schema:        params.Schema,
		Relationships: append([]ontology.RelationshipEdge(nil), params.Relationships...),
		Metadata: ontology.OntologyElementMetadata{
			Id:              ontology.VersionedUrl{Base: params.Base, Version: version},
			OwnedBy:         params.OwnedBy,
			RecordCreatedBy: actor,
		},
	}
	if err := s.insertRecordTx(ctx, tx, rec); err != nil {
		return ontology.Record{}, fmt.Errorf("pgstore: create: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return ontology.Record{}, fmt.Errorf("pgstore: commit create: %w", err)
	}
	return rec, nil
}

// Get implements [ontology.Catalog.Get].
func (s *OntologyStore) Get(ctx context.Context, id ontology.VersionedUrl) (ontology.Record, error) {
	return s.getTx(ctx, s.pool, id)
}

func (s *OntologyStore) getTx(ctx context.Context, q pgxRowQuerier, id ontology.VersionedUrl) (ontology.Record, error) {
	const sel = `
		SELECT base_url, version, kind, schema, owned_by_web_id,
		       created_by_kind, created_by_user, created_by_machine, fetched_at, archived
		FROM   ontology_editions
		WHERE  base_url = $1 AND version = $2`

	var (
		baseURL, kindStr, createdByKind string
		version                        int
		schemaJSON                     []byte
		ownedBy                        *uuid.UUID
		createdByUser, createdByMachine *uuid.UUID
		fetchedAt                      *time.Time
		archived                       bool
	)
	err := q.QueryRow(ctx, sel, string(id.Base), int(id.Version)).Scan(
		&baseURL, &version, &kindStr, &schemaJSON, &ownedBy,
		&createdByKind, &createdByUser, &createdByMachine, &fetchedAt, &archived,
	)
	if err != nil {
		if isNoRows(err) {
			return ontology.Record{}, fmt.Errorf("%w: %s", ontology.ErrNotFound, id)
		}
		return ontology.Record{}, fmt.Errorf("pgstore: get: %w", err)
	}

	edges, err := s.edgesFor(ctx, q, ontology.BaseUrl(baseURL), ontology.OntologyTypeVersion(version))
	if err != nil {
		return ontology.Record{}, err
	}

	kind, err := parseOntologyKind(kindStr)
	if err != nil {
		return ontology.Record{}, err
	}
	actor, err := columnsToActor(createdByKind, createdByUser, createdByMachine)
	if err != nil {
		return ontology.Record{}, err
	}

	var ownedByWeb *ids.WebId
	if ownedBy != nil {
		w := ids.WebId(*ownedBy)
		ownedByWeb = &w
	}

	return ontology.Record{
		Id:     ontology.VersionedUrl{Base: ontology.BaseUrl(baseURL), Version: ontology.OntologyTypeVersion(version)},
		Kind:   kind,
		Schema: json.RawMessage(schemaJSON),
		Metadata: ontology.OntologyElementMetadata{
			Id:              ontology.VersionedUrl{Base: ontology.BaseUrl(baseURL), Version: ontology.OntologyTypeVersion(version)},
			OwnedBy:         ownedByWeb,
			RecordCreatedBy: actor,
			FetchedAt:       fetchedAt,
		},
		Archived:      archived,
		Relationships: edges,
	}, nil
}

// ListVersions implements [ontology.Catalog.ListVersions].
func (s *OntologyStore) ListVersions(ctx context.Context, base ontology.BaseUrl) ([]ontology.Record, error) {
	const q = `SELECT version FROM ontology_editions WHERE base_url = $1`
	rows, err := s.pool.Query(ctx, q, string(base))
	if err != nil {
		return nil, fmt.Errorf("pgstore: list versions: %w", err)
	}
	versions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (int, error) {
		var v int
		err := row.Scan(&v)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: list versions: %w", err)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: %s", ontology.ErrNotFound, base)
	}
	sort.Ints(versions)

	out := make([]ontology.Record, 0, len(versions))
	for _, v := range versions {
		rec, err := s.Get(ctx, ontology.VersionedUrl{Base: base, Version: ontology.OntologyTypeVersion(v)})
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Update implements [ontology.Catalog.Update].
func (s *OntologyStore) Update(ctx context.Context, actor ids.ActorId, params ontology.UpdateParams) (ontology.Record, error) {
	if err := s.checkActor(ctx, actor); err != nil {
		return ontology.Record{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ontology.Record{}, fmt.Errorf("pgstore: begin update tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var kindStr string
	var maxVersion int
	var prevOwner *uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT kind, version, owned_by_web_id
		FROM   ontology_editions
		WHERE  base_url = $1
		ORDER BY version DESC
		LIMIT 1`, string(params.Base)).Scan(&kindStr, &maxVersion, &prevOwner)
	if err != nil {
		if isNoRows(err) {
			return ontology.Record{}, fmt.Errorf("%w: %s", ontology.ErrNotFound, params.Base)
		}
		return ontology.Record{}, fmt.Errorf("pgstore: update: %w", err)
	}

	kind, err := parseOntologyKind(kindStr)
	if err != nil {
		return ontology.Record{}, err
	}

	var ownedByWeb *ids.WebId
	if prevOwner != nil {
		w := ids.WebId(*prevOwner)
		ownedByWeb = &w
	}

	nextVersion := ontology.OntologyTypeVersion(maxVersion + 1)
	rec := ontology.Record{
		Id:            ontology.VersionedUrl{Base: params.Base, Version: nextVersion},
		Kind:          kind,
		Schema:        params.Schema,
		Relationships: append([]ontology.RelationshipEdge(nil), params.Relationships...),
		Metadata: ontology.OntologyElementMetadata{
			Id:              ontology.VersionedUrl{Base: params.Base, Version: nextVersion},
			OwnedBy:         ownedByWeb,
			RecordCreatedBy: actor,
		},
	}
	if err := s.insertRecordTx(ctx, tx, rec); err != nil {
		return ontology.Record{}, fmt.Errorf("pgstore: update: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return ontology.Record{}, fmt.Errorf("pgstore: commit update: %w", err)
	}
	return rec, nil
}

// Archive implements [ontology.Catalog.Archive].
func (s *OntologyStore) Archive(ctx context.Context, base ontology.BaseUrl) error {
	const q = `
		UPDATE ontology_editions
		SET    archived = TRUE
		WHERE  base_url = $1 AND version = (
			SELECT version FROM ontology_editions
			WHERE base_url = $1 AND archived = FALSE
			ORDER BY version DESC LIMIT 1
		)`
	tag, err := s.pool.Exec(ctx, q, string(base))
	if err != nil {
		return fmt.Errorf("pgstore: archive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ontology.ErrNoLiveEditions, base)
	}
	return nil
}

// Unarchive implements [ontology.Catalog.Unarchive].
func (s *OntologyStore) Unarchive(ctx context.Context, base ontology.BaseUrl) error {
	const q = `
		UPDATE ontology_editions
		SET    archived = FALSE
		WHERE  base_url = $1 AND version = (
			SELECT MAX(version) FROM ontology_editions WHERE base_url = $1
		)`
	tag, err := s.pool.Exec(ctx, q, string(base))
	if err != nil {
		return fmt.Errorf("pgstore: unarchive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ontology.ErrNotFound, base)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared helpers
// ─────────────────────────────────────────────────────────────────────────────

// pgxRowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxRowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func parseOntologyKind(s string) (ontology.Kind, error) {
	switch s {
	case ontology.KindDataType.String():
		return ontology.KindDataType, nil
	case ontology.KindPropertyType.String():
		return ontology.KindPropertyType, nil
	case ontology.KindEntityType.String():
		return ontology.KindEntityType, nil
	default:
		return 0, fmt.Errorf("pgstore: unknown ontology kind %q", s)
	}
}

func parseEdgeKind(s string) (ontology.EdgeKind, error) {
	kinds := []ontology.EdgeKind{
		ontology.EdgeInheritsFrom, ontology.EdgeConstrainsValuesOn, ontology.EdgeConstrainsPropertiesOn,
		ontology.EdgeConstrainsLinksOn, ontology.EdgeConstrainsLinkDestinationsOn,
	}
	for _, k := range kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("pgstore: unknown edge kind %q", s)
}

func (s *OntologyStore) insertRecordTx(ctx context.Context, tx pgx.Tx, rec ontology.Record) error {
	createdByKind, createdByUser, createdByMachine := actorToColumns(rec.Metadata.RecordCreatedBy)
	var ownedBy *uuid.UUID
	if rec.Metadata.OwnedBy != nil {
		w := uuid.UUID(*rec.Metadata.OwnedBy)
		ownedBy = &w
	}

	const q = `
		INSERT INTO ontology_editions (
			base_url, version, kind, schema, owned_by_web_id,
			created_by_kind, created_by_user, created_by_machine, fetched_at, archived
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)`
	_, err := tx.Exec(ctx, q,
		string(rec.Id.Base), int(rec.Id.Version), rec.Kind.String(), []byte(rec.Schema), ownedBy,
		createdByKind, createdByUser, createdByMachine, rec.Metadata.FetchedAt,
	)
	if err != nil {
		return err
	}

	for _, edge := range rec.Relationships {
		const edgeQ = `
			INSERT INTO ontology_edges (base_url, version, edge_kind, target_base_url, target_version)
			VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.Exec(ctx, edgeQ,
			string(rec.Id.Base), int(rec.Id.Version), edge.Kind.String(),
			string(edge.Target.Base), int(edge.Target.Version),
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *OntologyStore) edgesFor(ctx context.Context, q pgxRowQuerier, base ontology.BaseUrl, version ontology.OntologyTypeVersion) ([]ontology.RelationshipEdge, error) {
	const sel = `
		SELECT edge_kind, target_base_url, target_version
		FROM   ontology_edges
		WHERE  base_url = $1 AND version = $2`
	rows, err := q.Query(ctx, sel, string(base), int(version))
	if err != nil {
		return nil, fmt.Errorf("pgstore: load edges: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ontology.RelationshipEdge, error) {
		var (
			edgeKindStr          string
			targetBase           string
			targetVersion        int
		)
		if err := row.Scan(&edgeKindStr, &targetBase, &targetVersion); err != nil {
			return ontology.RelationshipEdge{}, err
		}
		kind, err := parseEdgeKind(edgeKindStr)
		if err != nil {
			return ontology.RelationshipEdge{}, err
		}
		return ontology.RelationshipEdge{
			Kind:   kind,
			Target: ontology.VersionedUrl{Base: ontology.BaseUrl(targetBase), Version: ontology.OntologyTypeVersion(targetVersion)},
		}, nil
	})
}
