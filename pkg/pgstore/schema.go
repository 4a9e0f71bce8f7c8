package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ─────────────────────────────────────────────────────────────────────────────
// Entity store DDL
// ─────────────────────────────────────────────────────────────────────────────

// Bitemporal bounds are stored as four flat columns per axis rather than a
// native tstzrange: a range's canonical form collapses the four
// inclusive/exclusive endpoint combinations entigraph's model distinguishes
// (spec §3.1) down to whatever Postgres' range canonicalisation picks, which
// loses information NewInterval needs to reconstruct exactly.
const ddlEntityEditions = `
CREATE TABLE IF NOT EXISTS entity_editions (
    seq                 BIGSERIAL    UNIQUE,
    edition_id          UUID         PRIMARY KEY,
    web_id              UUID         NOT NULL,
    entity_uuid         UUID         NOT NULL,
    draft_id            UUID,
    types               JSONB        NOT NULL,
    properties          JSONB        NOT NULL,
    metadata            JSONB        NOT NULL,
    link_left_web_id        UUID,
    link_left_entity_uuid   UUID,
    link_left_draft_id      UUID,
    link_right_web_id       UUID,
    link_right_entity_uuid  UUID,
    link_right_draft_id     UUID,
    link_left_confidence    DOUBLE PRECISION,
    link_right_confidence   DOUBLE PRECISION,
    decision_start_kind     TEXT NOT NULL,
    decision_start_at       TIMESTAMPTZ,
    decision_end_kind       TEXT NOT NULL,
    decision_end_at         TIMESTAMPTZ,
    transaction_start_kind  TEXT NOT NULL,
    transaction_start_at    TIMESTAMPTZ,
    transaction_end_kind    TEXT NOT NULL,
    transaction_end_at      TIMESTAMPTZ,
    created_by_kind     TEXT NOT NULL,
    created_by_user     UUID,
    created_by_machine  UUID,
    provenance_source   TEXT NOT NULL DEFAULT '',
    archived            BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_entity_editions_uuid
    ON entity_editions (entity_uuid);

CREATE INDEX IF NOT EXISTS idx_entity_editions_web
    ON entity_editions (web_id);

CREATE INDEX IF NOT EXISTS idx_entity_editions_link_left
    ON entity_editions (link_left_entity_uuid) WHERE link_left_entity_uuid IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_entity_editions_link_right
    ON entity_editions (link_right_entity_uuid) WHERE link_right_entity_uuid IS NOT NULL;
`

// ─────────────────────────────────────────────────────────────────────────────
// Ontology catalog DDL
// ─────────────────────────────────────────────────────────────────────────────

const ddlOntologyEditions = `
CREATE TABLE IF NOT EXISTS ontology_editions (
    base_url        TEXT    NOT NULL,
    version         INTEGER NOT NULL,
    kind            TEXT    NOT NULL,
    schema          JSONB   NOT NULL,
    owned_by_web_id UUID,
    created_by_kind     TEXT NOT NULL,
    created_by_user     UUID,
    created_by_machine  UUID,
    fetched_at      TIMESTAMPTZ,
    archived        BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (base_url, version)
);

CREATE TABLE IF NOT EXISTS ontology_edges (
    base_url    TEXT    NOT NULL,
    version     INTEGER NOT NULL,
    edge_kind   TEXT    NOT NULL,
    target_base_url TEXT NOT NULL,
    target_version  INTEGER NOT NULL,
    FOREIGN KEY (base_url, version) REFERENCES ontology_editions (base_url, version) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_ontology_edges_source
    ON ontology_edges (base_url, version);
`

// ─────────────────────────────────────────────────────────────────────────────
// Tombstone DDL
// ─────────────────────────────────────────────────────────────────────────────

const ddlTombstones = `
CREATE TABLE IF NOT EXISTS tombstones (
    id                           BIGSERIAL PRIMARY KEY,
    web_id                       UUID NOT NULL,
    entity_uuid                  UUID NOT NULL,
    deleted_at_transaction_time  TIMESTAMPTZ NOT NULL,
    deleted_at_decision_time     TIMESTAMPTZ NOT NULL,
    deleted_by_kind              TEXT NOT NULL,
    deleted_by_user              UUID,
    deleted_by_machine           UUID
);

CREATE INDEX IF NOT EXISTS idx_tombstones_entity
    ON tombstones (entity_uuid);
`

// Migrate creates or ensures every table pgstore needs exists. It is
// idempotent and safe to call on every application start, matching the
// teacher's postgres.Migrate shape (pkg/memory/postgres/schema.go).
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		ddlEntityEditions,
		ddlOntologyEditions,
		ddlTombstones,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("pgstore migrate: %w", err)
		}
	}
	return nil
}
