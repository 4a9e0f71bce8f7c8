package ontology

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/MrWong99/entigraph/pkg/ids"
)

// Compile-time assertion that MemStore satisfies Catalog.
var _ Catalog = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory Catalog. It is suitable for tests and
// for seeding fixtures; the Postgres-backed implementation in
// pkg/pgstore serves production traffic.
//
// Editions are kept per base URL in a version-indexed slice; MemStore
// enforces the dense-versioning and single-live-edition ordering rules
// itself so that every Catalog implementation agrees on them.
type MemStore struct {
	mu        sync.RWMutex
	resolver  ActorResolver
	editions  map[BaseUrl][]Record // index i holds version i+1
	kindOfURL map[BaseUrl]Kind
}

// NewMemStore returns an initialised MemStore. resolver may be nil, in which
// case actor/web existence checks are skipped (useful for unit tests that
// don't model an accounts system).
func NewMemStore(resolver ActorResolver) *MemStore {
	return &MemStore{
		resolver:  resolver,
		editions:  make(map[BaseUrl][]Record),
		kindOfURL: make(map[BaseUrl]Kind),
	}
}

func (s *MemStore) checkActor(ctx context.Context, actor ids.ActorId) error {
	if s.resolver == nil {
		return nil
	}
	ok, err := s.resolver.ActorExists(ctx, actor)
	if err != nil {
		return fmt.Errorf("ontology: resolve actor: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownActor, actor)
	}
	return nil
}

func (s *MemStore) checkWeb(ctx context.Context, web ids.WebId) error {
	if s.resolver == nil {
		return nil
	}
	ok, err := s.resolver.WebExists(ctx, web)
	if err != nil {
		return fmt.Errorf("ontology: resolve web: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: web %s", ErrUnknownActor, web)
	}
	return nil
}

// Create implements [Catalog.Create].
func (s *MemStore) Create(ctx context.Context, actor ids.ActorId, params CreateParams) (Record, error) {
	if err := s.checkActor(ctx, actor); err != nil {
		return Record{}, err
	}
	if params.OwnedBy != nil {
		if err := s.checkWeb(ctx, *params.OwnedBy); err != nil {
			return Record{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.editions[params.Base]
	if kind, ok := s.kindOfURL[params.Base]; ok && kind != params.Kind && len(existing) > 0 {
		return Record{}, fmt.Errorf("ontology: base url %s already used for kind %s", params.Base, kind)
	}

	version := OntologyTypeVersion(len(existing) + 1)
	if version != 1 {
		// Collision: a record for this (base, version-so-far+1) exists already,
		// meaning the caller tried to Create rather than Update an existing
		// base URL.
		if params.OnConflict == OnConflictSkip {
			return existing[len(existing)-1], nil
		}
		return Record{}, fmt.Errorf("%w: %s", ErrAlreadyExists, params.Base)
	}

	rec := Record{
		Id:            VersionedUrl{Base: params.Base, Version: version},
		Kind:          params.Kind,
		Schema:        params.Schema,
		Relationships: append([]RelationshipEdge(nil), params.Relationships...),
		Metadata: OntologyElementMetadata{
			Id:              VersionedUrl{Base: params.Base, Version: version},
			OwnedBy:         params.OwnedBy,
			RecordCreatedBy: actor,
		},
	}

	s.editions[params.Base] = append(existing, rec)
	s.kindOfURL[params.Base] = params.Kind
	return rec, nil
}

// Get implements [Catalog.Get].
func (s *MemStore) Get(ctx context.Context, id VersionedUrl) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eds := s.editions[id.Base]
	idx := int(id.Version) - 1
	if idx < 0 || idx >= len(eds) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return eds[idx], nil
}

// ListVersions implements [Catalog.ListVersions].
func (s *MemStore) ListVersions(ctx context.Context, base BaseUrl) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eds := s.editions[base]
	if len(eds) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, base)
	}
	out := make([]Record, len(eds))
	copy(out, eds)
	sort.Slice(out, func(i, j int) bool { return out[i].Id.Version < out[j].Id.Version })
	return out, nil
}

// Update implements [Catalog.Update].
func (s *MemStore) Update(ctx context.Context, actor ids.ActorId, params UpdateParams) (Record, error) {
	if err := s.checkActor(ctx, actor); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	eds := s.editions[params.Base]
	if len(eds) == 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, params.Base)
	}

	nextVersion := eds[len(eds)-1].Id.Version + 1
	prevOwner := eds[len(eds)-1].Metadata.OwnedBy
	rec := Record{
		Id:            VersionedUrl{Base: params.Base, Version: nextVersion},
		Kind:          s.kindOfURL[params.Base],
		Schema:        params.Schema,
		Relationships: append([]RelationshipEdge(nil), params.Relationships...),
		Metadata: OntologyElementMetadata{
			Id:              VersionedUrl{Base: params.Base, Version: nextVersion},
			OwnedBy:         prevOwner,
			RecordCreatedBy: actor,
		},
	}
	s.editions[params.Base] = append(eds, rec)
	return rec, nil
}

// Archive implements [Catalog.Archive].
func (s *MemStore) Archive(ctx context.Context, base BaseUrl) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	eds := s.editions[base]
	for i := len(eds) - 1; i >= 0; i-- {
		if !eds[i].Archived {
			eds[i].Archived = true
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNoLiveEditions, base)
}

// Unarchive implements [Catalog.Unarchive].
func (s *MemStore) Unarchive(ctx context.Context, base BaseUrl) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	eds := s.editions[base]
	if len(eds) == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, base)
	}
	eds[len(eds)-1].Archived = false
	return nil
}
