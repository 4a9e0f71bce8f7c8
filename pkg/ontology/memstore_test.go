package ontology_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/ontology"
)

func mustBase(t *testing.T, raw string) ontology.BaseUrl {
	t.Helper()
	b, err := ontology.NewBaseUrl(raw)
	if err != nil {
		t.Fatalf("NewBaseUrl(%q): %v", raw, err)
	}
	return b
}

func actor() ids.ActorId {
	return ids.NewUserActor(ids.NewUserId())
}

func TestMemStore_Create(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	schema := json.RawMessage(`{"type":"string"}`)

	t.Run("first edition gets version 1", func(t *testing.T) {
		t.Parallel()
		s := ontology.NewMemStore(nil)
		rec, err := s.Create(ctx, actor(), ontology.CreateParams{
			Kind:   ontology.KindDataType,
			Base:   mustBase(t, "https://example.com/data-type/text/"),
			Schema: schema,
		})
		if err != nil {
			t.Fatalf("Create: unexpected error: %v", err)
		}
		if rec.Id.Version != 1 {
			t.Fatalf("Create: expected version 1, got %d", rec.Id.Version)
		}
	})

	t.Run("collision returns ErrAlreadyExists", func(t *testing.T) {
		t.Parallel()
		s := ontology.NewMemStore(nil)
		base := mustBase(t, "https://example.com/data-type/number/")
		params := ontology.CreateParams{Kind: ontology.KindDataType, Base: base, Schema: schema}
		if _, err := s.Create(ctx, actor(), params); err != nil {
			t.Fatalf("Create first: unexpected error: %v", err)
		}
		_, err := s.Create(ctx, actor(), params)
		if !errors.Is(err, ontology.ErrAlreadyExists) {
			t.Fatalf("Create duplicate: expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("collision with OnConflictSkip returns the existing record", func(t *testing.T) {
		t.Parallel()
		s := ontology.NewMemStore(nil)
		base := mustBase(t, "https://example.com/data-type/boolean/")
		first, err := s.Create(ctx, actor(), ontology.CreateParams{Kind: ontology.KindDataType, Base: base, Schema: schema})
		if err != nil {
			t.Fatalf("Create first: unexpected error: %v", err)
		}
		second, err := s.Create(ctx, actor(), ontology.CreateParams{
			Kind:       ontology.KindDataType,
			Base:       base,
			Schema:     schema,
			OnConflict: ontology.OnConflictSkip,
		})
		if err != nil {
			t.Fatalf("Create skip: unexpected error: %v", err)
		}
		if second.Id != first.Id {
			t.Fatalf("Create skip: expected %v, got %v", first.Id, second.Id)
		}
	})

	t.Run("unknown actor rejected when a resolver is wired", func(t *testing.T) {
		t.Parallel()
		s := ontology.NewMemStore(rejectAllResolver{})
		_, err := s.Create(ctx, actor(), ontology.CreateParams{
			Kind:   ontology.KindDataType,
			Base:   mustBase(t, "https://example.com/data-type/date/"),
			Schema: schema,
		})
		if !errors.Is(err, ontology.ErrUnknownActor) {
			t.Fatalf("Create: expected ErrUnknownActor, got %v", err)
		}
	})
}

func TestMemStore_Update_AllocatesNextVersion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := ontology.NewMemStore(nil)
	base := mustBase(t, "https://example.com/entity-type/person/")
	schema := json.RawMessage(`{"type":"object"}`)

	if _, err := s.Create(ctx, actor(), ontology.CreateParams{Kind: ontology.KindEntityType, Base: base, Schema: schema}); err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	updated, err := s.Update(ctx, actor(), ontology.UpdateParams{Base: base, Schema: schema})
	if err != nil {
		t.Fatalf("Update: unexpected error: %v", err)
	}
	if updated.Id.Version != 2 {
		t.Fatalf("Update: expected version 2, got %d", updated.Id.Version)
	}

	versions, err := s.ListVersions(ctx, base)
	if err != nil {
		t.Fatalf("ListVersions: unexpected error: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("ListVersions: expected 2 editions, got %d", len(versions))
	}
}

func TestMemStore_Update_UnknownBaseReturnsNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := ontology.NewMemStore(nil)
	_, err := s.Update(ctx, actor(), ontology.UpdateParams{
		Base:   mustBase(t, "https://example.com/entity-type/missing/"),
		Schema: json.RawMessage(`{}`),
	})
	if !errors.Is(err, ontology.ErrNotFound) {
		t.Fatalf("Update: expected ErrNotFound, got %v", err)
	}
}

func TestMemStore_ArchiveUnarchive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := ontology.NewMemStore(nil)
	base := mustBase(t, "https://example.com/property-type/name/")
	schema := json.RawMessage(`{"type":"string"}`)

	if _, err := s.Create(ctx, actor(), ontology.CreateParams{Kind: ontology.KindPropertyType, Base: base, Schema: schema}); err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	if err := s.Archive(ctx, base); err != nil {
		t.Fatalf("Archive: unexpected error: %v", err)
	}
	if err := s.Archive(ctx, base); !errors.Is(err, ontology.ErrNoLiveEditions) {
		t.Fatalf("Archive twice: expected ErrNoLiveEditions, got %v", err)
	}

	if err := s.Unarchive(ctx, base); err != nil {
		t.Fatalf("Unarchive: unexpected error: %v", err)
	}
	rec, err := s.Get(ctx, ontology.VersionedUrl{Base: base, Version: 1})
	if err != nil {
		t.Fatalf("Get: unexpected error: %v", err)
	}
	if rec.Archived {
		t.Fatal("Get: expected edition to be unarchived")
	}
}

type rejectAllResolver struct{}

func (rejectAllResolver) ActorExists(ctx context.Context, actor ids.ActorId) (bool, error) {
	return false, nil
}

func (rejectAllResolver) WebExists(ctx context.Context, web ids.WebId) (bool, error) {
	return false, nil
}
