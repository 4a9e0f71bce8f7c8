package entity_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/MrWong99/entigraph/pkg/entity"
	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/ontology"
)

func newEntityType(base string) ontology.EntityTypeId {
	b, _ := ontology.NewBaseUrl(base)
	return ontology.EntityTypeId{Base: b, Version: 1}
}

func TestMemStore_CreateAndGetEntity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := entity.NewMemStore(nil)
	web := ids.NewWebId()
	actor := ids.NewUserActor(ids.NewUserId())

	nameBase, _ := ontology.NewBaseUrl("https://example.com/property-type/name/")
	params := entity.CreateParams{
		WebId: web,
		Types: []ontology.EntityTypeId{newEntityType("https://example.com/entity-type/person/")},
		Properties: entity.PropertyObject{
			nameBase: entity.NewValueProperty(json.RawMessage(`"Ada"`)),
		},
	}

	created, err := s.CreateEntity(ctx, actor, params)
	if err != nil {
		t.Fatalf("CreateEntity: unexpected error: %v", err)
	}
	if created.Id.EntityUuid == (ids.EntityUuid{}) {
		t.Fatal("CreateEntity: expected generated EntityUuid")
	}

	got, err := s.GetEntity(ctx, created.Id)
	if err != nil {
		t.Fatalf("GetEntity: unexpected error: %v", err)
	}
	if got.Id.EntityUuid != created.Id.EntityUuid {
		t.Fatalf("GetEntity: id mismatch: got %v, want %v", got.Id.EntityUuid, created.Id.EntityUuid)
	}
}

func TestMemStore_CreateEntity_RequiresAtLeastOneType(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := entity.NewMemStore(nil)
	_, err := s.CreateEntity(ctx, ids.NewUserActor(ids.NewUserId()), entity.CreateParams{WebId: ids.NewWebId()})

	var valErr *entity.ValidationFailed
	if !errors.As(err, &valErr) {
		t.Fatalf("CreateEntity: expected *ValidationFailed, got %v", err)
	}
}

type denyAllAuth struct{}

func (denyAllAuth) CanCreate(ctx context.Context, actor ids.ActorId, web ids.WebId) (bool, error) {
	return false, nil
}

func TestMemStore_CreateEntity_UnauthorizedWeb(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := entity.NewMemStore(denyAllAuth{})
	_, err := s.CreateEntity(ctx, ids.NewUserActor(ids.NewUserId()), entity.CreateParams{
		WebId: ids.NewWebId(),
		Types: []ontology.EntityTypeId{newEntityType("https://example.com/entity-type/person/")},
	})
	if !errors.Is(err, entity.ErrUnauthorizedWeb) {
		t.Fatalf("CreateEntity: expected ErrUnauthorizedWeb, got %v", err)
	}
}

func TestMemStore_PatchEntity_ReplacesValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := entity.NewMemStore(nil)
	actor := ids.NewUserActor(ids.NewUserId())
	nameBase, _ := ontology.NewBaseUrl("https://example.com/property-type/name/")

	created, err := s.CreateEntity(ctx, actor, entity.CreateParams{
		WebId: ids.NewWebId(),
		Types: []ontology.EntityTypeId{newEntityType("https://example.com/entity-type/person/")},
		Properties: entity.PropertyObject{
			nameBase: entity.NewValueProperty(json.RawMessage(`"Ada"`)),
		},
	})
	if err != nil {
		t.Fatalf("CreateEntity: unexpected error: %v", err)
	}

	patched, err := s.PatchEntity(ctx, actor, entity.PatchParams{
		Id: created.Id,
		Ops: []entity.PatchOp{
			{Kind: entity.PatchReplace, Path: entity.PathForBaseUrl(nameBase), Value: entity.NewValueProperty(json.RawMessage(`"Grace"`))},
		},
	})
	if err != nil {
		t.Fatalf("PatchEntity: unexpected error: %v", err)
	}

	got := patched.Properties[nameBase]
	if string(got.Value) != `"Grace"` {
		t.Fatalf("PatchEntity: expected Grace, got %s", got.Value)
	}
}

func TestMemStore_PatchEntity_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := entity.NewMemStore(nil)
	_, err := s.PatchEntity(ctx, ids.NewUserActor(ids.NewUserId()), entity.PatchParams{
		Id: entity.EntityId{WebId: ids.NewWebId(), EntityUuid: ids.NewEntityUuid()},
	})
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("PatchEntity: expected ErrNotFound, got %v", err)
	}
}
