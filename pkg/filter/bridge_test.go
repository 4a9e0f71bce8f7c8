package filter_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/entigraph/pkg/authz"
	"github.com/MrWong99/entigraph/pkg/filter"
	"github.com/MrWong99/entigraph/pkg/grapherr"
	"github.com/MrWong99/entigraph/pkg/ids"
)

func TestFromAuthorization_In(t *testing.T) {
	actor := ids.NewUserActor(ids.NewUserId())
	web := ids.NewWebId()

	f, err := filter.FromAuthorization(authz.In(web), actor, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Kind != filter.Equal || f.Path.Segment != filter.SegmentWebId {
		t.Errorf("got %+v", f)
	}

	plan, err := filter.Compile(f, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if !strings.Contains(plan.Where, "e.web_id") {
		t.Errorf("got where %q", plan.Where)
	}
}

func TestFromAuthorization_IsResolvesAtBridgeTime(t *testing.T) {
	actor := ids.NewUserActor(ids.NewUserId())

	match, err := filter.FromAuthorization(authz.Is(authz.ResourceEntity), actor, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	plan, err := filter.Compile(match, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if plan.Where != "TRUE" {
		t.Errorf("got where %q, want constant TRUE", plan.Where)
	}

	mismatch, err := filter.FromAuthorization(authz.Is(authz.ResourceEntityType), actor, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	plan, err = filter.Compile(mismatch, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if plan.Where != "FALSE" {
		t.Errorf("got where %q, want constant FALSE", plan.Where)
	}
}

func TestFromAuthorization_CreatedByPrincipal(t *testing.T) {
	actor := ids.NewUserActor(ids.NewUserId())

	f, err := filter.FromAuthorization(authz.CreatedByPrincipal(), actor, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Value != actor.String() {
		t.Errorf("got value %v, want %s", f.Value, actor.String())
	}
}

func TestFromAuthorization_IsRemote_RejectsEntity(t *testing.T) {
	actor := ids.NewUserActor(ids.NewUserId())
	_, err := filter.FromAuthorization(authz.IsRemote(), actor, authz.ResourceEntity)
	if err == nil {
		t.Fatal("expected error")
	}
	if grapherr.KindOf(err) != grapherr.IncompatibleTypes {
		t.Errorf("got kind %s", grapherr.KindOf(err))
	}
}

func TestFromAuthorization_IsOfBaseType(t *testing.T) {
	actor := ids.NewUserActor(ids.NewUserId())
	base := mustBase(t, "https://example.com/entity-type/building/")

	f, err := filter.FromAuthorization(authz.IsOfBaseType(base), actor, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Kind != filter.Contains || f.Path.Segment != filter.SegmentTypeBaseUrl {
		t.Errorf("got %+v", f)
	}

	_, err = filter.FromAuthorization(authz.IsOfBaseType(base), actor, authz.ResourceEntityType)
	if err == nil {
		t.Fatal("expected error for non-entity kind")
	}
}

func TestFromAuthorization_AllAnyNot(t *testing.T) {
	actor := ids.NewUserActor(ids.NewUserId())
	web := ids.NewWebId()

	expr := authz.Not(authz.All(authz.In(web), authz.IsRemote()))
	_, err := filter.FromAuthorization(expr, actor, authz.ResourceDataType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
