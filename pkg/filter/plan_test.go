package filter_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/entigraph/pkg/authz"
	"github.com/MrWong99/entigraph/pkg/filter"
	"github.com/MrWong99/entigraph/pkg/grapherr"
)

func TestCompile_SimpleEquality(t *testing.T) {
	f := filter.Equals(filter.EntityArchived(), false)
	plan, err := filter.Compile(f, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(plan.Where, "e.archived") || !strings.Contains(plan.Where, "$1") {
		t.Errorf("got where %q", plan.Where)
	}
	if len(plan.Args) != 1 || plan.Args[0] != false {
		t.Errorf("got args %v", plan.Args)
	}
}

func TestCompile_AllAndAnyNest(t *testing.T) {
	f := filter.AllOf(
		filter.Equals(filter.EntityArchived(), false),
		filter.AnyOf(
			filter.HasPrefix(filter.EntityWebId(), "abc"),
			filter.HasSuffix(filter.EntityWebId(), "xyz"),
		),
	)
	plan, err := filter.Compile(f, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(plan.Where, " AND ") || !strings.Contains(plan.Where, " OR ") {
		t.Errorf("got where %q", plan.Where)
	}
	if len(plan.Args) != 3 {
		t.Errorf("got %d args, want 3", len(plan.Args))
	}
}

func TestCompile_Not(t *testing.T) {
	f := filter.Negate(filter.Equals(filter.EntityArchived(), true))
	plan, err := filter.Compile(f, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(plan.Where, "NOT (") {
		t.Errorf("got where %q", plan.Where)
	}
}

func TestCompile_PropertiesPath(t *testing.T) {
	height := mustBase(t, "https://example.com/property-type/height/")
	f := filter.GreaterThan(filter.EntityProperties(height), 150)
	plan, err := filter.Compile(f, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(plan.Where, "#>>") {
		t.Errorf("expected jsonb traversal operator, got %q", plan.Where)
	}
}

func TestCompile_EmptyPropertiesPath_IsInvalidPath(t *testing.T) {
	f := filter.Equals(filter.EntityProperties(), "x")
	_, err := filter.Compile(f, authz.ResourceEntity)
	if err == nil {
		t.Fatal("expected error for empty properties path")
	}
	if grapherr.KindOf(err) != grapherr.InvalidPath {
		t.Errorf("got kind %s, want InvalidPath", grapherr.KindOf(err))
	}
}

func TestCompile_WrongSegmentForKind_IsInvalidPath(t *testing.T) {
	f := filter.Equals(filter.EntityLeftUuid(), "x")
	_, err := filter.Compile(f, authz.ResourceEntityType)
	if err == nil {
		t.Fatal("expected error")
	}
	if grapherr.KindOf(err) != grapherr.InvalidPath {
		t.Errorf("got kind %s, want InvalidPath", grapherr.KindOf(err))
	}
}

func TestCompile_OverlapAgainstScalar_IsIncompatibleTypes(t *testing.T) {
	f := filter.OverlapsWith(filter.EntityArchived(), true)
	_, err := filter.Compile(f, authz.ResourceEntity)
	if err == nil {
		t.Fatal("expected error")
	}
	if grapherr.KindOf(err) != grapherr.IncompatibleTypes {
		t.Errorf("got kind %s, want IncompatibleTypes", grapherr.KindOf(err))
	}
}

func TestCompile_StartsWithAgainstBool_IsUnsupportedOperator(t *testing.T) {
	f := filter.HasPrefix(filter.EntityArchived(), "true")
	_, err := filter.Compile(f, authz.ResourceEntity)
	if err == nil {
		t.Fatal("expected error")
	}
	if grapherr.KindOf(err) != grapherr.UnsupportedOperator {
		t.Errorf("got kind %s, want UnsupportedOperator", grapherr.KindOf(err))
	}
}

func TestCompile_TemporalOverlap(t *testing.T) {
	f := filter.OverlapsWith(filter.EntityDecisionTime(), "ignored")
	plan, err := filter.Compile(f, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(plan.Where, "&&") {
		t.Errorf("got where %q", plan.Where)
	}
}

func TestCompile_InValues(t *testing.T) {
	f := filter.InValues(filter.EntityWebId(), "a", "b", "c")
	plan, err := filter.Compile(f, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(plan.Where, "ANY(") {
		t.Errorf("got where %q", plan.Where)
	}
}

func TestCompile_OntologyKind(t *testing.T) {
	f := filter.Equals(filter.OntologyArchived(), false)
	plan, err := filter.Compile(f, authz.ResourcePropertyType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(plan.Where, "o.archived") {
		t.Errorf("got where %q", plan.Where)
	}
}
