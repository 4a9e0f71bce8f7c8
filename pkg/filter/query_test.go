package filter_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/entigraph/pkg/authz"
	"github.com/MrWong99/entigraph/pkg/filter"
	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/temporal"
)

func testAxes(t *testing.T) temporal.TemporalAxes {
	t.Helper()
	end := temporal.ExclusiveBound(temporal.TimestampFrom[temporal.DecisionTime](time.Now().Add(time.Hour)))
	variable, err := temporal.NewLimitedInterval(temporal.UnboundedBound[temporal.DecisionTime](), end)
	if err != nil {
		t.Fatalf("NewLimitedInterval: %v", err)
	}
	return temporal.NewDecisionTimeAxes(temporal.Now[temporal.TransactionTime](), variable)
}

func TestCompileQuery_NoMatchingPolicy_CompilesToFalse(t *testing.T) {
	engine := authz.NewEngine(authz.NewTupleStore())
	actor := ids.NewUserActor(ids.NewUserId())

	q := filter.Query{
		Filter: filter.AllOf(),
		Kind:   authz.ResourceEntity,
		Axes:   testAxes(t),
		Actor:  actor,
	}

	compiled, err := filter.CompileQuery(context.Background(), q, engine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(compiled.Where, "FALSE") {
		t.Errorf("expected default-deny FALSE clause, got %q", compiled.Where)
	}
	if compiled.PropertyCol != "e.properties" {
		t.Errorf("got %q, want unmasked e.properties", compiled.PropertyCol)
	}
}

func TestCompileQuery_WithPermitPolicy(t *testing.T) {
	engine := authz.NewEngine(authz.NewTupleStore())
	actor := ids.NewUserActor(ids.NewUserId())
	web := ids.NewWebId()

	engine.AddPolicy(authz.Policy{
		Id:        ids.NewPolicyId(),
		Effect:    authz.Permit,
		Principal: authz.PrincipalConstraint{Actor: &actor},
		ActionC:   authz.ActionConstraint{Actions: []authz.Action{authz.ActionView}},
		ResourceC: authz.ResourceConstraint{},
		Filter:    authz.In(web),
	})

	q := filter.Query{
		Filter: filter.Equals(filter.EntityArchived(), false),
		Kind:   authz.ResourceEntity,
		Axes:   testAxes(t),
		Actor:  actor,
	}

	compiled, err := filter.CompileQuery(context.Background(), q, engine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(compiled.Where, "e.archived") {
		t.Errorf("expected user filter in where, got %q", compiled.Where)
	}
	if !strings.Contains(compiled.Where, "e.web_id") {
		t.Errorf("expected authorization weave in where, got %q", compiled.Where)
	}
	if !strings.Contains(compiled.Where, "e.decision_time") || !strings.Contains(compiled.Where, "e.transaction_time") {
		t.Errorf("expected temporal pinning in where, got %q", compiled.Where)
	}
}

func TestCompileQuery_WithCellFilter_MasksProperties(t *testing.T) {
	engine := authz.NewEngine(authz.NewTupleStore())
	actor := ids.NewUserActor(ids.NewUserId())
	secret := mustBase(t, "https://example.com/property-type/salary/")

	engine.AddPolicy(authz.Policy{
		Id:        ids.NewPolicyId(),
		Effect:    authz.Permit,
		Principal: authz.PrincipalConstraint{},
		ActionC:   authz.ActionConstraint{Actions: []authz.Action{authz.ActionView}},
	})
	engine.AddCellFilter(authz.CellFilter{
		PropertyBaseUrl: secret,
		Condition:       authz.Not(authz.CreatedByPrincipal()),
	})

	q := filter.Query{
		Filter: filter.AllOf(),
		Kind:   authz.ResourceEntity,
		Axes:   testAxes(t),
		Actor:  actor,
	}

	compiled, err := filter.CompileQuery(context.Background(), q, engine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(compiled.PropertyCol, "CASE WHEN") || !strings.Contains(compiled.PropertyCol, "#-") {
		t.Errorf("expected masked properties CASE expression, got %q", compiled.PropertyCol)
	}
	if !strings.Contains(compiled.PropertyCol, string(secret)) {
		t.Errorf("expected masked key in expression, got %q", compiled.PropertyCol)
	}
}

func TestCompileQuery_WithCursor(t *testing.T) {
	engine := authz.NewEngine(authz.NewTupleStore())
	actor := ids.NewUserActor(ids.NewUserId())
	engine.AddPolicy(authz.Policy{
		Id:      ids.NewPolicyId(),
		Effect:  authz.Permit,
		ActionC: authz.ActionConstraint{Actions: []authz.Action{authz.ActionView}},
	})

	q := filter.Query{
		Filter:     filter.AllOf(),
		Kind:       authz.ResourceEntity,
		Axes:       testAxes(t),
		Actor:      actor,
		Sorts:      []filter.Sort{{Path: filter.EntityUuid(), Direction: filter.Ascending}},
		CursorPage: &filter.CursorPage{Values: []any{"last-uuid"}},
	}

	compiled, err := filter.CompileQuery(context.Background(), q, engine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(compiled.Where, "e.entity_uuid") {
		t.Errorf("expected seek predicate in where, got %q", compiled.Where)
	}
	if !strings.HasPrefix(compiled.OrderBy, "ORDER BY") {
		t.Errorf("got order by %q", compiled.OrderBy)
	}
}
