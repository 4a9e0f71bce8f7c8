package authz_test

import (
	"context"
	"testing"

	"github.com/MrWong99/entigraph/pkg/authz"
	"github.com/MrWong99/entigraph/pkg/ids"
)

func TestEngine_Authorize_DefaultDeny(t *testing.T) {
	e := authz.NewEngine(authz.NewTupleStore())
	actor := ids.NewUserActor(ids.NewUserId())
	web := ids.NewWebId()

	ok, err := e.Authorize(context.Background(), actor, authz.ActionView, authz.Resource{Kind: authz.ResourceEntity, WebId: &web})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected default deny with no policies registered")
	}
}

func TestEngine_Authorize_PermitGrantsAccess(t *testing.T) {
	e := authz.NewEngine(authz.NewTupleStore())
	actor := ids.NewUserActor(ids.NewUserId())
	web := ids.NewWebId()

	e.AddPolicy(authz.Policy{
		Id:        ids.NewPolicyId(),
		Effect:    authz.Permit,
		Principal: authz.PrincipalConstraint{Actor: ptrActor(actor)},
		ActionC:   authz.ActionConstraint{Actions: []authz.Action{authz.ActionView}},
		ResourceC: authz.ResourceConstraint{},
		Filter:    authz.In(web),
	})

	ok, err := e.Authorize(context.Background(), actor, authz.ActionView, authz.Resource{Kind: authz.ResourceEntity, WebId: &web})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected permit to grant access")
	}
}

func TestEngine_Authorize_ForbidOverridesPermit(t *testing.T) {
	e := authz.NewEngine(authz.NewTupleStore())
	actor := ids.NewUserActor(ids.NewUserId())
	web := ids.NewWebId()

	e.AddPolicy(authz.Policy{
		Id:        ids.NewPolicyId(),
		Effect:    authz.Permit,
		Principal: authz.PrincipalConstraint{Actor: ptrActor(actor)},
		ActionC:   authz.ActionConstraint{Actions: []authz.Action{authz.ActionView}},
		Filter:    authz.In(web),
	})
	e.AddPolicy(authz.Policy{
		Id:        ids.NewPolicyId(),
		Effect:    authz.Forbid,
		Principal: authz.PrincipalConstraint{Actor: ptrActor(actor)},
		ActionC:   authz.ActionConstraint{Actions: []authz.Action{authz.ActionView}},
		Filter:    authz.In(web),
	})

	ok, err := e.Authorize(context.Background(), actor, authz.ActionView, authz.Resource{Kind: authz.ResourceEntity, WebId: &web})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected forbid to override a matching permit")
	}
}

func TestEngine_Authorize_RoleMembership(t *testing.T) {
	tuples := authz.NewTupleStore()
	actor := ids.NewUserActor(ids.NewUserId())
	role := ids.NewRoleId()
	tuples.AddRoleMember(role, actor)

	e := authz.NewEngine(tuples)
	web := ids.NewWebId()
	e.AddPolicy(authz.Policy{
		Id:        ids.NewPolicyId(),
		Effect:    authz.Permit,
		Principal: authz.PrincipalConstraint{Role: &role},
		ActionC:   authz.ActionConstraint{Actions: []authz.Action{authz.ActionUpdate}},
		Filter:    authz.In(web),
	})

	ok, err := e.Authorize(context.Background(), actor, authz.ActionUpdate, authz.Resource{Kind: authz.ResourceEntity, WebId: &web})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected role-based permit to grant access")
	}

	other := ids.NewUserActor(ids.NewUserId())
	ok, err = e.Authorize(context.Background(), other, authz.ActionUpdate, authz.Resource{Kind: authz.ResourceEntity, WebId: &web})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected non-member to be denied")
	}
}

func TestEngine_Project_CombinesPermitAndForbid(t *testing.T) {
	e := authz.NewEngine(authz.NewTupleStore())
	actor := ids.NewUserActor(ids.NewUserId())
	web := ids.NewWebId()
	otherWeb := ids.NewWebId()

	e.AddPolicy(authz.Policy{
		Id:        ids.NewPolicyId(),
		Effect:    authz.Permit,
		Principal: authz.PrincipalConstraint{Actor: ptrActor(actor)},
		ActionC:   authz.ActionConstraint{Actions: []authz.Action{authz.ActionView}},
		ResourceC: authz.ResourceConstraint{},
		Filter:    authz.Any(authz.In(web), authz.In(otherWeb)),
	})
	e.AddPolicy(authz.Policy{
		Id:        ids.NewPolicyId(),
		Effect:    authz.Forbid,
		Principal: authz.PrincipalConstraint{Actor: ptrActor(actor)},
		ActionC:   authz.ActionConstraint{Actions: []authz.Action{authz.ActionView}},
		ResourceC: authz.ResourceConstraint{},
		Filter:    authz.In(otherWeb),
	})

	expr, _, err := e.Project(context.Background(), actor, authz.ActionView, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !authz.Eval(expr, actor, authz.Resource{Kind: authz.ResourceEntity, WebId: &web}) {
		t.Error("expected web to be allowed (permit matches, forbid doesn't)")
	}
	if authz.Eval(expr, actor, authz.Resource{Kind: authz.ResourceEntity, WebId: &otherWeb}) {
		t.Error("expected otherWeb to be forbidden despite matching the permit filter")
	}
}

func TestEngine_Project_AddPolicyInvalidatesCache(t *testing.T) {
	e := authz.NewEngine(authz.NewTupleStore())
	actor := ids.NewUserActor(ids.NewUserId())

	expr1, _, err := e.Project(context.Background(), actor, authz.ActionView, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Adding a policy invalidates the cache; the projected expression should
	// now differ in evaluated outcome.
	web := ids.NewWebId()
	e.AddPolicy(authz.Policy{
		Id:        ids.NewPolicyId(),
		Effect:    authz.Permit,
		Principal: authz.PrincipalConstraint{Actor: ptrActor(actor)},
		ActionC:   authz.ActionConstraint{Actions: []authz.Action{authz.ActionView}},
		Filter:    authz.In(web),
	})
	expr2, _, err := e.Project(context.Background(), actor, authz.ActionView, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := authz.Resource{Kind: authz.ResourceEntity, WebId: &web}
	if authz.Eval(expr1, actor, r) {
		t.Error("pre-policy projection should not have allowed the web")
	}
	if !authz.Eval(expr2, actor, r) {
		t.Error("post-policy projection should allow the web")
	}
}

func ptrActor(a ids.ActorId) *ids.ActorId { return &a }
