// Package ids defines the opaque identifier types shared across entigraph's
// ontology catalog, entity store, and authorization layer. Keeping them in
// one leaf package avoids import cycles between pkg/ontology, pkg/entity,
// and pkg/authz, all of which need to name webs, actors, and roles.
package ids

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// WebId identifies the web (workspace) a resource or actor belongs to.
type WebId uuid.UUID

func (w WebId) String() string { return uuid.UUID(w).String() }

// NewWebId generates a fresh random WebId.
func NewWebId() WebId { return WebId(uuid.New()) }

// ParseWebId parses a WebId from its UUID string form, e.g. when decoding a
// policy's web_id constraint from configuration (SPEC_FULL §10.3).
func ParseWebId(s string) (WebId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return WebId{}, fmt.Errorf("ids: parse web id %q: %w", s, err)
	}
	return WebId(u), nil
}

// UserId identifies a human actor.
type UserId uuid.UUID

func (u UserId) String() string { return uuid.UUID(u).String() }

// NewUserId generates a fresh random UserId.
func NewUserId() UserId { return UserId(uuid.New()) }

// MachineId identifies a non-human (service) actor.
type MachineId uuid.UUID

func (m MachineId) String() string { return uuid.UUID(m).String() }

// NewMachineId generates a fresh random MachineId.
func NewMachineId() MachineId { return MachineId(uuid.New()) }

// ActorKind discriminates the two [ActorId] variants.
type ActorKind int

const (
	ActorUser ActorKind = iota
	ActorMachine
)

// ActorId is a sum type over User and Machine actors (spec §3.4).
type ActorId struct {
	Kind    ActorKind
	User    UserId
	Machine MachineId
}

// NewUserActor wraps a UserId as an ActorId.
func NewUserActor(id UserId) ActorId { return ActorId{Kind: ActorUser, User: id} }

// NewMachineActor wraps a MachineId as an ActorId.
func NewMachineActor(id MachineId) ActorId { return ActorId{Kind: ActorMachine, Machine: id} }

// String renders the actor as "user:<uuid>" or "machine:<uuid>".
func (a ActorId) String() string {
	switch a.Kind {
	case ActorMachine:
		return fmt.Sprintf("machine:%s", a.Machine)
	default:
		return fmt.Sprintf("user:%s", a.User)
	}
}

// ParseActorId parses the "user:<uuid>"/"machine:<uuid>" form produced by
// [ActorId.String], used when a policy's principal constraint names an
// exact actor in a config file (SPEC_FULL §10.3).
func ParseActorId(s string) (ActorId, error) {
	kind, rest, ok := strings.Cut(s, ":")
	if !ok {
		return ActorId{}, fmt.Errorf("ids: parse actor id %q: expected \"user:<uuid>\" or \"machine:<uuid>\"", s)
	}
	switch kind {
	case "user":
		u, err := uuid.Parse(rest)
		if err != nil {
			return ActorId{}, fmt.Errorf("ids: parse actor id %q: %w", s, err)
		}
		return NewUserActor(UserId(u)), nil
	case "machine":
		u, err := uuid.Parse(rest)
		if err != nil {
			return ActorId{}, fmt.Errorf("ids: parse actor id %q: %w", s, err)
		}
		return NewMachineActor(MachineId(u)), nil
	default:
		return ActorId{}, fmt.Errorf("ids: parse actor id %q: unknown kind %q", s, kind)
	}
}

// RoleId identifies a role an actor can be a member of.
type RoleId uuid.UUID

func (r RoleId) String() string { return uuid.UUID(r).String() }

// NewRoleId generates a fresh random RoleId.
func NewRoleId() RoleId { return RoleId(uuid.New()) }

// ParseRoleId parses a RoleId from its UUID string form.
func ParseRoleId(s string) (RoleId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return RoleId{}, fmt.Errorf("ids: parse role id %q: %w", s, err)
	}
	return RoleId(u), nil
}

// PolicyId identifies one stored ABAC policy.
type PolicyId uuid.UUID

func (p PolicyId) String() string { return uuid.UUID(p).String() }

// NewPolicyId generates a fresh random PolicyId.
func NewPolicyId() PolicyId { return PolicyId(uuid.New()) }

// ParsePolicyId parses a PolicyId from its UUID string form, as used when a
// policy definition's "id" field is loaded from a config file (SPEC_FULL
// §10.3).
func ParsePolicyId(s string) (PolicyId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return PolicyId{}, fmt.Errorf("ids: parse policy id %q: %w", s, err)
	}
	return PolicyId(u), nil
}

// EntityUuid identifies an entity independent of any draft status.
type EntityUuid uuid.UUID

func (e EntityUuid) String() string { return uuid.UUID(e).String() }

// NewEntityUuid generates a fresh random EntityUuid.
func NewEntityUuid() EntityUuid { return EntityUuid(uuid.New()) }

// DraftId identifies a draft edition of an entity that has not yet been
// finalised into a canonical edition.
type DraftId uuid.UUID

func (d DraftId) String() string { return uuid.UUID(d).String() }

// NewDraftId generates a fresh random DraftId.
func NewDraftId() DraftId { return DraftId(uuid.New()) }

// EntityEditionId identifies one immutable snapshot of an entity.
type EntityEditionId uuid.UUID

func (e EntityEditionId) String() string { return uuid.UUID(e).String() }

// NewEntityEditionId generates a fresh random EntityEditionId.
func NewEntityEditionId() EntityEditionId { return EntityEditionId(uuid.New()) }
