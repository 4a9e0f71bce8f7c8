package authz

import (
	"context"
	"sync"

	"github.com/MrWong99/entigraph/pkg/ids"
)

// RelationKind names the relation a tuple asserts (spec §3.4: "Actors belong
// to Webs and Roles; role membership is transitively checked"). Zanzibar
// calls this shape a relation tuple: (object, relation, subject).
type RelationKind int

const (
	// RelationWebMember asserts Subject is a direct member of Object (a web).
	RelationWebMember RelationKind = iota
	// RelationRoleMember asserts Subject is a direct member of Object (a role).
	RelationRoleMember
	// RelationRoleParent asserts Object (a role) inherits Subject (another
	// role)'s membership, enabling transitive role checks.
	RelationRoleParent
)

// Tuple is one relation-tuple row: object <relation> subject.
type Tuple struct {
	Relation RelationKind
	WebId    *ids.WebId // object/subject when Relation is RelationWebMember
	RoleId   *ids.RoleId
	Actor    *ids.ActorId
	ParentRoleId *ids.RoleId // subject of RelationRoleParent
}

// TupleStore holds the relation tuples that answer "is actor a member of web
// W" and "is actor a member of role R" questions, the Zanzibar-style
// building block the policy engine checks a PrincipalConstraint's Role
// against. In() atoms compare the resource's web id and do not consult it.
type TupleStore struct {
	mu    sync.RWMutex
	byWeb map[ids.WebId]map[ids.ActorId]bool
	byRole map[ids.RoleId]map[ids.ActorId]bool
	roleParents map[ids.RoleId][]ids.RoleId
}

// NewTupleStore returns an empty, ready-to-use TupleStore.
func NewTupleStore() *TupleStore {
	return &TupleStore{
		byWeb:       make(map[ids.WebId]map[ids.ActorId]bool),
		byRole:      make(map[ids.RoleId]map[ids.ActorId]bool),
		roleParents: make(map[ids.RoleId][]ids.RoleId),
	}
}

// AddWebMember records that actor is a direct member of web.
func (s *TupleStore) AddWebMember(web ids.WebId, actor ids.ActorId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byWeb[web] == nil {
		s.byWeb[web] = make(map[ids.ActorId]bool)
	}
	s.byWeb[web][actor] = true
}

// AddRoleMember records that actor is a direct member of role.
func (s *TupleStore) AddRoleMember(role ids.RoleId, actor ids.ActorId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byRole[role] == nil {
		s.byRole[role] = make(map[ids.ActorId]bool)
	}
	s.byRole[role][actor] = true
}

// AddRoleParent records that role inherits parent's membership, so any
// member of parent (directly or transitively) is also a member of role.
func (s *TupleStore) AddRoleParent(role, parent ids.RoleId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roleParents[role] = append(s.roleParents[role], parent)
}

// IsWebMember reports whether actor is a direct member of web.
func (s *TupleStore) IsWebMember(ctx context.Context, actor ids.ActorId, web ids.WebId) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byWeb[web][actor], nil
}

// IsRoleMember reports whether actor is a member of role, directly or
// transitively through role-parent edges (spec §3.4: "role membership is
// transitively checked"). Cycle-safe via a visited set.
func (s *TupleStore) IsRoleMember(ctx context.Context, actor ids.ActorId, role ids.RoleId) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRoleMemberLocked(actor, role, map[ids.RoleId]bool{}), nil
}

func (s *TupleStore) isRoleMemberLocked(actor ids.ActorId, role ids.RoleId, visited map[ids.RoleId]bool) bool {
	if visited[role] {
		return false
	}
	visited[role] = true

	if s.byRole[role][actor] {
		return true
	}
	for _, parent := range s.roleParents[role] {
		if s.isRoleMemberLocked(actor, parent, visited) {
			return true
		}
	}
	return false
}
