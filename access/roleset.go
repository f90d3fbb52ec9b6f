// Package access centralizes every permission decision in the hub: the
// role-set model, the pure permission predicates, the capability resolver
// consumed by handlers, and the tolerant decoders for dynamically-typed
// API fields.
//
// Every function in this package is pure and fail-closed: nil or malformed
// input degrades to a deny, never to a grant, and nothing here performs I/O
// or logging.
package access

import "github.com/otisthings/hub-sub000/models"

// RoleSet is a normalized, order-independent set of role-id strings used for
// membership testing. Role identifiers are compared by exact string equality;
// there is no hierarchy or wildcard semantics.
type RoleSet map[string]struct{}

// NewRoleSet derives a RoleSet from a user's roles. A nil user or empty role
// list yields an empty set, never an error.
func NewRoleSet(user *models.User) RoleSet {
	if user == nil || len(user.Roles) == 0 {
		return RoleSet{}
	}
	set := make(RoleSet, len(user.Roles))
	for _, role := range user.Roles {
		if role.ID == "" {
			continue
		}
		set[role.ID] = struct{}{}
	}
	return set
}

// NewRoleSetFromIDs builds a RoleSet from raw role-id strings
func NewRoleSetFromIDs(ids []string) RoleSet {
	set := make(RoleSet, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

// Contains reports whether the set holds the given role id. An empty id is
// never a member: an unconfigured gating role must not match anyone.
func (s RoleSet) Contains(id string) bool {
	if id == "" {
		return false
	}
	_, ok := s[id]
	return ok
}

// ContainsAny reports whether any of the given ids is a member of the set
func (s RoleSet) ContainsAny(ids []string) bool {
	for _, id := range ids {
		if s.Contains(id) {
			return true
		}
	}
	return false
}

// Len returns the number of roles in the set
func (s RoleSet) Len() int {
	return len(s)
}
