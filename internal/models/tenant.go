// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package models

import "github.com/google/uuid"

// Analytics permissions. These are the casbin actions checked before any
// report-card or chart read; the scope resolver maps them to row filters.
const (
	PermissionReadAll          = "analytics:read:all"
	PermissionReadOrganization = "analytics:read:organization"
	PermissionReadOwn          = "analytics:read:own"
)

// ScopeLabel identifies the breadth of data a caller may see.
type ScopeLabel string

const (
	// ScopeAll grants unfiltered access (superusers, read:all holders).
	ScopeAll ScopeLabel = "all"

	// ScopeOrganization limits access to the caller's organizations'
	// practices.
	ScopeOrganization ScopeLabel = "organization"

	// ScopeOwn limits access to the caller's own provider binding.
	ScopeOwn ScopeLabel = "own"

	// ScopeNone is the fail-closed default: the caller sees zero rows.
	ScopeNone ScopeLabel = "none"
)

// SentinelPracticeID is an impossible practice identifier substituted into
// practice filters whenever an organization-scoped caller resolves to an
// empty practice set. Queries carrying it return no rows; audit events and
// tests refer to this one symbol rather than a literal.
const SentinelPracticeID = -1

// Organization is a UUID-keyed tenant container holding practice ids.
// Organizations may form a hierarchy via ParentID.
type Organization struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	PracticeIDs []int      `json:"practice_ids"`
	IsActive    bool       `json:"is_active"`
}

// TenantIdentity is the authenticated caller as seen by the analytics core.
// It is immutable within one request; the auth layer (out of scope here)
// populates it from verified JWT claims.
type TenantIdentity struct {
	UserID      uuid.UUID   `json:"user_id"`
	IsSuperuser bool        `json:"is_superuser"`
	Permissions []string    `json:"permissions"`
	OrgIDs      []uuid.UUID `json:"organization_ids"`

	// ProviderID is the caller's provider binding, used by the "own" scope.
	ProviderID string `json:"provider_id,omitempty"`
}

// HasPermission reports whether the identity carries the named permission.
func (t *TenantIdentity) HasPermission(perm string) bool {
	for _, p := range t.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// AccessScope is the resolved row-level filter for a tenant identity.
// An empty PracticeIDs slice under ScopeOrganization does NOT mean
// "no filter": query builders must substitute SentinelPracticeID so the
// caller sees zero rows (fail-closed).
type AccessScope struct {
	Scope             ScopeLabel  `json:"scope"`
	PracticeIDs       []int       `json:"practice_ids"`
	ProviderID        string      `json:"provider_id,omitempty"`
	OrganizationIDs   []uuid.UUID `json:"organization_ids"`
	IncludesHierarchy bool        `json:"includes_hierarchy"`
}

// IsUnrestricted reports whether the scope applies no row filters at all.
func (s *AccessScope) IsUnrestricted() bool {
	return s.Scope == ScopeAll
}
