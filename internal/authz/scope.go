// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package authz

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/insano70/bcos-sub005/internal/logging"
	"github.com/insano70/bcos-sub005/internal/models"
)

// OrganizationStore is the organization lookup surface the resolver needs.
// The database package implements it; tests substitute fakes.
type OrganizationStore interface {
	GetOrganizationsByIDs(ctx context.Context, ids []string) ([]models.Organization, error)
	GetDescendantOrganizationIDs(ctx context.Context, rootIDs []string) ([]string, error)
}

// Resolver turns an authenticated identity into a row-level access scope.
type Resolver struct {
	enforcer *Enforcer
	orgs     OrganizationStore

	// IncludeHierarchy extends organization scope to descendant
	// organizations' practices.
	IncludeHierarchy bool
}

// NewResolver creates a scope resolver.
func NewResolver(enforcer *Enforcer, orgs OrganizationStore) *Resolver {
	return &Resolver{
		enforcer:         enforcer,
		orgs:             orgs,
		IncludeHierarchy: true,
	}
}

// ResolveScope maps the identity onto the broadest scope its permissions
// support, checked in order: all, organization, own. A caller matching none
// of them gets ScopeNone and sees zero rows.
//
// An organization-scoped caller whose organizations hold no practices keeps
// an empty PracticeIDs slice; the query builder substitutes the sentinel so
// the emptiness can never widen into an unfiltered query.
func (r *Resolver) ResolveScope(ctx context.Context, identity *models.TenantIdentity) (*models.AccessScope, error) {
	if identity == nil {
		return &models.AccessScope{Scope: models.ScopeNone}, nil
	}

	if identity.IsSuperuser {
		return &models.AccessScope{Scope: models.ScopeAll}, nil
	}

	allowAll, err := r.hasPermission(identity, models.PermissionReadAll)
	if err != nil {
		return nil, err
	}
	if allowAll {
		return &models.AccessScope{Scope: models.ScopeAll}, nil
	}

	allowOrg, err := r.hasPermission(identity, models.PermissionReadOrganization)
	if err != nil {
		return nil, err
	}
	if allowOrg && len(identity.OrgIDs) > 0 {
		return r.resolveOrganizationScope(ctx, identity)
	}

	allowOwn, err := r.hasPermission(identity, models.PermissionReadOwn)
	if err != nil {
		return nil, err
	}
	if allowOwn && identity.ProviderID != "" {
		return &models.AccessScope{
			Scope:      models.ScopeOwn,
			ProviderID: identity.ProviderID,
		}, nil
	}

	logging.Debug().
		Str("user_id", identity.UserID.String()).
		Msg("Identity resolved to no analytics scope")
	return &models.AccessScope{Scope: models.ScopeNone}, nil
}

func (r *Resolver) resolveOrganizationScope(ctx context.Context, identity *models.TenantIdentity) (*models.AccessScope, error) {
	orgIDs := make([]string, len(identity.OrgIDs))
	for i, id := range identity.OrgIDs {
		orgIDs[i] = id.String()
	}

	allOrgIDs := orgIDs
	if r.IncludeHierarchy {
		descendants, err := r.orgs.GetDescendantOrganizationIDs(ctx, orgIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve organization hierarchy: %w", err)
		}
		allOrgIDs = append(append([]string(nil), orgIDs...), descendants...)
	}

	orgs, err := r.orgs.GetOrganizationsByIDs(ctx, allOrgIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve organization practices: %w", err)
	}

	seen := make(map[int]bool)
	var practiceIDs []int
	resolvedOrgIDs := make([]uuid.UUID, 0, len(orgs))
	for _, org := range orgs {
		if !org.IsActive {
			continue
		}
		resolvedOrgIDs = append(resolvedOrgIDs, org.ID)
		for _, pid := range org.PracticeIDs {
			if !seen[pid] {
				seen[pid] = true
				practiceIDs = append(practiceIDs, pid)
			}
		}
	}
	sort.Ints(practiceIDs)

	return &models.AccessScope{
		Scope:             models.ScopeOrganization,
		PracticeIDs:       practiceIDs,
		OrganizationIDs:   resolvedOrgIDs,
		IncludesHierarchy: r.IncludeHierarchy,
	}, nil
}

// hasPermission checks the identity's direct permission strings first, then
// treats non-permission entries as Casbin roles. Analytics permissions are
// "analytics:<action>"; the policy stores them as object "analytics" with
// the action suffix.
func (r *Resolver) hasPermission(identity *models.TenantIdentity, permission string) (bool, error) {
	if identity.HasPermission(permission) {
		return true, nil
	}
	if r.enforcer == nil {
		return false, nil
	}

	action := strings.TrimPrefix(permission, "analytics:")
	var roles []string
	for _, p := range identity.Permissions {
		if !strings.Contains(p, ":") {
			roles = append(roles, p)
		}
	}
	return r.enforcer.EnforceWithRoles(identity.UserID.String(), roles, "analytics", action)
}
