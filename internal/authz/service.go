// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/insano70/bcos-sub005/internal/audit"
	"github.com/insano70/bcos-sub005/internal/models"
)

// Service errors.
var (
	// ErrNotAuthorized is returned when an action is denied.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNilIdentity is returned when no identity is present.
	ErrNilIdentity = errors.New("tenant identity is nil")
)

// Service combines the enforcer and scope resolver into the authorization
// surface the API and orchestrator use.
type Service struct {
	enforcer *Enforcer
	resolver *Resolver
	auditLog *audit.Logger
}

// NewService creates the authorization service. auditLog may be nil in
// tests; denials are then only logged structurally.
func NewService(enforcer *Enforcer, orgs OrganizationStore, auditLog *audit.Logger) *Service {
	return &Service{
		enforcer: enforcer,
		resolver: NewResolver(enforcer, orgs),
		auditLog: auditLog,
	}
}

// Resolver exposes the scope resolver for direct use.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// ResolveScope resolves the identity's row-level scope.
func (s *Service) ResolveScope(ctx context.Context, identity *models.TenantIdentity) (*models.AccessScope, error) {
	return s.resolver.ResolveScope(ctx, identity)
}

// RequireAnalyticsRead resolves the scope and rejects ScopeNone. Handlers
// call this once up front so an unauthorized caller is refused before any
// warehouse work happens.
func (s *Service) RequireAnalyticsRead(ctx context.Context, identity *models.TenantIdentity) (*models.AccessScope, error) {
	if identity == nil {
		return nil, ErrNilIdentity
	}
	scope, err := s.resolver.ResolveScope(ctx, identity)
	if err != nil {
		return nil, err
	}
	if scope.Scope == models.ScopeNone {
		s.logDenied(ctx, identity, "analytics", "read")
		return nil, ErrNotAuthorized
	}
	return scope, nil
}

// RequireAdmin checks the analytics admin action, used by the measure and
// chart-definition management endpoints.
func (s *Service) RequireAdmin(ctx context.Context, identity *models.TenantIdentity) error {
	if identity == nil {
		return ErrNilIdentity
	}
	if identity.IsSuperuser {
		return nil
	}
	allowed, err := s.resolver.hasPermission(identity, "analytics:admin")
	if err != nil {
		return fmt.Errorf("check admin permission: %w", err)
	}
	if !allowed {
		s.logDenied(ctx, identity, "analytics", "admin")
		return ErrNotAuthorized
	}
	return nil
}

// CheckOrganizationAccess verifies the identity may read the named
// organization: unrestricted scopes pass, organization scopes must contain
// it (directly or via hierarchy).
func (s *Service) CheckOrganizationAccess(ctx context.Context, identity *models.TenantIdentity, orgID uuid.UUID) error {
	scope, err := s.RequireAnalyticsRead(ctx, identity)
	if err != nil {
		return err
	}
	if scope.IsUnrestricted() {
		return nil
	}
	for _, id := range scope.OrganizationIDs {
		if id == orgID {
			return nil
		}
	}
	s.logDenied(ctx, identity, "organization:"+orgID.String(), "read")
	return ErrNotAuthorized
}

// Actor converts an identity into an audit actor.
func Actor(identity *models.TenantIdentity) audit.Actor {
	if identity == nil {
		return audit.Actor{ID: "anonymous", Type: "user"}
	}
	return audit.Actor{ID: identity.UserID.String(), Type: "user"}
}

func (s *Service) logDenied(ctx context.Context, identity *models.TenantIdentity, resource, action string) {
	if s.auditLog == nil {
		return
	}
	s.auditLog.LogAuthzDenied(ctx, Actor(identity), resource, action)
}
