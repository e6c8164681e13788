// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/insano70/bcos-sub005/internal/logging"
	"github.com/insano70/bcos-sub005/internal/models"
)

type identityContextKey struct{}

// tenantClaims are the JWT claims the out-of-scope auth service issues.
type tenantClaims struct {
	jwt.RegisteredClaims

	IsSuperuser bool     `json:"is_superuser,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	OrgIDs      []string `json:"organization_ids,omitempty"`
	ProviderID  string   `json:"provider_id,omitempty"`
}

// IdentityFromContext returns the authenticated tenant identity, or nil on
// unauthenticated requests. Handlers behind RequireAuth always get non-nil.
func IdentityFromContext(ctx context.Context) *models.TenantIdentity {
	identity, _ := ctx.Value(identityContextKey{}).(*models.TenantIdentity)
	return identity
}

// ContextWithIdentity injects an identity; tests use this to bypass JWT
// verification.
func ContextWithIdentity(ctx context.Context, identity *models.TenantIdentity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// RequireAuth verifies the bearer token and populates the tenant identity.
// Verification failures are 403 with the stable permission-denied code so
// probing cannot distinguish bad tokens from missing permissions.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := identityFromRequest(r, secret)
			if err != nil {
				logging.Debug().Err(err).Str("path", r.URL.Path).Msg("Authentication failed")
				respondError(w, http.StatusForbidden, CodePermissionDenied, "permission denied")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

func identityFromRequest(r *http.Request, secret string) (*models.TenantIdentity, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, fmt.Errorf("missing bearer token")
	}

	claims := &tenantClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}

	orgIDs := make([]uuid.UUID, 0, len(claims.OrgIDs))
	for _, raw := range claims.OrgIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid organization id claim: %w", err)
		}
		orgIDs = append(orgIDs, id)
	}

	return &models.TenantIdentity{
		UserID:      userID,
		IsSuperuser: claims.IsSuperuser,
		Permissions: claims.Permissions,
		OrgIDs:      orgIDs,
		ProviderID:  claims.ProviderID,
	}, nil
}
