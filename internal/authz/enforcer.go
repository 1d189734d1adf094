// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

// Package authz enforces role-based access to moderation endpoints
// with Casbin. Roles form a hierarchy: admin inherits moderator,
// moderator inherits user.
package authz

import (
	"fmt"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/cineshare/cineshare/internal/auth"
	"github.com/cineshare/cineshare/internal/logging"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// Rule is one policy line: the role allowed to perform the action on
// the object pattern.
type Rule struct {
	Role   string
	Object string
	Action string
}

// DefaultRules returns the moderation policy: report handling is
// moderator-and-up, role management is admin-only.
func DefaultRules() []Rule {
	return []Rule{
		{Role: "moderator", Object: "/api/v1/reports", Action: "GET|POST"},
		{Role: "moderator", Object: "/api/v1/reports/:id", Action: "GET|PUT"},
		{Role: "moderator", Object: "/api/v1/reviews/:id", Action: "DELETE"},
		{Role: "admin", Object: "/api/v1/users/:id/role", Action: "PUT"},
	}
}

// Enforcer answers can-role-do-this questions.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds an enforcer from the embedded model and the given
// rules.
func NewEnforcer(rules []Rule) (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create authz enforcer: %w", err)
	}

	for _, rule := range rules {
		if _, err := enforcer.AddPolicy(rule.Role, rule.Object, rule.Action); err != nil {
			return nil, fmt.Errorf("add policy %+v: %w", rule, err)
		}
	}

	// Role hierarchy.
	groupings := [][2]string{
		{"admin", "moderator"},
		{"moderator", "user"},
	}
	for _, g := range groupings {
		if _, err := enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, fmt.Errorf("add grouping %v: %w", g, err)
		}
	}

	return &Enforcer{enforcer: enforcer}, nil
}

// Enforce reports whether the role may perform the action on the
// object.
func (e *Enforcer) Enforce(role, object, action string) (bool, error) {
	allowed, err := e.enforcer.Enforce(role, object, action)
	if err != nil {
		return false, fmt.Errorf("authz enforcement: %w", err)
	}
	return allowed, nil
}

// Middleware rejects requests whose authenticated role is not allowed
// on the request path and method. It must run after RequireAuth.
func (e *Enforcer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := auth.IdentityFromContext(r.Context())
		if identity == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		allowed, err := e.Enforce(identity.Role, r.URL.Path, r.Method)
		if err != nil {
			logging.Error().Err(err).Str("path", r.URL.Path).Msg("authz enforcement failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !allowed {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
