// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package authz maps admin roles to the route groups they may reach, using
// Casbin RBAC. Handlers never check roles directly; the route wiring wraps
// each admin group with Require and names the object and action there.
//
// The model and policies are compiled in. There are only two roles and a
// handful of objects, so file adapters and policy reload would be machinery
// without a job.
package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/oseh/backend/internal/models"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Objects the admin surface exposes. Each admin route group is wired to
// exactly one of these.
const (
	ObjectJourneys    = "journeys"
	ObjectDailyEvents = "daily_events"
	ObjectInstructors = "instructors"
	ObjectUsers       = "users"
	ObjectAdminTokens = "admin_tokens"
)

// Actions. Search endpoints are wired as reads even though they arrive as
// POSTs; the method carries the filter body, not the intent.
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// Enforcer answers "may this role perform this action on this object".
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds the enforcer and seeds the role policies:
//
//   - admin: read and write on everything, including token management
//   - support: read on the content objects, no token access
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	allObjects := []string{
		ObjectJourneys,
		ObjectDailyEvents,
		ObjectInstructors,
		ObjectUsers,
		ObjectAdminTokens,
	}
	for _, object := range allObjects {
		for _, action := range []string{ActionRead, ActionWrite} {
			if _, err := enforcer.AddPolicy(string(models.RoleAdmin), object, action); err != nil {
				return nil, fmt.Errorf("failed to add policy: %w", err)
			}
		}
	}

	supportObjects := []string{
		ObjectJourneys,
		ObjectDailyEvents,
		ObjectInstructors,
		ObjectUsers,
	}
	for _, object := range supportObjects {
		if _, err := enforcer.AddPolicy(string(models.RoleSupport), object, ActionRead); err != nil {
			return nil, fmt.Errorf("failed to add policy: %w", err)
		}
	}

	return &Enforcer{enforcer: enforcer}, nil
}

// Allowed reports whether the role may perform the action on the object.
func (e *Enforcer) Allowed(role models.AdminRole, object, action string) (bool, error) {
	allowed, err := e.enforcer.Enforce(string(role), object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	return allowed, nil
}

// Policies returns all policy rules, for the admin token listing endpoint's
// role documentation.
func (e *Enforcer) Policies() [][]string {
	//nolint:errcheck // GetPolicy only fails if the enforcer is nil
	policies, _ := e.enforcer.GetPolicy()
	return policies
}
