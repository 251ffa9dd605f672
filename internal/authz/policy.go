// Package authz provides the single authorization policy for the application.
// All capability checks go through Policy.Can; handlers and services must not
// test role names ad hoc.
package authz

import (
	"bridge_backend/platform/httpkit"

	"github.com/google/uuid"
)

// Role names assigned at provisioning or promotion time.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleAgent      = "agent"
	// RoleNewUser is the quarantine role for auto-provisioned accounts.
	// It grants nothing beyond reading one's own profile.
	RoleNewUser = "new_user"
)

// Actions evaluated by the policy.
const (
	ActionAdminAccess  = "admin.access"
	ActionLeadCreate   = "lead.create"
	ActionLeadView     = "lead.view"
	ActionLeadUpdate   = "lead.update"
	ActionLeadDelete   = "lead.delete"
	ActionLeadAssign   = "lead.assign"
	ActionLeadNote     = "lead.note"
	ActionLeadDocument = "lead.document"
	ActionStatsView    = "stats.view"
	ActionCatalogManage = "catalog.manage"
	ActionFormsManage   = "forms.manage"
	ActionAgentsManage  = "agents.manage"
	ActionUsersManage   = "users.manage"
)

// Actor is the authenticated principal a policy decision is made for.
type Actor struct {
	UserID  uuid.UUID
	Roles   []string
	AgentID *uuid.UUID
}

// ActorFromIdentity builds an Actor from the request identity.
func ActorFromIdentity(id httpkit.Identity) Actor {
	return Actor{
		UserID:  id.UserID(),
		Roles:   id.Roles(),
		AgentID: id.AgentID(),
	}
}

func (a Actor) hasRole(roles ...string) bool {
	for _, have := range a.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Resource describes the object an action targets. The zero value means a
// collection-level action with no specific resource.
type Resource struct {
	kind         string
	ownerAgentID *uuid.UUID
}

// NoResource is the collection-level resource.
func NoResource() Resource { return Resource{} }

// LeadResource scopes a decision to a lead owned by the given agent.
// A nil owner means the lead is unassigned (public submission).
func LeadResource(ownerAgentID *uuid.UUID) Resource {
	return Resource{kind: "lead", ownerAgentID: ownerAgentID}
}

// Policy is the application-wide authorization policy. It is constructed once
// at startup and shared by all modules.
type Policy struct {
	grants map[string]map[string]bool
}

// NewPolicy builds the policy from the default role grants.
func NewPolicy() *Policy {
	grants := make(map[string]map[string]bool)
	for role, actions := range DefaultGrants() {
		set := make(map[string]bool, len(actions))
		for _, action := range actions {
			set[action] = true
		}
		grants[role] = set
	}
	return &Policy{grants: grants}
}

// Can reports whether the actor may perform the action on the resource.
// Administrators are allowed everything. Other roles need a grant for the
// action, and resource-scoped actions additionally require ownership.
func (p *Policy) Can(actor Actor, action string, resource Resource) bool {
	if actor.hasRole(RoleSuperAdmin, RoleAdmin) {
		return true
	}

	if !p.granted(actor, action) {
		return false
	}

	switch resource.kind {
	case "lead":
		if resource.ownerAgentID == nil || actor.AgentID == nil {
			return false
		}
		return *resource.ownerAgentID == *actor.AgentID
	default:
		return true
	}
}

func (p *Policy) granted(actor Actor, action string) bool {
	for _, role := range actor.Roles {
		if p.grants[role][action] {
			return true
		}
	}
	return false
}

// DefaultGrants returns the per-role action grants. The seed command writes
// the same table to role_permissions so operators can inspect it.
func DefaultGrants() map[string][]string {
	adminActions := []string{
		ActionAdminAccess,
		ActionLeadCreate, ActionLeadView, ActionLeadUpdate, ActionLeadDelete,
		ActionLeadAssign, ActionLeadNote, ActionLeadDocument,
		ActionStatsView,
		ActionCatalogManage, ActionFormsManage, ActionAgentsManage, ActionUsersManage,
	}
	return map[string][]string{
		RoleSuperAdmin: adminActions,
		RoleAdmin:      adminActions,
		RoleAgent: {
			ActionLeadCreate, ActionLeadView, ActionLeadUpdate, ActionLeadDelete,
			ActionLeadNote, ActionLeadDocument,
			ActionStatsView,
		},
		RoleNewUser: {},
	}
}
