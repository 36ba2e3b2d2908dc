package session

import (
	"github.com/goliatone/go-router"
)

var TemplateSessionKey = "session"

// TemplateData flattens a snapshot into the data views read under
// TemplateSessionKey. The token is never exposed.
func TemplateData(snap Snapshot) map[string]any {
	orgs := make([]map[string]any, 0, len(snap.AvailableOrgs))
	var currentRole OrgRole
	for _, org := range snap.AvailableOrgs {
		active := org.OrgID == snap.Context.OrgID && org.ResourceCollectionID == snap.Context.ResourceCollectionID
		if active {
			currentRole = org.Role
		}
		orgs = append(orgs, map[string]any{
			"name":       org.Name,
			"org_id":     org.OrgID,
			"kb_id":      org.ResourceCollectionID,
			"role":       string(org.Role),
			"can_manage": org.Role.CanManage(),
			"active":     active,
		})
	}

	return map[string]any{
		"is_authenticated":  snap.Authenticated,
		"is_platform_admin": snap.IsPlatformAdmin,
		"username":          snap.Profile.Username(),
		"user_id":           snap.Profile.UserID(),
		"role":              snap.Profile.Role(),
		"current_org_id":    snap.Context.OrgID,
		"current_kb_id":     snap.Context.ResourceCollectionID,
		"current_org_name":  snap.Context.OrgName,
		"current_org_role":  string(currentRole),
		"can_manage_org":    currentRole.CanManage(),
		"available_orgs":    orgs,
	}
}

// TemplateHelpers returns helper functions and constants for views.
//
// In templates, you can then use:
//
//	{% if session|is_authenticated %}
//	{% if session|is_platform_admin %}
//	{% if session|org_role_at_least:"admin" %}
//	{% if session|can_manage_org %}
func TemplateHelpers() map[string]any {
	roles := map[string]string{}
	for _, role := range GetAllOrgRoles() {
		roles[string(role)] = string(role)
	}

	return map[string]any{
		"is_authenticated":  isAuthenticated,
		"is_platform_admin": isPlatformAdmin,
		"org_role_at_least": orgRoleAtLeast,
		"can_manage_org":    canManageOrg,

		"org_roles": roles,
	}
}

// TemplateHelpersWithRouter returns the helpers with the session data
// found in the router context under key.
func TemplateHelpersWithRouter(ctx router.Context, key string) map[string]any {
	helpers := TemplateHelpers()
	if data, ok := GetTemplateSession(ctx, key); ok {
		helpers[TemplateSessionKey] = data
	}
	return helpers
}

// GetTemplateSession extracts the session data stored for views
func GetTemplateSession(ctx router.Context, key string) (any, bool) {
	if key == "" {
		key = TemplateSessionKey
	}
	data := ctx.Locals(key)
	return data, data != nil
}

func isAuthenticated(data any) bool {
	switch s := data.(type) {
	case Snapshot:
		return s.Authenticated
	case *Snapshot:
		return s != nil && s.Authenticated
	case map[string]any:
		v, _ := s["is_authenticated"].(bool)
		return v
	default:
		return false
	}
}

func isPlatformAdmin(data any) bool {
	switch s := data.(type) {
	case Snapshot:
		return s.IsPlatformAdmin
	case *Snapshot:
		return s != nil && s.IsPlatformAdmin
	case map[string]any:
		v, _ := s["is_platform_admin"].(bool)
		return v
	default:
		return false
	}
}

func orgRoleAtLeast(data any, minRole string) bool {
	minRoleTyped, ok := ParseOrgRole(minRole)
	if !ok {
		return false
	}
	return currentOrgRole(data).IsAtLeast(minRoleTyped)
}

func canManageOrg(data any) bool {
	return currentOrgRole(data).CanManage()
}

func currentOrgRole(data any) OrgRole {
	var current string
	switch s := data.(type) {
	case Snapshot:
		current, _ = TemplateData(s)["current_org_role"].(string)
	case *Snapshot:
		if s != nil {
			current, _ = TemplateData(*s)["current_org_role"].(string)
		}
	case map[string]any:
		current, _ = s["current_org_role"].(string)
	}
	return OrgRole(current)
}
