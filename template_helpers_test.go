package session

import (
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminSnapshot() Snapshot {
	return Snapshot{
		Token:           "secret-token",
		Authenticated:   true,
		IsPlatformAdmin: true,
		Profile:         Profile{"username": "alice", "user_id": "7", "role": "admin"},
		Context:         OrgContext{OrgID: 102, ResourceCollectionID: 3, OrgName: "Finance"},
		AvailableOrgs: []OrgRecord{
			PersonalOrg(),
			{Name: "Finance", OrgID: 102, ResourceCollectionID: 3, Role: OrgRoleAdmin},
		},
	}
}

func TestTemplateHelpers(t *testing.T) {
	helpers := TemplateHelpers()

	for _, helper := range []string{"is_authenticated", "is_platform_admin", "org_role_at_least", "can_manage_org", "org_roles"} {
		assert.Contains(t, helpers, helper, "Expected helper %s should be present", helper)
	}

	roles, ok := helpers["org_roles"].(map[string]string)
	require.True(t, ok, "org_roles should be a map[string]string")
	assert.Equal(t, string(OrgRoleMember), roles["member"])
	assert.Equal(t, string(OrgRoleAdmin), roles["admin"])
	assert.Equal(t, string(OrgRoleOwner), roles["owner"])
	assert.Len(t, roles, len(GetAllOrgRoles()))
}

func TestTemplateData(t *testing.T) {
	data := TemplateData(adminSnapshot())

	assert.Equal(t, true, data["is_authenticated"])
	assert.Equal(t, true, data["is_platform_admin"])
	assert.Equal(t, "alice", data["username"])
	assert.Equal(t, "7", data["user_id"])
	assert.Equal(t, int64(102), data["current_org_id"])
	assert.Equal(t, int64(3), data["current_kb_id"])
	assert.Equal(t, "Finance", data["current_org_name"])
	assert.Equal(t, "admin", data["current_org_role"])
	assert.Equal(t, true, data["can_manage_org"])

	orgs, ok := data["available_orgs"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, orgs, 2)
	assert.Equal(t, false, orgs[0]["active"])
	assert.Equal(t, true, orgs[1]["active"])
	assert.Equal(t, true, orgs[1]["can_manage"])

	for _, v := range data {
		assert.NotEqual(t, "secret-token", v, "token must never reach views")
	}
}

func TestIsAuthenticatedHelper(t *testing.T) {
	snap := adminSnapshot()

	tests := []struct {
		name string
		data any
		want bool
	}{
		{"snapshot", snap, true},
		{"snapshot pointer", &snap, true},
		{"nil snapshot pointer", (*Snapshot)(nil), false},
		{"template data", TemplateData(snap), true},
		{"signed out", Snapshot{}, false},
		{"unknown type", "alice", false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isAuthenticated(tt.data))
		})
	}
}

func TestIsPlatformAdminHelper(t *testing.T) {
	snap := adminSnapshot()
	assert.True(t, isPlatformAdmin(snap))
	assert.True(t, isPlatformAdmin(&snap))
	assert.True(t, isPlatformAdmin(TemplateData(snap)))

	snap.IsPlatformAdmin = false
	assert.False(t, isPlatformAdmin(snap))
	assert.False(t, isPlatformAdmin(TemplateData(snap)))
	assert.False(t, isPlatformAdmin(42))
}

func TestOrgRoleAtLeastHelper(t *testing.T) {
	snap := adminSnapshot()

	tests := []struct {
		name    string
		data    any
		minRole string
		want    bool
	}{
		{"admin meets member", snap, "member", true},
		{"admin meets admin", &snap, "admin", true},
		{"admin misses owner", TemplateData(snap), "owner", false},
		{"unknown min role", snap, "superuser", false},
		{"personal scope without membership role", Snapshot{Context: PersonalContext()}, "member", false},
		{"nil pointer", (*Snapshot)(nil), "member", false},
		{"unknown type", 1, "member", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orgRoleAtLeast(tt.data, tt.minRole))
		})
	}
}

func TestCanManageOrgHelper(t *testing.T) {
	member := adminSnapshot()
	member.AvailableOrgs[1].Role = OrgRoleMember

	personal := adminSnapshot()
	personal.Context = PersonalOrg().Context()

	tests := []struct {
		name string
		data any
		want bool
	}{
		{"org admin", adminSnapshot(), true},
		{"org owner map", map[string]any{"current_org_role": "owner"}, true},
		{"org member", member, false},
		{"personal scope", &personal, PersonalOrg().Role.CanManage()},
		{"nil snapshot", (*Snapshot)(nil), false},
		{"unknown data", "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canManageOrg(tt.data))
		})
	}
}

func TestTemplateHelpersWithRouter(t *testing.T) {
	tests := []struct {
		name        string
		setupCtx    func() router.Context
		key         string
		wantSession bool
	}{
		{
			name: "should expose session with default key",
			setupCtx: func() router.Context {
				ctx := router.NewMockContext()
				ctx.LocalsMock[TemplateSessionKey] = TemplateData(adminSnapshot())
				return ctx
			},
			wantSession: true,
		},
		{
			name: "should expose session with custom key",
			setupCtx: func() router.Context {
				ctx := router.NewMockContext()
				ctx.LocalsMock["console"] = TemplateData(adminSnapshot())
				return ctx
			},
			key:         "console",
			wantSession: true,
		},
		{
			name: "should return helpers without session when not in context",
			setupCtx: func() router.Context {
				return router.NewMockContext()
			},
			key:         TemplateSessionKey,
			wantSession: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			helpers := TemplateHelpersWithRouter(tt.setupCtx(), tt.key)

			assert.Contains(t, helpers, "is_authenticated")
			assert.Contains(t, helpers, "org_roles")

			data, exists := helpers[TemplateSessionKey]
			assert.Equal(t, tt.wantSession, exists)
			if tt.wantSession {
				isAuth := helpers["is_authenticated"].(func(any) bool)
				assert.True(t, isAuth(data))
			}
		})
	}
}
