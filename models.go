package session

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// Durable store keys
const (
	KeyToken          = "token"
	KeyUserInfo       = "userInfo"
	KeyCurrentOrgID   = "current_org_id"
	KeyCurrentKBID    = "current_kb_id"
	KeyCurrentOrgName = "current_org_name"
)

// Defaults applied when a durable key is missing
const (
	DefaultOrgID   int64 = 0
	DefaultKBID    int64 = 1
	DefaultOrgName       = "Personal Space"
)

// SessionKeys lists every key owned by the session store
func SessionKeys() []string {
	return []string{
		KeyToken,
		KeyUserInfo,
		KeyCurrentOrgID,
		KeyCurrentKBID,
		KeyCurrentOrgName,
	}
}

// Profile is the user profile mapping stored under the userInfo key
type Profile map[string]any

// Role returns the global role, empty when missing or not a string
func (p Profile) Role() string {
	return p.str("role")
}

// Username returns the display name of the user
func (p Profile) Username() string {
	return p.str("username")
}

// UserID returns the user identifier as a string
func (p Profile) UserID() string {
	if p == nil {
		return ""
	}
	switch v := p["user_id"].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}

// Clone returns a shallow copy that never aliases the receiver
func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Validate checks the profile can be stored
func (p Profile) Validate() error {
	if p == nil {
		return ErrInvalidProfile
	}

	if raw, ok := p["role"]; ok && raw != nil {
		if _, isString := raw.(string); !isString {
			return withMetadata(ErrInvalidProfile, map[string]any{
				"field":  "role",
				"reason": "must be a string",
			})
		}
	}

	return nil
}

func (p Profile) str(key string) string {
	if p == nil {
		return ""
	}
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// OrgRecord is an organization membership
type OrgRecord struct {
	Name                 string  `json:"name" yaml:"name"`
	OrgID                int64   `json:"org_id" yaml:"org_id"`
	ResourceCollectionID int64   `json:"kb_id" yaml:"kb_id"`
	Role                 OrgRole `json:"role,omitempty" yaml:"role,omitempty"`
}

// Validate will run validation rules
func (r OrgRecord) Validate() error {
	verr := goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(
				&r.Name,
				validation.Required,
			),
			validation.Field(
				&r.OrgID,
				validation.Min(0),
			),
			validation.Field(
				&r.ResourceCollectionID,
				validation.Required,
				validation.Min(1),
			),
			validation.Field(
				&r.Role,
				validation.In(OrgRoleMember, OrgRoleAdmin, OrgRoleOwner),
			),
		)
	}, ErrInvalidOrgRecord.Message)

	if verr != nil {
		return verr.WithTextCode(TextCodeInvalidOrgRecord)
	}

	return nil
}

// Context returns the organization context the record selects
func (r OrgRecord) Context() OrgContext {
	return OrgContext{
		OrgID:                r.OrgID,
		ResourceCollectionID: r.ResourceCollectionID,
		OrgName:              r.Name,
	}
}

// IsPersonal reports whether the record points to the default personal scope
func (r OrgRecord) IsPersonal() bool {
	return r.OrgID == DefaultOrgID && r.ResourceCollectionID == DefaultKBID
}

// PersonalOrg is the default scope, always valid for an authenticated user
func PersonalOrg() OrgRecord {
	return OrgRecord{
		Name:                 DefaultOrgName,
		OrgID:                DefaultOrgID,
		ResourceCollectionID: DefaultKBID,
		Role:                 OrgRoleOwner,
	}
}

// OrgContext is the active organization and resource collection
type OrgContext struct {
	OrgID                int64  `json:"org_id" yaml:"org_id"`
	ResourceCollectionID int64  `json:"kb_id" yaml:"kb_id"`
	OrgName              string `json:"org_name" yaml:"org_name"`
}

// PersonalContext returns the default context
func PersonalContext() OrgContext {
	return PersonalOrg().Context()
}

// Snapshot is a point in time copy of the session
type Snapshot struct {
	Token           string      `json:"-" yaml:"-"`
	Authenticated   bool        `json:"authenticated" yaml:"authenticated"`
	IsPlatformAdmin bool        `json:"is_platform_admin" yaml:"is_platform_admin"`
	Profile         Profile     `json:"profile" yaml:"profile"`
	Context         OrgContext  `json:"context" yaml:"context"`
	AvailableOrgs   []OrgRecord `json:"available_orgs,omitempty" yaml:"available_orgs,omitempty"`
}
