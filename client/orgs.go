package client

import (
	"context"
	"net/url"
	"strconv"
)

// Org is an organization visible to the user
type Org struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Key         string `json:"key" yaml:"key"`
	OwnerID     int64  `json:"owner_id" yaml:"owner_id"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
}

// KnowledgeBase is a resource collection owned by a user or organization
type KnowledgeBase struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Type        string `json:"type" yaml:"type"`
	CreatorID   int64  `json:"creator_id" yaml:"creator_id"`
	OrgID       *int64 `json:"org_id" yaml:"org_id"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
}

// ListOrgs returns the organizations the user belongs to
func (c *Client) ListOrgs(ctx context.Context) ([]Org, error) {
	out := []Org{}
	if err := c.Get(ctx, "/orgs", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListKnowledgeBases returns the resource collections of an organization.
// An orgID of zero lists the personal collections.
func (c *Client) ListKnowledgeBases(ctx context.Context, orgID int64) ([]KnowledgeBase, error) {
	params := url.Values{}
	if orgID > 0 {
		params.Set("org_id", strconv.FormatInt(orgID, 10))
	}

	out := []KnowledgeBase{}
	if err := c.Get(ctx, "/kbs", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}
