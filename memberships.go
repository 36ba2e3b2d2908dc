package session

import (
	"context"
	"strconv"

	"github.com/goliatone/go-console-session/client"
	goerrors "github.com/goliatone/go-errors"
)

// SessionAPI is the part of the console API used by the session commands
type SessionAPI interface {
	Login(ctx context.Context, req client.LoginRequest) (*client.LoginResponse, error)
	Register(ctx context.Context, req client.RegisterRequest) (*client.RegisterResponse, error)
	ListOrgs(ctx context.Context) ([]client.Org, error)
	ListKnowledgeBases(ctx context.Context, orgID int64) ([]client.KnowledgeBase, error)
}

var _ SessionAPI = (*client.Client)(nil)

// MembershipLoader builds the organization memberships of a user from the
// organizations and resource collections the API exposes.
type MembershipLoader struct {
	api    SessionAPI
	logger Logger
}

func NewMembershipLoader(api SessionAPI) *MembershipLoader {
	return &MembershipLoader{api: api, logger: defLogger{}}
}

func (l *MembershipLoader) WithLogger(logger Logger) *MembershipLoader {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Load returns one membership per organization that owns at least one
// resource collection. The first collection becomes the membership scope.
// The user owning an organization is its owner, everyone else a member.
func (l *MembershipLoader) Load(ctx context.Context, userID string) ([]OrgRecord, error) {
	orgs, err := l.api.ListOrgs(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]OrgRecord, 0, len(orgs))
	for _, org := range orgs {
		kbs, err := l.api.ListKnowledgeBases(ctx, org.ID)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to list organization resource collections").
				WithMetadata(map[string]any{"org_id": org.ID})
		}

		if len(kbs) == 0 {
			l.logger.Debug("skipping organization without resource collections", "org_id", org.ID)
			continue
		}

		role := OrgRoleMember
		if userID != "" && strconv.FormatInt(org.OwnerID, 10) == userID {
			role = OrgRoleOwner
		}

		records = append(records, OrgRecord{
			Name:                 org.Name,
			OrgID:                org.ID,
			ResourceCollectionID: kbs[0].ID,
			Role:                 role,
		})
	}

	return records, nil
}

// Refresh loads the memberships of the signed in user into store
func (l *MembershipLoader) Refresh(ctx context.Context, store *Store) error {
	if !store.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	records, err := l.Load(ctx, store.Profile().UserID())
	if err != nil {
		return err
	}

	return store.SetAvailableOrgs(ctx, records)
}
