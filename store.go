package session

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/goliatone/go-print"
)

// LogoutPolicy selects what Logout removes from the durable store
type LogoutPolicy string

const (
	// LogoutPurgeAll wipes every key in the durable store, including keys
	// the session store does not own.
	LogoutPurgeAll LogoutPolicy = "purge_all"
	// LogoutPurgeSessionKeys removes only the keys listed by SessionKeys.
	LogoutPurgeSessionKeys LogoutPolicy = "purge_session_keys"
)

// ParseLogoutPolicy maps a configuration value to a policy, defaulting to
// LogoutPurgeAll for empty or unknown values.
func ParseLogoutPolicy(v string) LogoutPolicy {
	switch LogoutPolicy(v) {
	case LogoutPurgeSessionKeys:
		return LogoutPurgeSessionKeys
	default:
		return LogoutPurgeAll
	}
}

// Actions reported to change listeners
const (
	ActionHydrate    = "hydrate"
	ActionLogin      = "login"
	ActionLogout     = "logout"
	ActionClear      = "clear"
	ActionSetContext = "set_context"
	ActionSetOrgs    = "set_orgs"
)

// ChangeEvent describes a committed mutation
type ChangeEvent struct {
	Action   string
	Snapshot Snapshot
}

// ChangeListener is notified after a mutation has been written through
type ChangeListener func(ChangeEvent)

type state struct {
	token     string
	profile   Profile
	context   OrgContext
	orgs      []OrgRecord
	orgsKnown bool
}

func emptyState() state {
	return state{
		profile: Profile{},
		context: PersonalContext(),
	}
}

// Store holds the session: token, user profile and organization context.
// Every mutation is written to the durable store first and applied in
// memory only once the write succeeded.
type Store struct {
	mu           sync.RWMutex
	storage      DurableStore
	logger       Logger
	logoutPolicy LogoutPolicy
	listeners    []ChangeListener
	state        state
	hydrated     bool
}

var _ SessionReader = (*Store)(nil)

// NewStore returns an empty, unhydrated store backed by storage
func NewStore(storage DurableStore) *Store {
	return &Store{
		storage:      storage,
		logger:       defLogger{},
		logoutPolicy: LogoutPurgeAll,
		state:        emptyState(),
	}
}

func (s *Store) WithLogger(logger Logger) *Store {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Store) WithLogoutPolicy(policy LogoutPolicy) *Store {
	s.logoutPolicy = policy
	return s
}

// OnChange registers a listener called after every committed mutation.
// Listeners run outside the store lock and may read the store.
func (s *Store) OnChange(listener ChangeListener) {
	if listener == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, listener)
	s.mu.Unlock()
}

// Hydrate rebuilds the in-memory session from the durable store. Missing
// keys take their defaults; malformed values are logged and defaulted.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()

	next := emptyState()

	token, _, err := s.storage.Get(ctx, KeyToken)
	if err != nil {
		s.mu.Unlock()
		return storageError(err, ActionHydrate)
	}
	next.token = token

	if raw, ok, err := s.storage.Get(ctx, KeyUserInfo); err != nil {
		s.mu.Unlock()
		return storageError(err, ActionHydrate)
	} else if ok && raw != "" {
		profile := Profile{}
		if err := json.Unmarshal([]byte(raw), &profile); err != nil || profile == nil {
			s.logger.Warn("Hydrate discarding malformed user info", "error", err)
			profile = Profile{}
		}
		next.profile = profile
	}

	if next.context.OrgID, err = s.readInt(ctx, KeyCurrentOrgID, DefaultOrgID); err != nil {
		s.mu.Unlock()
		return err
	}

	if next.context.ResourceCollectionID, err = s.readInt(ctx, KeyCurrentKBID, DefaultKBID); err != nil {
		s.mu.Unlock()
		return err
	}

	if name, ok, err := s.storage.Get(ctx, KeyCurrentOrgName); err != nil {
		s.mu.Unlock()
		return storageError(err, ActionHydrate)
	} else if ok && name != "" {
		next.context.OrgName = name
	}

	s.state = next
	s.hydrated = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("Session hydrated", "snapshot", print.MaybePrettyJSON(snap))
	s.notify(ActionHydrate, snap)
	return nil
}

func (s *Store) readInt(ctx context.Context, key string, def int64) (int64, error) {
	raw, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		return def, storageError(err, ActionHydrate)
	}
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.Warn("Hydrate discarding malformed integer", "key", key, "value", raw)
		return def, nil
	}
	return v, nil
}

// Login replaces token and profile and forgets the loaded memberships. The
// organization context is left as is.
func (s *Store) Login(ctx context.Context, token string, profile Profile) error {
	if token == "" {
		return ErrTokenRequired
	}

	if err := profile.Validate(); err != nil {
		return err
	}

	encoded, err := json.Marshal(profile)
	if err != nil {
		return withMetadata(ErrInvalidProfile, map[string]any{"reason": err.Error()})
	}

	s.mu.Lock()
	if err := s.storage.SetMany(ctx, map[string]string{
		KeyToken:    token,
		KeyUserInfo: string(encoded),
	}); err != nil {
		s.mu.Unlock()
		s.logger.Error("Login write through failed", "error", err)
		return storageError(err, ActionLogin)
	}

	s.state.token = token
	s.state.profile = profile.Clone()
	// memberships belong to the previous identity
	s.state.orgs = nil
	s.state.orgsKnown = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("Session login", "user", profile.Username(), "role", profile.Role())
	s.notify(ActionLogin, snap)
	return nil
}

// Logout clears the session and purges the durable store according to the
// configured LogoutPolicy.
func (s *Store) Logout(ctx context.Context) error {
	return s.reset(ctx, ActionLogout, s.logoutPolicy)
}

// Clear tears the session down removing only the session keys. It is used
// when the API rejects the current token.
func (s *Store) Clear(ctx context.Context) error {
	return s.reset(ctx, ActionClear, LogoutPurgeSessionKeys)
}

func (s *Store) reset(ctx context.Context, action string, policy LogoutPolicy) error {
	s.mu.Lock()

	var err error
	switch policy {
	case LogoutPurgeSessionKeys:
		err = s.storage.Delete(ctx, SessionKeys()...)
	default:
		err = s.storage.Clear(ctx)
	}

	if err != nil {
		s.mu.Unlock()
		s.logger.Error("Session reset failed", "action", action, "error", err)
		return storageError(err, action)
	}

	s.state = emptyState()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("Session reset", "action", action, "policy", string(policy))
	s.notify(action, snap)
	return nil
}

// SetContext switches the active organization. The three context keys are
// written in one batch and swapped in memory together.
func (s *Store) SetContext(ctx context.Context, org OrgRecord) error {
	if err := org.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state.token != "" && s.state.orgsKnown && !org.IsPersonal() && !containsOrg(s.state.orgs, org) {
		s.mu.Unlock()
		return withMetadata(ErrOrgNotAvailable, map[string]any{
			"org_id": org.OrgID,
			"kb_id":  org.ResourceCollectionID,
		})
	}

	if err := s.writeContextLocked(ctx, org.Context()); err != nil {
		s.mu.Unlock()
		return err
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("Session context switched", "org_id", org.OrgID, "kb_id", org.ResourceCollectionID)
	s.notify(ActionSetContext, snap)
	return nil
}

func (s *Store) writeContextLocked(ctx context.Context, next OrgContext) error {
	if err := s.storage.SetMany(ctx, map[string]string{
		KeyCurrentOrgID:   strconv.FormatInt(next.OrgID, 10),
		KeyCurrentKBID:    strconv.FormatInt(next.ResourceCollectionID, 10),
		KeyCurrentOrgName: next.OrgName,
	}); err != nil {
		s.logger.Error("SetContext write through failed", "error", err)
		return storageError(err, ActionSetContext)
	}
	s.state.context = next
	return nil
}

// SetAvailableOrgs records the memberships of the current user. The personal
// scope is always kept first. When the active context is not among the
// memberships the store falls back to the personal scope.
func (s *Store) SetAvailableOrgs(ctx context.Context, orgs []OrgRecord) error {
	list := []OrgRecord{PersonalOrg()}
	for _, org := range orgs {
		if org.IsPersonal() {
			list[0] = org
			continue
		}
		if err := org.Validate(); err != nil {
			return err
		}
		list = append(list, org)
	}

	s.mu.Lock()
	s.state.orgs = list
	s.state.orgsKnown = true

	current := s.state.context
	stale := !(current.OrgID == DefaultOrgID && current.ResourceCollectionID == DefaultKBID) &&
		!containsOrg(list, OrgRecord{OrgID: current.OrgID, ResourceCollectionID: current.ResourceCollectionID})

	if stale {
		s.logger.Warn("Active context not among memberships, resetting", "org_id", current.OrgID)
		if err := s.writeContextLocked(ctx, list[0].Context()); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(ActionSetOrgs, snap)
	return nil
}

// FindOrg returns the membership with the given organization id
func (s *Store) FindOrg(orgID int64) (OrgRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.state.orgsKnown && orgID == DefaultOrgID {
		return PersonalOrg(), true
	}
	for _, org := range s.state.orgs {
		if org.OrgID == orgID {
			return org, true
		}
	}
	return OrgRecord{}, false
}

// AvailableOrgs returns the known memberships, the personal scope only when
// memberships have not been loaded.
func (s *Store) AvailableOrgs() []OrgRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.state.orgsKnown {
		return []OrgRecord{PersonalOrg()}
	}
	return append([]OrgRecord(nil), s.state.orgs...)
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.token
}

func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// IsPlatformAdmin is recomputed from the profile on every call
func (s *Store) IsPlatformAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.profile.Role() == PlatformRoleAdmin
}

// Profile returns a copy of the user profile
func (s *Store) Profile() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.profile.Clone()
}

// Context returns the active organization context
func (s *Store) Context() OrgContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.context
}

// Hydrated reports whether Hydrate completed at least once
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Token:           s.state.token,
		Authenticated:   s.state.token != "",
		IsPlatformAdmin: s.state.profile.Role() == PlatformRoleAdmin,
		Profile:         s.state.profile.Clone(),
		Context:         s.state.context,
	}
	if s.state.orgsKnown {
		snap.AvailableOrgs = append([]OrgRecord(nil), s.state.orgs...)
	}
	return snap
}

func (s *Store) notify(action string, snap Snapshot) {
	s.mu.RLock()
	listeners := append([]ChangeListener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(ChangeEvent{Action: action, Snapshot: snap})
	}
}

func containsOrg(orgs []OrgRecord, org OrgRecord) bool {
	for _, o := range orgs {
		if o.OrgID == org.OrgID && o.ResourceCollectionID == org.ResourceCollectionID {
			return true
		}
	}
	return false
}
