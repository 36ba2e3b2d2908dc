package session

import (
	"context"
	"sync"
	"time"
)

// StorageFactory returns the durable store of one browser session or
// CLI profile.
type StorageFactory func(sessionID string) DurableStore

type registryEntry struct {
	store    *Store
	lastSeen time.Time
}

// StoreRegistry keeps one hydrated Store per session id. With an idle TTL
// stores unused for longer are dropped from memory, their durable entries
// stay.
type StoreRegistry struct {
	mu           sync.Mutex
	factory      StorageFactory
	stores       map[string]*registryEntry
	logger       Logger
	logoutPolicy LogoutPolicy
	listeners    []ChangeListener
	idleTTL      time.Duration
	lastSweep    time.Time
	now          func() time.Time
}

func NewStoreRegistry(factory StorageFactory) *StoreRegistry {
	return &StoreRegistry{
		factory:      factory,
		stores:       map[string]*registryEntry{},
		logger:       defLogger{},
		logoutPolicy: LogoutPurgeAll,
		now:          time.Now,
	}
}

func (r *StoreRegistry) WithLogger(logger Logger) *StoreRegistry {
	if logger != nil {
		r.logger = logger
	}
	return r
}

func (r *StoreRegistry) WithLogoutPolicy(policy LogoutPolicy) *StoreRegistry {
	r.logoutPolicy = policy
	return r
}

// WithIdleTTL evicts stores not requested for ttl. Zero disables eviction.
func (r *StoreRegistry) WithIdleTTL(ttl time.Duration) *StoreRegistry {
	if ttl >= 0 {
		r.idleTTL = ttl
	}
	return r
}

func (r *StoreRegistry) WithClock(now func() time.Time) *StoreRegistry {
	if now != nil {
		r.now = now
	}
	return r
}

// OnChange registers a listener attached to every store created afterwards
func (r *StoreRegistry) OnChange(listener ChangeListener) *StoreRegistry {
	if listener != nil {
		r.listeners = append(r.listeners, listener)
	}
	return r
}

// StoreFor returns the store of sessionID, creating and hydrating it on
// first use.
func (r *StoreRegistry) StoreFor(ctx context.Context, sessionID string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.idleTTL > 0 && now.Sub(r.lastSweep) >= r.idleTTL {
		r.evictLocked(now.Add(-r.idleTTL))
		r.lastSweep = now
	}

	if entry, ok := r.stores[sessionID]; ok {
		entry.lastSeen = now
		return entry.store, nil
	}

	store := NewStore(r.factory(sessionID)).
		WithLogger(r.logger).
		WithLogoutPolicy(r.logoutPolicy)

	for _, l := range r.listeners {
		store.OnChange(l)
	}

	if err := store.Hydrate(ctx); err != nil {
		return nil, err
	}

	r.stores[sessionID] = &registryEntry{store: store, lastSeen: now}
	return store, nil
}

// EvictIdle drops every store not requested for ttl and returns how many
// were dropped.
func (r *StoreRegistry) EvictIdle(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictLocked(r.now().Add(-ttl))
}

func (r *StoreRegistry) evictLocked(before time.Time) int {
	evicted := 0
	for id, entry := range r.stores {
		if entry.lastSeen.Before(before) {
			delete(r.stores, id)
			evicted++
		}
	}
	if evicted > 0 {
		r.logger.Debug("Evicted idle session stores", "evicted", evicted, "cached", len(r.stores))
	}
	return evicted
}

// Forget drops the cached store of sessionID. Durable entries are kept.
func (r *StoreRegistry) Forget(sessionID string) {
	r.mu.Lock()
	delete(r.stores, sessionID)
	r.mu.Unlock()
}

// Len returns the number of cached stores
func (r *StoreRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
