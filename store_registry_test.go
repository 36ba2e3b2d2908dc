package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	session "github.com/goliatone/go-console-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRegistry(t *testing.T) {
	ctx := context.Background()
	backends := map[string]*session.MemoryStore{
		"browser-a": session.NewMemoryStore(),
		"browser-b": session.NewMemoryStore(),
	}
	require.NoError(t, backends["browser-a"].SetMany(ctx, map[string]string{
		session.KeyToken:    "tok-a",
		session.KeyUserInfo: `{"role":"admin"}`,
	}))

	var actions []string
	registry := session.NewStoreRegistry(func(id string) session.DurableStore {
		return backends[id]
	}).
		WithLogger(silentLogger{}).
		WithLogoutPolicy(session.LogoutPurgeSessionKeys).
		OnChange(func(e session.ChangeEvent) { actions = append(actions, e.Action) })

	a, err := registry.StoreFor(ctx, "browser-a")
	require.NoError(t, err)
	assert.True(t, a.Hydrated())
	assert.True(t, a.IsPlatformAdmin())

	again, err := registry.StoreFor(ctx, "browser-a")
	require.NoError(t, err)
	assert.Same(t, a, again)

	b, err := registry.StoreFor(ctx, "browser-b")
	require.NoError(t, err)
	assert.False(t, b.IsAuthenticated())
	assert.Equal(t, 2, registry.Len())

	require.NoError(t, backends["browser-a"].SetMany(ctx, map[string]string{"theme": "dark"}))
	require.NoError(t, a.Logout(ctx))
	keys, err := backends["browser-a"].Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"theme"}, keys, "registry policy applies to its stores")

	assert.Equal(t, []string{session.ActionHydrate, session.ActionHydrate, session.ActionLogout}, actions)

	registry.Forget("browser-a")
	assert.Equal(t, 1, registry.Len())
	fresh, err := registry.StoreFor(ctx, "browser-a")
	require.NoError(t, err)
	assert.NotSame(t, a, fresh)
}

func TestStoreRegistryHydrateFailure(t *testing.T) {
	storage := newFlakyStorage()
	storage.failGet = true

	registry := session.NewStoreRegistry(func(string) session.DurableStore { return storage }).
		WithLogger(silentLogger{})

	_, err := registry.StoreFor(context.Background(), "broken")
	require.Error(t, err)
	assert.Equal(t, 0, registry.Len())
}

func TestStoreRegistryConcurrentAccess(t *testing.T) {
	registry := session.NewStoreRegistry(func(string) session.DurableStore {
		return session.NewMemoryStore()
	}).WithLogger(silentLogger{})

	stores := make([]*session.Store, 16)
	var wg sync.WaitGroup
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := registry.StoreFor(context.Background(), "shared")
			assert.NoError(t, err)
			stores[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range stores {
		assert.Same(t, stores[0], s)
	}
}

func TestStoreRegistryEvictsIdleStores(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	backend := session.NewMemoryStore()
	registry := session.NewStoreRegistry(func(string) session.DurableStore { return backend }).
		WithLogger(silentLogger{}).
		WithClock(clock).
		WithIdleTTL(30 * time.Minute)

	for _, id := range []string{"one-shot-1", "one-shot-2", "one-shot-3"} {
		_, err := registry.StoreFor(ctx, id)
		require.NoError(t, err)
	}

	active, err := registry.StoreFor(ctx, "active")
	require.NoError(t, err)
	require.NoError(t, active.Login(ctx, "tok", session.Profile{}))
	assert.Equal(t, 4, registry.Len())

	now = now.Add(20 * time.Minute)
	again, err := registry.StoreFor(ctx, "active")
	require.NoError(t, err)
	assert.Same(t, active, again)

	now = now.Add(20 * time.Minute)
	again, err = registry.StoreFor(ctx, "active")
	require.NoError(t, err)
	assert.Same(t, active, again)
	assert.Equal(t, 1, registry.Len(), "clients seen once do not pile up")

	now = now.Add(time.Hour)
	assert.Equal(t, 1, registry.EvictIdle(30*time.Minute))
	assert.Equal(t, 0, registry.Len())

	rehydrated, err := registry.StoreFor(ctx, "active")
	require.NoError(t, err)
	assert.NotSame(t, active, rehydrated)
	assert.Equal(t, "tok", rehydrated.Token(), "durable entries survive eviction")
}

func TestStoreRegistryWithoutIdleTTLKeepsStores(t *testing.T) {
	now := time.Now()
	registry := session.NewStoreRegistry(func(string) session.DurableStore {
		return session.NewMemoryStore()
	}).
		WithLogger(silentLogger{}).
		WithClock(func() time.Time { return now })

	_, err := registry.StoreFor(context.Background(), "a")
	require.NoError(t, err)

	now = now.Add(24 * time.Hour)
	_, err = registry.StoreFor(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())
}
