package routeguard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	session "github.com/goliatone/go-console-session"
	"github.com/goliatone/go-console-session/middleware/routeguard"
)

func newSession(t *testing.T, token string, profile session.Profile) *session.Store {
	t.Helper()
	store := session.NewStore(session.NewMemoryStore())
	require.NoError(t, store.Hydrate(context.Background()))
	if token != "" {
		require.NoError(t, store.Login(context.Background(), token, profile))
	}
	return store
}

type captured struct {
	redirects []session.Decision
	forbidden []session.Decision
}

func newGuard(store *session.Store, path string, c *captured) router.HandlerFunc {
	return routeguard.New(routeguard.Config{
		Sessions: func(ctx router.Context) (session.SessionReader, error) {
			return store, nil
		},
		PathResolver: func(ctx router.Context) string { return path },
		OnRedirect: func(ctx router.Context, d session.Decision) error {
			c.redirects = append(c.redirects, d)
			return nil
		},
		OnForbidden: func(ctx router.Context, d session.Decision) error {
			c.forbidden = append(c.forbidden, d)
			return nil
		},
	})(func(ctx router.Context) error { return nil })
}

func newMockContext() *router.MockContext {
	ctx := router.NewMockContext()
	ctx.On("Locals", routeguard.DefaultContextKey, mock.Anything).Return(nil).Maybe()
	return ctx
}

func TestRouteGuardUnauthenticatedRedirectsToLogin(t *testing.T) {
	store := newSession(t, "", nil)
	c := &captured{}

	ctx := newMockContext()
	require.NoError(t, newGuard(store, "/admin/insights", c)(ctx))

	assert.False(t, ctx.NextCalled)
	require.Len(t, c.redirects, 1)
	assert.Equal(t, session.OutcomeRedirect, c.redirects[0].Outcome)
	assert.Equal(t, session.RouteLogin, c.redirects[0].Target)
}

func TestRouteGuardPublicRouteProceeds(t *testing.T) {
	store := newSession(t, "", nil)
	c := &captured{}

	ctx := newMockContext()
	require.NoError(t, newGuard(store, "/login", c)(ctx))

	assert.True(t, ctx.NextCalled)
	assert.Empty(t, c.redirects)

	decision, ok := ctx.LocalsMock[routeguard.DefaultContextKey].(session.Decision)
	require.True(t, ok)
	assert.Equal(t, session.RouteLogin, decision.Route.Path)
}

func TestRouteGuardAuthenticatedProceeds(t *testing.T) {
	store := newSession(t, "abc", session.Profile{"role": "user"})
	c := &captured{}

	ctx := newMockContext()
	require.NoError(t, newGuard(store, "/chat", c)(ctx))

	assert.True(t, ctx.NextCalled)
	assert.Empty(t, c.redirects)
	assert.Empty(t, c.forbidden)
}

func TestRouteGuardAdminRouteRequiresPlatformAdmin(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		next      bool
		forbidden bool
	}{
		{name: "regular user", role: "user", next: false, forbidden: true},
		{name: "platform admin", role: "admin", next: true, forbidden: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newSession(t, "abc", session.Profile{"role": tt.role})
			c := &captured{}

			ctx := newMockContext()
			require.NoError(t, newGuard(store, "/admin", c)(ctx))

			assert.Equal(t, tt.next, ctx.NextCalled)
			assert.Equal(t, tt.forbidden, len(c.forbidden) == 1)
		})
	}
}

func TestRouteGuardRootRedirectsToChat(t *testing.T) {
	store := newSession(t, "abc", session.Profile{})
	c := &captured{}

	ctx := newMockContext()
	require.NoError(t, newGuard(store, "/", c)(ctx))

	assert.False(t, ctx.NextCalled)
	require.Len(t, c.redirects, 1)
	assert.Equal(t, session.OutcomeAllow, c.redirects[0].Outcome)
	assert.Equal(t, session.RouteChat, c.redirects[0].Target)
}

func TestRouteGuardUnknownPathProceeds(t *testing.T) {
	store := newSession(t, "", nil)
	c := &captured{}

	ctx := newMockContext()
	require.NoError(t, newGuard(store, "/static/app.css", c)(ctx))

	assert.True(t, ctx.NextCalled)
	assert.Empty(t, c.redirects)
}

func TestRouteGuardSessionErrorUsesErrorHandler(t *testing.T) {
	expected := errors.New("storage down")
	var handled error

	handler := routeguard.New(routeguard.Config{
		Sessions: func(ctx router.Context) (session.SessionReader, error) {
			return nil, expected
		},
		PathResolver: func(ctx router.Context) string { return "/chat" },
		ErrorHandler: func(ctx router.Context, err error) error {
			handled = err
			return err
		},
	})(func(ctx router.Context) error { return nil })

	ctx := newMockContext()
	err := handler(ctx)
	require.ErrorIs(t, err, expected)
	assert.ErrorIs(t, handled, expected)
	assert.False(t, ctx.NextCalled)
}

func TestRouteGuardFilterSkips(t *testing.T) {
	store := newSession(t, "", nil)
	c := &captured{}

	handler := routeguard.New(routeguard.Config{
		Filter: func(ctx router.Context) bool { return true },
		Sessions: func(ctx router.Context) (session.SessionReader, error) {
			return store, nil
		},
		PathResolver: func(ctx router.Context) string { return "/admin" },
		OnRedirect: func(ctx router.Context, d session.Decision) error {
			c.redirects = append(c.redirects, d)
			return nil
		},
	})(func(ctx router.Context) error { return nil })

	ctx := newMockContext()
	require.NoError(t, handler(ctx))
	assert.True(t, ctx.NextCalled)
	assert.Empty(t, c.redirects)
}

func TestRouteGuardRequiresSessionResolver(t *testing.T) {
	require.Panics(t, func() {
		routeguard.New(routeguard.Config{})
	})
}

func TestRouteGuardNonCanonicalPaths(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		path      string
		next      bool
		redirect  string
		forbidden bool
	}{
		{name: "upper case admin signed out", path: "/ADMIN", redirect: session.RouteLogin},
		{name: "mixed case chat signed out", path: "/Chat", redirect: session.RouteLogin},
		{name: "upper case insights signed out", path: "/ADMIN/INSIGHTS", redirect: session.RouteLogin},
		{name: "encoded slash signed out", path: "/admin%2Finsights", redirect: session.RouteLogin},
		{name: "encoded letter signed out", path: "/%63hat", redirect: session.RouteLogin},
		{name: "double slash signed out", path: "//chat", redirect: session.RouteLogin},
		{name: "dot segments signed out", path: "/login/../admin", redirect: session.RouteLogin},
		{name: "trailing slash signed out", path: "/admin/", redirect: session.RouteLogin},
		{name: "upper case admin as user", role: "user", path: "/ADMIN", forbidden: true},
		{name: "mixed case admin as user", role: "user", path: "/Admin/", forbidden: true},
		{name: "upper case chat as user", role: "user", path: "/CHAT", next: true},
		{name: "upper case admin as admin", role: "admin", path: "/ADMIN", next: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := ""
			if tt.role != "" {
				token = "abc"
			}
			store := newSession(t, token, session.Profile{"role": tt.role})
			c := &captured{}

			ctx := newMockContext()
			require.NoError(t, newGuard(store, tt.path, c)(ctx))

			assert.Equal(t, tt.next, ctx.NextCalled)
			assert.Equal(t, tt.forbidden, len(c.forbidden) == 1)
			if tt.redirect != "" {
				require.Len(t, c.redirects, 1)
				assert.Equal(t, session.OutcomeRedirect, c.redirects[0].Outcome)
				assert.Equal(t, tt.redirect, c.redirects[0].Target)
			} else {
				assert.Empty(t, c.redirects)
			}
		})
	}
}
