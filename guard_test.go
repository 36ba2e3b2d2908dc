package session_test

import (
	"context"
	"testing"

	session "github.com/goliatone/go-console-session"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guardConfig struct {
	login     string
	forbidden string
}

func (c guardConfig) GetLoginPath() string     { return c.login }
func (c guardConfig) GetForbiddenPath() string { return c.forbidden }
func (c guardConfig) GetLogoutPolicy() string  { return "" }

func signedIn(t *testing.T, role string) *session.Store {
	t.Helper()
	store := newTestStore(session.NewMemoryStore())
	profile := session.Profile{}
	if role != "" {
		profile["role"] = role
	}
	require.NoError(t, store.Login(context.Background(), "tok", profile))
	return store
}

func TestRouteGuardEvaluate(t *testing.T) {
	public := session.Route{Path: "/about", View: "about"}
	protected := session.Route{Path: "/chat", View: "chat", Meta: session.RouteMeta{RequiresAuth: true}}
	admin := session.Route{Path: "/admin", View: "admin", Meta: session.RouteMeta{RequiresAuth: true, RequiresAdmin: true}}
	adminOnly := session.Route{Path: "/ops", View: "ops", Meta: session.RouteMeta{RequiresAdmin: true}}

	tests := []struct {
		name    string
		store   func(t *testing.T) *session.Store
		route   session.Route
		outcome session.Outcome
		target  string
	}{
		{"public signed out", func(t *testing.T) *session.Store { return newTestStore(session.NewMemoryStore()) }, public, session.OutcomeAllow, "/about"},
		{"public signed in", func(t *testing.T) *session.Store { return signedIn(t, "user") }, public, session.OutcomeAllow, "/about"},
		{"protected signed out", func(t *testing.T) *session.Store { return newTestStore(session.NewMemoryStore()) }, protected, session.OutcomeRedirect, session.RouteLogin},
		{"protected signed in", func(t *testing.T) *session.Store { return signedIn(t, "user") }, protected, session.OutcomeAllow, "/chat"},
		{"protected without role", func(t *testing.T) *session.Store { return signedIn(t, "") }, protected, session.OutcomeAllow, "/chat"},
		{"admin signed out", func(t *testing.T) *session.Store { return newTestStore(session.NewMemoryStore()) }, admin, session.OutcomeRedirect, session.RouteLogin},
		{"admin as user", func(t *testing.T) *session.Store { return signedIn(t, "user") }, admin, session.OutcomeForbidden, ""},
		{"admin as admin", func(t *testing.T) *session.Store { return signedIn(t, "admin") }, admin, session.OutcomeAllow, "/admin"},
		{"admin flag alone needs a token", func(t *testing.T) *session.Store { return newTestStore(session.NewMemoryStore()) }, adminOnly, session.OutcomeRedirect, session.RouteLogin},
		{"admin flag alone as user", func(t *testing.T) *session.Store { return signedIn(t, "user") }, adminOnly, session.OutcomeForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := session.NewRouteGuard(tt.store(t), nil).WithLogger(silentLogger{})
			d := guard.Evaluate(tt.route)
			assert.Equal(t, tt.outcome, d.Outcome)
			assert.Equal(t, tt.target, d.Target)
			assert.Equal(t, tt.route, d.Route)
			assert.Equal(t, tt.outcome == session.OutcomeAllow, d.Allowed())
		})
	}
}

func TestRouteGuardNilSessionRedirects(t *testing.T) {
	guard := session.NewRouteGuard(nil, nil).WithLogger(silentLogger{})
	d, err := guard.Navigate(session.RouteChat)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeRedirect, d.Outcome)
}

func TestRouteGuardFollowsLogout(t *testing.T) {
	ctx := context.Background()
	store := signedIn(t, "admin")
	guard := session.NewRouteGuard(store, nil).WithLogger(silentLogger{})

	d, err := guard.Navigate(session.RouteAdmin)
	require.NoError(t, err)
	assert.True(t, d.Allowed())

	require.NoError(t, store.Logout(ctx))

	d, err = guard.Navigate(session.RouteAdmin)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeRedirect, d.Outcome)
	assert.ErrorIs(t, d.Err(), session.ErrNotAuthenticated)
}

func TestRouteGuardNavigate(t *testing.T) {
	guard := session.NewRouteGuard(signedIn(t, "user"), nil).WithLogger(silentLogger{})

	d, err := guard.Navigate("/")
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeAllow, d.Outcome)
	assert.Equal(t, session.RouteChat, d.Target)

	d, err = guard.Navigate("/admin/insights/?page=2")
	require.NoError(t, err)
	assert.Equal(t, session.RouteInsights, d.Route.Path)
	assert.True(t, d.Allowed())

	d, err = guard.Navigate(session.RouteAdmin)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeForbidden, d.Outcome)
	assert.ErrorIs(t, d.Err(), session.ErrForbidden)

	_, err = guard.Navigate("/missing")
	assert.ErrorIs(t, err, session.ErrRouteNotFound)
}

func TestRouteGuardNavigateNonCanonicalPaths(t *testing.T) {
	signedOut := session.NewRouteGuard(newTestStore(session.NewMemoryStore()), nil).WithLogger(silentLogger{})
	user := session.NewRouteGuard(signedIn(t, "user"), nil).WithLogger(silentLogger{})

	for _, p := range []string{"/ADMIN", "/Chat", "/ADMIN/INSIGHTS", "/admin%2Finsights", "//chat", "/./admin"} {
		d, err := signedOut.Navigate(p)
		require.NoError(t, err, p)
		assert.Equal(t, session.OutcomeRedirect, d.Outcome, p)
		assert.Equal(t, session.RouteLogin, d.Target, p)
	}

	for _, p := range []string{"/ADMIN", "/Admin/", "/%61dmin"} {
		d, err := user.Navigate(p)
		require.NoError(t, err, p)
		assert.Equal(t, session.OutcomeForbidden, d.Outcome, p)
		assert.Equal(t, session.RouteAdmin, d.Route.Path, p)
	}
}

func TestRouteGuardFromConfig(t *testing.T) {
	store := newTestStore(session.NewMemoryStore())
	guard := session.NewRouteGuardFromConfig(store, nil, guardConfig{login: "/signin", forbidden: "/denied"}).
		WithLogger(silentLogger{})

	assert.Equal(t, "/signin", guard.LoginPath())

	d, err := guard.Navigate(session.RouteChat)
	require.NoError(t, err)
	assert.Equal(t, "/signin", d.Target)

	require.NoError(t, store.Login(context.Background(), "tok", session.Profile{"role": "user"}))
	d, err = guard.Navigate(session.RouteAdmin)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeForbidden, d.Outcome)
	assert.Equal(t, "/denied", d.Target)

	fallback := session.NewRouteGuardFromConfig(store, nil, guardConfig{})
	assert.Equal(t, session.RouteLogin, fallback.LoginPath())
	assert.Equal(t, session.RouteLogin, session.NewRouteGuardFromConfig(store, nil, nil).LoginPath())
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, session.Decision{Outcome: session.OutcomeAllow}.Err())

	err := session.Decision{Outcome: session.OutcomeRedirect, Route: session.Route{Path: "/chat"}}.Err()
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, session.TextCodeNotAuthenticated, richErr.TextCode)
	assert.Equal(t, "/chat", richErr.Metadata["path"])

	assert.Equal(t, "forbidden", session.OutcomeForbidden.String())
	assert.Equal(t, "unknown", session.Outcome(42).String())
}

func TestRouteTable(t *testing.T) {
	table := session.MustRouteTable(session.DefaultRoutes()...)

	route, ok := table.Lookup("/chat/")
	require.True(t, ok)
	assert.True(t, route.Meta.RequiresAuth)
	assert.False(t, route.Meta.RequiresAdmin)

	admin, ok := table.Lookup(session.RouteAdmin)
	require.True(t, ok)
	assert.True(t, admin.Meta.RequiresAdmin)

	login, ok := table.Lookup(session.RouteLogin)
	require.True(t, ok)
	assert.False(t, login.Meta.RequiresAuth)

	routes := table.Routes()
	routes[0].Path = "/changed"
	_, ok = table.Lookup("/changed")
	assert.False(t, ok)
}

func TestRouteTableValidation(t *testing.T) {
	tests := []struct {
		name   string
		routes []session.Route
	}{
		{"relative path", []session.Route{{Path: "chat", View: "chat"}}},
		{"no view nor redirect", []session.Route{{Path: "/chat"}}},
		{"duplicated path", []session.Route{{Path: "/chat", View: "a"}, {Path: "/chat/", View: "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := session.NewRouteTable(tt.routes...)
			assert.ErrorIs(t, err, session.ErrInvalidRouteTable)
		})
	}

	assert.Panics(t, func() { session.MustRouteTable(session.Route{Path: "/x"}) })
}

func TestRouteTableRedirectLoop(t *testing.T) {
	table := session.MustRouteTable(
		session.Route{Path: "/a", Redirect: "/b"},
		session.Route{Path: "/b", Redirect: "/a"},
	)
	_, err := table.Resolve("/a")
	assert.ErrorIs(t, err, session.ErrRedirectLoop)
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/":                 "/",
		"/chat/":            "/chat",
		" /chat ":           "/chat",
		"/admin?tab=1":      "/admin",
		"/admin#section":    "/admin",
		"/admin/insights":   "/admin/insights",
		"//":                "/",
		"/ADMIN":            "/admin",
		"/Admin/Insights/":  "/admin/insights",
		"/admin%2Finsights": "/admin/insights",
		"/admin%2finsights": "/admin/insights",
		"//chat":            "/chat",
		"/login/../admin":   "/admin",
		"/./chat":           "/chat",
		"/%43hat":           "/chat",
		"":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, session.NormalizePath(in), in)
	}
}

func TestLocalRedirect(t *testing.T) {
	tests := map[string]string{
		"/admin/insights":                 "/admin/insights",
		"/admin/insights?page=2":          "/admin/insights?page=2",
		"http://localhost:8573/admin?x=1": "/admin?x=1",
		"https://evil.example/phish":      "/phish",
		"//evil.example/phish":            "/phish",
		"/%2F%2Fevil.example":             session.RouteChat,
		"/\\evil.example":                 session.RouteChat,
		"evil.example":                    session.RouteChat,
		"javascript:alert(1)":             session.RouteChat,
		"https://evil.example":            session.RouteChat,
		"":                                session.RouteChat,
	}
	for in, want := range tests {
		assert.Equal(t, want, session.LocalRedirect(in, session.RouteChat), in)
	}
}
