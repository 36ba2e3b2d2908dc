package session

import (
	"net/url"
	"path"
	"strings"
)

// Console route paths
const (
	RouteLogin     = "/login"
	RouteRegister  = "/register"
	RouteRoot      = "/"
	RouteChat      = "/chat"
	RouteAdmin     = "/admin"
	RouteInsights  = "/admin/insights"
	maxRedirectHop = 8
)

// RouteMeta declares the access requirements of a route
type RouteMeta struct {
	RequiresAuth  bool `json:"requiresAuth,omitempty" yaml:"requires_auth,omitempty"`
	RequiresAdmin bool `json:"requiresAdmin,omitempty" yaml:"requires_admin,omitempty"`
}

// Route is an entry of the declarative route table. A route either renders
// a View or Redirects to another path.
type Route struct {
	Path     string    `json:"path" yaml:"path"`
	Name     string    `json:"name,omitempty" yaml:"name,omitempty"`
	View     string    `json:"view,omitempty" yaml:"view,omitempty"`
	Redirect string    `json:"redirect,omitempty" yaml:"redirect,omitempty"`
	Meta     RouteMeta `json:"meta" yaml:"meta"`
}

// DefaultRoutes returns the console route table
func DefaultRoutes() []Route {
	return []Route{
		{Path: RouteLogin, Name: "login", View: "login"},
		{Path: RouteRegister, Name: "register", View: "register"},
		{Path: RouteRoot, Name: "root", Redirect: RouteChat},
		{
			Path: RouteChat,
			Name: "chat",
			View: "chat",
			Meta: RouteMeta{RequiresAuth: true},
		},
		{
			Path: RouteAdmin,
			Name: "admin",
			View: "admin_dashboard",
			Meta: RouteMeta{RequiresAuth: true, RequiresAdmin: true},
		},
		{
			Path: RouteInsights,
			Name: "insights",
			View: "insights",
			Meta: RouteMeta{RequiresAuth: true},
		},
	}
}

// RouteTable indexes routes by path
type RouteTable struct {
	routes []Route
	index  map[string]int
}

// NewRouteTable validates and indexes the given routes
func NewRouteTable(routes ...Route) (*RouteTable, error) {
	t := &RouteTable{
		routes: make([]Route, 0, len(routes)),
		index:  make(map[string]int, len(routes)),
	}

	for _, r := range routes {
		r.Path = NormalizePath(r.Path)
		if !strings.HasPrefix(r.Path, "/") {
			return nil, withMetadata(ErrInvalidRouteTable, map[string]any{
				"path":   r.Path,
				"reason": "path must start with /",
			})
		}

		if r.View == "" && r.Redirect == "" {
			return nil, withMetadata(ErrInvalidRouteTable, map[string]any{
				"path":   r.Path,
				"reason": "route needs a view or a redirect",
			})
		}

		if _, dup := t.index[r.Path]; dup {
			return nil, withMetadata(ErrInvalidRouteTable, map[string]any{
				"path":   r.Path,
				"reason": "duplicated path",
			})
		}

		t.index[r.Path] = len(t.routes)
		t.routes = append(t.routes, r)
	}

	return t, nil
}

// MustRouteTable panics if the table is invalid
func MustRouteTable(routes ...Route) *RouteTable {
	t, err := NewRouteTable(routes...)
	if err != nil {
		panic(err)
	}
	return t
}

// Routes returns a copy of the declared routes in order
func (t *RouteTable) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Lookup finds the route declared for path
func (t *RouteTable) Lookup(path string) (Route, bool) {
	i, ok := t.index[NormalizePath(path)]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

// Resolve finds the route for path following redirects until a view route
func (t *RouteTable) Resolve(path string) (Route, error) {
	current := path
	for hop := 0; hop <= maxRedirectHop; hop++ {
		r, ok := t.Lookup(current)
		if !ok {
			return Route{}, withMetadata(ErrRouteNotFound, map[string]any{"path": current})
		}
		if r.Redirect == "" {
			return r, nil
		}
		current = r.Redirect
	}
	return Route{}, withMetadata(ErrRedirectLoop, map[string]any{"path": path})
}

// NormalizePath canonicalizes a navigation path the way the console router
// matches it: query and fragment dropped, escapes decoded, dot segments and
// repeated slashes collapsed, case folded.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	if p == "" {
		return p
	}
	return strings.ToLower(path.Clean(p))
}

// LocalRedirect reduces raw to a path on this origin, keeping its query.
// Scheme and host are discarded. Protocol relative and non rooted targets
// yield fallback.
func LocalRedirect(raw, fallback string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Path == "" {
		return fallback
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || strings.ContainsRune(u.Path, '\\') {
		return fallback
	}
	target := u.EscapedPath()
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target
}
