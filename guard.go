package session

// Outcome of a navigation attempt
type Outcome int

const (
	// OutcomeAllow lets the navigation proceed
	OutcomeAllow Outcome = iota
	// OutcomeRedirect discards the navigation and sends the user to Decision.Target
	OutcomeRedirect
	// OutcomeForbidden rejects an authenticated session lacking the platform admin role
	OutcomeForbidden
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating a route against the session
type Decision struct {
	Outcome Outcome
	Route   Route
	// Target is the resolved route path when allowed, the login path when
	// redirected and the forbidden path (if any) when forbidden.
	Target string
	Reason string
}

// Allowed reports whether navigation may proceed
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllow
}

// Err returns the session error matching a non allowed decision
func (d Decision) Err() error {
	switch d.Outcome {
	case OutcomeRedirect:
		return withMetadata(ErrNotAuthenticated, map[string]any{"path": d.Route.Path})
	case OutcomeForbidden:
		return withMetadata(ErrForbidden, map[string]any{"path": d.Route.Path})
	default:
		return nil
	}
}

// RouteGuard decides whether a navigation may proceed
type RouteGuard struct {
	session       SessionReader
	routes        *RouteTable
	loginPath     string
	forbiddenPath string
	logger        Logger
}

// NewRouteGuard creates a guard reading the given session
func NewRouteGuard(session SessionReader, routes *RouteTable) *RouteGuard {
	if routes == nil {
		routes = MustRouteTable(DefaultRoutes()...)
	}
	return &RouteGuard{
		session:   session,
		routes:    routes,
		loginPath: RouteLogin,
		logger:    defLogger{},
	}
}

// NewRouteGuardFromConfig creates a guard using the configured paths
func NewRouteGuardFromConfig(session SessionReader, routes *RouteTable, cfg Config) *RouteGuard {
	g := NewRouteGuard(session, routes)
	if cfg == nil {
		return g
	}
	if p := cfg.GetLoginPath(); p != "" {
		g.loginPath = p
	}
	g.forbiddenPath = cfg.GetForbiddenPath()
	return g
}

func (g *RouteGuard) WithLogger(logger Logger) *RouteGuard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

func (g *RouteGuard) WithLoginPath(path string) *RouteGuard {
	if path != "" {
		g.loginPath = path
	}
	return g
}

func (g *RouteGuard) WithForbiddenPath(path string) *RouteGuard {
	g.forbiddenPath = path
	return g
}

func (g *RouteGuard) LoginPath() string {
	return g.loginPath
}

func (g *RouteGuard) Routes() *RouteTable {
	return g.routes
}

// Evaluate applies the access rules of route to the current session:
// public routes always pass, protected routes need a token and admin
// routes additionally need the platform admin role. RequiresAdmin implies
// RequiresAuth, so a signed out navigation to an admin route is sent to
// login rather than answered forbidden.
func (g *RouteGuard) Evaluate(route Route) Decision {
	meta := route.Meta
	if !meta.RequiresAuth && !meta.RequiresAdmin {
		return Decision{Outcome: OutcomeAllow, Route: route, Target: route.Path, Reason: "public route"}
	}

	if g.session == nil || g.session.Token() == "" {
		g.logger.Debug("Guard redirecting unauthenticated navigation", "path", route.Path, "login", g.loginPath)
		return Decision{Outcome: OutcomeRedirect, Route: route, Target: g.loginPath, Reason: "authentication required"}
	}

	if meta.RequiresAdmin && !g.session.IsPlatformAdmin() {
		g.logger.Info("Guard rejecting navigation, admin role required", "path", route.Path)
		return Decision{Outcome: OutcomeForbidden, Route: route, Target: g.forbiddenPath, Reason: "platform admin required"}
	}

	return Decision{Outcome: OutcomeAllow, Route: route, Target: route.Path, Reason: "authenticated"}
}

// Navigate resolves path in the route table, following redirects, and
// evaluates the final route.
func (g *RouteGuard) Navigate(path string) (Decision, error) {
	route, err := g.routes.Resolve(path)
	if err != nil {
		return Decision{}, err
	}
	return g.Evaluate(route), nil
}
