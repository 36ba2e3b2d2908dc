package routeguard

import (
	"errors"
	"net/http"

	session "github.com/goliatone/go-console-session"
	"github.com/goliatone/go-router"
)

// DefaultContextKey is the locals key holding the admitted Decision
const DefaultContextKey = "route_decision"

// SessionResolver returns the session of the current request
type SessionResolver func(ctx router.Context) (session.SessionReader, error)

// DecisionHandler answers a request the guard did not admit
type DecisionHandler func(ctx router.Context, decision session.Decision) error

type Config struct {
	// Filter skips the guard when it returns true
	Filter   func(router.Context) bool
	Sessions SessionResolver
	Routes   *session.RouteTable

	LoginPath     string
	ForbiddenPath string

	// PathResolver returns the navigation target, ctx.Path() by default
	PathResolver func(router.Context) string
	ContextKey   string

	// TemplateKey, when set, receives the session snapshot data for views
	TemplateKey string

	OnRedirect  DecisionHandler
	OnForbidden DecisionHandler
	// OnUnknown handles paths missing from the route table, by default the
	// request proceeds unguarded.
	OnUnknown    router.HandlerFunc
	ErrorHandler router.ErrorHandler
	Logger       session.Logger
}

func New(config ...Config) router.MiddlewareFunc {
	cfg := configDefault(config...)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			reader, err := cfg.Sessions(ctx)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			guard := session.NewRouteGuard(reader, cfg.Routes).
				WithLoginPath(cfg.LoginPath).
				WithForbiddenPath(cfg.ForbiddenPath)
			if cfg.Logger != nil {
				guard.WithLogger(cfg.Logger)
			}

			path := cfg.PathResolver(ctx)
			decision, err := guard.Navigate(path)
			if err != nil {
				if errors.Is(err, session.ErrRouteNotFound) {
					return cfg.OnUnknown(ctx)
				}
				return cfg.ErrorHandler(ctx, err)
			}

			switch decision.Outcome {
			case session.OutcomeRedirect:
				return cfg.OnRedirect(ctx, decision)
			case session.OutcomeForbidden:
				return cfg.OnForbidden(ctx, decision)
			}

			if decision.Route.Path != session.NormalizePath(path) {
				// navigation landed on a redirect entry
				return cfg.OnRedirect(ctx, decision)
			}

			ctx.Locals(cfg.ContextKey, decision)

			if cfg.TemplateKey != "" {
				if snap, ok := reader.(interface{ Snapshot() session.Snapshot }); ok {
					ctx.LocalsMerge(cfg.TemplateKey, session.TemplateData(snap.Snapshot()))
				}
			}

			return ctx.Next()
		}
	}
}

// FromLocals returns the decision stored by the middleware
func FromLocals(ctx router.Context, key ...string) (session.Decision, bool) {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	d, ok := ctx.Locals(k).(session.Decision)
	return d, ok
}

func configDefault(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Sessions == nil {
		panic("routeguard: Sessions resolver is required")
	}

	if cfg.Routes == nil {
		cfg.Routes = session.MustRouteTable(session.DefaultRoutes()...)
	}

	if cfg.LoginPath == "" {
		cfg.LoginPath = session.RouteLogin
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.PathResolver == nil {
		cfg.PathResolver = func(ctx router.Context) string {
			return ctx.Path()
		}
	}

	if cfg.OnRedirect == nil {
		cfg.OnRedirect = func(ctx router.Context, d session.Decision) error {
			return ctx.Redirect(d.Target, http.StatusFound)
		}
	}

	if cfg.OnForbidden == nil {
		cfg.OnForbidden = func(ctx router.Context, d session.Decision) error {
			if d.Target != "" {
				return ctx.Redirect(d.Target, http.StatusFound)
			}
			return ctx.Status(http.StatusForbidden).SendString("Forbidden")
		}
	}

	if cfg.OnUnknown == nil {
		cfg.OnUnknown = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx router.Context, err error) error {
			return err
		}
	}

	return cfg
}
