package session

import (
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// HTTPOptions configures the browser side of the session
type HTTPOptions struct {
	SessionCookie        string
	RejectedRouteKey     string
	RejectedRouteDefault string
	CookieDuration       time.Duration
	Secure               bool
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.SessionCookie == "" {
		o.SessionCookie = "console_session"
	}
	if o.RejectedRouteKey == "" {
		o.RejectedRouteKey = "console_rejected_route"
	}
	if o.RejectedRouteDefault == "" {
		o.RejectedRouteDefault = RouteChat
	}
	if o.CookieDuration <= 0 {
		o.CookieDuration = 30 * 24 * time.Hour
	}
	return o
}

// RouteSession binds browser requests to their session store. Each browser
// gets a random session id cookie naming its durable namespace.
type RouteSession struct {
	registry         *StoreRegistry
	opts             HTTPOptions
	loginPath        string
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewRouteSession(registry *StoreRegistry, opts HTTPOptions) *RouteSession {
	a := &RouteSession{
		registry:  registry,
		opts:      opts.withDefaults(),
		loginPath: RouteLogin,
		Logger:    defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a
}

func (a *RouteSession) WithLoginPath(path string) *RouteSession {
	if path != "" {
		a.loginPath = path
	}
	return a
}

// SessionIDLocal is the request local holding the resolved session id
const SessionIDLocal = "session_id"

// SessionID returns the session id of the browser, issuing one when the
// request carries none. The id is resolved once per request.
func (a *RouteSession) SessionID(ctx router.Context) string {
	if id, ok := ctx.Locals(SessionIDLocal).(string); ok && id != "" {
		return id
	}

	if id := ctx.Cookies(a.opts.SessionCookie); id != "" {
		ctx.Locals(SessionIDLocal, id)
		return id
	}

	id := uuid.NewString()
	a.Logger.Debug("Issuing browser session", "session_id", id)
	ctx.Locals(SessionIDLocal, id)
	ctx.Cookie(&router.Cookie{
		Name:     a.opts.SessionCookie,
		Value:    id,
		Expires:  time.Now().Add(a.opts.CookieDuration),
		HTTPOnly: true,
		Secure:   a.opts.Secure,
		SameSite: "Lax",
	})
	return id
}

// Store returns the hydrated store of the browser session
func (a *RouteSession) Store(ctx router.Context) (*Store, error) {
	return a.registry.StoreFor(ctx.Context(), a.SessionID(ctx))
}

// Reader adapts Store to the route guard session resolver
func (a *RouteSession) Reader(ctx router.Context) (SessionReader, error) {
	return a.Store(ctx)
}

func (a *RouteSession) GetRedirectOrDefault(ctx router.Context) string {
	r := LocalRedirect(ctx.Cookies(a.opts.RejectedRouteKey), a.opts.RejectedRouteDefault)
	a.cookieDel(ctx, a.opts.RejectedRouteKey)
	return r
}

func (a *RouteSession) SetRedirect(ctx router.Context) {
	a.Logger.Info("Setting redirect cookie", "key", a.opts.RejectedRouteKey, "path", ctx.OriginalURL())

	ctx.Cookie(&router.Cookie{
		Name:     a.opts.RejectedRouteKey,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   a.opts.Secure,
		SameSite: "Lax",
	})
}

// HandleRedirect answers guard redirects. Navigations rejected for lack of
// a session remember the original URL for after login.
func (a *RouteSession) HandleRedirect(ctx router.Context, d Decision) error {
	if d.Outcome == OutcomeRedirect {
		a.SetRedirect(ctx)
	}
	return ctx.Redirect(d.Target, redirectStatus(ctx))
}

// HandleForbidden answers navigations rejected for lack of the admin role
func (a *RouteSession) HandleForbidden(ctx router.Context, d Decision) error {
	if d.Target != "" {
		return ctx.Redirect(d.Target, redirectStatus(ctx))
	}
	return a.ErrorHandler(ctx, d.Err())
}

func (a *RouteSession) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   a.opts.Secure,
		SameSite: "Lax",
	})
}

func (a *RouteSession) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error, redirecting to login",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	a.SetRedirect(c)
	return c.Redirect(a.loginPath, redirectStatus(c))
}

func (a *RouteSession) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Session error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth:
		return a.AuthErrorHandler(c, richErr)
	case errors.CategoryAuthz:
		return c.Status(http.StatusForbidden).Render("errors/403", router.ViewContext{
			"error": richErr,
		})
	default:
		code := richErr.Code
		if code == 0 {
			code = http.StatusInternalServerError
		}
		return c.Status(code).Render("errors/500", router.ViewContext{
			"error": richErr,
		})
	}
}

func redirectStatus(c router.Context) int {
	if c.Method() == string(router.GET) {
		return http.StatusFound
	}
	return http.StatusSeeOther
}
