package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	session "github.com/goliatone/go-console-session"
	"github.com/goliatone/go-console-session/client"
	"github.com/goliatone/go-console-session/config"
	"github.com/goliatone/go-console-session/middleware/csrf"
	"github.com/goliatone/go-console-session/middleware/routeguard"
	"github.com/goliatone/go-console-session/repository"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type App struct {
	config   *gconfig.Container[*config.BaseConfig]
	logger   *glog.BaseLogger
	repo     *repository.Manager
	registry *session.StoreRegistry
	sessions *session.RouteSession
	routes   *session.RouteTable
	http     *http.Client
	srv      router.Server[*fiber.App]
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

// API returns a client bound to store: requests carry its token and a
// rejected token tears the session down.
func (a *App) API(store *session.Store) *client.Client {
	logout := session.NewLogoutHandler(store).
		WithLogger(a.GetLogger("session:logout")).
		WithActivitySink(a.activitySink())

	return client.New(client.Config{
		BaseURL:        a.Config().GetAPI().GetBaseURL(),
		Timeout:        a.Config().GetAPI().GetTimeout(),
		HTTPClient:     a.http,
		Tokens:         store.Token,
		OnUnauthorized: session.ExpireOnUnauthorized(logout),
		Logger:         a.GetLogger("api"),
	})
}

func (a *App) activitySink() session.ActivitySink {
	logger := a.GetLogger("session:activity")
	return session.ActivitySinkFunc(func(ctx context.Context, event session.ActivityEvent) error {
		logger.Info("session activity",
			"event", string(event.EventType),
			"user_id", event.UserID,
			"username", event.Username,
			"org_id", event.Context.OrgID,
		)
		return nil
	})
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("console"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	fmt.Println("============")
	fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
	fmt.Println("============")

	app := &App{
		config: cfg,
		logger: lgr,
		routes: session.MustRouteTable(session.DefaultRoutes()...),
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}
	defer app.repo.Close()

	if err := WithSessions(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	ConsoleRoutes(app)

	go app.srv.Serve(app.Config().GetServer().GetAddr())

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	mgr, err := repository.Open(ctx, app.Config().GetStorage().GetDSN())
	if err != nil {
		return err
	}
	mgr.MustValidate()

	if keep := app.Config().GetStorage().GetPruneAfter(); keep > 0 {
		removed, err := mgr.LocalStore(repository.DefaultNamespace).Prune(ctx, time.Now().Add(-keep))
		if err != nil {
			app.GetLogger("persistence").Error("prune failed", "error", err)
		} else {
			app.GetLogger("persistence").Info("pruned idle session entries", "removed", removed)
		}
	}

	app.repo = mgr
	return nil
}

func WithSessions(ctx context.Context, app *App) error {
	authCfg := app.Config().GetAuth()
	srvCfg := app.Config().GetServer()

	changes := app.GetLogger("session:store")
	app.registry = session.NewStoreRegistry(func(sessionID string) session.DurableStore {
		return app.repo.LocalStore(sessionID)
	}).
		WithLogger(app.GetLogger("session")).
		WithLogoutPolicy(session.ParseLogoutPolicy(authCfg.GetLogoutPolicy())).
		WithIdleTTL(srvCfg.GetSessionIdle()).
		OnChange(func(e session.ChangeEvent) {
			changes.Debug("session changed", "action", e.Action, "authenticated", e.Snapshot.Authenticated)
		})

	app.sessions = session.NewRouteSession(app.registry, session.HTTPOptions{
		SessionCookie: srvCfg.GetSessionCookie(),
		Secure:        srvCfg.GetSecureCookies(),
	}).WithLoginPath(authCfg.GetLoginPath())
	app.sessions.Logger = app.GetLogger("session:http")

	app.http = &http.Client{Timeout: app.Config().GetAPI().GetTimeout()}
	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	vcfg := app.Config().GetViews()

	var templates fs.FS = session.GetViewsFS()
	sub, err := fs.Sub(templates, vcfg.GetDir())
	if err != nil {
		return fmt.Errorf("unable to scope embedded templates to %q: %w", vcfg.GetDir(), err)
	}

	if dir := os.Getenv("CONSOLE_VIEWS_DIR"); dir != "" {
		sub = os.DirFS(dir)
	}

	ext := vcfg.GetExtension()
	if ext == "" {
		ext = ".html"
	}
	engine := django.NewFileSystem(http.FS(sub), ext)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			CaseSensitive:     true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	authCfg := app.Config().GetAuth()
	srv.Router().Use(routeguard.New(routeguard.Config{
		Sessions:      app.sessions.Reader,
		Routes:        app.routes,
		LoginPath:     authCfg.GetLoginPath(),
		ForbiddenPath: authCfg.GetForbiddenPath(),
		TemplateKey:   session.TemplateSessionKey,
		OnRedirect:    app.sessions.HandleRedirect,
		OnForbidden:   app.sessions.HandleForbidden,
		ErrorHandler: func(ctx router.Context, err error) error {
			return app.sessions.ErrorHandler(ctx, err)
		},
		Logger: app.GetLogger("session:guard"),
	}))

	csrfLogger := app.GetLogger("session:csrf")
	srv.Router().Use(csrf.New(csrf.Config{
		SessionID: app.sessions.SessionID,
		SecureKey: []byte(app.Config().GetServer().GetCSRFSecret()),
		ErrorHandler: func(ctx router.Context, err error) error {
			csrfLogger.Warn("rejected form post", "path", ctx.Path(), "error", err)
			return ctx.Status(http.StatusForbidden).Render("errors/403", router.ViewContext{
				"error": errors.Wrap(err, errors.CategoryAuthz, "Your form expired, reload the page and try again"),
			})
		},
	}))

	app.srv = srv
	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
