// app.go holds the state shared by chimeractl commands: configuration, the
// profile session store, the API client and the route guard.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	session "github.com/goliatone/go-console-session"
	"github.com/goliatone/go-console-session/client"
	"github.com/goliatone/go-console-session/config"
	"github.com/goliatone/go-console-session/repository"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-print"
)

type cliApp struct {
	cfg     *config.BaseConfig
	logger  *glog.BaseLogger
	repo    *repository.Manager
	store   *session.Store
	guard   *session.RouteGuard
	http    *http.Client
	profile string
	output  string
	out     io.Writer
}

// newCLIApp opens the local store and hydrates the session of profile
func newCLIApp(ctx context.Context, cfg *config.BaseConfig, lgr *glog.BaseLogger, out io.Writer) (*cliApp, error) {
	app := &cliApp{
		cfg:     cfg,
		logger:  lgr,
		profile: cfg.GetCLI().GetProfile(),
		output:  cfg.GetCLI().GetOutput(),
		out:     out,
		http:    &http.Client{Timeout: cfg.GetAPI().GetTimeout()},
	}
	if app.profile == "" {
		app.profile = repository.DefaultNamespace
	}
	if app.output == "" {
		app.output = "yaml"
	}

	repo, err := repository.Open(ctx, cfg.GetStorage().GetDSN())
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	app.repo = repo

	app.store = session.NewStore(repo.LocalStore(app.profile)).
		WithLogger(app.GetLogger("session:store")).
		WithLogoutPolicy(session.ParseLogoutPolicy(cfg.GetAuth().GetLogoutPolicy()))

	if err := app.store.Hydrate(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("loading profile %q: %w", app.profile, err)
	}

	app.guard = session.NewRouteGuardFromConfig(app.store, session.MustRouteTable(session.DefaultRoutes()...), cfg.GetAuth()).
		WithLogger(app.GetLogger("session:guard"))

	return app, nil
}

// GetLogger returns a named logger, silent unless --verbose was given
func (a *cliApp) GetLogger(name string) session.Logger {
	if a.logger == nil {
		return quietLogger{}
	}
	return a.logger.GetLogger(name)
}

func (a *cliApp) Close() error {
	if a == nil || a.repo == nil {
		return nil
	}
	return a.repo.Close()
}

// API returns a client carrying the profile token. A rejected token clears
// the profile session.
func (a *cliApp) API() *client.Client {
	return client.New(client.Config{
		BaseURL:        a.cfg.GetAPI().GetBaseURL(),
		Timeout:        a.cfg.GetAPI().GetTimeout(),
		HTTPClient:     a.http,
		Tokens:         a.store.Token,
		OnUnauthorized: session.ExpireOnUnauthorized(a.logoutHandler()),
		Logger:         a.GetLogger("api"),
	})
}

func (a *cliApp) logoutHandler() *session.LogoutHandler {
	return session.NewLogoutHandler(a.store).
		WithLogger(a.GetLogger("session:logout")).
		WithActivitySink(a.activitySink())
}

func (a *cliApp) activitySink() session.ActivitySink {
	logger := a.GetLogger("session:activity")
	return session.ActivitySinkFunc(func(ctx context.Context, event session.ActivityEvent) error {
		logger.Info("session activity",
			"event", string(event.EventType),
			"profile", a.profile,
			"user_id", event.UserID,
			"org_id", event.Context.OrgID,
		)
		return nil
	})
}

// authorize checks the route a command stands for against the session
func (a *cliApp) authorize(path string) error {
	if path == "" {
		return nil
	}

	decision, err := a.guard.Navigate(path)
	if err != nil {
		return err
	}

	switch decision.Outcome {
	case session.OutcomeRedirect:
		return fmt.Errorf("profile %q is signed out, run chimeractl login first: %w", a.profile, decision.Err())
	case session.OutcomeForbidden:
		return fmt.Errorf("profile %q can not access %s: %w", a.profile, decision.Route.Path, decision.Err())
	}
	return nil
}

// render writes v in the selected output format
func (a *cliApp) render(v any) error {
	switch a.output {
	case "json":
		_, err := fmt.Fprintln(a.out, print.MaybePrettyJSON(v))
		return err
	default:
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}
		return enc.Close()
	}
}

// expiredHint rewords errors caused by a token the API no longer accepts
func (a *cliApp) expiredHint(err error) error {
	if client.IsUnauthorized(err) {
		return fmt.Errorf("session of profile %q expired, run chimeractl login: %w", a.profile, err)
	}
	return err
}

func describeError(err error) string {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode != "" {
		return fmt.Sprintf("%s (%s)", err.Error(), strings.ToLower(richErr.TextCode))
	}
	return err.Error()
}

type quietLogger struct{}

func (quietLogger) Debug(msg string, args ...any) {}
func (quietLogger) Info(msg string, args ...any)  {}
func (quietLogger) Warn(msg string, args ...any)  {}
func (quietLogger) Error(msg string, args ...any) {}
