package main

import (
	"net/http"
	"strconv"

	session "github.com/goliatone/go-console-session"
	"github.com/goliatone/go-console-session/client"
	"github.com/goliatone/go-console-session/middleware/csrf"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

func ConsoleRoutes(app *App) {
	r := app.srv.Router()

	for _, route := range app.routes.Routes() {
		if route.View == "" {
			continue
		}
		switch route.Path {
		case session.RouteInsights:
			r.Get(route.Path, InsightsShow(app))
		default:
			r.Get(route.Path, RenderRoute(route))
		}
	}

	r.Post(app.Config().GetAuth().GetLoginPath(), LoginPost(app))
	r.Post(session.RouteRegister, RegistrationCreate(app))
	r.Get("/logout", Logout(app))
	r.Post("/context", SwitchContext(app))
}

func renderWithGlobals(ctx router.Context, name string, data router.ViewContext) error {
	for k, v := range session.TemplateHelpersWithRouter(ctx, session.TemplateSessionKey) {
		if _, exists := data[k]; !exists {
			data[k] = v
		}
	}
	for k, v := range csrf.TemplateData(ctx) {
		data[k] = v
	}
	return ctx.Render(name, data)
}

// RenderRoute renders the view declared by a route table entry
func RenderRoute(route session.Route) func(c router.Context) error {
	return func(c router.Context) error {
		return renderWithGlobals(c, route.View, router.ViewContext{
			"route": route,
		})
	}
}

func LoginPost(app *App) func(c router.Context) error {
	logger := app.GetLogger("console:login")

	return func(c router.Context) error {
		payload := session.LoginMessage{}
		if err := c.Bind(&payload); err != nil {
			return renderWithGlobals(c.Status(http.StatusBadRequest), "login", router.ViewContext{
				"error":  "Invalid login request",
				"record": payload,
			})
		}

		store, err := app.sessions.Store(c)
		if err != nil {
			return app.sessions.ErrorHandler(c, err)
		}

		handler := session.NewLoginHandler(app.API(store), store).
			WithLogger(app.GetLogger("session:login")).
			WithActivitySink(app.activitySink())
		if !app.Config().GetAuth().GetLoadMemberships() {
			handler.WithoutMemberships()
		}

		if err := handler.Execute(c.Context(), payload); err != nil {
			logger.Info("login failed", "username", payload.Username, "error", err)
			payload.Password = ""
			return renderWithGlobals(c.Status(statusFor(err)), "login", router.ViewContext{
				"error":  messageFor(err),
				"record": payload,
			})
		}

		return c.Redirect(app.sessions.GetRedirectOrDefault(c), http.StatusSeeOther)
	}
}

func RegistrationCreate(app *App) func(c router.Context) error {
	return func(c router.Context) error {
		payload := session.RegisterUserMessage{}
		if err := c.Bind(&payload); err != nil {
			return renderWithGlobals(c.Status(http.StatusBadRequest), "register", router.ViewContext{
				"error":  "Invalid registration request",
				"record": payload,
			})
		}

		store, err := app.sessions.Store(c)
		if err != nil {
			return app.sessions.ErrorHandler(c, err)
		}

		handler := session.NewRegisterUserHandler(app.API(store)).
			WithLogger(app.GetLogger("session:register")).
			WithActivitySink(app.activitySink())

		err = handler.Execute(c.Context(), payload)
		payload.Password = ""
		if err != nil {
			return renderWithGlobals(c.Status(statusFor(err)), "register", router.ViewContext{
				"error":  messageFor(err),
				"record": payload,
			})
		}

		return renderWithGlobals(c, "login", router.ViewContext{
			"success": "Account created, you can sign in now",
			"record":  session.LoginMessage{Username: payload.Username},
		})
	}
}

func Logout(app *App) func(c router.Context) error {
	return func(c router.Context) error {
		store, err := app.sessions.Store(c)
		if err != nil {
			return app.sessions.ErrorHandler(c, err)
		}

		err = session.NewLogoutHandler(store).
			WithLogger(app.GetLogger("session:logout")).
			WithActivitySink(app.activitySink()).
			Execute(c.Context(), session.LogoutMessage{})
		if err != nil {
			return app.sessions.ErrorHandler(c, err)
		}

		return c.Redirect(app.Config().GetAuth().GetLoginPath(), http.StatusFound)
	}
}

func SwitchContext(app *App) func(c router.Context) error {
	return func(c router.Context) error {
		store, err := app.sessions.Store(c)
		if err != nil {
			return app.sessions.ErrorHandler(c, err)
		}

		if !store.IsAuthenticated() {
			return app.sessions.AuthErrorHandler(c, session.ErrNotAuthenticated)
		}

		payload := session.SwitchContextMessage{}
		if err := c.Bind(&payload); err != nil {
			return app.sessions.ErrorHandler(c, errors.Wrap(err, errors.CategoryBadInput, "invalid context request").
				WithCode(errors.CodeBadRequest))
		}

		err = session.NewSwitchContextHandler(store).
			WithLogger(app.GetLogger("session:context")).
			WithActivitySink(app.activitySink()).
			Execute(c.Context(), payload)
		if err != nil {
			return app.sessions.ErrorHandler(c, err)
		}

		return c.Redirect(session.LocalRedirect(c.Referer(), session.RouteChat), http.StatusSeeOther)
	}
}

func InsightsShow(app *App) func(c router.Context) error {
	logger := app.GetLogger("console:insights")

	return func(c router.Context) error {
		store, err := app.sessions.Store(c)
		if err != nil {
			return app.sessions.ErrorHandler(c, err)
		}

		statsQuery := client.StatsQuery{
			AppID: c.Query("app_id"),
			Days:  atoi(c.Query("days")),
		}.WithDefaults()

		logQuery := client.LogQuery{
			Page:     atoi(c.Query("page")),
			PageSize: atoi(c.Query("page_size")),
			AppID:    c.Query("app_id"),
			Status:   c.Query("status"),
		}.WithDefaults()

		data := router.ViewContext{
			"stats_query": statsQuery,
			"log_query":   logQuery,
		}

		api := app.API(store)

		stats, err := api.GetAppStats(c.Context(), statsQuery)
		if err != nil {
			return insightsError(app, c, err, data)
		}
		data["stats"] = stats

		logs, err := api.GetLogList(c.Context(), logQuery)
		if err != nil {
			return insightsError(app, c, err, data)
		}
		data["logs"] = logs

		if logQuery.Page > 1 {
			data["prev_page"] = logQuery.Page - 1
		}
		if int64(logQuery.Page*logQuery.PageSize) < logs.Total {
			data["next_page"] = logQuery.Page + 1
		}

		logger.Debug("rendering insights", "app_id", statsQuery.AppID, "days", statsQuery.Days, "page", logQuery.Page)
		return renderWithGlobals(c, "insights", data)
	}
}

func insightsError(app *App, c router.Context, err error, data router.ViewContext) error {
	if client.IsUnauthorized(err) {
		// the session was cleared by the client hook
		return app.sessions.AuthErrorHandler(c, err)
	}
	data["error"] = messageFor(err)
	return renderWithGlobals(c.Status(statusFor(err)), "insights", data)
}

func statusFor(err error) int {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Code >= 400 {
		return richErr.Code
	}
	return http.StatusInternalServerError
}

func messageFor(err error) string {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.Message
	}
	return "Unexpected error"
}

func atoi(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
