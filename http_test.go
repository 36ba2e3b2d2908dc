package session_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	session "github.com/goliatone/go-console-session"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRouteSession() *session.RouteSession {
	registry := session.NewStoreRegistry(func(string) session.DurableStore {
		return session.NewMemoryStore()
	}).WithLogger(silentLogger{})

	rs := session.NewRouteSession(registry, session.HTTPOptions{})
	rs.Logger = silentLogger{}
	return rs
}

func sessionContext() *router.MockContext {
	ctx := router.NewMockContext()
	ctx.On("Locals", session.SessionIDLocal, mock.Anything).Return(nil)
	return ctx
}

func TestRouteSessionSessionID(t *testing.T) {
	t.Run("reads the session cookie", func(t *testing.T) {
		ctx := sessionContext()
		ctx.CookiesM["console_session"] = "abc"

		assert.Equal(t, "abc", newRouteSession().SessionID(ctx))
		assert.Equal(t, "abc", ctx.LocalsMock[session.SessionIDLocal])
		ctx.AssertNotCalled(t, "Cookie", mock.Anything)
	})

	t.Run("prefers the id resolved earlier in the request", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock[session.SessionIDLocal] = "issued"
		ctx.CookiesM["console_session"] = "stale"

		assert.Equal(t, "issued", newRouteSession().SessionID(ctx))
	})

	t.Run("issues a cookie when missing", func(t *testing.T) {
		ctx := sessionContext()
		ctx.On("Cookies", mock.Anything).Return("").Maybe()

		var issued *router.Cookie
		ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
			return c.Name == "console_session" && c.HTTPOnly && c.Expires.After(time.Now())
		})).Run(func(args mock.Arguments) {
			issued = args.Get(0).(*router.Cookie)
		}).Return()

		id := newRouteSession().SessionID(ctx)
		require.NotNil(t, issued)
		assert.Equal(t, issued.Value, id)
		assert.Len(t, id, 36)
		assert.Equal(t, id, newRouteSession().SessionID(ctx), "issued once per request")
		ctx.AssertNumberOfCalls(t, "Cookie", 1)
	})
}

func TestRouteSessionStoreIsPerBrowser(t *testing.T) {
	rs := newRouteSession()

	browser := func(id string) *router.MockContext {
		ctx := sessionContext()
		ctx.CookiesM["console_session"] = id
		ctx.On("Context").Return(context.Background())
		return ctx
	}

	a, err := rs.Store(browser("a"))
	require.NoError(t, err)
	assert.True(t, a.Hydrated())
	require.NoError(t, a.Login(context.Background(), "tok", session.Profile{}))

	again, err := rs.Store(browser("a"))
	require.NoError(t, err)
	assert.Same(t, a, again)

	reader, err := rs.Reader(browser("b"))
	require.NoError(t, err)
	assert.False(t, reader.IsAuthenticated())
}

func TestRouteSessionHandleRedirect(t *testing.T) {
	t.Run("unauthenticated navigation remembers the url", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("Method").Return("GET")
		ctx.On("OriginalURL").Return("/admin/insights?page=2")
		ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
			return c.Name == "console_rejected_route" && c.Value == "/admin/insights?page=2" && c.HTTPOnly
		})).Return()
		ctx.On("Redirect", session.RouteLogin, []int{http.StatusFound}).Return(nil)

		err := newRouteSession().HandleRedirect(ctx, session.Decision{
			Outcome: session.OutcomeRedirect,
			Target:  session.RouteLogin,
		})
		require.NoError(t, err)
		ctx.AssertExpectations(t)
	})

	t.Run("route redirects do not", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("Method").Return("POST")
		ctx.On("Redirect", session.RouteChat, []int{http.StatusSeeOther}).Return(nil)

		err := newRouteSession().HandleRedirect(ctx, session.Decision{
			Outcome: session.OutcomeAllow,
			Target:  session.RouteChat,
		})
		require.NoError(t, err)
		ctx.AssertNotCalled(t, "Cookie", mock.Anything)
		ctx.AssertExpectations(t)
	})
}

func TestRouteSessionGetRedirectOrDefault(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		want   string
	}{
		{"remembered route", "/admin/insights", "/admin/insights"},
		{"default route", "", session.RouteChat},
		{"foreign route", "https://evil.example/phish", "/phish"},
		{"protocol relative route", "//evil.example", session.RouteChat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := router.NewMockContext()
			ctx.CookiesM["console_rejected_route"] = tt.cookie
			ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
				return c.Name == "console_rejected_route" && c.Value == "" && c.Expires.Before(time.Now())
			})).Return()

			assert.Equal(t, tt.want, newRouteSession().GetRedirectOrDefault(ctx))
			ctx.AssertExpectations(t)
		})
	}
}

func TestRouteSessionHandleForbidden(t *testing.T) {
	t.Run("redirects to the forbidden path", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("Method").Return("GET")
		ctx.On("Redirect", "/denied", []int{http.StatusFound}).Return(nil)

		err := newRouteSession().HandleForbidden(ctx, session.Decision{
			Outcome: session.OutcomeForbidden,
			Target:  "/denied",
		})
		require.NoError(t, err)
		ctx.AssertExpectations(t)
	})

	t.Run("hands the error over without a forbidden path", func(t *testing.T) {
		rs := newRouteSession()
		var handled error
		rs.ErrorHandler = func(c router.Context, err error) error {
			handled = err
			return nil
		}

		err := rs.HandleForbidden(router.NewMockContext(), session.Decision{
			Outcome: session.OutcomeForbidden,
			Route:   session.Route{Path: session.RouteAdmin},
		})
		require.NoError(t, err)
		assert.ErrorIs(t, handled, session.ErrForbidden)
	})
}
