package session

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

type LogoutMessage struct {
	// Expired marks a teardown caused by the API rejecting the token. Only
	// the session keys are removed in that case.
	Expired bool `json:"expired"`
}

func (m LogoutMessage) Type() string { return "session.logout" }

type LogoutHandler struct {
	store    *Store
	activity ActivitySink
	logger   Logger
}

// NewLogoutHandler creates a handler with sane defaults.
func NewLogoutHandler(store *Store) *LogoutHandler {
	return &LogoutHandler{
		store:    store,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit logout events.
func (h *LogoutHandler) WithActivitySink(sink ActivitySink) *LogoutHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *LogoutHandler) WithLogger(logger Logger) *LogoutHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *LogoutHandler) Execute(ctx context.Context, msg LogoutMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during logout",
		)
	default:
		return h.execute(ctx, msg)
	}
}

func (h *LogoutHandler) execute(ctx context.Context, msg LogoutMessage) error {
	profile := h.store.Profile()

	eventType := ActivityEventLogout
	var err error
	if msg.Expired {
		eventType = ActivityEventExpired
		err = h.store.Clear(ctx)
	} else {
		err = h.store.Logout(ctx)
	}

	if err != nil {
		return err
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: eventType,
		UserID:    profile.UserID(),
		Username:  profile.Username(),
	})
	return nil
}

// ExpireOnUnauthorized returns an API hook that tears the session down when
// the API rejects the token.
func ExpireOnUnauthorized(h *LogoutHandler) func(ctx context.Context, err error) {
	return func(ctx context.Context, err error) {
		if !h.store.IsAuthenticated() {
			return
		}
		h.logger.Info("API rejected session token, clearing session", "error", err)
		if cerr := h.Execute(context.WithoutCancel(ctx), LogoutMessage{Expired: true}); cerr != nil {
			h.logger.Error("failed to clear expired session", "error", cerr)
		}
	}
}
