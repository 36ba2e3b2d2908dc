package session

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-console-session/client"
	goerrors "github.com/goliatone/go-errors"
)

type LoginMessage struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (m LoginMessage) Type() string { return "session.login" }

// Validate will run validation rules
func (m LoginMessage) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&m,
			validation.Field(
				&m.Username,
				validation.Required,
			),
			validation.Field(
				&m.Password,
				validation.Required,
			),
		)
	}, "Invalid login request payload")
}

// LoginHandler signs a user in: it exchanges the credentials for a token,
// stores token and profile and then loads the user memberships.
type LoginHandler struct {
	api         SessionAPI
	store       *Store
	memberships *MembershipLoader
	activity    ActivitySink
	logger      Logger
	timeout     time.Duration
}

// NewLoginHandler creates a handler with sane defaults.
func NewLoginHandler(api SessionAPI, store *Store) *LoginHandler {
	return &LoginHandler{
		api:         api,
		store:       store,
		memberships: NewMembershipLoader(api),
		activity:    noopActivitySink{},
		logger:      defLogger{},
		timeout:     time.Second * 30,
	}
}

// WithActivitySink sets the sink used to emit login events.
func (h *LoginHandler) WithActivitySink(sink ActivitySink) *LoginHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *LoginHandler) WithLogger(logger Logger) *LoginHandler {
	if logger != nil {
		h.logger = logger
		if h.memberships != nil {
			h.memberships.WithLogger(logger)
		}
	}
	return h
}

// WithoutMemberships skips loading memberships after sign in.
func (h *LoginHandler) WithoutMemberships() *LoginHandler {
	h.memberships = nil
	return h
}

func (h *LoginHandler) Execute(ctx context.Context, msg LoginMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during login",
		)
	default:
		return h.execute(ctx, msg)
	}
}

func (h *LoginHandler) execute(ctx context.Context, msg LoginMessage) error {
	if verr := msg.Validate(); verr != nil {
		return verr
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	resp, err := h.api.Login(ctx, client.LoginRequest{
		Username: msg.Username,
		Password: msg.Password,
	})
	if err != nil {
		h.logger.Info("login rejected", "username", msg.Username, "error", err)
		recordActivity(ctx, h.activity, h.logger, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Username:  msg.Username,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return err
	}

	profile := Profile{"username": resp.Username}
	if resp.Username == "" {
		profile["username"] = msg.Username
	}
	if resp.UserID != "" {
		profile["user_id"] = string(resp.UserID)
	}
	if resp.Role != "" {
		profile["role"] = resp.Role
	}
	profile = ProfileFromToken(resp.Token, profile)

	if err := h.store.Login(ctx, resp.Token, profile); err != nil {
		return err
	}

	if h.memberships != nil {
		if err := h.memberships.Refresh(ctx, h.store); err != nil {
			// sign in stands, memberships stay unknown until the next refresh
			h.logger.Warn("failed to load memberships after login", "error", err)
		}
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    profile.UserID(),
		Username:  profile.Username(),
		Context:   h.store.Context(),
		Metadata:  map[string]any{"role": profile.Role()},
	})

	return nil
}
