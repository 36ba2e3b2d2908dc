package session

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// SwitchContextMessage selects the active organization. When ResourceCollectionID
// is zero the membership with OrgID is looked up in the store.
type SwitchContextMessage struct {
	OrgID                int64  `json:"org_id" form:"org_id"`
	ResourceCollectionID int64  `json:"kb_id" form:"kb_id"`
	Name                 string `json:"name" form:"name"`
}

func (m SwitchContextMessage) Type() string { return "session.switch_context" }

type SwitchContextHandler struct {
	store    *Store
	activity ActivitySink
	logger   Logger
}

// NewSwitchContextHandler creates a handler with sane defaults.
func NewSwitchContextHandler(store *Store) *SwitchContextHandler {
	return &SwitchContextHandler{
		store:    store,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit context events.
func (h *SwitchContextHandler) WithActivitySink(sink ActivitySink) *SwitchContextHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *SwitchContextHandler) WithLogger(logger Logger) *SwitchContextHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SwitchContextHandler) Execute(ctx context.Context, msg SwitchContextMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during context switch",
		)
	default:
		return h.execute(ctx, msg)
	}
}

func (h *SwitchContextHandler) execute(ctx context.Context, msg SwitchContextMessage) error {
	org := OrgRecord{
		Name:                 msg.Name,
		OrgID:                msg.OrgID,
		ResourceCollectionID: msg.ResourceCollectionID,
	}

	if org.ResourceCollectionID == 0 {
		found, ok := h.store.FindOrg(msg.OrgID)
		if !ok {
			return withMetadata(ErrOrgNotAvailable, map[string]any{"org_id": msg.OrgID})
		}
		org = found
	}

	from := h.store.Context()
	if err := h.store.SetContext(ctx, org); err != nil {
		return err
	}

	profile := h.store.Profile()
	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventContextSwitched,
		UserID:    profile.UserID(),
		Username:  profile.Username(),
		Context:   org.Context(),
		Metadata: map[string]any{
			"from_org_id": from.OrgID,
			"from_kb_id":  from.ResourceCollectionID,
		},
	})
	return nil
}
