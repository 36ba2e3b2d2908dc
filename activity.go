package session

import (
	"context"
	"time"
)

// ActivityEventType enumerates session activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess    ActivityEventType = "session.login.success"
	ActivityEventLoginFailure    ActivityEventType = "session.login.failure"
	ActivityEventLogout          ActivityEventType = "session.logout"
	ActivityEventExpired         ActivityEventType = "session.expired"
	ActivityEventContextSwitched ActivityEventType = "session.context.switched"
	ActivityEventRegistered      ActivityEventType = "session.registered"
)

// ActivityEvent captures what happened to the session and who caused it.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Username   string
	Context    OrgContext
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes session activity events.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

func recordActivity(ctx context.Context, sink ActivitySink, logger Logger, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := normalizeActivitySink(sink).Record(ctx, event); err != nil {
		logger.Warn("failed to record session activity", "event", string(event.EventType), "error", err)
	}
}
