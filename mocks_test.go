package session_test

import (
	"context"
	"errors"
	"sync"

	session "github.com/goliatone/go-console-session"
	"github.com/goliatone/go-console-session/client"
	"github.com/stretchr/testify/mock"
)

// MockSessionAPI implements session.SessionAPI
type MockSessionAPI struct {
	mock.Mock
}

func (m *MockSessionAPI) Login(ctx context.Context, req client.LoginRequest) (*client.LoginResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*client.LoginResponse)
	return resp, args.Error(1)
}

func (m *MockSessionAPI) Register(ctx context.Context, req client.RegisterRequest) (*client.RegisterResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*client.RegisterResponse)
	return resp, args.Error(1)
}

func (m *MockSessionAPI) ListOrgs(ctx context.Context) ([]client.Org, error) {
	args := m.Called(ctx)
	orgs, _ := args.Get(0).([]client.Org)
	return orgs, args.Error(1)
}

func (m *MockSessionAPI) ListKnowledgeBases(ctx context.Context, orgID int64) ([]client.KnowledgeBase, error) {
	args := m.Called(ctx, orgID)
	kbs, _ := args.Get(0).([]client.KnowledgeBase)
	return kbs, args.Error(1)
}

var errDiskFull = errors.New("disk full")

// flakyStorage fails the operations switched on
type flakyStorage struct {
	*session.MemoryStore
	failGet    bool
	failSet    bool
	failDelete bool
	failClear  bool
}

func newFlakyStorage() *flakyStorage {
	return &flakyStorage{MemoryStore: session.NewMemoryStore()}
}

func (f *flakyStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errDiskFull
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *flakyStorage) SetMany(ctx context.Context, values map[string]string) error {
	if f.failSet {
		return errDiskFull
	}
	return f.MemoryStore.SetMany(ctx, values)
}

func (f *flakyStorage) Delete(ctx context.Context, keys ...string) error {
	if f.failDelete {
		return errDiskFull
	}
	return f.MemoryStore.Delete(ctx, keys...)
}

func (f *flakyStorage) Clear(ctx context.Context) error {
	if f.failClear {
		return errDiskFull
	}
	return f.MemoryStore.Clear(ctx)
}

// recordingSink collects activity events
type recordingSink struct {
	mu     sync.Mutex
	events []session.ActivityEvent
	err    error
}

func (r *recordingSink) Record(ctx context.Context, event session.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingSink) Types() []session.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]session.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

func (r *recordingSink) Last() session.ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return session.ActivityEvent{}
	}
	return r.events[len(r.events)-1]
}

// silentLogger keeps test output clean
type silentLogger struct{}

func (silentLogger) Debug(msg string, args ...any) {}
func (silentLogger) Info(msg string, args ...any)  {}
func (silentLogger) Warn(msg string, args ...any)  {}
func (silentLogger) Error(msg string, args ...any) {}

func newTestStore(storage session.DurableStore) *session.Store {
	return session.NewStore(storage).WithLogger(silentLogger{})
}
