package session

import (
	"context"
)

var storeCtxKey = &contextKey{"session_store"}
var decisionCtxKey = &contextKey{"route_decision"}

type contextKey struct {
	name string
}

// WithStore sets the session store in the given context
func WithStore(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, storeCtxKey, store)
}

// StoreFromContext finds the session store in the context
func StoreFromContext(ctx context.Context) (*Store, bool) {
	raw, ok := ctx.Value(storeCtxKey).(*Store)
	return raw, ok && raw != nil
}

// WithDecision stores the guard decision that admitted the request
func WithDecision(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionCtxKey, d)
}

// DecisionFromContext returns the guard decision set by WithDecision
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	raw, ok := ctx.Value(decisionCtxKey).(Decision)
	return raw, ok
}
