package session

import (
	"context"
	"fmt"
	"strings"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// DurableStore is the string key-value storage a Store writes through to.
// Implementations must apply SetMany atomically: either every key is written
// or none is.
type DurableStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
}

// SessionReader is the read side of the session consumed by the route guard
// and the HTTP transport.
type SessionReader interface {
	Token() string
	IsAuthenticated() bool
	IsPlatformAdmin() bool
}

// Config holds session options
type Config interface {
	GetLoginPath() string
	GetForbiddenPath() string
	GetLogoutPolicy() string
}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print(line("DBG", msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print(line("INF", msg, args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print(line("WRN", msg, args))
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print(line("ERR", msg, args))
}

func line(level, msg string, args []any) string {
	var b strings.Builder
	b.WriteString("[" + level + "] SESSION " + msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
			continue
		}
		fmt.Fprintf(&b, " %v", args[i])
	}
	b.WriteString("\n")
	return b.String()
}
