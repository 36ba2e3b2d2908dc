package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-router"
)

var (
	ErrTokenMismatch    = errors.New("CSRF token mismatch")
	ErrTokenMissing     = errors.New("CSRF token missing")
	ErrTokenExpired     = errors.New("CSRF token expired")
	ErrSecureKeyMissing = errors.New("CSRF secure key must be at least 32 bytes")
	ErrSessionMissing   = errors.New("CSRF token requires a browser session")
)

const (
	// DefaultTokenLength is the nonce length in bytes
	DefaultTokenLength = 16

	// DefaultContextKey is the local holding the token of the request
	DefaultContextKey = "csrf_token"

	// DefaultFormFieldName is the form field carrying the token
	DefaultFormFieldName = "_token"

	// DefaultHeaderName is the header carrying the token
	DefaultHeaderName = "X-CSRF-Token"

	// MinKeyLength is the shortest accepted secure key
	MinKeyLength = 32
)

// Config defines the configuration for CSRF middleware
type Config struct {
	// Skip defines a function to skip middleware
	Skip func(router.Context) bool

	// SessionID resolves the browser session tokens are bound to
	SessionID func(router.Context) string

	// SecureKey signs tokens. A random key is generated when empty, which
	// invalidates outstanding tokens on restart.
	SecureKey []byte

	TokenLength   int
	ContextKey    string
	FormFieldName string
	HeaderName    string

	// SafeMethods defines HTTP methods that don't require CSRF protection
	SafeMethods []string

	// Expiration defines how long tokens are valid
	Expiration time.Duration

	ErrorHandler router.ErrorHandler
}

// New creates a middleware that issues a token on every request and
// validates it on unsafe methods.
func New(config ...Config) router.MiddlewareFunc {
	cfg := configDefault(config...)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return ctx.Next()
			}

			sessionID := cfg.SessionID(ctx)
			if sessionID == "" {
				return cfg.ErrorHandler(ctx, ErrSessionMissing)
			}

			token, err := cfg.issue(sessionID, time.Now())
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, token)
			ctx.Locals(cfg.ContextKey+"_field", cfg.FormFieldName)

			if slices.Contains(cfg.SafeMethods, strings.ToUpper(ctx.Method())) {
				return ctx.Next()
			}

			received := ctx.FormValue(cfg.FormFieldName)
			if received == "" {
				received = ctx.Header(cfg.HeaderName)
			}

			if err := cfg.verify(received, sessionID, time.Now()); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			return ctx.Next()
		}
	}
}

// issue signs "timestamp:nonce" together with the session id. The session
// id is not part of the token, so a token only verifies for the browser
// it was issued to.
func (cfg Config) issue(sessionID string, now time.Time) (string, error) {
	nonce := make([]byte, cfg.TokenLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	payload := strconv.FormatInt(now.UTC().Unix(), 10) + ":" + hex.EncodeToString(nonce)
	token := payload + ":" + hex.EncodeToString(cfg.sign(payload, sessionID))
	return base64.RawURLEncoding.EncodeToString([]byte(token)), nil
}

func (cfg Config) verify(token, sessionID string, now time.Time) error {
	if token == "" {
		return ErrTokenMissing
	}

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ErrTokenMismatch
	}

	parts := strings.Split(string(decoded), ":")
	if len(parts) != 3 {
		return ErrTokenMismatch
	}

	issuedAt, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return ErrTokenMismatch
	}

	signature, err := hex.DecodeString(parts[2])
	if err != nil {
		return ErrTokenMismatch
	}

	if !hmac.Equal(signature, cfg.sign(parts[0]+":"+parts[1], sessionID)) {
		return ErrTokenMismatch
	}

	if cfg.Expiration > 0 && now.UTC().After(time.Unix(issuedAt, 0).Add(cfg.Expiration)) {
		return ErrTokenExpired
	}

	return nil
}

func (cfg Config) sign(payload, sessionID string) []byte {
	mac := hmac.New(sha256.New, cfg.SecureKey)
	mac.Write([]byte(payload))
	mac.Write([]byte{':'})
	mac.Write([]byte(sessionID))
	return mac.Sum(nil)
}

func configDefault(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SessionID == nil {
		cfg.SessionID = func(ctx router.Context) string {
			id, _ := ctx.Locals("session_id").(string)
			return id
		}
	}

	if cfg.TokenLength == 0 {
		cfg.TokenLength = DefaultTokenLength
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.FormFieldName == "" {
		cfg.FormFieldName = DefaultFormFieldName
	}

	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}

	if cfg.SafeMethods == nil {
		cfg.SafeMethods = []string{"GET", "HEAD", "OPTIONS", "TRACE"}
	}

	if cfg.Expiration == 0 {
		cfg.Expiration = 12 * time.Hour
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	cfg.SecureKey = initializeSecureKey(cfg.SecureKey)
	return cfg
}

func defaultErrorHandler(ctx router.Context, err error) error {
	switch err {
	case ErrTokenMissing:
		return ctx.Status(router.StatusBadRequest).SendString("CSRF token missing")
	case ErrTokenMismatch:
		return ctx.Status(router.StatusForbidden).SendString("CSRF token mismatch")
	case ErrTokenExpired:
		return ctx.Status(router.StatusForbidden).SendString("CSRF token expired, reload the page")
	default:
		return ctx.Status(router.StatusInternalServerError).SendString("CSRF validation error")
	}
}

func initializeSecureKey(current []byte) []byte {
	if len(current) > 0 {
		if len(current) < MinKeyLength {
			panic(fmt.Errorf("csrf: %w, got %d", ErrSecureKeyMissing, len(current)))
		}
		return current
	}
	key := make([]byte, MinKeyLength)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		panic(fmt.Errorf("csrf: unable to initialize secure key: %w", err))
	}
	return key
}

// TemplateData exposes the token of the request to views
func TemplateData(ctx router.Context, contextKey ...string) map[string]any {
	key := DefaultContextKey
	if len(contextKey) > 0 && contextKey[0] != "" {
		key = contextKey[0]
	}

	token, _ := ctx.Locals(key).(string)
	field, _ := ctx.Locals(key + "_field").(string)
	if field == "" {
		field = DefaultFormFieldName
	}

	return map[string]any{
		"csrf_token": token,
		"csrf_field": field,
	}
}
