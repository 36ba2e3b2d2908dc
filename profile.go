package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TextCodeTokenMalformed flags tokens that can not be decoded
const TextCodeTokenMalformed = "SESSION_TOKEN_MALFORMED"

// ErrTokenMalformed is returned when a token is not a decodable JWT
var ErrTokenMalformed = goerrors.New("session token is malformed", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeTokenMalformed)

// TokenClaims holds the claims the API embeds in session tokens. The client
// never holds the signing key so claims are read without verification and
// are only used for display and routing hints; the API stays authoritative.
type TokenClaims struct {
	jwt.RegisteredClaims
	UID      any    `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	UserRole string `json:"role,omitempty"`
}

// ParseTokenClaims decodes the claims of a JWT without verifying it
func ParseTokenClaims(token string) (*TokenClaims, error) {
	if token == "" {
		return nil, ErrTokenRequired
	}

	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithCode(ErrTokenMalformed.Code).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	return claims, nil
}

// Expires returns the token expiration, zero when absent
func (c *TokenClaims) Expires() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// Expired reports whether the token carries an expiration before now
func (c *TokenClaims) Expired(now time.Time) bool {
	exp := c.Expires()
	return !exp.IsZero() && exp.Before(now)
}

// Profile builds a profile from the token claims
func (c *TokenClaims) Profile() Profile {
	p := Profile{}
	if c.UserRole != "" {
		p["role"] = c.UserRole
	}
	if c.Username != "" {
		p["username"] = c.Username
	}
	switch {
	case c.UID != nil:
		p["user_id"] = c.UID
	case c.Subject != "":
		p["user_id"] = c.Subject
	}
	return p
}

// ProfileFromToken merges the token claims over base. Keys present in base
// win, claims only fill the gaps. Undecodable tokens leave base untouched.
func ProfileFromToken(token string, base Profile) Profile {
	out := base.Clone()
	claims, err := ParseTokenClaims(token)
	if err != nil {
		return out
	}
	for k, v := range claims.Profile() {
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	return out
}
