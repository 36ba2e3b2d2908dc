package session

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeTokenRequired      = "SESSION_TOKEN_REQUIRED"
	TextCodeInvalidProfile     = "SESSION_INVALID_PROFILE"
	TextCodeInvalidOrgRecord   = "SESSION_INVALID_ORG_RECORD"
	TextCodeOrgNotAvailable    = "SESSION_ORG_NOT_AVAILABLE"
	TextCodeNotAuthenticated   = "SESSION_NOT_AUTHENTICATED"
	TextCodeForbidden          = "SESSION_FORBIDDEN"
	TextCodeRouteNotFound      = "ROUTE_NOT_FOUND"
	TextCodeInvalidRouteTable  = "ROUTE_TABLE_INVALID"
	TextCodeRedirectLoop       = "ROUTE_REDIRECT_LOOP"
	TextCodeStorageUnavailable = "SESSION_STORAGE_UNAVAILABLE"
)

// ErrTokenRequired is returned when login is attempted with an empty token
var ErrTokenRequired = goerrors.New("session token is required", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeTokenRequired)

// ErrInvalidProfile is returned when the user profile can not be stored
var ErrInvalidProfile = goerrors.New("user profile is invalid", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeInvalidProfile)

// ErrInvalidOrgRecord is returned when an organization record misses required fields
var ErrInvalidOrgRecord = goerrors.New("organization record is invalid", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeInvalidOrgRecord)

// ErrOrgNotAvailable is returned when switching to an organization the user is not a member of
var ErrOrgNotAvailable = goerrors.New("organization is not available for this session", goerrors.CategoryAuthz).
	WithCode(goerrors.CodeForbidden).
	WithTextCode(TextCodeOrgNotAvailable)

// ErrNotAuthenticated is returned when an action requires a token and none is present
var ErrNotAuthenticated = goerrors.New("session is not authenticated", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeNotAuthenticated)

// ErrForbidden is returned when the session lacks the platform role a route needs
var ErrForbidden = goerrors.New("platform admin role required", goerrors.CategoryAuthz).
	WithCode(goerrors.CodeForbidden).
	WithTextCode(TextCodeForbidden)

// ErrRouteNotFound is returned when navigating to a path missing from the route table
var ErrRouteNotFound = goerrors.New("route not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode(TextCodeRouteNotFound)

// ErrInvalidRouteTable is returned when a route table declaration is inconsistent
var ErrInvalidRouteTable = goerrors.New("route table is invalid", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeInvalidRouteTable)

// ErrRedirectLoop is returned when route redirects never settle on a view
var ErrRedirectLoop = goerrors.New("route redirect loop", goerrors.CategoryInternal).
	WithCode(goerrors.CodeInternal).
	WithTextCode(TextCodeRedirectLoop)

// ErrStorageUnavailable wraps durable store failures
var ErrStorageUnavailable = goerrors.New("session storage unavailable", goerrors.CategoryInternal).
	WithCode(goerrors.CodeInternal).
	WithTextCode(TextCodeStorageUnavailable)

func withMetadata(base *goerrors.Error, metadata map[string]any) *goerrors.Error {
	clone := base.Clone()
	if clone == nil {
		return base
	}
	clone.Source = base
	return clone.WithMetadata(metadata)
}

func storageError(err error, action string) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, ErrStorageUnavailable.Category, ErrStorageUnavailable.Message).
		WithCode(ErrStorageUnavailable.Code).
		WithTextCode(ErrStorageUnavailable.TextCode).
		WithMetadata(map[string]any{"action": action})
}
