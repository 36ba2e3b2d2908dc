package client

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Kind classifies API failures
type Kind string

const (
	KindUnknown      Kind = ""
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindServer       Kind = "server"
	KindNetwork      Kind = "network"
)

const (
	TextCodeUnauthorized = "API_UNAUTHORIZED"
	TextCodeForbidden    = "API_FORBIDDEN"
	TextCodeNotFound     = "API_NOT_FOUND"
	TextCodeValidation   = "API_VALIDATION_ERROR"
	TextCodeServer       = "API_SERVER_ERROR"
	TextCodeNetwork      = "API_NETWORK_ERROR"
)

var kindTextCodes = map[Kind]string{
	KindUnauthorized: TextCodeUnauthorized,
	KindForbidden:    TextCodeForbidden,
	KindNotFound:     TextCodeNotFound,
	KindValidation:   TextCodeValidation,
	KindServer:       TextCodeServer,
	KindNetwork:      TextCodeNetwork,
}

var kindCategories = map[Kind]goerrors.Category{
	KindUnauthorized: goerrors.CategoryAuth,
	KindForbidden:    goerrors.CategoryAuthz,
	KindNotFound:     goerrors.CategoryNotFound,
	KindValidation:   goerrors.CategoryValidation,
	KindServer:       goerrors.CategoryInternal,
	KindNetwork:      goerrors.CategoryOperation,
}

// TextCode returns the go-errors text code used for the kind
func (k Kind) TextCode() string {
	return kindTextCodes[k]
}

// KindForStatus maps an HTTP status, or an envelope code using HTTP
// semantics, to a failure kind.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}

// KindOf extracts the failure kind from an error returned by the client
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return KindUnknown
	}

	for kind, code := range kindTextCodes {
		if richErr.TextCode == code {
			return kind
		}
	}
	return KindUnknown
}

// IsUnauthorized reports whether the API rejected the session token
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// IsNetworkError reports whether the request never produced a response
func IsNetworkError(err error) bool {
	return KindOf(err) == KindNetwork
}

func newAPIError(kind Kind, status int, message string, metadata map[string]any) *goerrors.Error {
	if message == "" {
		message = http.StatusText(status)
	}
	if message == "" {
		message = "api request failed"
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["kind"] = string(kind)

	return goerrors.New(message, kindCategories[kind]).
		WithCode(status).
		WithTextCode(kind.TextCode()).
		WithMetadata(metadata)
}

func wrapNetworkError(err error, metadata map[string]any) *goerrors.Error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["kind"] = string(KindNetwork)

	return goerrors.Wrap(err, kindCategories[KindNetwork], "api request failed").
		WithCode(http.StatusServiceUnavailable).
		WithTextCode(TextCodeNetwork).
		WithMetadata(metadata)
}
