package apperror // apperror defines the structured domain error shared by service and handlers

import (
	"errors"
	"net/http"
)

// Kind identifies the category of a domain failure.  Handlers map the
// kind-carrying error straight into the response envelope, so the set of
// kinds below is the complete failure vocabulary of this service.
type Kind string

const (
	KindValidation   Kind = "validation_error" // missing or blank required fields
	KindConflict     Kind = "conflict"         // duplicate username or email
	KindUpload       Kind = "upload_failed"    // media upload failed or returned no usable URL
	KindNotFound     Kind = "not_found"        // principal does not exist for the identifier
	KindUnauthorized Kind = "unauthorized"     // bad secret, or missing/invalid/expired/replayed token
	KindInternal     Kind = "internal_error"   // unexpected persistence or minting failure
)

// Error is the single structured error type raised by the session layer.
// It carries the HTTP status, a machine-readable kind and a safe message;
// it propagates unchanged to the boundary so handlers never have to
// translate internal failures ad hoc.
type Error struct {
	Status  int    `json:"statusCode"`
	Kind    Kind   `json:"error"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// New builds an Error with an explicit status, kind and message.
func New(status int, kind Kind, message string) *Error {
	return &Error{Status: status, Kind: kind, Message: message}
}

// Validation returns a 400 validation error.
func Validation(message string) *Error { return New(http.StatusBadRequest, KindValidation, message) }

// Conflict returns a 409 duplicate-resource error.
func Conflict(message string) *Error { return New(http.StatusConflict, KindConflict, message) }

// Upload returns a 400 media-upload error.
func Upload(message string) *Error { return New(http.StatusBadRequest, KindUpload, message) }

// NotFound returns a 404 missing-principal error.
func NotFound(message string) *Error { return New(http.StatusNotFound, KindNotFound, message) }

// Unauthorized returns a 401 error.  Token verification failures are
// funneled through this constructor regardless of the underlying cause
// (expired vs malformed vs signature mismatch) so that responses never
// reveal which check rejected the token.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, KindUnauthorized, message)
}

// Internal returns a 500 error with a caller-provided safe message.
func Internal(message string) *Error {
	return New(http.StatusInternalServerError, KindInternal, message)
}

// From normalizes any error into an *Error.  Structured errors pass
// through untouched; everything else becomes a generic internal error so
// that unexpected failures never leak detail past the boundary.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("something went wrong")
}
