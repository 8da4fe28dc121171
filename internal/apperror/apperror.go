// Package apperror is the error taxonomy shared by services and handlers. Services
// return *Error values; the response package turns them into envelopes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindRateLimited
	KindUpstream
	KindConfiguration
	KindPayloadTooLarge
	KindUnsupportedMediaType
	KindMethodNotAllowed
)

// Default error codes. Handlers may use more specific ones.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeRateLimited        = "RATE_LIMITED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeConfiguration      = "CONFIGURATION_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia   = "UNSUPPORTED_MEDIA_TYPE"

	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeInvalidEmail       = "INVALID_EMAIL"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeUserDisabled       = "USER_DISABLED"
	CodeTooManyAttempts    = "TOO_MANY_ATTEMPTS"
	CodePetNotFound        = "PET_NOT_FOUND"
	CodeFavoriteNotFound   = "FAVORITE_NOT_FOUND"
	CodeAlreadyFavorite    = "ALREADY_FAVORITE"
)

// Error is a classified failure safe to show to clients. Message is client-facing;
// Err keeps the cause for logs.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind, Code and Message, so wrapped copies of sentinels
// like ErrPetNotFound still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code && e.Message == t.Message
}

// Status is the HTTP status for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	}
	return http.StatusInternalServerError
}

// Wrap attaches a cause and returns a copy.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

// WithMessage returns a copy with a different client-facing message.
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Validation is a 400 with VALIDATION_ERROR.
func Validation(msg string) *Error { return newError(KindValidation, CodeValidation, msg) }

// NotFound is a 404 without code.
func NotFound(msg string) *Error { return newError(KindNotFound, "", msg) }

// Unauthorized is a 401 with UNAUTHORIZED.
func Unauthorized(msg string) *Error { return newError(KindUnauthorized, CodeUnauthorized, msg) }

// Forbidden is a 403 with FORBIDDEN.
func Forbidden(msg string) *Error { return newError(KindForbidden, CodeForbidden, msg) }

// Internal is a 500 with INTERNAL_ERROR wrapping cause.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "Internal server error", Err: cause}
}

// New builds an error with an explicit kind and code.
func New(kind Kind, code, msg string) *Error { return newError(kind, code, msg) }

// Canonical errors of the account, pet and favorite operations.
var (
	ErrEmailAlreadyExists = New(KindValidation, CodeEmailAlreadyExists, "This email is already registered")
	ErrInvalidEmail       = New(KindValidation, CodeInvalidEmail, "Invalid email address format")
	ErrWeakPassword       = New(KindValidation, CodeWeakPassword, "Password must be at least 6 characters long")
	ErrInvalidCredentials = New(KindUnauthorized, CodeInvalidCredentials, "Invalid email or password")
	ErrUserDisabled       = New(KindForbidden, CodeUserDisabled, "Your account has been disabled. Please contact support.")
	ErrTooManyAttempts    = New(KindRateLimited, CodeTooManyAttempts, "Too many failed login attempts. Please try again later.")
	ErrServiceUnavailable = New(KindUpstream, CodeServiceUnavailable, "Authentication service temporarily unavailable. Please try again later.")
	ErrConfiguration      = New(KindConfiguration, CodeConfiguration, "Server configuration error. Please contact support.")

	ErrPetNotFound      = New(KindNotFound, CodePetNotFound, "Pet not found")
	ErrFavoriteNotFound = New(KindNotFound, CodeFavoriteNotFound, "Favorite not found")
	ErrAlreadyFavorite  = New(KindValidation, CodeAlreadyFavorite, "Pet already in favorites")
	ErrNotFavoriteOwner = Forbidden("Not authorized to remove this favorite")
	ErrUserNotFound     = NotFound("User not found")
	ErrRateLimited      = New(KindRateLimited, CodeRateLimited, "Too many requests. Please try again later.")
	ErrAdminRequired    = Forbidden("Access denied. Admin privileges required.")
	ErrNoToken          = Unauthorized("No token provided")
	ErrInvalidToken     = Unauthorized("Invalid token")
	ErrAuthRequired     = Unauthorized("Authentication required")

	ErrPayloadTooLarge  = New(KindPayloadTooLarge, CodePayloadTooLarge, "Request body too large")
	ErrUnsupportedMedia = New(KindUnsupportedMediaType, CodeUnsupportedMedia, "Content-Type must be application/json")
	ErrMalformedJSON    = Validation("Invalid JSON in request body")
	ErrRouteNotFound    = NotFound("Route not found")
	ErrMethodNotAllowed = New(KindMethodNotAllowed, "", "Method not allowed")
)

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
