// Package apperrors defines the closed set of error kinds produced by the
// store and auth adapters and matched on by the services. Handlers map kinds
// to HTTP status codes; raw provider errors never reach the end user.
package apperrors

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Authentication errors
	CodeAuthInvalidCredentials Code = "AUTH_INVALID_CREDENTIALS"
	CodeAuthAccountExists      Code = "AUTH_ACCOUNT_EXISTS"
	CodeAuthRateLimited        Code = "AUTH_RATE_LIMITED"
	CodeUnauthenticated        Code = "UNAUTHENTICATED"

	// Authorization errors
	CodeNotMember          Code = "NOT_A_MEMBER"
	CodeNotCreator         Code = "NOT_CREATOR"
	CodeCreatorImmovable   Code = "CREATOR_CANNOT_BE_REMOVED"
	CodeCreatorCannotLeave Code = "CREATOR_CANNOT_LEAVE"

	// Not-found errors
	CodeFamilyNotFound Code = "FAMILY_NOT_FOUND"
	CodeInviteNotFound Code = "INVITE_NOT_FOUND"
	CodeUserNotFound   Code = "USER_NOT_FOUND"

	// State-conflict errors
	CodeInviteAlreadyAccepted Code = "INVITE_ALREADY_ACCEPTED"
	CodeInviteExpired         Code = "INVITE_EXPIRED"
	CodeAlreadyMember         Code = "ALREADY_A_MEMBER"

	// Transient store errors
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
)

// Error is a domain error with a stable code and a user-presentable message.
// An optional wrapped cause is kept for logs but never shown to the user.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error that carries an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the Code from err, or CodeUnknown if err is not an *Error.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// HTTPStatus maps an error to the HTTP status a handler should respond with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeAuthInvalidCredentials, CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeAuthAccountExists:
		return http.StatusConflict
	case CodeAuthRateLimited:
		return http.StatusTooManyRequests
	case CodeNotMember, CodeNotCreator, CodeCreatorImmovable, CodeCreatorCannotLeave:
		return http.StatusForbidden
	case CodeFamilyNotFound, CodeInviteNotFound, CodeUserNotFound:
		return http.StatusNotFound
	case CodeInviteAlreadyAccepted, CodeInviteExpired, CodeAlreadyMember:
		return http.StatusConflict
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
