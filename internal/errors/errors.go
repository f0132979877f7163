package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeValidation indicates malformed input (weak password, bad email).
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInvalidCredentials indicates the auth service rejected an
	// email/password pair or a passkey assertion.
	ErrCodeInvalidCredentials ErrorCode = "invalid_credentials"
	// ErrCodeDuplicateAccount indicates sign-up collided with an existing account.
	ErrCodeDuplicateAccount ErrorCode = "duplicate_account"
	// ErrCodeNetwork indicates a transport or response-parse failure.
	ErrCodeNetwork ErrorCode = "network_error"
	// ErrCodeTokenInvalid indicates a stored token was rejected by the auth service.
	ErrCodeTokenInvalid ErrorCode = "token_invalid"
	// ErrCodeCeremonyAborted indicates a WebAuthn ceremony was cancelled,
	// timed out, or otherwise failed.
	ErrCodeCeremonyAborted ErrorCode = "ceremony_aborted"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError represents a structured application error with a code, message, and
// optional cause. It supports error wrapping and unwrapping for use with
// errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// InvalidCredentials creates a new InvalidCredentials error.
func InvalidCredentials(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidCredentials,
		Message: message,
	}
}

// DuplicateAccount creates a new DuplicateAccount error.
func DuplicateAccount(message string) *AppError {
	return &AppError{
		Code:    ErrCodeDuplicateAccount,
		Message: message,
	}
}

// Network creates a new Network error.
func Network(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNetwork,
		Message: message,
	}
}

// Networkf creates a new Network error with formatted message.
func Networkf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeNetwork,
		Message: fmt.Sprintf(format, args...),
	}
}

// TokenInvalid creates a new TokenInvalid error.
func TokenInvalid(message string) *AppError {
	return &AppError{
		Code:    ErrCodeTokenInvalid,
		Message: message,
	}
}

// CeremonyAborted creates a new CeremonyAborted error.
func CeremonyAborted(message string) *AppError {
	return &AppError{
		Code:    ErrCodeCeremonyAborted,
		Message: message,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsInvalidCredentials checks if an error is an InvalidCredentials error.
func IsInvalidCredentials(err error) bool {
	return isCode(err, ErrCodeInvalidCredentials)
}

// IsDuplicateAccount checks if an error is a DuplicateAccount error.
func IsDuplicateAccount(err error) bool {
	return isCode(err, ErrCodeDuplicateAccount)
}

// IsNetwork checks if an error is a Network error.
func IsNetwork(err error) bool {
	return isCode(err, ErrCodeNetwork)
}

// IsTokenInvalid checks if an error is a TokenInvalid error.
func IsTokenInvalid(err error) bool {
	return isCode(err, ErrCodeTokenInvalid)
}

// IsCeremonyAborted checks if an error is a CeremonyAborted error.
func IsCeremonyAborted(err error) bool {
	return isCode(err, ErrCodeCeremonyAborted)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
