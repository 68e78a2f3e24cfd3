package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Captcha lifecycle errors
	ErrorTypeConfig ErrorType = "config"
	ErrorTypeState  ErrorType = "state"
	ErrorTypeStore  ErrorType = "store"

	// Request errors
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeRateLimit  ErrorType = "rate_limit"

	// System errors
	ErrorTypeInternal ErrorType = "internal"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error codes for specific scenarios
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeGroupNotFound    = "GROUP_NOT_FOUND"
	CodeAssetNotFound    = "ASSET_NOT_FOUND"
	CodeNoChallenge      = "NO_CHALLENGE"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeRateLimit        = "RATE_LIMIT"
	CodeInternalError    = "INTERNAL_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType      `json:"type"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	InnerError error          `json:"-"`
	HTTPStatus int            `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Type)
	}
	if e.InnerError != nil {
		return fmt.Sprintf("%s: %v", msg, e.InnerError)
	}
	return msg
}

// Unwrap returns the inner error
func (e *AppError) Unwrap() error {
	return e.InnerError
}

// Is reports whether target is an *AppError of the same type.
// A target carrying a code only matches errors with that code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if e.Type != t.Type {
		return false
	}
	return t.Code == "" || t.Code == string(t.Type) || t.Code == e.Code
}

// WithCode sets the error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errType,
		Code:       string(errType),
		Message:    message,
		HTTPStatus: statusFor(errType),
	}
}

// FromError converts a standard error to AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return &AppError{
		Type:       ErrorTypeUnknown,
		Code:       string(ErrorTypeUnknown),
		Message:    err.Error(),
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Wrap wraps an error with a specific type
func Wrap(err error, errType ErrorType, message string) *AppError {
	e := New(errType, message)
	e.InnerError = err
	return e
}

// IsType reports whether any error in err's chain is an AppError of errType.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Type == errType
}

// Configuration errors are fatal at construction time.
func NewConfig(message string) *AppError {
	return New(ErrorTypeConfig, message).WithCode(CodeConfigInvalid)
}

// NewGroupNotFound reports a missing captcha config group.
func NewGroupNotFound(group string) *AppError {
	return New(ErrorTypeConfig, fmt.Sprintf("captcha group %q not defined in configuration", group)).
		WithCode(CodeGroupNotFound).
		WithDetail("group", group)
}

// NewAssetNotFound reports a referenced file that does not exist.
func NewAssetNotFound(path string) *AppError {
	return New(ErrorTypeConfig, fmt.Sprintf("the specified file, %s, was not found", path)).
		WithCode(CodeAssetNotFound).
		WithDetail("file", path)
}

// NewState reports an operation attempted in the wrong lifecycle state.
func NewState(message string) *AppError {
	return New(ErrorTypeState, message)
}

// NewStore wraps a session store failure.
func NewStore(op string, err error) *AppError {
	return Wrap(err, ErrorTypeStore, "session store "+op+" failed").
		WithCode(CodeStoreUnavailable).
		WithDetail("op", op)
}

func NewValidation(message string) *AppError {
	return New(ErrorTypeValidation, message).WithCode(CodeValidationFailed)
}

func NewNotFound(resource string, id any) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource)).
		WithCode(CodeNotFound).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

func NewRateLimit(message string) *AppError {
	return New(ErrorTypeRateLimit, message).WithCode(CodeRateLimit)
}

func NewInternal(message string) *AppError {
	return New(ErrorTypeInternal, message).WithCode(CodeInternalError)
}

// Sentinels for errors.Is checks.
var (
	ErrConfig = &AppError{Type: ErrorTypeConfig}
	ErrState  = &AppError{Type: ErrorTypeState}
	ErrStore  = &AppError{Type: ErrorTypeStore}
)

func statusFor(errType ErrorType) int {
	switch errType {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeState:
		return http.StatusConflict
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeStore:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
