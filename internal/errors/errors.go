package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeCapacityExceeded = "CAPACITY_EXCEEDED"

	// Resource errors
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeConflict      = "CONFLICT"

	// Service errors
	ErrCodeExternal           = "EXTERNAL_SERVICE_ERROR"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Kind classifies a domain failure so callers can react without string matching.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindConflict
	KindNotFound
	KindCapacity
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindCapacity:
		return "capacity"
	case KindExternal:
		return "external"
	default:
		return "internal"
	}
}

// DomainError is returned by services. Two DomainErrors match under errors.Is
// when they share Kind and Message, so package-level sentinels keep working
// after Details or a cause are attached.
type DomainError struct {
	Kind    Kind
	Message string
	Details interface{}
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// WithDetails returns a copy carrying details.
func (e *DomainError) WithDetails(details interface{}) *DomainError {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap returns a copy carrying cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	cp := *e
	cp.Err = cause
	return &cp
}

func Validation(message string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: message}
}

func Authorization(message string) *DomainError {
	return &DomainError{Kind: KindAuthorization, Message: message}
}

func Conflict(message string) *DomainError {
	return &DomainError{Kind: KindConflict, Message: message}
}

func NotFound(message string) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: message}
}

func Capacity(message string) *DomainError {
	return &DomainError{Kind: KindCapacity, Message: message}
}

// External wraps an infrastructure failure (store, object storage, mail, AI).
func External(message string, err error) *DomainError {
	return &DomainError{Kind: KindExternal, Message: message, Err: err}
}

// KindOf reports the Kind of the first DomainError in err's chain.
func KindOf(err error) Kind {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind is a shorthand for KindOf(err) == kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Respond maps a service error to its HTTP status and writes the APIError body.
// Internal failures never leak their message.
func Respond(c *gin.Context, err error) {
	var de *DomainError
	if !stderrors.As(err, &de) {
		InternalError(c, "")
		return
	}

	switch de.Kind {
	case KindValidation:
		RespondWithError(c, http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeInvalidInput, de.Message, de.Details))
	case KindCapacity:
		RespondWithError(c, http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeCapacityExceeded, de.Message, de.Details))
	case KindAuthorization:
		RespondWithError(c, http.StatusForbidden, NewAPIErrorWithDetails(ErrCodeForbidden, de.Message, de.Details))
	case KindNotFound:
		RespondWithError(c, http.StatusNotFound, NewAPIErrorWithDetails(ErrCodeNotFound, de.Message, de.Details))
	case KindConflict:
		RespondWithError(c, http.StatusConflict, NewAPIErrorWithDetails(ErrCodeConflict, de.Message, de.Details))
	case KindExternal:
		RespondWithError(c, http.StatusBadGateway, NewAPIError(ErrCodeExternal, de.Message))
	default:
		InternalError(c, "")
	}
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, http.StatusForbidden, NewAPIError(ErrCodeForbidden, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	RespondWithError(c, http.StatusServiceUnavailable, NewAPIError(ErrCodeServiceUnavailable, message))
}
