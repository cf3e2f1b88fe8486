package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error categories shared by every layer. Concrete errors wrap one of these
// so callers can branch with errors.Is.
var (
	ErrValidation      = stderrors.New("validation failed")
	ErrNotFound        = stderrors.New("not found")
	ErrDuplicateUser   = stderrors.New("username already exists")
	ErrAuthentication  = stderrors.New("invalid username or password")
	ErrPersistence     = stderrors.New("persistence failure")
	ErrProviderTimeout = stderrors.New("description provider timed out")
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)

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

// FromError maps a domain error onto an HTTP status and API error body.
// Unknown errors become a generic 500 so internal details do not leak.
func FromError(err error) (int, *APIError) {
	switch {
	case stderrors.Is(err, ErrValidation):
		return http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, err.Error())
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound, NewAPIError(ErrCodeNotFound, err.Error())
	case stderrors.Is(err, ErrDuplicateUser):
		return http.StatusConflict, NewAPIError(ErrCodeAlreadyExists, err.Error())
	case stderrors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized, NewAPIError(ErrCodeInvalidCredentials, err.Error())
	case stderrors.Is(err, ErrPersistence):
		return http.StatusServiceUnavailable, NewAPIError(ErrCodeStorageUnavailable, "Storage temporarily unavailable")
	default:
		return http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, "Internal server error")
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Respond renders err using FromError.
func Respond(c *gin.Context, err error) {
	status, apiErr := FromError(err)
	RespondWithError(c, status, apiErr)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(ErrCodeNotFound, message))
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
