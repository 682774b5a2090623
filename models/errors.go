package models

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standardized API error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError is a recoverable application error. Every condition in the
// taxonomy is local and user-visible; none should crash the app.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error codes for the connection/resolution taxonomy.
const (
	CodePermissionDenied      = "PERMISSION_DENIED"
	CodeResolutionFailed      = "RESOLUTION_FAILED"
	CodeAlreadyRequested      = "ALREADY_REQUESTED"
	CodeAlreadyInvitedByOther = "ALREADY_INVITED_BY_OTHER"
	CodeAlreadyConnected      = "ALREADY_CONNECTED"
	CodeNotConnected          = "NOT_CONNECTED"
	CodeStaleTransition       = "STALE_TRANSITION"
	CodeNotFound              = "NOT_FOUND"
	CodeValidation            = "VALIDATION_ERROR"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeInternal              = "INTERNAL_ERROR"
)

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

func NewInternalError(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "Internal server error", Err: err}
}

// NewResolutionError wraps a store read failure during candidate
// resolution. The resolver never returns a silent partial list.
func NewResolutionError(err error) *AppError {
	return &AppError{Code: CodeResolutionFailed, Message: "Failed to resolve nearby users", Err: err}
}

func NewAlreadyRequestedError() *AppError {
	return &AppError{Code: CodeAlreadyRequested, Message: "Connection request already sent"}
}

func NewAlreadyInvitedError() *AppError {
	return &AppError{Code: CodeAlreadyInvitedByOther, Message: "This user has already invited you"}
}

func NewAlreadyConnectedError() *AppError {
	return &AppError{Code: CodeAlreadyConnected, Message: "You are already connected"}
}

func NewNotConnectedError() *AppError {
	return &AppError{Code: CodeNotConnected, Message: "No accepted connection with this user"}
}

// NewStaleTransitionError signals an accept/decline that raced against
// a transition which already happened; callers re-read and reconcile.
func NewStaleTransitionError(message string) *AppError {
	return &AppError{Code: CodeStaleTransition, Message: message}
}

func NewPermissionDeniedError(message string) *AppError {
	return &AppError{Code: CodePermissionDenied, Message: message}
}

// HTTPStatus maps an error's code onto an HTTP status.
func HTTPStatus(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound, CodeNotConnected:
		return http.StatusNotFound
	case CodeAlreadyRequested, CodeAlreadyInvitedByOther, CodeAlreadyConnected, CodeStaleTransition:
		return http.StatusConflict
	case CodeResolutionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithError writes the standardized error body for err.
func RespondWithError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		resp := ErrorResponse{Error: appErr.Message, Code: appErr.Code}
		if appErr.Err != nil {
			resp.Details = appErr.Err.Error()
		}
		c.JSON(HTTPStatus(err), resp)
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}
