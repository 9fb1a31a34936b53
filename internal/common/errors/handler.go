// internal/common/errors/handler.go
package errors

import (
	"context"
	stderrors "errors"
	"time"
)

// ErrorHandler normalizes errors into StandardError values and logs them.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Resolve converts err into a StandardError and the HTTP status to send,
// logging client errors at warn and everything else at error.
func (h *ErrorHandler) Resolve(ctx context.Context, requestID string, err error) (*StandardError, int) {
	stdErr := Normalize(err)
	if stderrors.Is(err, context.Canceled) || (ctx != nil && stderrors.Is(ctx.Err(), context.Canceled)) {
		stdErr.Retryable = true
	}
	status := HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"requestId":     requestID,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"status":        status,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if status < 500 {
		h.logger.Warn("request failed", fields)
	} else {
		h.logger.Error("request failed", fields)
	}
	return stdErr, status
}

// Normalize ensures we always have a StandardError
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewBackendTimeoutError("unknown")
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
