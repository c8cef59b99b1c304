package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrCommunication       = errors.New("communication failure")
	ErrNegativeAck         = errors.New("negative acknowledgement")
	ErrNoShards            = errors.New("no shards available")
	ErrNoReplica           = errors.New("no replica acknowledged the write")
	ErrFrontierUnavailable = errors.New("frontier unavailable")
	ErrPersistence         = errors.New("persistence failure")
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrTimeout             = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// IsCommunication reports whether err was caused by an unreachable or
// timed-out peer rather than an application-level answer.
func IsCommunication(err error) bool {
	return errors.Is(err, ErrCommunication)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrFrontierUnavailable), errors.Is(err, ErrCommunication):
		return http.StatusBadGateway
	case errors.Is(err, ErrNoShards), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
