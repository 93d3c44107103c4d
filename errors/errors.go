package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated = fmt.Errorf("missing or invalid token")
	ErrRoomNotFound    = fmt.Errorf("chat room not found")
	ErrMessageNotFound = fmt.Errorf("message not found")
	ErrNotSender       = fmt.Errorf("only the sender may modify a message")
	ErrEmptyMessage    = fmt.Errorf("either content or file must be provided")
	ErrWorkerPanic     = fmt.Errorf("worker panic")
)

// MapToHTTPStatus translates domain sentinels into the status codes
// exposed by the REST boundary. Anything unknown is a server fault.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotSender):
		return http.StatusForbidden
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyMessage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
