package httpapi

import (
	"context"
	"net/http"
	"strings"

	"gridchat/contract"
	gcerrors "gridchat/errors"
)

type contextKey string

const userIDKey contextKey = "user_id"

// authenticate validates the Authorization bearer token and injects
// the resolved user id into the request context for the handlers.
func authenticate(validator contract.IdentityValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, gcerrors.ErrUnauthenticated)
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")

			userID, err := validator.Validate(r.Context(), token)
			if err != nil {
				writeError(w, gcerrors.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
		})
	}
}

func requesterID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}
