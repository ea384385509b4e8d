package guestd

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type ctxKey int

const ctxKeyOperator ctxKey = iota

const sessionCookieName = "checkin_session"

var errNoSession = errors.New("no valid session")

// tokenFromRequest reads a bearer token, falling back to the session cookie.
func tokenFromRequest(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		return token
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func operatorFromRequest(r *http.Request, store *Store) (Operator, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return Operator{}, errNoSession
	}
	op, err := store.OperatorFromToken(r.Context(), token)
	if errors.Is(err, ErrNotFound) {
		return Operator{}, errNoSession
	}
	return op, err
}

func authMiddleware(store *Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			op, err := operatorFromRequest(r, store)
			if errors.Is(err, errNoSession) {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyOperator, op)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func operatorFrom(r *http.Request) Operator {
	return r.Context().Value(ctxKeyOperator).(Operator)
}
