package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/photo-framer/internal/workflow"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionLookup finds an editing session by ID.
type SessionLookup interface {
	Get(id string) (*workflow.Session, error)
}

// RequireSession is middleware that resolves the {id} URL parameter to an editing session.
func RequireSession(sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if id == "" {
				http.Error(w, `{"error": "missing session ID"}`, http.StatusBadRequest)
				return
			}

			session, err := sessions.Get(id)
			if errors.Is(err, workflow.ErrSessionNotFound) {
				http.Error(w, `{"error": "session not found"}`, http.StatusNotFound)
				return
			}
			if err != nil {
				http.Error(w, `{"error": "session lookup failed"}`, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), session)))
		})
	}
}

// GetSessionFromContext retrieves the session from the request context
func GetSessionFromContext(ctx context.Context) *workflow.Session {
	session, ok := ctx.Value(sessionContextKey).(*workflow.Session)
	if !ok {
		return nil
	}
	return session
}

// SetSessionInContext adds a session to the context.
// This is primarily for testing - use RequireSession middleware in production.
func SetSessionInContext(ctx context.Context, session *workflow.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
