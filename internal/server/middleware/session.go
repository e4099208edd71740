// Package middleware provides HTTP middleware for the web front end.
package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// sessionIDKey is the context key for the id carried by a valid session cookie.
const sessionIDKey ContextKey = "sessionID"

// ErrNoSession is returned by GetSessionID when the request carried no valid cookie.
var ErrNoSession = errors.New("session ID not found in request context")

// TokenValidator validates a signed session token.
type TokenValidator interface {
	ValidateToken(tokenString string) (SessionIDGetter, error)
}

// SessionIDGetter exposes the session id of validated token claims.
type SessionIDGetter interface {
	GetSessionID() string
}

// SessionMiddleware reads the named cookie and, when its token is valid, adds the
// session id to the request context. Requests without a usable cookie pass
// through unchanged so the handler can start a new session.
func SessionMiddleware(cookieName string, validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := validator.ValidateToken(cookie.Value)
			if err != nil {
				log.Printf("[middleware] ignoring session cookie: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			id := claims.GetSessionID()
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
		})
	}
}

// WithSessionID returns a copy of ctx carrying the session id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// GetSessionID extracts the session id from the request context.
func GetSessionID(r *http.Request) (string, error) {
	id, ok := r.Context().Value(sessionIDKey).(string)
	if !ok || id == "" {
		return "", ErrNoSession
	}
	return id, nil
}
