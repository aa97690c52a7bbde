package utils

import (
	"context"
	"time"
)

// SessionData is the authenticated session context carried through request
// handling. It is created by the auth service at login and must not be
// mutated anywhere else.
type SessionData struct {
	SessionID string
	UserID    uint
	Username  string
	Email     string
	FirstName string
	IsAdmin   bool

	// BackendToken is a bearer token issued by the price-aggregation
	// backend, when one has been exchanged. Usually empty.
	BackendToken string

	ExpiresAt time.Time
}

type contextKey string

const ContextSessionKey contextKey = "session"

// GetSessionFromContext returns the session injected by the session
// middleware, if any.
func GetSessionFromContext(ctx context.Context) (SessionData, bool) {
	session, ok := ctx.Value(ContextSessionKey).(SessionData)
	return session, ok
}
