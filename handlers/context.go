package handlers

import (
	"context"

	"github.com/osmium/blog-admin/models"
)

// contextKey keeps request-scoped values out of other packages' key space.
type contextKey string

const (
	// IdentityContextKey holds the models.Identity the session gate verified.
	IdentityContextKey contextKey = "identity"
	// SessionIDContextKey holds the id of the session slot behind the request.
	SessionIDContextKey contextKey = "session_id"
)

// WithIdentity stores the verified staff identity and its session id.
func WithIdentity(ctx context.Context, identity models.Identity, sessionID string) context.Context {
	ctx = context.WithValue(ctx, IdentityContextKey, identity)
	return context.WithValue(ctx, SessionIDContextKey, sessionID)
}

// IdentityFrom returns the identity set by the session gate.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(models.Identity)
	return identity, ok && identity.ID != ""
}

// SessionIDFrom returns the session id set by the session gate.
func SessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDContextKey).(string)
	return id
}

// actor is the staff id recorded on change events; "" outside the gate.
func actor(ctx context.Context) string {
	identity, _ := IdentityFrom(ctx)
	return identity.ID
}
