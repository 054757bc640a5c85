package httpx

import (
	"context"
	"net/http"
)

type ctxKey int

const (
	identityKey ctxKey = iota
	requestIDKey
)

// Identity is the verified caller of a protected route.
type Identity struct {
	UserID string
	Role   string
}

func ContextWithUser(ctx context.Context, userID, role string) context.Context {
	return context.WithValue(ctx, identityKey, Identity{UserID: userID, Role: role})
}

// IdentityFrom reports the caller attached by AuthMiddleware, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// UserIDFrom is "" on routes that are not behind AuthMiddleware.
func UserIDFrom(r *http.Request) string {
	id, _ := IdentityFrom(r.Context())
	return id.UserID
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}
