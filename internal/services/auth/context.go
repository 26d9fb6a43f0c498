package auth

import (
	"context"

	"github.com/cultureradar/backend/internal/domain/enums"
)

type identityContextKey string

const identityKey identityContextKey = "auth_identity"

// Identity is the authenticated caller. Token is the raw bearer token, kept so
// calls to the hosted functions run with the caller's credentials.
type Identity struct {
	UserID int64
	RoleID enums.RoleID
	Token  string
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
