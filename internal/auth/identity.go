package auth

import (
	"context"

	"github.com/Skotchmaster/complaint_desk/internal/roles"
)

// Identity is the authenticated principal of one request.
type Identity struct {
	UserID   uint
	Subject  string
	Username string
	Role     roles.Role
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
