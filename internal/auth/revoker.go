package auth

import (
	"context"
	"fmt"
)

// Revoker is the only writer of the revoked flag.
type Revoker struct {
	Tokens TokenStore
}

// Revoke marks token as revoked. Unknown and already revoked tokens are
// not errors.
func (r *Revoker) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := r.Tokens.MarkRevoked(ctx, token); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *Revoker) RevokeAll(ctx context.Context, userID uint) (int64, error) {
	n, err := r.Tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n, nil
}
