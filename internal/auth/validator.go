package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/complaint_desk/internal/repo"
	"github.com/Skotchmaster/complaint_desk/internal/roles"
	"github.com/Skotchmaster/complaint_desk/pkg/tokens"
)

type Validator struct {
	Tokens TokenStore
	Users  UserStore
	Signer *tokens.Signer
	Now    func() time.Time
}

// Validate resolves a bearer token to an identity. The steps run in a
// fixed order and stop at the first failure:
//
//  1. the token string must be known to the store
//  2. its record must be neither revoked nor expired
//  3. its signature and claims must verify
//  4. its subject must resolve to an enabled user
//
// Nothing is cached; every call reads the store.
func (v *Validator) Validate(ctx context.Context, raw string) (*Identity, error) {
	rec, err := v.Tokens.FindByTokenString(ctx, raw)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnknownToken
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	now := v.now()
	if rec.Revoked {
		return nil, ErrRevokedToken
	}
	if rec.Expired || !rec.ExpiresAt.After(now) {
		return nil, ErrExpiredToken
	}

	claims, err := v.Signer.Parse(raw, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	user, err := v.Users.FindByStableID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrDisabledOrMissingUser
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !user.Enabled {
		return nil, ErrDisabledOrMissingUser
	}

	return &Identity{
		UserID:   user.ID,
		Subject:  user.NationalID,
		Username: user.Username,
		Role:     roles.Role(user.Role),
	}, nil
}

func (v *Validator) now() time.Time {
	if v.Now != nil {
		return v.Now().UTC()
	}
	return time.Now().UTC()
}
