package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/complaint_desk/internal/models"
	"github.com/Skotchmaster/complaint_desk/pkg/tokens"
)

type Issued struct {
	Token     string
	ExpiresAt time.Time
}

type Issuer struct {
	Tokens   TokenStore
	Signer   *tokens.Signer
	Lifetime time.Duration
	Now      func() time.Time
}

// Issue signs a session token for user and persists its record before
// returning it. The persisted string is the returned string.
func (i *Issuer) Issue(ctx context.Context, user *models.User) (*Issued, error) {
	now := i.now().Truncate(time.Second)
	exp := now.Add(i.Lifetime)

	signed, err := i.Signer.Sign(user.NationalID, user.Role, now, exp)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	rec := &models.Token{
		Token:     signed,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: exp,
	}
	if err := i.Tokens.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: persist token: %v", ErrStoreUnavailable, err)
	}

	return &Issued{Token: signed, ExpiresAt: exp}, nil
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now().UTC()
	}
	return time.Now().UTC()
}
