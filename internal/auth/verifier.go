package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/complaint_desk/internal/hash"
	"github.com/Skotchmaster/complaint_desk/internal/models"
	"github.com/Skotchmaster/complaint_desk/internal/repo"
)

// dummyHash is a bcrypt hash of a random string, compared against when the
// login name does not resolve so that both failure paths cost one bcrypt.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z7.7p1yQ0e6xJ0J1w5xGvG9a"

type Verifier struct {
	Users  UserStore
	Hasher hash.Hasher
}

func (v *Verifier) Verify(ctx context.Context, username, secret string) (*models.User, error) {
	user, err := v.Users.FindByLoginAndEnabled(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			v.Hasher.Verify(secret, dummyHash)
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !v.Hasher.Verify(secret, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
