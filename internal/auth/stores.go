package auth

import (
	"context"

	"github.com/Skotchmaster/complaint_desk/internal/models"
)

type UserStore interface {
	FindByLoginAndEnabled(ctx context.Context, username string) (*models.User, error)
	FindByStableID(ctx context.Context, id string) (*models.User, error)
}

type TokenStore interface {
	Insert(ctx context.Context, t *models.Token) error
	FindByTokenString(ctx context.Context, s string) (*models.Token, error)
	MarkRevoked(ctx context.Context, s string) (int64, error)
	RevokeAllForUser(ctx context.Context, userID uint) (int64, error)
}
