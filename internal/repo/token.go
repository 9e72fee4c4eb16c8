package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/complaint_desk/internal/models"
)

type TokenRepo struct {
	DB *gorm.DB
}

func (r *TokenRepo) Insert(ctx context.Context, t *models.Token) error {
	return translate(r.DB.WithContext(ctx).Create(t).Error)
}

func (r *TokenRepo) FindByTokenString(ctx context.Context, s string) (*models.Token, error) {
	var token models.Token
	if err := r.DB.WithContext(ctx).Where("token = ?", s).First(&token).Error; err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

// MarkRevoked flags the record holding s as revoked and reports how many
// rows matched. Unknown tokens yield 0 and no error.
func (r *TokenRepo) MarkRevoked(ctx context.Context, s string) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Token{}).
		Where("token = ?", s).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}

func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Token{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}

func (r *TokenRepo) ListActiveForUser(ctx context.Context, userID uint, now time.Time) ([]models.Token, error) {
	var out []models.Token
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND revoked = ? AND expired = ? AND expires_at > ?", userID, false, false, now).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}
