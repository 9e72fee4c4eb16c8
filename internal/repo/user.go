package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/complaint_desk/internal/models"
)

type UserRepo struct {
	DB *gorm.DB
}

// FindByLoginAndEnabled returns ErrNotFound for unknown and disabled users alike.
func (r *UserRepo) FindByLoginAndEnabled(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Where("username = ? AND enabled = ?", username, true).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepo) FindByStableID(ctx context.Context, nationalID string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("national_id = ?", nationalID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

func (r *UserRepo) List(ctx context.Context, onlyEnabled bool, from, limit int) ([]models.User, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.User{})
	if onlyEnabled {
		q = q.Where("enabled = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := q.Order("id").Offset(from).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateProfile writes only the non-empty fields of p.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint, p ProfileUpdate) error {
	updates := map[string]any{}
	if p.Username != "" {
		updates["username"] = p.Username
	}
	if p.Email != "" {
		updates["email"] = p.Email
	}
	if p.PasswordHash != "" {
		updates["password_hash"] = p.PasswordHash
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) SetEnabled(ctx context.Context, id uint, enabled bool) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("enabled", enabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type ProfileUpdate struct {
	Username     string
	Email        string
	PasswordHash string
}
