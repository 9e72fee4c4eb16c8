package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"unique;not null"          json:"username"`
	NationalID   string    `gorm:"unique;not null;size:32"  json:"national_id"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	FirstName    string    `gorm:"not null"                 json:"first_name"`
	LastName     string    `gorm:"not null"                 json:"last_name"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;size:16"         json:"role"`
	Enabled      bool      `gorm:"not null;default:true"    json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Token is one issued session token. Rows are only ever inserted or
// flagged revoked; history is kept.
type Token struct {
	ID        uint      `gorm:"primaryKey"               json:"id"`
	Token     string    `gorm:"unique;not null"          json:"-"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	Revoked   bool      `gorm:"not null;default:false"   json:"revoked"`
	Expired   bool      `gorm:"not null;default:false"   json:"expired"`
	CreatedAt time.Time `gorm:"not null"                 json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index"           json:"expires_at"`
}

func All() []any {
	return []any{&User{}, &Token{}}
}
