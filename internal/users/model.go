package users

import (
	"strings"
	"time"
)

// Account captures a registered user of the application.
type Account struct {
	UserID       string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex"`
	DisplayName  string    `gorm:"column:display_name;size:190;not null"`
	PasswordHash string    `gorm:"column:password_hash;size:190;not null"`
	AvatarURL    string    `gorm:"column:avatar_url;size:512"`
	LastSeenAt   time.Time `gorm:"column:last_seen_at;autoUpdateTime"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing user accounts.
func (Account) TableName() string {
	return "user_accounts"
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
