package model

import "time"

// Account is a registered user. Accounts start inactive and must be
// activated through the emailed token before they can log in.
type Account struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PenName         string     `gorm:"uniqueIndex;size:50;not null" json:"pen_name"`
	Email           string     `gorm:"uniqueIndex;size:128;not null" json:"email"`
	PasswordHash    string     `gorm:"size:64;not null" json:"-"`
	IsActive        bool       `gorm:"default:false" json:"is_active"`
	ActivationToken string     `gorm:"size:36;index" json:"-"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt     *time.Time `json:"last_login_at"`
	LastLoginIP     string     `gorm:"size:45" json:"-"`
}
