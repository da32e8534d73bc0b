package model

import (
	"time"
)

type Role string

const (
	RoleUser    Role = "USER"
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
)

// User is the authenticated principal. Email doubles as the token subject.
// CurrentRefreshToken mirrors the most recently issued refresh token; a
// presented refresh token that no longer matches it is treated as reuse.
type User struct {
	ID                  uint64 `gorm:"primaryKey"`
	Email               string `gorm:"uniqueIndex;size:320"`
	PasswordHash        string
	Role                Role `gorm:"size:16;default:USER"`
	CurrentRefreshToken *string
	Active              bool `gorm:"default:true"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	UserID       uint64
}
