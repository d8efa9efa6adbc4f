package models

import "time"

// User is the principal behind an access token. Password holds a bcrypt hash.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	Email     string `gorm:"size:255;not null;uniqueIndex"`
	Password  string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) TableName() string {
	return "users"
}

// AccessToken binds the SHA-256 digest of an opaque bearer token to a user.
// The plain token is only ever returned to the client at issue time.
type AccessToken struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     uint   `gorm:"not null;index"`
	User       User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Name       string `gorm:"size:255;not null"`
	TokenHash  string `gorm:"size:64;not null;uniqueIndex"`
	LastUsedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (t *AccessToken) TableName() string {
	return "access_tokens"
}
