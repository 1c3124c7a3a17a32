// Package models contains the persistent domain entities of the community service.
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a registered community member.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:80;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:120;not null" json:"-"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`

	Profile *UserProfile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

// SetPassword replaces the stored hash with a bcrypt hash of password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Account is the owner's view of a user. Email is only ever serialized through it.
type Account struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Account returns the owner's view of u.
func (u *User) Account() Account {
	return Account{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

// User rebuilds a user without credentials from a.
func (a Account) User() *User {
	return &User{ID: a.ID, Username: a.Username, Email: a.Email, CreatedAt: a.CreatedAt}
}

// UserSummary is the public view of a user embedded in other payloads.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Summary returns the public view of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}

// UserProfile holds optional self-description; at most one per user.
type UserProfile struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Bio       string `gorm:"type:text" json:"bio"`
	Interests string `gorm:"size:255" json:"interests"`
	AvatarURL string `gorm:"size:255" json:"avatar_url"`
}
