package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStatus string

const (
	UserStatusActive  UserStatus = "ACTIVE"
	UserStatusBlocked UserStatus = "BLOCKED"
)

// User is created on the first inbound message from an unseen phone number.
// Users are never deleted by the bot itself.
type User struct {
	gorm.Model
	UserID      string     `gorm:"uniqueIndex;not null" json:"user_id"`
	PhoneNumber string     `gorm:"uniqueIndex;not null" json:"phone_number"`
	Name        string     `json:"name,omitempty"`
	Language    string     `gorm:"default:'fr'" json:"language"`
	Status      UserStatus `gorm:"default:'ACTIVE'" json:"status"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == "" {
		u.UserID = "USR-" + uuid.NewString()
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}
