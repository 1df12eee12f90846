package models

import (
	"time"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash
	CreatedAt time.Time `json:"created_at"`
	// No DeletedAt: account removal is a hard delete and cascades
	// through posts, comments and likes.
}

// UserRef is the minimal projection embedded in nested payloads
// (comment trees, post authors). Full user records stay out of those.
type UserRef struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username}
}
