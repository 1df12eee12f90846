package models

import (
	"time"
)

type Comment struct {
	ID       uint  `gorm:"primaryKey" json:"id"`
	PostID   uint  `gorm:"not null;index" json:"post_id"`
	Post     Post  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post"`
	UserID   uint  `gorm:"not null;index" json:"user_id"`
	User     User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	ParentID *uint `gorm:"index" json:"parent_id"` // Nullable for top-level comments
	// Note: storage does not force Parent.PostID == PostID. The tree
	// builder demotes violators to roots instead of failing the read.
	Parent    *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"parent,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
