package models

import (
	"time"
)

// PostLike and CommentLike are kept as two concrete tables rather than one
// polymorphic row so each carries a plain composite unique index: duplicate
// likes fail at insert time inside the storage engine, never via a
// check-then-insert in application code.

type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_post_like" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_user_post_like" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"` // leaderboard windows scan this
}

type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_comment_like" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CommentID uint      `gorm:"not null;index;uniqueIndex:idx_user_comment_like" json:"comment_id"`
	Comment   Comment   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
