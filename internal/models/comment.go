package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a reply to a post, or to another comment of the same post
type Comment struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;column:id"`
	PostID          uuid.UUID  `gorm:"type:uuid;not null;index:comments_post_id_created_at_idx,priority:1;column:post_id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;column:user_id"`
	ParentCommentID *uuid.UUID `gorm:"type:uuid;index;column:parent_comment_id"`
	Content         string     `gorm:"type:text;not null;column:content"`
	CreatedAt       time.Time  `gorm:"not null;index:comments_post_id_created_at_idx,priority:2;column:created_at"`

	// Relationships
	Post   *Post    `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
	User   *User    `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Parent *Comment `gorm:"foreignKey:ParentCommentID;references:ID"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}
