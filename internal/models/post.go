package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a short text entry whose Score is the sum of its live votes
type Post struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:posts_user_id_created_at_idx,priority:1;column:user_id" json:"userId"`
	Content   string    `gorm:"type:text;not null;column:content" json:"content"`
	Score     int       `gorm:"not null;default:0;index;column:score" json:"score"`
	CreatedAt time.Time `gorm:"not null;index:posts_user_id_created_at_idx,priority:2;index;column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at" json:"updatedAt"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// MaxContentLength bounds post and comment text, counted in runes
const MaxContentLength = 2000
