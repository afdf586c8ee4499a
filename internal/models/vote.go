package models

import (
	"time"

	"github.com/google/uuid"
)

// Vote is a user's live vote on a post; at most one per (user, post)
type Vote struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;column:id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:votes_user_post_ux,priority:1;column:user_id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:votes_user_post_ux,priority:2;index;column:post_id"`
	Value     int       `gorm:"type:smallint;not null;check:votes_value_chk,value IN (-1, 1);column:value"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Post *Post `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Vote
func (Vote) TableName() string {
	return "votes"
}

// Vote values
const (
	Downvote = -1
	Upvote   = 1
)
