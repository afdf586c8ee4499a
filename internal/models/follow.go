package models

import (
	"time"

	"github.com/google/uuid"
)

// Follow is a directed "follower follows following" edge
type Follow struct {
	FollowerID  uuid.UUID `gorm:"type:uuid;primaryKey;check:follows_no_self_chk,follower_id <> following_id;column:follower_id"`
	FollowingID uuid.UUID `gorm:"type:uuid;primaryKey;index;column:following_id"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Follower  *User `gorm:"foreignKey:FollowerID;references:ID;constraint:OnDelete:CASCADE"`
	Following *User `gorm:"foreignKey:FollowingID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Follow
func (Follow) TableName() string {
	return "follows"
}

// FollowCounts holds a user's social counts
type FollowCounts struct {
	Followers int64 `json:"followersCount"`
	Following int64 `json:"followingCount"`
}
