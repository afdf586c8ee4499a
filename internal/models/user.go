package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. Credentials live with the auth service.
type User struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;column:id"`
	Username          string    `gorm:"type:varchar(50);not null;uniqueIndex:users_username_ux;column:username"`
	Email             string    `gorm:"type:varchar(255);not null;column:email"`
	FirstName         string    `gorm:"type:varchar(100);not null;default:'';column:first_name"`
	LastName          string    `gorm:"type:varchar(100);not null;default:'';column:last_name"`
	ProfilePictureURL string    `gorm:"type:varchar(1024);not null;default:'';column:profile_picture_url"`
	CreatedAt         time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// All returns every model, in migration order
func All() []interface{} {
	return []interface{}{&User{}, &Post{}, &Vote{}, &Comment{}, &Follow{}}
}
