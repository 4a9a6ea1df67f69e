package models

import "time"

type User struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Username    string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	DisplayName string    `gorm:"size:100;not null" json:"display_name"`
	AvatarURL   string    `gorm:"size:500" json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
