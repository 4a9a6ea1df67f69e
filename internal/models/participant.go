package models

import "time"

type Participant struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	RoomID      string    `gorm:"size:36;not null;uniqueIndex:idx_room_user;index" json:"room_id"`
	UserID      string    `gorm:"size:36;not null;uniqueIndex:idx_room_user" json:"user_id"`
	DisplayName string    `gorm:"size:100;not null" json:"display_name"`
	Score       float64   `gorm:"not null;default:0" json:"score"`
	Ready       bool      `gorm:"not null;default:false" json:"ready"`
	Forfeited   bool      `gorm:"not null;default:false" json:"forfeited"`
	Finished    bool      `gorm:"not null;default:false" json:"finished"`
	JoinedAt    time.Time `json:"joined_at"`
}
