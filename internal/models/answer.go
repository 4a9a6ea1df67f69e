package models

import "time"

type Answer struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	RoomID         string    `gorm:"size:36;not null;index" json:"room_id"`
	ParticipantID  string    `gorm:"size:36;not null;uniqueIndex:idx_answer_unique" json:"participant_id"`
	QuestionIndex  int       `gorm:"not null;uniqueIndex:idx_answer_unique" json:"question_index"`
	SubmittedValue string    `gorm:"size:500;not null" json:"submitted_value"`
	IsCorrect      bool      `gorm:"not null" json:"is_correct"`
	PointsAwarded  float64   `gorm:"not null;default:0" json:"points_awarded"`
	SubmittedAt    time.Time `json:"submitted_at"`
}
