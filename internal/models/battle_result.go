package models

import "time"

type BattleResult struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RoomID         string    `gorm:"size:36;not null;uniqueIndex:idx_result_unique" json:"room_id"`
	ParticipantID  string    `gorm:"size:36;not null;uniqueIndex:idx_result_unique" json:"participant_id"`
	UserID         string    `gorm:"size:36;not null;index" json:"user_id"`
	QuizID         uint      `gorm:"not null" json:"quiz_id"`
	DisplayName    string    `gorm:"size:100" json:"display_name"`
	Score          float64   `gorm:"not null" json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
	Rank           int       `json:"rank"`
	IsWinner       bool      `json:"is_winner"`
	Forfeited      bool      `json:"forfeited"`
	CompletedAt    time.Time `json:"completed_at"`
	CreatedAt      time.Time `json:"created_at"`
}
