package models

import "time"

type Quiz struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description,omitempty"`
	TimeLimitSec int        `gorm:"not null;default:30" json:"time_limit_sec"`
	Questions    []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Question struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	QuizID       uint     `gorm:"not null;index" json:"quiz_id"`
	Text         string   `gorm:"type:text;not null" json:"text"`
	OrderNum     int      `gorm:"not null" json:"order_num"`
	Points       int      `gorm:"not null;default:100" json:"points"`
	TimeLimitSec int      `gorm:"not null;default:0" json:"time_limit_sec"`
	Options      []Option `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

type Option struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Text       string `gorm:"size:500;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"is_correct"`
}
