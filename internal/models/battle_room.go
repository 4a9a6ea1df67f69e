package models

import "time"

type BattleRoom struct {
	ID                       string        `gorm:"primaryKey;size:36" json:"id"`
	QuizID                   uint          `gorm:"not null;index" json:"quiz_id"`
	Status                   string        `gorm:"size:20;not null;default:'waiting';index" json:"status"`
	MaxParticipants          int           `gorm:"not null;default:4" json:"max_participants"`
	CurrentQuestionIndex     int           `gorm:"not null;default:-1" json:"current_question_index"`
	QuestionTimeLimitSec     int           `gorm:"not null;default:30" json:"question_time_limit_sec"`
	TotalQuestions           int           `gorm:"not null;default:0" json:"total_questions"`
	StartTime                *time.Time    `json:"start_time,omitempty"`
	EndTime                  *time.Time    `json:"end_time,omitempty"`
	CurrentQuestionStartTime *time.Time    `json:"current_question_start_time,omitempty"`
	WinnerParticipantID      *string       `gorm:"size:36" json:"winner_participant_id,omitempty"`
	Version                  int64         `gorm:"not null;default:0" json:"version"`
	Participants             []Participant `gorm:"foreignKey:RoomID" json:"participants,omitempty"`
	CreatedAt                time.Time     `json:"created_at"`
}

const (
	BattleStatusWaiting    = "waiting"
	BattleStatusStarting   = "starting"
	BattleStatusInProgress = "in_progress"
	BattleStatusFinished   = "finished"
	BattleStatusCancelled  = "cancelled"
)
