package battle

import "time"

// Broadcast topics, scoped per room by the hub.
const (
	TopicParticipants = "/participants"
	TopicStatus       = "/status"
	TopicQuestion     = "/question"
	TopicProgress     = "/progress"
	TopicResult       = "/result"
)

type ParticipantView struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	DisplayName     string  `json:"display_name"`
	Score           float64 `json:"score"`
	Ready           bool    `json:"ready"`
	Forfeited       bool    `json:"forfeited"`
	AnsweredCurrent bool    `json:"answered_current"`
}

// RosterEvent is sent on /participants after join, ready toggles and leave.
type RosterEvent struct {
	RoomID       string            `json:"room_id"`
	Participants []ParticipantView `json:"participants"`
}

// StatusEvent is sent on /status whenever the room's lifecycle state moves.
type StatusEvent struct {
	RoomID    string `json:"room_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	StartsInS int    `json:"starts_in_seconds,omitempty"`
}

// QuestionEvent is sent on /question; it never carries the correct answer.
type QuestionEvent struct {
	RoomID         string   `json:"room_id"`
	Index          int      `json:"index"`
	Prompt         string   `json:"prompt"`
	Options        []string `json:"options"`
	TimeLimitSec   int      `json:"time_limit_sec"`
	TotalQuestions int      `json:"total_questions"`
	IsLastQuestion bool     `json:"is_last_question"`
}

type ParticipantProgress struct {
	ParticipantID   string  `json:"participant_id"`
	DisplayName     string  `json:"display_name"`
	Score           float64 `json:"score"`
	CorrectAnswers  int     `json:"correct_answers"`
	AnsweredCurrent bool    `json:"answered_current"`
}

// ProgressEvent is sent on /progress after each accepted answer.
type ProgressEvent struct {
	RoomID        string                `json:"room_id"`
	QuestionIndex int                   `json:"question_index"`
	Participants  []ParticipantProgress `json:"participants"`
}

type RankedParticipant struct {
	ParticipantID  string  `json:"participant_id"`
	UserID         string  `json:"user_id"`
	DisplayName    string  `json:"display_name"`
	Score          float64 `json:"score"`
	CorrectAnswers int     `json:"correct_answers"`
	Rank           int     `json:"rank"`
	Forfeited      bool    `json:"forfeited"`
}

// ResultEvent is sent on /result exactly once, when the room finishes.
type ResultEvent struct {
	RoomID              string              `json:"room_id"`
	Reason              string              `json:"reason,omitempty"`
	WinnerParticipantID *string             `json:"winner_participant_id,omitempty"`
	Rankings            []RankedParticipant `json:"rankings"`
	EndedAt             time.Time           `json:"ended_at"`
}

// AnswerReply is delivered only to the submitting session.
type AnswerReply struct {
	Type          string  `json:"type"`
	RoomID        string  `json:"room_id"`
	QuestionIndex int     `json:"question_index"`
	IsCorrect     bool    `json:"is_correct"`
	PointsAwarded float64 `json:"points_awarded"`
	CorrectAnswer string  `json:"correct_answer"`
	TotalScore    float64 `json:"total_score"`
}

// JoinReply confirms a join (or leave) to the acting session only.
type JoinReply struct {
	Type          string       `json:"type"`
	RoomID        string       `json:"room_id"`
	ParticipantID string       `json:"participant_id,omitempty"`
	Snapshot      RoomSnapshot `json:"snapshot"`
}
