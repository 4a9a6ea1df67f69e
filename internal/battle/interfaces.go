package battle

import (
	"context"
	"time"

	"github.com/Hun425/CS-Quiz-sub001/internal/models"
)

// Question is the engine's view of one quiz question. Answer is the
// canonical correct value and must never reach a room broadcast.
type Question struct {
	Index        int
	Prompt       string
	Options      []string
	Answer       string
	Points       int
	TimeLimitSec int
}

// ContentProvider returns the ordered question list for a quiz.
type ContentProvider interface {
	QuestionsForQuiz(ctx context.Context, quizID uint) ([]Question, error)
}

type UserProfile struct {
	ID          string
	DisplayName string
	AvatarURL   string
}

// IdentityProvider resolves a user id to its public profile.
type IdentityProvider interface {
	ResolveUser(ctx context.Context, userID string) (UserProfile, error)
}

type ParticipantRecord struct {
	ParticipantID  string
	UserID         string
	DisplayName    string
	Score          float64
	CorrectAnswers int
	Rank           int
	IsWinner       bool
	Forfeited      bool
}

// BattleRecord is the durable completion record handed to the ResultSink.
type BattleRecord struct {
	RoomID         string
	QuizID         uint
	TotalQuestions int
	StartedAt      *time.Time
	EndedAt        time.Time
	Results        []ParticipantRecord
}

// ResultSink stores a completed battle and emits it downstream.
type ResultSink interface {
	RecordBattle(ctx context.Context, rec BattleRecord) error
}

// Broadcaster fans events out to a room's subscribers or to one session.
// Delivery is best-effort; the engine never blocks on it.
type Broadcaster interface {
	PublishToRoom(roomID, topic string, payload any)
	PublishToSession(sessionID string, payload any)
}

// Store is the durable source of truth for rooms, participants and answers.
// SaveRoom must be a compare-and-swap on the room's version.
type Store interface {
	CreateRoom(ctx context.Context, room *models.BattleRoom) error
	LoadRoom(ctx context.Context, roomID string) (*models.BattleRoom, error)
	SaveRoom(ctx context.Context, room *models.BattleRoom) error
	ListRoomsByStatus(ctx context.Context, status string) ([]models.BattleRoom, error)

	SaveParticipant(ctx context.Context, p *models.Participant) error
	DeleteParticipant(ctx context.Context, participantID string) error

	CreateAnswer(ctx context.Context, a *models.Answer) error
	ListAnswers(ctx context.Context, roomID string) ([]models.Answer, error)
}
