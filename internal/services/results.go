package services

import (
	"context"
	"time"

	"github.com/Hun425/CS-Quiz-sub001/internal/battle"
	"github.com/Hun425/CS-Quiz-sub001/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ResultService is the Result Sink: it stores one BattleResult row per
// participant in a single transaction and announces the completion for
// downstream consumers (profile statistics etc.).
type ResultService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewResultService(db *gorm.DB, log zerolog.Logger) *ResultService {
	return &ResultService{db: db, log: log.With().Str("component", "results").Logger()}
}

func (s *ResultService) RecordBattle(ctx context.Context, rec battle.BattleRecord) error {
	rows := make([]models.BattleResult, 0, len(rec.Results))
	for _, r := range rec.Results {
		rows = append(rows, models.BattleResult{
			RoomID:         rec.RoomID,
			ParticipantID:  r.ParticipantID,
			UserID:         r.UserID,
			QuizID:         rec.QuizID,
			DisplayName:    r.DisplayName,
			Score:          r.Score,
			CorrectAnswers: r.CorrectAnswers,
			TotalQuestions: rec.TotalQuestions,
			Rank:           r.Rank,
			IsWinner:       r.IsWinner,
			Forfeited:      r.Forfeited,
			CompletedAt:    rec.EndedAt,
			CreatedAt:      time.Now(),
		})
	}
	if len(rows) > 0 {
		if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
			return err
		}
	}

	s.log.Info().
		Str("room_id", rec.RoomID).
		Uint("quiz_id", rec.QuizID).
		Int("participants", len(rec.Results)).
		Msg("battle result recorded")
	return nil
}

// LeaderboardForUser lists a user's finished battles, newest first.
func (s *ResultService) LeaderboardForUser(ctx context.Context, userID string, limit int) ([]models.BattleResult, error) {
	if limit <= 0 {
		limit = 20
	}
	var results []models.BattleResult
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
