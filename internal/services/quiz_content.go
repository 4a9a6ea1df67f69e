package services

import (
	"context"
	"errors"

	"github.com/Hun425/CS-Quiz-sub001/internal/battle"
	"github.com/Hun425/CS-Quiz-sub001/internal/models"

	"gorm.io/gorm"
)

// QuizContentService is the gorm-backed Quiz Content Provider: it turns a
// quiz id into the ordered question list the engine plays.
type QuizContentService struct {
	db *gorm.DB
}

func NewQuizContentService(db *gorm.DB) *QuizContentService {
	return &QuizContentService{db: db}
}

func (s *QuizContentService) QuestionsForQuiz(ctx context.Context, quizID uint) ([]battle.Question, error) {
	var quiz models.Quiz
	if err := s.db.WithContext(ctx).First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("quiz not found")
		}
		return nil, err
	}

	var questions []models.Question
	if err := s.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("order_num ASC").
		Preload("Options").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	out := make([]battle.Question, 0, len(questions))
	for i, q := range questions {
		bq := battle.Question{
			Index:        i,
			Prompt:       q.Text,
			Points:       q.Points,
			TimeLimitSec: q.TimeLimitSec,
		}
		if bq.TimeLimitSec <= 0 {
			bq.TimeLimitSec = quiz.TimeLimitSec
		}
		for _, o := range q.Options {
			bq.Options = append(bq.Options, o.Text)
			if o.IsCorrect {
				bq.Answer = o.Text
			}
		}
		out = append(out, bq)
	}
	return out, nil
}
