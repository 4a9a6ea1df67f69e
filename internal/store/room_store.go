// Package store is the durable side of the battle engine: rooms,
// participants and answers live in postgres via gorm, with the room row
// guarded by an optimistic version check.
package store

import (
	"context"
	"errors"

	"github.com/Hun425/CS-Quiz-sub001/internal/battle"
	"github.com/Hun425/CS-Quiz-sub001/internal/models"

	"gorm.io/gorm"
)

type RoomStore struct {
	db *gorm.DB
}

func NewRoomStore(db *gorm.DB) *RoomStore {
	return &RoomStore{db: db}
}

func (s *RoomStore) CreateRoom(ctx context.Context, room *models.BattleRoom) error {
	return s.db.WithContext(ctx).Create(room).Error
}

func (s *RoomStore) LoadRoom(ctx context.Context, roomID string) (*models.BattleRoom, error) {
	var room models.BattleRoom
	err := s.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		First(&room, "id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, battle.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// SaveRoom writes the room conditioned on the version the caller read
// (compare-and-swap); on success the in-memory version is advanced to the
// stored one. A write that matches no row reports ErrVersionConflict.
func (s *RoomStore) SaveRoom(ctx context.Context, room *models.BattleRoom) error {
	next := room.Version + 1
	res := s.db.WithContext(ctx).
		Model(&models.BattleRoom{}).
		Where("id = ? AND version = ?", room.ID, room.Version).
		Updates(map[string]any{
			"status":                      room.Status,
			"current_question_index":      room.CurrentQuestionIndex,
			"total_questions":             room.TotalQuestions,
			"question_time_limit_sec":     room.QuestionTimeLimitSec,
			"start_time":                  room.StartTime,
			"end_time":                    room.EndTime,
			"current_question_start_time": room.CurrentQuestionStartTime,
			"winner_participant_id":       room.WinnerParticipantID,
			"version":                     next,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return battle.ErrVersionConflict
	}
	room.Version = next
	return nil
}

func (s *RoomStore) ListRoomsByStatus(ctx context.Context, status string) ([]models.BattleRoom, error) {
	var rooms []models.BattleRoom
	q := s.db.WithContext(ctx).
		Preload("Participants").
		Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *RoomStore) SaveParticipant(ctx context.Context, p *models.Participant) error {
	return s.db.WithContext(ctx).Save(p).Error
}

func (s *RoomStore) DeleteParticipant(ctx context.Context, participantID string) error {
	return s.db.WithContext(ctx).Delete(&models.Participant{}, "id = ?", participantID).Error
}

func (s *RoomStore) CreateAnswer(ctx context.Context, a *models.Answer) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *RoomStore) ListAnswers(ctx context.Context, roomID string) ([]models.Answer, error) {
	var answers []models.Answer
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("submitted_at ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}
