package services

import (
	"context"
	"errors"

	"github.com/Hun425/CS-Quiz-sub001/internal/battle"
	"github.com/Hun425/CS-Quiz-sub001/internal/models"

	"gorm.io/gorm"
)

// UserService resolves user ids to public profiles (User Identity Provider).
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) ResolveUser(ctx context.Context, userID string) (battle.UserProfile, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return battle.UserProfile{}, errors.New("user not found")
		}
		return battle.UserProfile{}, err
	}
	return battle.UserProfile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
	}, nil
}
