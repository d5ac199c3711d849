package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/logger"
	"golang.org/x/crypto/bcrypt"

	"secret_santa/internal/models"
	"secret_santa/internal/repository"
)

// AuthService 驗證管理員與參與者的 bearer 金鑰。
// 所有會修改或揭露房間狀態的操作都必須先經過這裡。
type AuthService struct {
	store repository.Store
	cost  int
}

func NewAuthService(store repository.Store, cost int) *AuthService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{store: store, cost: cost}
}

// HashAdminKey 產生管理員金鑰的 bcrypt 雜湊
func (s *AuthService) HashAdminKey(adminKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminKey), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash admin key: %w", err)
	}
	return string(hash), nil
}

// AuthorizeAdmin 確認 key 是該房間的管理員金鑰
func (s *AuthService) AuthorizeAdmin(ctx context.Context, code, key string) (*models.Room, error) {
	room, err := s.findRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	if key == "" || bcrypt.CompareHashAndPassword([]byte(room.AdminKeyHash), []byte(key)) != nil {
		logger.Warningf("rejected admin key for room %s", room.Code)
		return nil, newError(ErrUnauthorized, "Admin unauthorized")
	}

	return room, nil
}

// AuthorizeParticipant 確認 key 屬於該房間的某位參與者
func (s *AuthService) AuthorizeParticipant(ctx context.Context, code, key string) (*models.Room, *models.Participant, error) {
	room, err := s.findRoom(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	unauthorized := newError(ErrUnauthorized, "Unauthorized participant")
	if key == "" {
		return nil, nil, unauthorized
	}

	participant, err := s.store.Repositories().Participant.FindByKey(ctx, room.Code, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, unauthorized
	}
	if err != nil {
		return nil, nil, fmt.Errorf("find participant: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(participant.ParticipantKey), []byte(key)) != 1 {
		return nil, nil, unauthorized
	}

	return room, participant, nil
}

func (s *AuthService) findRoom(ctx context.Context, code string) (*models.Room, error) {
	room, err := s.store.Repositories().Room.FindByCode(ctx, CanonicalCode(code))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "Room not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}
	return room, nil
}
