package repository

import (
	"context"

	"gorm.io/gorm"

	"secret_santa/internal/models"
)

type ParticipantRepository interface {
	Create(ctx context.Context, participant *models.Participant) error
	FindByID(ctx context.Context, roomCode, id string) (*models.Participant, error)
	FindByKey(ctx context.Context, roomCode, participantKey string) (*models.Participant, error)
	// FindByRoom 依建立順序列出房間內所有參與者
	FindByRoom(ctx context.Context, roomCode string) ([]models.Participant, error)
	ExistsByNameKey(ctx context.Context, roomCode, nameKey string) (bool, error)
}

type participantRepository struct {
	baseRepository
}

func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{baseRepository{db: db}}
}

func (r *participantRepository) Create(ctx context.Context, participant *models.Participant) error {
	return r.create(ctx, participant)
}

func (r *participantRepository) FindByID(ctx context.Context, roomCode, id string) (*models.Participant, error) {
	var participant models.Participant
	if err := r.first(ctx, &participant, "room_code = ? AND id = ?", roomCode, id); err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepository) FindByKey(ctx context.Context, roomCode, participantKey string) (*models.Participant, error) {
	var participant models.Participant
	if err := r.first(ctx, &participant, "room_code = ? AND participant_key = ?", roomCode, participantKey); err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepository) FindByRoom(ctx context.Context, roomCode string) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.WithContext(ctx).
		Where("room_code = ?", roomCode).
		Order("created_at ASC").
		Order("id ASC").
		Find(&participants).Error
	return participants, translateError(err)
}

func (r *participantRepository) ExistsByNameKey(ctx context.Context, roomCode, nameKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("room_code = ? AND name_key = ?", roomCode, nameKey).
		Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}
