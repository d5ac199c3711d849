package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"secret_santa/internal/models"
)

type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error
	FindByCode(ctx context.Context, code string) (*models.Room, error)
	// FindByCodeForUpdate 在交易中鎖定房間列，序列化同一房間的寫入
	FindByCodeForUpdate(ctx context.Context, code string) (*models.Room, error)
	UpdateStatus(ctx context.Context, code string, status models.RoomStatus) error
}

type roomRepository struct {
	baseRepository
}

func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{baseRepository{db: db}}
}

func (r *roomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.create(ctx, room)
}

func (r *roomRepository) FindByCode(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room
	if err := r.first(ctx, &room, "code = ?", code); err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) FindByCodeForUpdate(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&room).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &room, nil
}

func (r *roomRepository) UpdateStatus(ctx context.Context, code string, status models.RoomStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Room{}).Where("code = ?", code).Update("status", status)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
