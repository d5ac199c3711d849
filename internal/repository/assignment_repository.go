package repository

import (
	"context"

	"gorm.io/gorm"

	"secret_santa/internal/models"
)

type AssignmentRepository interface {
	CreateBatch(ctx context.Context, assignments []models.Assignment) error
	DeleteByRoom(ctx context.Context, roomCode string) error
	FindByGiver(ctx context.Context, roomCode, giverID string) (*models.Assignment, error)
	CountByRoom(ctx context.Context, roomCode string) (int64, error)
}

type assignmentRepository struct {
	baseRepository
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{baseRepository{db: db}}
}

func (r *assignmentRepository) CreateBatch(ctx context.Context, assignments []models.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.create(ctx, &assignments)
}

func (r *assignmentRepository) DeleteByRoom(ctx context.Context, roomCode string) error {
	return translateError(r.db.WithContext(ctx).Where("room_code = ?", roomCode).Delete(&models.Assignment{}).Error)
}

func (r *assignmentRepository) FindByGiver(ctx context.Context, roomCode, giverID string) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.first(ctx, &assignment, "room_code = ? AND giver_id = ?", roomCode, giverID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) CountByRoom(ctx context.Context, roomCode string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Assignment{}).Where("room_code = ?", roomCode).Count(&count).Error
	return count, translateError(err)
}
