package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// translateError 把 gorm 的錯誤轉成 repository 層的錯誤
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

type baseRepository struct {
	db *gorm.DB
}

func (r *baseRepository) create(ctx context.Context, model interface{}) error {
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

func (r *baseRepository) first(ctx context.Context, model interface{}, query string, args ...interface{}) error {
	return translateError(r.db.WithContext(ctx).Where(query, args...).First(model).Error)
}
