package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"secret_santa/internal/storage"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type Repositories struct {
	Room        RoomRepository
	Participant ParticipantRepository
	Assignment  AssignmentRepository
}

// Store 提供 repository 以及交易範圍。
// Transaction 內只能使用傳入 fn 的 repos，不可再呼叫 Store.Repositories。
type Store interface {
	Repositories() *Repositories
	Transaction(ctx context.Context, fn func(repos *Repositories) error) error
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Room:        NewRoomRepository(db),
		Participant: NewParticipantRepository(db),
		Assignment:  NewAssignmentRepository(db),
	}
}

type gormStore struct {
	db *gorm.DB
}

// NewStore 以 PostgreSQL 連線建立 Store
func NewStore(db *storage.PostgresDB) Store {
	return &gormStore{db: db.DB}
}

func (s *gormStore) Repositories() *Repositories {
	return NewRepositories(s.db)
}

func (s *gormStore) Transaction(ctx context.Context, fn func(repos *Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
