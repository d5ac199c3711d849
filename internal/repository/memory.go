package repository

import (
	"context"
	"sync"
	"time"

	"secret_santa/internal/models"
)

// MemoryStore 是行程內的 Store 實作，用於測試與單機執行。
// 所有交易以同一把鎖序列化，並在副本上操作，fn 成功才整批提交。
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

type memoryState struct {
	rooms        map[string]models.Room
	participants []models.Participant
	assignments  []models.Assignment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memoryState{rooms: make(map[string]models.Room)},
	}
}

func (s *memoryState) clone() *memoryState {
	rooms := make(map[string]models.Room, len(s.rooms))
	for code, room := range s.rooms {
		rooms[code] = room
	}
	return &memoryState{
		rooms:        rooms,
		participants: append([]models.Participant(nil), s.participants...),
		assignments:  append([]models.Assignment(nil), s.assignments...),
	}
}

func (s *MemoryStore) Repositories() *Repositories {
	return newMemoryRepositories(&memoryScope{store: s})
}

func (s *MemoryStore) Transaction(ctx context.Context, fn func(repos *Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(newMemoryRepositories(&memoryScope{state: work})); err != nil {
		return err
	}
	s.state = work
	return nil
}

// memoryScope 決定 repository 操作的狀態：交易內直接使用副本，
// 交易外則每次呼叫都取得 store 的鎖。
type memoryScope struct {
	store *MemoryStore
	state *memoryState
}

func (sc *memoryScope) do(fn func(st *memoryState) error) error {
	if sc.state != nil {
		return fn(sc.state)
	}
	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()
	return fn(sc.store.state)
}

func newMemoryRepositories(scope *memoryScope) *Repositories {
	return &Repositories{
		Room:        &memoryRoomRepository{scope},
		Participant: &memoryParticipantRepository{scope},
		Assignment:  &memoryAssignmentRepository{scope},
	}
}

type memoryRoomRepository struct {
	scope *memoryScope
}

func (r *memoryRoomRepository) Create(_ context.Context, room *models.Room) error {
	return r.scope.do(func(st *memoryState) error {
		if _, exists := st.rooms[room.Code]; exists {
			return ErrDuplicate
		}
		if room.CreatedAt.IsZero() {
			room.CreatedAt = time.Now()
		}
		st.rooms[room.Code] = *room
		return nil
	})
}

func (r *memoryRoomRepository) FindByCode(_ context.Context, code string) (*models.Room, error) {
	var found models.Room
	err := r.scope.do(func(st *memoryState) error {
		room, ok := st.rooms[code]
		if !ok {
			return ErrNotFound
		}
		found = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// FindByCodeForUpdate 在記憶體實作中不需額外鎖定，交易本身已序列化
func (r *memoryRoomRepository) FindByCodeForUpdate(ctx context.Context, code string) (*models.Room, error) {
	return r.FindByCode(ctx, code)
}

func (r *memoryRoomRepository) UpdateStatus(_ context.Context, code string, status models.RoomStatus) error {
	return r.scope.do(func(st *memoryState) error {
		room, ok := st.rooms[code]
		if !ok {
			return ErrNotFound
		}
		room.Status = status
		st.rooms[code] = room
		return nil
	})
}

type memoryParticipantRepository struct {
	scope *memoryScope
}

func (r *memoryParticipantRepository) Create(_ context.Context, participant *models.Participant) error {
	return r.scope.do(func(st *memoryState) error {
		for _, p := range st.participants {
			if p.ID == participant.ID || p.ParticipantKey == participant.ParticipantKey {
				return ErrDuplicate
			}
			if p.RoomCode == participant.RoomCode && p.NameKey == participant.NameKey {
				return ErrDuplicate
			}
		}
		if participant.CreatedAt.IsZero() {
			participant.CreatedAt = time.Now()
		}
		st.participants = append(st.participants, *participant)
		return nil
	})
}

func (r *memoryParticipantRepository) find(match func(p *models.Participant) bool) (*models.Participant, error) {
	var found models.Participant
	err := r.scope.do(func(st *memoryState) error {
		for i := range st.participants {
			if match(&st.participants[i]) {
				found = st.participants[i]
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *memoryParticipantRepository) FindByID(_ context.Context, roomCode, id string) (*models.Participant, error) {
	return r.find(func(p *models.Participant) bool {
		return p.RoomCode == roomCode && p.ID == id
	})
}

func (r *memoryParticipantRepository) FindByKey(_ context.Context, roomCode, participantKey string) (*models.Participant, error) {
	return r.find(func(p *models.Participant) bool {
		return p.RoomCode == roomCode && p.ParticipantKey == participantKey
	})
}

func (r *memoryParticipantRepository) FindByRoom(_ context.Context, roomCode string) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.scope.do(func(st *memoryState) error {
		for _, p := range st.participants {
			if p.RoomCode == roomCode {
				participants = append(participants, p)
			}
		}
		return nil
	})
	return participants, err
}

func (r *memoryParticipantRepository) ExistsByNameKey(_ context.Context, roomCode, nameKey string) (bool, error) {
	_, err := r.find(func(p *models.Participant) bool {
		return p.RoomCode == roomCode && p.NameKey == nameKey
	})
	switch err {
	case nil:
		return true, nil
	case ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

type memoryAssignmentRepository struct {
	scope *memoryScope
}

func (r *memoryAssignmentRepository) CreateBatch(_ context.Context, assignments []models.Assignment) error {
	return r.scope.do(func(st *memoryState) error {
		givers := make(map[string]bool, len(st.assignments)+len(assignments))
		receivers := make(map[string]bool, len(st.assignments)+len(assignments))
		for _, a := range st.assignments {
			givers[a.GiverID] = true
			receivers[a.ReceiverID] = true
		}
		now := time.Now()
		batch := make([]models.Assignment, 0, len(assignments))
		for _, a := range assignments {
			if givers[a.GiverID] || receivers[a.ReceiverID] {
				return ErrDuplicate
			}
			givers[a.GiverID] = true
			receivers[a.ReceiverID] = true
			if a.CreatedAt.IsZero() {
				a.CreatedAt = now
			}
			batch = append(batch, a)
		}
		st.assignments = append(st.assignments, batch...)
		return nil
	})
}

func (r *memoryAssignmentRepository) DeleteByRoom(_ context.Context, roomCode string) error {
	return r.scope.do(func(st *memoryState) error {
		kept := st.assignments[:0:0]
		for _, a := range st.assignments {
			if a.RoomCode != roomCode {
				kept = append(kept, a)
			}
		}
		st.assignments = kept
		return nil
	})
}

func (r *memoryAssignmentRepository) FindByGiver(_ context.Context, roomCode, giverID string) (*models.Assignment, error) {
	var found models.Assignment
	err := r.scope.do(func(st *memoryState) error {
		for _, a := range st.assignments {
			if a.RoomCode == roomCode && a.GiverID == giverID {
				found = a
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *memoryAssignmentRepository) CountByRoom(_ context.Context, roomCode string) (int64, error) {
	var count int64
	err := r.scope.do(func(st *memoryState) error {
		for _, a := range st.assignments {
			if a.RoomCode == roomCode {
				count++
			}
		}
		return nil
	})
	return count, err
}
