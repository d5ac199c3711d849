package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/logger"

	"secret_santa/internal/models"
	"secret_santa/internal/repository"
	"secret_santa/internal/utils"
)

// MinDrawParticipants 是抽籤所需的最少人數。兩人在數學上就能抽，
// 但兩人互抽沒有驚喜，所以規定至少三人。
const MinDrawParticipants = 3

const maxCodeLength = 64

// CreatedRoom 是建立房間的結果，AdminKey 只會在這裡出現一次
type CreatedRoom struct {
	Code     string `json:"code"`
	AdminKey string `json:"adminKey"`
	AdminURL string `json:"adminUrl"`
}

// CreatedParticipant 是新增單一參與者的結果
type CreatedParticipant struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Desc           string `json:"desc"`
	ParticipantKey string `json:"participantKey"`
	Link           string `json:"link"`
}

// ParticipantLink 是管理員檢視的參與者連結
type ParticipantLink struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
	Link string `json:"link"`
}

// ImportResult 是批次匯入的結果
type ImportResult struct {
	CreatedCount int               `json:"createdCount"`
	Created      []ParticipantLink `json:"created"`
	Skipped      []SkippedLine     `json:"skipped"`
}

// RoomLinks 是房間狀態與所有參與者連結
type RoomLinks struct {
	Room         string            `json:"room"`
	Status       models.RoomStatus `json:"status"`
	Participants []ParticipantLink `json:"participants"`
}

// DrawResult 是抽籤結果；AlreadyDrawn 表示房間先前已抽過，這次沒有任何寫入
type DrawResult struct {
	Room         string            `json:"room"`
	Status       models.RoomStatus `json:"status"`
	Count        int               `json:"count"`
	AlreadyDrawn bool              `json:"-"`
}

// AssignmentView 是參與者看到的抽籤結果
type AssignmentView struct {
	Room         string            `json:"room"`
	Status       models.RoomStatus `json:"status"`
	Drawn        bool              `json:"-"`
	ReceiverName string            `json:"receiverName,omitempty"`
	ReceiverDesc string            `json:"receiverDesc,omitempty"`
}

// RoomService 管理房間生命週期: OPEN -> DRAWN
type RoomService struct {
	store     repository.Store
	auth      *AuthService
	links     *Links
	wsService *WebSocketService
}

func NewRoomService(store repository.Store, auth *AuthService, links *Links, wsService *WebSocketService) *RoomService {
	return &RoomService{
		store:     store,
		auth:      auth,
		links:     links,
		wsService: wsService,
	}
}

// CreateRoom 建立房間；code 為空時自動產生 SS-XXXXXX
func (s *RoomService) CreateRoom(ctx context.Context, code string) (*CreatedRoom, error) {
	code = CanonicalCode(code)
	if code == "" {
		code = "SS-" + strings.ToUpper(utils.Token(utils.CodeBytes))
	}
	if len(code) > maxCodeLength {
		return nil, newError(ErrValidation, "room code must be at most %d characters", maxCodeLength)
	}

	adminKey := utils.Token(utils.SecretBytes)
	hash, err := s.auth.HashAdminKey(adminKey)
	if err != nil {
		return nil, err
	}

	room := &models.Room{
		Code:         code,
		AdminKeyHash: hash,
		Status:       models.RoomStatusOpen,
	}
	err = s.store.Repositories().Room.Create(ctx, room)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, newError(ErrConflict, "Room already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	logger.Infof("room %s created", code)
	return &CreatedRoom{
		Code:     code,
		AdminKey: adminKey,
		AdminURL: s.links.Admin(code, adminKey),
	}, nil
}

// AddParticipant 在 OPEN 房間中新增一位參與者
func (s *RoomService) AddParticipant(ctx context.Context, room *models.Room, name, desc string) (*CreatedParticipant, error) {
	name, desc = normalize(name), normalize(desc)

	var participant *models.Participant
	err := s.store.Transaction(ctx, func(repos *repository.Repositories) error {
		locked, err := lockOpenRoom(ctx, repos, room.Code)
		if err != nil {
			return err
		}

		if name == "" || desc == "" {
			return newError(ErrValidation, "name and desc required")
		}

		exists, err := repos.Participant.ExistsByNameKey(ctx, locked.Code, nameKey(name))
		if err != nil {
			return fmt.Errorf("check participant name: %w", err)
		}
		if exists {
			return newError(ErrConflict, "Participant name already exists in this room")
		}

		participant, err = createParticipant(ctx, repos, locked.Code, name, desc)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.wsService.Publish(&RoomEvent{
		Type:   EventParticipantAdded,
		Room:   room.Code,
		Status: string(models.RoomStatusOpen),
		Name:   participant.Name,
	})

	return &CreatedParticipant{
		ID:             participant.ID,
		Name:           participant.Name,
		Desc:           participant.Desc,
		ParticipantKey: participant.ParticipantKey,
		Link:           s.links.Participant(room.Code, participant.ParticipantKey),
	}, nil
}

// ImportParticipants 在單一交易中批次新增參與者。
// 缺欄位或名稱重複的行會被略過並記錄在 Skipped，不會讓整批失敗。
func (s *RoomService) ImportParticipants(ctx context.Context, room *models.Room, lines []ImportLine) (*ImportResult, error) {
	result := &ImportResult{
		Created: []ParticipantLink{},
		Skipped: []SkippedLine{},
	}
	err := s.store.Transaction(ctx, func(repos *repository.Repositories) error {
		locked, err := lockOpenRoom(ctx, repos, room.Code)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return newError(ErrValidation, "lines[] required")
		}

		seen := make(map[string]bool, len(lines))
		for i, line := range lines {
			name, desc := normalize(line.Name), normalize(line.Desc)
			if name == "" || desc == "" {
				result.Skipped = append(result.Skipped, SkippedLine{Line: i, Name: name, Reason: SkipReasonMissingFields})
				continue
			}

			key := nameKey(name)
			if seen[key] {
				result.Skipped = append(result.Skipped, SkippedLine{Line: i, Name: name, Reason: SkipReasonDuplicateName})
				continue
			}
			exists, err := repos.Participant.ExistsByNameKey(ctx, locked.Code, key)
			if err != nil {
				return fmt.Errorf("check participant name: %w", err)
			}
			if exists {
				result.Skipped = append(result.Skipped, SkippedLine{Line: i, Name: name, Reason: SkipReasonDuplicateName})
				continue
			}
			seen[key] = true

			participant, err := createParticipant(ctx, repos, locked.Code, name, desc)
			if err != nil {
				return err
			}
			result.Created = append(result.Created, ParticipantLink{
				Name: participant.Name,
				Desc: participant.Desc,
				Link: s.links.Participant(locked.Code, participant.ParticipantKey),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.CreatedCount = len(result.Created)

	logger.Infof("room %s: imported %d participants, skipped %d lines", room.Code, result.CreatedCount, len(result.Skipped))
	if result.CreatedCount > 0 {
		s.wsService.Publish(&RoomEvent{
			Type:   EventParticipantsImported,
			Room:   room.Code,
			Status: string(models.RoomStatusOpen),
			Count:  result.CreatedCount,
		})
	}

	return result, nil
}

// ListLinks 列出房間狀態與所有參與者連結，依名稱排序
func (s *RoomService) ListLinks(ctx context.Context, room *models.Room) (*RoomLinks, error) {
	participants, err := s.store.Repositories().Participant.FindByRoom(ctx, room.Code)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	sort.SliceStable(participants, func(i, j int) bool {
		return participants[i].NameKey < participants[j].NameKey
	})

	links := &RoomLinks{
		Room:         room.Code,
		Status:       room.Status,
		Participants: make([]ParticipantLink, 0, len(participants)),
	}
	for _, p := range participants {
		links.Participants = append(links.Participants, ParticipantLink{
			Name: p.Name,
			Desc: p.Desc,
			Link: s.links.Participant(room.Code, p.ParticipantKey),
		})
	}
	return links, nil
}

// GetParticipant 取得房間內指定 ID 的參與者
func (s *RoomService) GetParticipant(ctx context.Context, room *models.Room, id string) (*models.Participant, error) {
	participant, err := s.store.Repositories().Participant.FindByID(ctx, room.Code, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "Participant not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find participant: %w", err)
	}
	return participant, nil
}

// ParticipantLink 回傳參與者的個人連結
func (s *RoomService) ParticipantLink(room *models.Room, participant *models.Participant) string {
	return s.links.Participant(room.Code, participant.ParticipantKey)
}

// Draw 執行抽籤。已抽過的房間直接回報目前狀態，不會重抽。
// 刪除舊結果、寫入新結果、房間改為 DRAWN 在同一個交易內完成。
func (s *RoomService) Draw(ctx context.Context, room *models.Room) (*DrawResult, error) {
	var result *DrawResult
	err := s.store.Transaction(ctx, func(repos *repository.Repositories) error {
		locked, err := lockRoom(ctx, repos, room.Code)
		if err != nil {
			return err
		}

		if !locked.IsOpen() {
			count, err := repos.Assignment.CountByRoom(ctx, locked.Code)
			if err != nil {
				return fmt.Errorf("count assignments: %w", err)
			}
			result = &DrawResult{Room: locked.Code, Status: locked.Status, Count: int(count), AlreadyDrawn: true}
			return nil
		}

		participants, err := repos.Participant.FindByRoom(ctx, locked.Code)
		if err != nil {
			return fmt.Errorf("list participants: %w", err)
		}
		if len(participants) < MinDrawParticipants {
			return newError(ErrValidation, "Need at least %d participants for a fun draw (min 2 technically, but %d recommended).", MinDrawParticipants, MinDrawParticipants)
		}

		ids := make([]string, len(participants))
		for i, p := range participants {
			ids[i] = p.ID
		}
		receivers, err := Derange(ids)
		if err != nil {
			return err
		}

		assignments := make([]models.Assignment, len(ids))
		for i := range ids {
			assignments[i] = models.Assignment{RoomCode: locked.Code, GiverID: ids[i], ReceiverID: receivers[i]}
		}

		if err := repos.Assignment.DeleteByRoom(ctx, locked.Code); err != nil {
			return fmt.Errorf("delete assignments: %w", err)
		}
		if err := repos.Assignment.CreateBatch(ctx, assignments); err != nil {
			return fmt.Errorf("create assignments: %w", err)
		}
		if err := repos.Room.UpdateStatus(ctx, locked.Code, models.RoomStatusDrawn); err != nil {
			return fmt.Errorf("update room status: %w", err)
		}

		result = &DrawResult{Room: locked.Code, Status: models.RoomStatusDrawn, Count: len(ids)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyDrawn {
		logger.Infof("room %s drawn with %d participants", result.Room, result.Count)
		s.wsService.Publish(&RoomEvent{
			Type:   EventDrawn,
			Room:   result.Room,
			Status: string(result.Status),
			Count:  result.Count,
		})
	}
	return result, nil
}

// GetAssignmentFor 回傳參與者抽到的對象。尚未抽籤時回傳 Drawn=false 的結果而不是錯誤。
func (s *RoomService) GetAssignmentFor(ctx context.Context, room *models.Room, participant *models.Participant) (*AssignmentView, error) {
	if room.Status != models.RoomStatusDrawn {
		return &AssignmentView{Room: room.Code, Status: room.Status}, nil
	}

	repos := s.store.Repositories()
	assignment, err := repos.Assignment.FindByGiver(ctx, room.Code, participant.ID)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Errorf("INTEGRITY: room %s is DRAWN but participant %s has no assignment", room.Code, participant.ID)
		return nil, newError(ErrIntegrity, "Assignment missing for this participant")
	}
	if err != nil {
		return nil, fmt.Errorf("find assignment: %w", err)
	}

	receiver, err := repos.Participant.FindByID(ctx, room.Code, assignment.ReceiverID)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Errorf("INTEGRITY: room %s assignment %s -> %s points to a missing participant", room.Code, assignment.GiverID, assignment.ReceiverID)
		return nil, newError(ErrIntegrity, "Assigned receiver is missing")
	}
	if err != nil {
		return nil, fmt.Errorf("find receiver: %w", err)
	}

	return &AssignmentView{
		Room:         room.Code,
		Status:       models.RoomStatusDrawn,
		Drawn:        true,
		ReceiverName: receiver.Name,
		ReceiverDesc: receiver.Desc,
	}, nil
}

func lockRoom(ctx context.Context, repos *repository.Repositories, code string) (*models.Room, error) {
	room, err := repos.Room.FindByCodeForUpdate(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "Room not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lock room: %w", err)
	}
	return room, nil
}

func lockOpenRoom(ctx context.Context, repos *repository.Repositories, code string) (*models.Room, error) {
	room, err := lockRoom(ctx, repos, code)
	if err != nil {
		return nil, err
	}
	if !room.IsOpen() {
		return nil, newError(ErrInvalidState, "Room is not OPEN (already drawn)")
	}
	return room, nil
}

func createParticipant(ctx context.Context, repos *repository.Repositories, roomCode, name, desc string) (*models.Participant, error) {
	participant := &models.Participant{
		ID:             utils.Token(utils.IDBytes),
		RoomCode:       roomCode,
		Name:           name,
		NameKey:        nameKey(name),
		Desc:           desc,
		ParticipantKey: utils.Token(utils.SecretBytes),
	}
	err := repos.Participant.Create(ctx, participant)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, newError(ErrConflict, "Participant name already exists in this room")
	}
	if err != nil {
		return nil, fmt.Errorf("create participant: %w", err)
	}
	return participant, nil
}
