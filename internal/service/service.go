package service

import (
	"secret_santa/internal/repository"
)

type Services struct {
	AuthService      *AuthService
	RoomService      *RoomService
	WebSocketService *WebSocketService
}

// Options 調整服務行為
type Options struct {
	PublicURL    string // 分享連結的前綴網址
	AdminKeyCost int    // bcrypt cost，0 表示 bcrypt.DefaultCost
}

func NewServices(store repository.Store, opts Options) *Services {
	wsService := NewWebSocketService()

	authService := NewAuthService(store, opts.AdminKeyCost)
	roomService := NewRoomService(store, authService, NewLinks(opts.PublicURL), wsService)
	return &Services{
		AuthService:      authService,
		RoomService:      roomService,
		WebSocketService: wsService,
	}
}
