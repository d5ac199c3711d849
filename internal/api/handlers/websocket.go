package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/gorilla/websocket"

	"secret_santa/internal/middleware"
	"secret_santa/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 已經過管理員金鑰驗證，不再限制來源
	},
}

// WebSocketHandler 處理管理員訂閱房間事件的連線
type WebSocketHandler struct {
	wsService *service.WebSocketService
}

func NewWebSocketHandler(wsService *service.WebSocketService) *WebSocketHandler {
	return &WebSocketHandler{wsService: wsService}
}

// HandleWebSocket 升級連線並阻塞直到訂閱者離開
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	room := middleware.RoomFrom(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已經回覆錯誤給客戶端
		logger.Warningf("websocket upgrade failed for room %s: %v", room.Code, err)
		return
	}

	h.wsService.HandleConnection(conn, room.Code)
}
