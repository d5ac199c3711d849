package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"secret_santa/internal/models"
	"secret_santa/internal/service"
)

const (
	contextRoom        = "room"
	contextParticipant = "participant"
)

// BearerKey 從 Authorization: Bearer <key> 取出金鑰。
// 瀏覽器的 WebSocket 無法帶自訂標頭，所以升級請求改用 ?key= 參數。
func BearerKey(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if key, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(key)
	}
	if header == "" && websocket.IsWebSocketUpgrade(c.Request) {
		return c.Query("key")
	}
	return ""
}

// AdminAuth 驗證 :code 房間的管理員金鑰，成功後把房間放進 context
func AdminAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		room, err := authService.AuthorizeAdmin(c.Request.Context(), c.Param("code"), BearerKey(c))
		if err != nil {
			RespondError(c, err)
			return
		}

		c.Set(contextRoom, room)
		c.Next()
	}
}

// ParticipantAuth 驗證 :code 房間的參與者金鑰，成功後把房間與參與者放進 context
func ParticipantAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		room, participant, err := authService.AuthorizeParticipant(c.Request.Context(), c.Param("code"), BearerKey(c))
		if err != nil {
			RespondError(c, err)
			return
		}

		c.Set(contextRoom, room)
		c.Set(contextParticipant, participant)
		c.Next()
	}
}

// RoomFrom 取得通過驗證的房間
func RoomFrom(c *gin.Context) *models.Room {
	return c.MustGet(contextRoom).(*models.Room)
}

// ParticipantFrom 取得通過驗證的參與者
func ParticipantFrom(c *gin.Context) *models.Participant {
	return c.MustGet(contextParticipant).(*models.Participant)
}
