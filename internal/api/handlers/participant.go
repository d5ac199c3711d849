package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"secret_santa/internal/middleware"
	"secret_santa/internal/service"
)

// ParticipantHandler 處理參與者查看自己抽籤結果的請求
type ParticipantHandler struct {
	roomService *service.RoomService
}

func NewParticipantHandler(roomService *service.RoomService) *ParticipantHandler {
	return &ParticipantHandler{roomService: roomService}
}

// Me 回傳參與者抽到的對象；尚未抽籤時回傳提示訊息
func (h *ParticipantHandler) Me(c *gin.Context) {
	view, err := h.roomService.GetAssignmentFor(c.Request.Context(), middleware.RoomFrom(c), middleware.ParticipantFrom(c))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	if !view.Drawn {
		c.JSON(http.StatusOK, gin.H{
			"room":    view.Room,
			"status":  view.Status,
			"message": "Not drawn yet",
		})
		return
	}

	c.JSON(http.StatusOK, view)
}
