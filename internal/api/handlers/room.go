package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"secret_santa/internal/middleware"
	"secret_santa/internal/service"
)

const qrSize = 320

// RoomHandler 處理房間管理相關的請求
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler 創建一個新的 RoomHandler 實例
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// CreateRoom 處理建立房間的請求，body 可省略
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var input struct {
		Code string `json:"code"`
	}
	if !bindJSON(c, &input, "invalid JSON body") {
		return
	}

	created, err := h.roomService.CreateRoom(c.Request.Context(), input.Code)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": service.CanonicalCode(input.Code)})
			return
		}
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// AddParticipant 處理新增單一參與者的請求
func (h *RoomHandler) AddParticipant(c *gin.Context) {
	var input struct {
		Name string `json:"name"`
		Desc string `json:"desc"`
	}
	if !bindJSON(c, &input, "name and desc required") {
		return
	}

	participant, err := h.roomService.AddParticipant(c.Request.Context(), middleware.RoomFrom(c), input.Name, input.Desc)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, participant)
}

// ImportParticipants 處理批次匯入。每一行可以是 "名稱 - 描述" 字串或 {name, desc} 物件。
func (h *RoomHandler) ImportParticipants(c *gin.Context) {
	var input struct {
		Lines []json.RawMessage `json:"lines"`
	}
	if !bindJSON(c, &input, "lines[] required") {
		return
	}

	lines := make([]service.ImportLine, len(input.Lines))
	for i, raw := range input.Lines {
		lines[i] = decodeImportLine(raw)
	}

	result, err := h.roomService.ImportParticipants(c.Request.Context(), middleware.RoomFrom(c), lines)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// decodeImportLine 無法辨識的行回傳缺欄位的 ImportLine，交給服務層略過
func decodeImportLine(raw json.RawMessage) service.ImportLine {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if line, ok := service.ParseImportLine(text); ok {
			return line
		}
		return service.ImportLine{Name: strings.TrimSpace(text)}
	}

	var line service.ImportLine
	if err := json.Unmarshal(raw, &line); err != nil {
		return service.ImportLine{}
	}
	return line
}

// ListLinks 處理列出房間狀態與參與者連結的請求
func (h *RoomHandler) ListLinks(c *gin.Context) {
	links, err := h.roomService.ListLinks(c.Request.Context(), middleware.RoomFrom(c))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, links)
}

// Draw 處理抽籤請求；已抽過時回報目前狀態
func (h *RoomHandler) Draw(c *gin.Context) {
	result, err := h.roomService.Draw(c.Request.Context(), middleware.RoomFrom(c))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	if result.AlreadyDrawn {
		c.JSON(http.StatusOK, gin.H{
			"room":    result.Room,
			"status":  result.Status,
			"count":   result.Count,
			"message": "Already drawn",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ParticipantQR 回傳參與者個人連結的 QR code (PNG)
func (h *RoomHandler) ParticipantQR(c *gin.Context) {
	room := middleware.RoomFrom(c)
	participant, err := h.roomService.GetParticipant(c.Request.Context(), room, c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	link := h.roomService.ParticipantLink(room, participant)
	if strings.HasPrefix(link, "/") {
		link = requestOrigin(c) + link
	}

	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// requestOrigin 由請求推導 scheme://host，尊重反向代理的 X-Forwarded-Proto
func requestOrigin(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
