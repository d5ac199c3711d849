package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"secret_santa/internal/service"
)

// ErrorStatus 將領域錯誤對應到 HTTP 狀態碼
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrDerangement):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondError 回傳 {"error": ...} 並中止後續處理。
// 非領域錯誤只記錄在日誌，不把內部訊息回給客戶端。
func RespondError(c *gin.Context, err error) {
	status := ErrorStatus(err)

	message := err.Error()
	var domainErr *service.Error
	if !errors.As(err, &domainErr) {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		message = "Internal server error"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
