package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health 基本的健康檢查
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// bindJSON 解析 JSON body。空 body 視為零值；超過大小上限回 413，其他解析錯誤回 400 並附上 message。
func bindJSON(c *gin.Context, obj any, message string) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("request body too large (max %d bytes)", tooLarge.Limit),
		})
		return false
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": message})
	return false
}
