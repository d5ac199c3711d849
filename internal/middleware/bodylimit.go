package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes 是 API 請求 body 的上限 (1 MB)
const MaxBodyBytes = 1 << 20

// BodyLimit 限制請求 body 的大小，超過時讀取會回傳 *http.MaxBytesError
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
