package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

// Logger 以 google/logger 記錄每個請求。
// 查詢字串不記錄，因為分享連結會把金鑰放在裡面。
func Logger(verbose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if !verbose && status < http.StatusInternalServerError {
			return
		}
		logger.Infof("%s %s -> %d (%s) from %s",
			c.Request.Method,
			c.Request.URL.Path,
			status,
			time.Since(start).Round(time.Microsecond),
			c.ClientIP(),
		)
	}
}
