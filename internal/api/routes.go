package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"secret_santa/internal/api/handlers"
	"secret_santa/internal/middleware"
	"secret_santa/internal/service"
)

// SetupRoutes 註冊所有 API 路由；staticDir 不為空時同時提供前端靜態檔案
func SetupRoutes(r *gin.Engine, services *service.Services, staticDir string) {
	// 初始化 handlers
	roomHandler := handlers.NewRoomHandler(services.RoomService)
	participantHandler := handlers.NewParticipantHandler(services.RoomService)
	wsHandler := handlers.NewWebSocketHandler(services.WebSocketService)

	adminAuth := middleware.AdminAuth(services.AuthService)
	participantAuth := middleware.ParticipantAuth(services.AuthService)

	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}))

	// 處理 404 錯誤，其餘 GET 請求交給靜態檔案
	var fileServer http.Handler
	if staticDir != "" {
		fileServer = http.FileServer(http.Dir(staticDir))
	}
	r.NoRoute(func(c *gin.Context) {
		if fileServer != nil && c.Request.Method == http.MethodGet && !strings.HasPrefix(c.Request.URL.Path, "/api/") {
			fileServer.ServeHTTP(c.Writer, c.Request)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Not found",
		})
	})

	// API 路由群組
	api := r.Group("/api")
	api.Use(middleware.BodyLimit(middleware.MaxBodyBytes))
	api.GET("/health", handlers.Health)

	rooms := api.Group("/rooms")
	{
		rooms.POST("", roomHandler.CreateRoom) // 建立房間

		// 管理員
		rooms.POST("/:code/participants", adminAuth, roomHandler.AddParticipant)
		rooms.POST("/:code/import", adminAuth, roomHandler.ImportParticipants)
		rooms.GET("/:code/links", adminAuth, roomHandler.ListLinks)
		rooms.POST("/:code/draw", adminAuth, roomHandler.Draw)
		rooms.GET("/:code/participants/:id/qr", adminAuth, roomHandler.ParticipantQR)
		rooms.GET("/:code/ws", adminAuth, wsHandler.HandleWebSocket) // 房間事件推播

		// 參與者
		rooms.GET("/:code/me", participantAuth, participantHandler.Me)
	}
}
