package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router configures and returns the gin engine with all application routes:
// the room metadata API, the WebSocket endpoints, debug endpoints, and the
// Prometheus metrics handler.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(s.cfg.GinMode)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), s.corsMiddleware())

	r.GET("/", s.handleRoot)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/status", s.handleStatus)

		v1.GET("/rooms", s.handleListRooms)
		v1.POST("/rooms", s.handleCreateRoom)
		v1.GET("/rooms/:id", s.handleGetRoom)
		v1.PUT("/rooms/:id", s.handleUpdateRoom)
		v1.DELETE("/rooms/:id", s.handleDeleteRoom)
		v1.POST("/rooms/:id/join", s.handleJoinRoom)
		v1.POST("/rooms/:id/leave", s.handleLeaveRoom)

		v1.GET("/debug/rooms", s.handleDebugRooms)
		v1.GET("/debug/connections", s.handleDebugConnections)
		v1.GET("/debug/chat", s.handleDebugChat)
	}

	r.GET("/ws/collaboration/:room/:user/:document", s.handleCollabWebSocket)
	r.GET("/ws/chat/:room", s.handleChatWebSocket)

	return r
}

// corsMiddleware reflects allowed origins onto API responses and answers
// preflight requests. WebSocket upgrades are guarded separately by the
// upgrader's origin check.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && s.origin.allowOrigin(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
