// Package routes assembles the HTTP surface over an injected handler set.
package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"kindred/handlers"
	"kindred/middleware"
	"kindred/ws"
)

// SetupRouter builds the gin engine with every route mounted. Hub may
// be nil; the /ws route is then omitted.
func SetupRouter(h *handlers.Handler, hub *ws.Hub, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authLimiter := middleware.NewIPRateLimiter(10, time.Minute)
	router.POST("/api/signup", middleware.RateLimit(authLimiter), h.Signup)
	router.POST("/api/login", middleware.RateLimit(authLimiter), h.Login)
	router.GET("/api/vapid-public-key", h.GetVapidKey)

	protected := router.Group("/api")
	protected.Use(middleware.JWTAuth(h.JWTSecret))

	// Profile
	protected.GET("/me", h.GetMyProfile)
	protected.PUT("/me", h.UpdateMyProfile)
	protected.GET("/user/:uid", h.GetUser)
	protected.POST("/upload-photo", h.UploadPhoto)

	// Location and presence
	protected.PUT("/me/location", h.UpdateMyLocation)
	protected.PUT("/me/presence", h.UpdateMyPresence)

	// Nearby
	protected.GET("/users/nearby", h.GetNearby)

	// Connections
	protected.POST("/connections", h.SendConnection)
	protected.POST("/connections/:id/accept", h.AcceptConnection)
	protected.POST("/connections/:id/decline", h.DeclineConnection)
	protected.GET("/connections", h.ListConnections)
	protected.GET("/connections/pending", h.ListPendingConnections)
	protected.GET("/connections/sent", h.ListSentConnections)
	protected.GET("/connections/with/:uid/chat", h.GetChatWith)

	// Favorites
	protected.POST("/favorite", h.AddFavorite)
	protected.DELETE("/favorite/:uid", h.RemoveFavorite)
	protected.GET("/favorites", h.ListFavorites)

	// Chats and messages
	protected.GET("/chats", h.ListChats)
	protected.GET("/chats/:id", h.GetChat)
	protected.POST("/message", h.SendMessage)
	protected.GET("/messages/:chatId", h.GetMessages)
	protected.POST("/messages/:chatId/read", h.MarkMessagesRead)
	protected.POST("/typing", h.SendTyping)

	// Push subscriptions
	protected.POST("/subscribe", h.Subscribe)

	if hub != nil {
		router.GET("/ws", gin.WrapF(ws.Handler(hub, h.JWTSecret)))
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.Next()
	})

	return router
}
