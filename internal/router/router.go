package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sphere-social/sphere/internal/handlers"
	"github.com/sphere-social/sphere/internal/middleware"
)

type Deps struct {
	Origins []string
	Log     *slog.Logger

	Auth          gin.HandlerFunc
	Health        gin.HandlerFunc
	Metrics       http.Handler
	Users         *handlers.AuthHandler
	Messages      *handlers.MessageHandler
	Notifications *handlers.NotificationHandler
	Posts         *handlers.PostHandler
	Follows       *handlers.UserHandler
	WS            *handlers.WSHandler
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if d.Log != nil {
		r.Use(middleware.RequestLogger(d.Log))
	}

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	api := r.Group("/api")
	{
		api.GET("/health", d.Health)
		api.GET("/ws", d.WS.Serve)

		auth := api.Group("/auth")
		{
			auth.POST("/register", d.Users.Register)
			auth.POST("/login", d.Users.Login)
			auth.GET("/me", d.Auth, d.Users.Me)
		}

		messages := api.Group("/messages", d.Auth)
		{
			messages.POST("", d.Messages.Create)
			messages.PUT("/mark-as-read/:senderId", d.Messages.MarkAsRead)
			messages.GET("/unread-count/:senderId", d.Messages.UnreadCount)
			messages.GET("/unread-counts", d.Messages.UnreadCounts)
			messages.GET("/history/:userId", d.Messages.History)
			messages.GET("/partners", d.Messages.Partners)
		}

		notifications := api.Group("/notifications", d.Auth)
		{
			notifications.GET("", d.Notifications.List)
			notifications.PATCH("/:id/read", d.Notifications.MarkRead)
			notifications.POST("/welcome", d.Notifications.Welcome)
		}

		posts := api.Group("/posts", d.Auth)
		{
			posts.POST("", d.Posts.Create)
			posts.PUT("/:postId/likes", d.Posts.ToggleLike)
		}

		users := api.Group("/users", d.Auth)
		{
			users.POST("/:userId/follow", d.Follows.ToggleFollow)
		}
	}

	return r
}
