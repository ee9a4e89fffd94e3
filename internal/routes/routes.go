package routes

import (
	"github.com/gin-gonic/gin"

	"taskhub/internal/handlers"
	"taskhub/internal/middleware"
	"taskhub/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	identity services.IdentityResolver,
	authHandler *handlers.AuthHandler,
	taskHandler *handlers.TaskHandler,
	notificationHandler *handlers.NotificationHandler,
	socketHandler *handlers.SocketHandler,
) *gin.Engine {

	// ---- public
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// сокет проверяет токен сам: header или ?token=
	r.GET("/ws", socketHandler.Connect)

	// ---- protected
	api := r.Group("/", middleware.AuthMiddleware(identity))

	// USERS
	api.GET("/users", authHandler.ListUsers)

	// TASKS
	tasks := api.Group("/tasks")
	{
		tasks.POST("", taskHandler.Create)
		tasks.GET("", taskHandler.List)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.DELETE("/:id", taskHandler.Delete)
	}

	// NOTIFICATIONS
	notifications := api.Group("/notifications")
	{
		notifications.GET("", notificationHandler.ListUnread)
		notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
		notifications.PATCH("/:id/read", notificationHandler.MarkRead)
	}

	return r
}
