package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ai-todo/internal/middleware"
)

// RegisterRoutes mounts the auth, task and reminder endpoints under api.
func RegisterRoutes(api *gin.RouterGroup, authHandler *AuthHandler, taskHandler *TaskHandler) {
	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
	}

	taskAccess := middleware.RequireTaskAccess(taskHandler.tasks)

	// Task routes (protected)
	tasks := api.Group("/tasks")
	tasks.Use(middleware.RequireAuth())
	{
		tasks.GET("", taskHandler.ListTasks)
		tasks.POST("", taskHandler.CreateTask)
		tasks.POST("/clear-completed", taskHandler.ClearCompleted)
		tasks.GET("/:id", taskAccess, taskHandler.GetTask)
		tasks.PATCH("/:id", taskAccess, taskHandler.UpdateTask)
		tasks.DELETE("/:id", taskAccess, taskHandler.DeleteTask)
		tasks.POST("/:id/complete", taskAccess, taskHandler.CompleteTask)
	}

	api.GET("/reminders", middleware.RequireAuth(), taskHandler.ListReminders)
}
