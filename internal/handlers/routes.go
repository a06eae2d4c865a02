package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/fuelops/task-tracker/internal/middleware"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/services"
)

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Tasks         *TaskHandler
	Assignments   *AssignmentHandler
	Notifications *NotificationHandler
	Reports       *ReportHandler
}

// RegisterRoutes mounts the API under api.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, auth *services.AuthService, assignments *services.AssignmentService) {
	requireAuth := middleware.RequireAuth(auth)
	managerOnly := middleware.RequireRole(models.RoleGeneralManager)
	assignmentAccess := middleware.RequireAssignmentAccess(assignments)

	// Auth routes (public)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", h.Auth.Logout)
		authGroup.GET("/me", requireAuth, h.Auth.GetCurrentUser)
	}

	users := api.Group("/users")
	users.Use(requireAuth)
	{
		users.GET("", h.Users.ListUsers)
		users.GET("/eligible-staff", h.Users.ListEligibleStaff)
		users.POST("", managerOnly, h.Users.CreateUser)
		users.GET("/:id", h.Users.GetUser)
		users.PATCH("/:id", h.Users.UpdateUser)
		users.POST("/:id/toggle-active", h.Users.ToggleActive)
	}

	tasks := api.Group("/tasks")
	tasks.Use(requireAuth)
	{
		tasks.GET("", h.Tasks.ListTasks)
		tasks.POST("", managerOnly, h.Tasks.CreateTask)
		tasks.POST("/import", managerOnly, h.Tasks.ImportTasks)
		tasks.GET("/export", h.Tasks.ExportTasks)
		tasks.POST("/generate", managerOnly, h.Tasks.GenerateTasks)
	}

	as := api.Group("/assignments")
	as.Use(requireAuth)
	{
		as.GET("", h.Assignments.ListAssignments)
		as.GET("/stats", h.Assignments.GetStats)
		as.GET("/export", h.Assignments.ExportAssignments)
		as.POST("", managerOnly, h.Assignments.CreateAssignment)
		as.GET("/:id", assignmentAccess, h.Assignments.GetAssignment)
		as.POST("/:id/forward", h.Assignments.Forward)
		as.POST("/:id/start", h.Assignments.Start)
		as.POST("/:id/submit", h.Assignments.Submit)
		as.POST("/:id/approve", h.Assignments.Approve)
		as.POST("/:id/reject", h.Assignments.Reject)
		as.GET("/:id/attachments", h.Assignments.ListAttachments)
		as.POST("/:id/attachments", h.Assignments.AddAttachment)
		as.DELETE("/:id/attachments/:attachmentId", h.Assignments.RemoveAttachment)
		as.GET("/:id/comments", h.Assignments.ListComments)
		as.POST("/:id/comments", managerOnly, h.Assignments.CreateComment)
	}

	notes := api.Group("/notifications")
	notes.Use(requireAuth)
	{
		notes.GET("", h.Notifications.ListNotifications)
		notes.GET("/unread-count", h.Notifications.UnreadCount)
		notes.POST("/read-all", h.Notifications.MarkAllRead)
		notes.POST("/:id/read", h.Notifications.MarkRead)
		notes.GET("/stream", h.Notifications.Stream)
		notes.POST("/stream/:sessionId/unlock", h.Notifications.UnlockSound)
		notes.GET("/sound", h.Notifications.GetSoundPreference)
		notes.PUT("/sound", h.Notifications.UpdateSoundPreference)
	}

	reports := api.Group("/reports")
	reports.Use(requireAuth, managerOnly)
	{
		reports.GET("/daily", h.Reports.GetDailyReport)
		reports.POST("/daily/send", h.Reports.SendDailyReport)
	}
}
