package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/edupoint/school-app/controllers"
	"github.com/edupoint/school-app/middlewares"
	"github.com/edupoint/school-app/models"
	"github.com/edupoint/school-app/services"
)

func SetupRouter(db *gorm.DB, push services.PushSender) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.NewRateLimiter(50, 100).RateLimit())

	userCtrl := controllers.NewUserController(db)
	announcementCtrl := controllers.NewAnnouncementController(db)
	notificationCtrl := controllers.NewNotificationController(db, push)
	parentCtrl := controllers.NewParentController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Login/register get the strict limiter.
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())

	api.GET("/profile", userCtrl.GetProfile)

	// ANNOUNCEMENTS (read: everyone, write: admin/teacher)
	api.GET("/announcements", announcementCtrl.GetAnnouncements)
	api.POST("/announcements",
		middlewares.RequireRoles(models.RoleAdmin, models.RoleTeacher),
		announcementCtrl.CreateAnnouncement)
	api.PATCH("/announcements/:announcement_id/archive",
		middlewares.RequireRoles(models.RoleAdmin),
		announcementCtrl.ArchiveAnnouncement)

	// NOTIFICATIONS
	// Creation checks the admin role inside the handler: malformed
	// targeting must be rejected before authorization and persistence.
	api.POST("/notifications", notificationCtrl.CreateNotification)
	api.GET("/notifications",
		middlewares.RequireRoles(models.RoleAdmin),
		notificationCtrl.GetAllNotifications)
	api.GET("/notifications/me", notificationCtrl.GetMyNotifications)
	api.PATCH("/notifications/me/:record_id/read", notificationCtrl.MarkNotificationRead)

	// PARENT-STUDENT LINKS (owner overrides handled in the controller)
	api.POST("/parents/:parent_id/students",
		middlewares.RequireRoles(models.RoleAdmin, models.RoleParent),
		parentCtrl.LinkStudent)
	api.GET("/parents/:parent_id/students",
		middlewares.RequireRoles(models.RoleAdmin, models.RoleTeacher, models.RoleParent),
		parentCtrl.GetLinkedStudents)
	api.DELETE("/parents/:parent_id/students/:student_id",
		middlewares.RequireRoles(models.RoleAdmin, models.RoleParent),
		parentCtrl.UnlinkStudent)

	return r
}
