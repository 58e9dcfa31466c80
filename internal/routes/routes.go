package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shiftlink/backend/internal/config"
	"github.com/shiftlink/backend/internal/handlers"
	"github.com/shiftlink/backend/internal/middleware"
	"github.com/shiftlink/backend/internal/models"
	"github.com/shiftlink/backend/internal/services/notification"
	"github.com/shiftlink/backend/internal/services/subscription"
)

// SetupRouter builds the gin engine with every route registered
func SetupRouter(db *gorm.DB, cfg *config.Config, subscriptions *subscription.Service, notifications *notification.Service) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	rateLimiter := middleware.NewRateLimiter(10, 30)
	router.Use(rateLimiter.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	workerHandler := handlers.NewWorkerHandler(db)
	companyHandler := handlers.NewCompanyHandler(db)
	trainerHandler := handlers.NewTrainerHandler(db)
	jobRoleHandler := handlers.NewJobRoleHandler(db)
	programHandler := handlers.NewTrainingProgramHandler(db)
	shiftHandler := handlers.NewShiftHandler(db, notifications)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptions)
	paymentHandler := handlers.NewPaymentHandler(db)
	notificationHandler := handlers.NewNotificationHandler(notifications)
	webhookHandler := handlers.NewWebhookHandler(subscriptions)

	// Webhooks are verified by signature, never by session
	router.POST("/api/v1/webhooks/stripe", webhookHandler.HandleStripeWebhook)

	api := router.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.AuthMiddleware(), authHandler.Me)
	}

	users := api.Group("/users", middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		users.GET("", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id/status", userHandler.UpdateUserStatus)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	workers := api.Group("/workers", middleware.AuthMiddleware())
	{
		workers.POST("", middleware.RequireRoles(models.RoleWorker), workerHandler.CreateProfile)
		workers.GET("/me", middleware.RequireRoles(models.RoleWorker), workerHandler.GetMyProfile)
		workers.PUT("/me", middleware.RequireRoles(models.RoleWorker), workerHandler.UpdateProfile)
		workers.PUT("/me/availability", middleware.RequireRoles(models.RoleWorker), workerHandler.SetAvailability)
		workers.POST("/me/certifications", middleware.RequireRoles(models.RoleWorker), workerHandler.AddCertification)
		workers.GET("", middleware.RequireRoles(models.RoleCompany, models.RoleAdmin), workerHandler.ListWorkers)
		workers.GET("/:id", middleware.RequireRoles(models.RoleCompany, models.RoleAdmin), workerHandler.GetWorker)
	}

	companies := api.Group("/companies")
	{
		companies.GET("", companyHandler.ListCompanies)
		companies.GET("/:id", companyHandler.GetCompany)

		authed := companies.Group("", middleware.AuthMiddleware())
		authed.POST("", middleware.RequireRoles(models.RoleCompany), companyHandler.CreateProfile)
		authed.GET("/me/profile", middleware.RequireRoles(models.RoleCompany), companyHandler.GetMyProfile)
		authed.PUT("/me/profile", middleware.RequireRoles(models.RoleCompany), companyHandler.UpdateProfile)
		authed.PUT("/:id/verify", middleware.AdminMiddleware(), companyHandler.VerifyCompany)
	}

	trainers := api.Group("/trainers", middleware.AuthMiddleware())
	{
		trainers.POST("", middleware.RequireRoles(models.RoleTrainer), trainerHandler.CreateProfile)
		trainers.GET("/me", middleware.RequireRoles(models.RoleTrainer), trainerHandler.GetMyProfile)
		trainers.PUT("/me", middleware.RequireRoles(models.RoleTrainer), trainerHandler.UpdateProfile)
		trainers.GET("", trainerHandler.ListTrainers)
		trainers.GET("/:id", trainerHandler.GetTrainer)
	}

	jobRoles := api.Group("/job-roles")
	{
		jobRoles.GET("", jobRoleHandler.ListJobRoles)
		jobRoles.GET("/:id", jobRoleHandler.GetJobRole)

		authed := jobRoles.Group("", middleware.AuthMiddleware(), middleware.RequireRoles(models.RoleCompany))
		authed.POST("", jobRoleHandler.CreateJobRole)
		authed.PUT("/:id", jobRoleHandler.UpdateJobRole)
		authed.DELETE("/:id", jobRoleHandler.DeleteJobRole)
	}

	programs := api.Group("/training-programs")
	{
		programs.GET("", programHandler.ListPrograms)
		programs.GET("/:id", programHandler.GetProgram)

		authed := programs.Group("", middleware.AuthMiddleware(), middleware.RequireRoles(models.RoleTrainer))
		authed.POST("", programHandler.CreateProgram)
		authed.PUT("/:id", programHandler.UpdateProgram)
		authed.DELETE("/:id", programHandler.DeleteProgram)
	}

	shifts := api.Group("/shifts", middleware.AuthMiddleware())
	{
		shifts.GET("", shiftHandler.ListShifts)
		shifts.GET("/my-assignments", middleware.RequireRoles(models.RoleWorker), shiftHandler.MyShifts)
		shifts.GET("/:id", shiftHandler.GetShift)

		company := shifts.Group("", middleware.RequireRoles(models.RoleCompany))
		company.POST("", shiftHandler.CreateShift)
		company.PUT("/:id", shiftHandler.UpdateShift)
		company.PUT("/:id/cancel", shiftHandler.CancelShift)
		company.PUT("/:id/complete", shiftHandler.CompleteShift)
		company.PUT("/requests/:requestId", shiftHandler.DecideRequest)

		shifts.POST("/:id/request", middleware.RequireRoles(models.RoleWorker), shiftHandler.RequestShift)
	}

	subs := api.Group("/subscriptions", middleware.AuthMiddleware())
	{
		subs.POST("", subscriptionHandler.CreateSubscription)
		subs.GET("/my-subscriptions", subscriptionHandler.MySubscriptions)
		subs.GET("", middleware.AdminMiddleware(), subscriptionHandler.ListSubscriptions)
		subs.GET("/stats/overview", middleware.AdminMiddleware(), subscriptionHandler.SubscriptionStats)
		subs.GET("/payment-history", middleware.AdminMiddleware(), subscriptionHandler.PaymentHistory)
		subs.GET("/:id", subscriptionHandler.GetSubscription)
		subs.PUT("/:id", subscriptionHandler.UpdateSubscription)
		subs.PUT("/:id/cancel", subscriptionHandler.CancelSubscription)
		subs.PUT("/:id/renew", subscriptionHandler.RenewSubscription)
		subs.DELETE("/:id", middleware.AdminMiddleware(), subscriptionHandler.DeleteSubscription)

		payments := subs.Group("/:id/payments")
		payments.POST("", paymentHandler.RecordPayment)
		payments.GET("", paymentHandler.ListPayments)
		payments.GET("/:paymentId", paymentHandler.GetPayment)
		payments.PUT("/:paymentId/refund", middleware.AdminMiddleware(), paymentHandler.RefundPayment)
	}

	inbox := api.Group("/notifications", middleware.AuthMiddleware())
	{
		inbox.GET("", notificationHandler.ListNotifications)
		inbox.GET("/unread-count", notificationHandler.UnreadCount)
		inbox.PUT("/read-all", notificationHandler.MarkAllRead)
		inbox.PUT("/:id/read", notificationHandler.MarkRead)
		inbox.DELETE("/:id", notificationHandler.DeleteNotification)
		inbox.POST("/devices", notificationHandler.RegisterDevice)
		inbox.POST("/broadcast", middleware.AdminMiddleware(), notificationHandler.BroadcastNotification)
	}

	return router
}
