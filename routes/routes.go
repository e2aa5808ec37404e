package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/danuartha/wedding-management-backend/config"
	"github.com/danuartha/wedding-management-backend/internal/auditlog"
	"github.com/danuartha/wedding-management-backend/internal/auth"
	"github.com/danuartha/wedding-management-backend/internal/event"
	"github.com/danuartha/wedding-management-backend/internal/guest"
	"github.com/danuartha/wedding-management-backend/internal/notification"
	"github.com/danuartha/wedding-management-backend/internal/rbac"
	"github.com/danuartha/wedding-management-backend/internal/seating"
	"github.com/danuartha/wedding-management-backend/internal/souvenir"
	"github.com/danuartha/wedding-management-backend/internal/subscription"
	"github.com/danuartha/wedding-management-backend/middleware"
	"github.com/danuartha/wedding-management-backend/utils"
)

// Setup wires repositories, services and handlers onto the router.
func Setup(r *gin.Engine, cfg *config.Config, db *gorm.DB) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.RedisHealthCheck(); err != nil {
			c.JSON(503, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "OK"})
	})

	publisher := notification.NewPublisher(utils.GetRedisClient(), utils.GetKafkaWriter())

	// ========== Audit Log ==========
	auditRepo := auditlog.NewRepository(db)
	auditSvc := auditlog.NewService(auditRepo)
	auditHandler := auditlog.NewHandler(auditSvc)

	// ========== Auth ==========
	authRepo := auth.NewRepository(db)
	authSvc := auth.NewService(authRepo, cfg)
	authHandler := auth.NewHandler(authSvc)

	// ========== RBAC ==========
	rbacRepo := rbac.NewRepository(db)
	rbacSvc := rbac.NewService(rbacRepo, authRepo, auditSvc)
	rbacHandler := rbac.NewHandler(rbacSvc)

	// ========== Subscription ==========
	subRepo := subscription.NewRepository(db)
	subSvc := subscription.NewService(subRepo, cfg, auditSvc)
	subHandler := subscription.NewHandler(subSvc)

	// ========== Event ==========
	eventRepo := event.NewRepository(db)
	eventSvc := event.NewService(eventRepo, subSvc, rbacSvc, auditSvc, publisher)
	eventHandler := event.NewHandler(eventSvc)

	// ========== Guest ==========
	guestRepo := guest.NewRepository(db)
	guestSvc := guest.NewService(guestRepo, rbacSvc, auditSvc, publisher)
	guestHandler := guest.NewHandler(guestSvc)

	// ========== Seating ==========
	seatingRepo := seating.NewRepository(db)
	seatingSvc := seating.NewService(seatingRepo, rbacSvc, auditSvc, publisher)
	seatingHandler := seating.NewHandler(seatingSvc)

	// ========== Souvenir ==========
	souvenirRepo := souvenir.NewRepository(db)
	souvenirSvc := souvenir.NewService(souvenirRepo, rbacSvc, auditSvc, publisher)
	souvenirHandler := souvenir.NewHandler(souvenirSvc)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimiter(300, time.Minute))

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.GET("/me", middleware.AuthMiddleware(cfg, authSvc), authHandler.Me)
	}

	// Public invitation routes, scoped by possession of the guest slug.
	// Tighter rate limit: these take no token.
	invitations := api.Group("/invitations")
	invitations.Use(middleware.RateLimiter(60, time.Minute))
	{
		invitations.GET("/:slug", guestHandler.ViewInvitation)
		invitations.POST("/:slug/rsvp", guestHandler.SubmitRSVP)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg, authSvc))

	// Global permission catalog (read-only)
	protected.GET("/permissions", rbacHandler.ListPermissions)

	subscriptionGroup := protected.Group("/subscription")
	{
		subscriptionGroup.GET("", subHandler.GetMine)
		subscriptionGroup.POST("/upgrade", subHandler.StartUpgrade)
		subscriptionGroup.POST("/verify", subHandler.VerifyPayment)
	}

	events := protected.Group("/events")
	{
		events.POST("", eventHandler.Create)
		events.GET("", eventHandler.List)
		events.GET("/:eventID", eventHandler.Get)
		events.PUT("/:eventID", eventHandler.Update)
		events.DELETE("/:eventID", eventHandler.Delete)

		// Roles & staff. Services enforce roles:* / staff:* themselves.
		events.GET("/:eventID/roles", rbacHandler.ListRoles)
		events.POST("/:eventID/roles", rbacHandler.CreateRole)
		events.PUT("/:eventID/roles/:roleID", rbacHandler.UpdateRole)
		events.DELETE("/:eventID/roles/:roleID", rbacHandler.DeleteRole)
		events.PUT("/:eventID/roles/:roleID/permissions", rbacHandler.SetPermissions)
		events.GET("/:eventID/staff", rbacHandler.ListStaff)
		events.POST("/:eventID/staff", rbacHandler.InviteStaff)
		events.DELETE("/:eventID/staff/:userID", rbacHandler.RemoveStaff)

		// Guests
		events.POST("/:eventID/guests", guestHandler.Create)
		events.GET("/:eventID/guests", guestHandler.List)
		events.GET("/:eventID/guests/:guestID", guestHandler.Get)
		events.PUT("/:eventID/guests/:guestID", guestHandler.Update)
		events.DELETE("/:eventID/guests/:guestID", guestHandler.Delete)
		events.POST("/:eventID/guests/:guestID/share", guestHandler.Share)
		events.POST("/:eventID/guests/:guestID/check-in", guestHandler.CheckIn)

		// Seating
		events.POST("/:eventID/tables", seatingHandler.CreateTable)
		events.GET("/:eventID/tables", seatingHandler.ListTables)
		events.PUT("/:eventID/tables/:tableID", seatingHandler.UpdateTable)
		events.DELETE("/:eventID/tables/:tableID", seatingHandler.DeleteTable)
		events.POST("/:eventID/seating/assign", seatingHandler.Assign)

		// Souvenirs
		events.POST("/:eventID/souvenirs", souvenirHandler.Create)
		events.GET("/:eventID/souvenirs", souvenirHandler.List)
		events.PUT("/:eventID/souvenirs/:souvenirID", souvenirHandler.Update)
		events.DELETE("/:eventID/souvenirs/:souvenirID", souvenirHandler.Delete)
		events.POST("/:eventID/souvenirs/:souvenirID/redeem", souvenirHandler.Redeem)

		// Audit trail; the handler has no gate of its own.
		events.GET("/:eventID/audit-logs",
			middleware.RequirePermission(rbacSvc, rbac.ResourceEventSettings, rbac.ActionView),
			auditHandler.GetEventAuditLogs)
	}
}
