package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/danuartha/wedding-management-backend/config"
	"github.com/danuartha/wedding-management-backend/database"
	"github.com/danuartha/wedding-management-backend/internal/auditlog"
	"github.com/danuartha/wedding-management-backend/internal/auth"
	"github.com/danuartha/wedding-management-backend/internal/event"
	"github.com/danuartha/wedding-management-backend/internal/guest"
	"github.com/danuartha/wedding-management-backend/internal/rbac"
	"github.com/danuartha/wedding-management-backend/internal/seating"
	"github.com/danuartha/wedding-management-backend/internal/souvenir"
	"github.com/danuartha/wedding-management-backend/internal/subscription"
	"github.com/danuartha/wedding-management-backend/routes"
	"github.com/danuartha/wedding-management-backend/utils"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg)

	if err := utils.InitRedis(cfg); err != nil {
		log.Fatalf("redis init failed: %v", err)
	}
	utils.InitKafka(cfg)
	defer utils.CloseKafka()

	log.Println("running database migrations...")
	if err := db.AutoMigrate(
		&auth.User{},
		&auditlog.AuditLog{},
		&subscription.Subscription{},
		&subscription.PaymentRecord{},
		&event.Event{},
		&rbac.Permission{},
		&rbac.Role{},
		&rbac.StaffAssignment{},
		&guest.Guest{},
		&seating.Table{},
		&souvenir.Souvenir{},
	); err != nil {
		log.Fatalf("auto-migrate failed: %v", err)
	}

	// The permission catalog is global and fixed; seeding is idempotent.
	if err := rbac.SeedPermissions(db); err != nil {
		log.Fatalf("failed to seed permissions: %v", err)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Content-Length", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.Setup(router, cfg, db)

	log.Printf("server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
