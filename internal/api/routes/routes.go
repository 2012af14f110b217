package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/api/handlers"
	"github.com/formpilot/formpilot/internal/api/middleware"
	"github.com/formpilot/formpilot/internal/config"
	"github.com/formpilot/formpilot/internal/metrics"
	"github.com/formpilot/formpilot/internal/models"
	"github.com/formpilot/formpilot/internal/services"
)

// Register wires up API routes and performs automatic migrations.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config) error {
	if err := db.AutoMigrate(
		&models.Rule{},
		&models.Collection{},
		&models.DefaultMapping{},
		&models.StoredImage{},
		&models.ImageQuota{},
		&models.FillRun{},
		&models.Setting{},
		&models.Notification{},
		&models.NotificationProvider{},
		&models.User{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Register(registry)

	router.GET("/api/v1/health", handlers.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	authService := services.NewAuthService(db, cfg)
	notificationService := services.NewNotificationService(db)
	imageService := services.NewImageService(db, cfg.ImageQuotaBytes)
	fillService := services.NewFillService(db, imageService, notificationService)

	api := router.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(authService)
	authHandler.RegisterPublicRoutes(api)

	protected := api.Group("")
	protected.Use(middleware.Auth(authService))

	authHandler.RegisterProtectedRoutes(protected)
	handlers.NewRuleHandler(db).RegisterRoutes(protected)
	handlers.NewDefaultMappingHandler(db).RegisterRoutes(protected)
	handlers.NewFillHandler(fillService, services.NewRuleService(db), services.NewDefaultMappingService(db)).RegisterRoutes(protected)
	handlers.NewExportHandler(db, notificationService).RegisterRoutes(protected)
	handlers.NewImageHandler(imageService).RegisterRoutes(protected)
	handlers.NewSettingsHandler(db).RegisterRoutes(protected)
	handlers.NewNotificationHandler(notificationService).RegisterRoutes(protected)

	return nil
}
