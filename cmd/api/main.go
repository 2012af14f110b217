package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/formpilot/formpilot/internal/config"
	"github.com/formpilot/formpilot/internal/database"
	"github.com/formpilot/formpilot/internal/logger"
	"github.com/formpilot/formpilot/internal/server"
	"github.com/formpilot/formpilot/internal/services"
	"github.com/formpilot/formpilot/internal/version"
)

func main() {
	// Setup logging with rotation
	logDir := filepath.Join("data", "logs")
	_ = os.MkdirAll(logDir, 0755)

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "formpilot.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Log to both stdout and file
	mw := io.MultiWriter(os.Stdout, rotator)
	logger.Init(cfg.Environment == "development", mw)

	logger.Log().Infof("starting %s %s", version.Name, version.Full())

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	srv, err := server.New(db, cfg)
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	maintenance := services.NewMaintenanceService(db, services.NewImageService(db, cfg.ImageQuotaBytes), cfg.FillRunRetention)
	if err := maintenance.Start(); err != nil {
		logger.Log().WithError(err).Warn("failed to start maintenance schedule")
	}
	defer maintenance.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log().Infof("listening on :%s", cfg.HTTPPort)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
