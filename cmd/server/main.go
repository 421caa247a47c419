package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"usercache-api/internal/config"
	"usercache-api/internal/database"
	"usercache-api/internal/models"
	"usercache-api/internal/realtime"
	"usercache-api/internal/routes"
	"usercache-api/internal/session"
	"usercache-api/internal/stores"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init database
	dbLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		dbLevel = gormlogger.Info
	}
	if err := database.InitDB(cfg.DBPath, dbLevel); err != nil {
		logger.Fatal("failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}

	hub := realtime.NewHub(logger)
	registry := stores.NewRegistry(stores.Options{
		Enabled:          cfg.Cache.Enabled,
		MinEngineVersion: cfg.Cache.MinEngineVersion,
		SweepInterval:    cfg.Cache.SweepInterval,
		Notifier:         hub,
		Logger:           logger,
	})
	defer registry.Close()

	if _, err := database.EnsureStoreInstance(database.GetDB(), models.StoreInstance{
		Name:              cfg.Cache.DefaultStore,
		DefaultTTLSeconds: int64(cfg.Cache.DefaultTTL.Seconds()),
		MaxEntries:        cfg.Cache.MaxEntries,
		Enabled:           true,
	}); err != nil {
		logger.Fatal("failed to seed default store", zap.Error(err))
	}
	loaded, err := registry.LoadAll(database.GetDB())
	if err != nil {
		logger.Fatal("failed to load stores", zap.Error(err))
	}
	logger.Info("stores loaded", zap.Int("count", loaded), zap.Strings("names", registry.Names()))

	sessions, err := session.New(session.Config{
		Enabled:     cfg.Cache.Enabled,
		Timeout:     cfg.Session.Timeout,
		MaxSessions: cfg.Session.MaxSessions,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("session store unavailable", zap.Error(err))
	}
	defer sessions.Close()
	sessions.StartGC(ctx, cfg.Session.GCInterval)

	// Setup the routes (public and protected routes)
	ginRoutes := routes.SetupRoutes(routes.Deps{
		Registry: registry,
		Sessions: sessions,
		Hub:      hub,
		Logger:   logger,
	})

	port := ":" + cfg.Port
	logger.Info("server starting", zap.String("addr", port), zap.String("env", cfg.Env))

	errCh := make(chan error, 1)
	go func() { errCh <- ginRoutes.Run(port) }()

	select {
	case err := <-errCh:
		logger.Error("server stopped", zap.Error(err))
	case <-ctx.Done():
		logger.Info("shutting down")
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
