package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"pptxtrans/internal/config"
	"pptxtrans/internal/db"
	"pptxtrans/internal/handler"
	transport "pptxtrans/internal/http"
	"pptxtrans/internal/logger"
	"pptxtrans/internal/network"
	"pptxtrans/internal/repository"
	"pptxtrans/internal/scheduler"
	"pptxtrans/internal/service"
	"pptxtrans/internal/snowflake"
	"pptxtrans/internal/storage"
	"pptxtrans/internal/translate"
)

// @title PPTX Translator Pro API
// @version 1.0
// @description Translate PowerPoint presentations into multiple languages
// @BasePath /api
func main() {
	cfg := config.Load()
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	if err := snowflake.Init(cfg.SnowflakeNode); err != nil {
		log.Fatalf("init snowflake: %v", err)
	}

	dbConn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer dbConn.Close()

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("init storage: %v", err)
	}

	jobRepo := repository.NewJobRepository(dbConn)
	resultRepo := repository.NewResultRepository(dbConn)
	cacheRepo := repository.NewTranslationCacheRepository(dbConn)
	settingsRepo := repository.NewSettingsRepository(dbConn)

	limiter := translate.NewRateLimiter(storedQPS(settingsRepo))
	settingsService := service.NewSettingsService(settingsRepo, cacheRepo, limiter)
	clientFactory := network.NewClientFactory(settingsService)
	engineFactory := service.NewEngineFactory(settingsRepo, clientFactory, cfg.CredentialsFile)

	jobService := service.NewJobService(jobRepo, resultRepo, cacheRepo, store, engineFactory, limiter, cfg.JobTTL)
	importService := service.NewImportService(jobRepo, resultRepo, store, engineFactory)

	jobHandler := handler.NewJobHandler(jobService, cfg.MaxUploadBytes)
	importHandler := handler.NewImportHandler(importService)
	languageHandler := handler.NewLanguageHandler()
	settingsHandler := handler.NewSettingsHandler(settingsService)

	router := transport.NewRouter(jobHandler, importHandler, languageHandler, settingsHandler, cfg.StaticDir)

	sched := scheduler.New(jobService, cfg.CleanupInterval)
	sched.Start()

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("shutting down...")
		sched.Stop()
		jobService.Shutdown()
		os.Exit(0)
	}()

	if err := router.Start(cfg.Addr); err != nil {
		log.Fatalf("start server: %v", err)
	}
}

func storedQPS(settings repository.SettingsRepository) int {
	setting, err := settings.Get(context.Background(), service.KeyQPS)
	if err != nil || setting == nil {
		return translate.DefaultRateLimit
	}
	qps, err := strconv.Atoi(setting.Value)
	if err != nil || qps < 1 {
		return translate.DefaultRateLimit
	}
	return qps
}
