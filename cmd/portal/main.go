package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"docuchat/internal/api"
	"docuchat/internal/config"
	milvusdb "docuchat/internal/database/milvus"
	miniodb "docuchat/internal/database/minio"
	"docuchat/internal/database/mysql"
	redisdb "docuchat/internal/database/redis"
	"docuchat/internal/embedding"
	"docuchat/internal/llm"
	"docuchat/internal/lock"
	"docuchat/internal/portal"
	"docuchat/internal/registry"
	"docuchat/internal/staging"
	"docuchat/pkg/logger"
)

const buildLeaseTTL = 30 * time.Minute

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logger.Level)
	appLogger := logger.New("portal")
	appLogger.Info("Starting document portal...")

	ctx := context.Background()

	// Registry
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	reg, err := registry.New(db)
	if err != nil {
		log.Fatalf("Failed to migrate registry tables: %v", err)
	}

	// Build lease
	rdb, err := redisdb.GetClient(&cfg.Databases.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	buildLock := lock.NewBuildLock(rdb, buildLeaseTTL)

	// Staging
	var stagingStore staging.Store
	if cfg.Databases.MinIO.Enabled {
		mc, err := miniodb.GetClient(ctx, &cfg.Databases.MinIO)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		stagingStore, err = staging.NewMinioStore(mc, cfg.Databases.MinIO.Bucket, "data/staging")
		if err != nil {
			log.Fatalf("Failed to create staging store: %v", err)
		}
	} else {
		stagingStore, err = staging.NewLocalStore("data/staging")
		if err != nil {
			log.Fatalf("Failed to create staging directory: %v", err)
		}
	}

	// Optional Milvus backend
	var milvusClient *milvusdb.Client
	if cfg.RAG.VectorStore == "milvus" {
		milvusClient, err = milvusdb.GetClient(ctx, &cfg.Databases.Milvus)
		if err != nil {
			log.Fatalf("Failed to connect to Milvus: %v", err)
		}
	}

	// Providers
	embedder, err := embedding.New(&cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}
	generator, err := llm.New(&cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create llm client: %v", err)
	}
	appLogger.Info(fmt.Sprintf("Embedding space: %s", embedder.Fingerprint()))

	service, err := portal.NewService(portal.Options{
		Config:   cfg,
		Registry: reg,
		Lock:     buildLock,
		Staging:  stagingStore,
		Embedder: embedder,
		LLM:      generator,
		Milvus:   milvusClient,
		Log:      appLogger,
	})
	if err != nil {
		log.Fatalf("Failed to create portal service: %v", err)
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(service, cfg.Server.MaxUploadBytes)
	router := api.SetupRouter(handler, cfg, appLogger)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(fmt.Sprintf("Forced shutdown: %v", err))
	}

	if err := mysql.Close(); err != nil {
		appLogger.Warn(fmt.Sprintf("Failed to close MySQL connection: %v", err))
	}
	if err := redisdb.Close(); err != nil {
		appLogger.Warn(fmt.Sprintf("Failed to close Redis connection: %v", err))
	}
	if milvusClient != nil {
		milvusClient.Close()
	}
	appLogger.Info("Server gracefully stopped")
}
