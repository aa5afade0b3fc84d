package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"prompt-manager/internal/application/services"
	"prompt-manager/internal/infrastructure/cache"
	"prompt-manager/internal/infrastructure/config"
	"prompt-manager/internal/infrastructure/crypto"
	"prompt-manager/internal/infrastructure/database"
	"prompt-manager/internal/infrastructure/logger"
	"prompt-manager/internal/infrastructure/redis"
	"prompt-manager/internal/infrastructure/repositories"
	"prompt-manager/internal/infrastructure/storage"
	"prompt-manager/internal/presentation/handlers"
	"prompt-manager/internal/presentation/routes"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the prompt manager HTTP API.

The database schema is migrated on startup. Redis is used for caching
only when cache.enabled is set; a failed Redis connection is logged
and the server continues without cache.

Examples:
  server serve
  server serve --config ./configs/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	log.Info("Starting prompt manager")

	gormDB, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(gormDB); err != nil {
			log.WithField("error", err.Error()).Warn("Failed to close database")
		}
	}()

	keepAlive := database.NewConnectionKeepAliveService(gormDB, log, cfg.Database.KeepAliveInterval)
	keepAlive.Start()
	defer keepAlive.Stop()

	// 创建Redis工厂（可选）
	var redisFactory *redis.RedisFactory
	var cacheService *redis.CacheService
	if cfg.Cache.Enabled {
		redisFactory, err = redis.NewRedisFactory(cfg.Redis, log)
		if err != nil {
			log.WithFields(map[string]interface{}{
				"error": err.Error(),
			}).Warn("Failed to initialize Redis, continuing without cache")
			redisFactory = nil
		} else {
			cacheService = redisFactory.GetCacheService()
			defer redisFactory.Close()
		}
	}

	// 创建仓储工厂，有缓存时使用带缓存的版本
	var repoFactory *repositories.RepositoryFactory
	if cacheService != nil {
		repoFactory = repositories.NewRepositoryFactoryWithCache(gormDB, cacheService, cache.NewCacheTTLManager(cfg.Cache))
	} else {
		repoFactory = repositories.NewRepositoryFactory(gormDB)
	}

	store, err := storage.NewStorage(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.WithField("backend", store.Name()).Info("File storage ready")

	encryptor := crypto.NewEncryptor(cfg.Encryption, log.WithField("component", "crypto"))
	if source, err := encryptor.Source(); err != nil {
		return fmt.Errorf("failed to resolve encryption key: %w", err)
	} else if source == crypto.KeySourceDevelopment {
		log.Warn("AI_ENCRYPTION_KEY is not set, using development key")
	}

	serviceFactory, err := services.NewServiceFactory(repoFactory, store, encryptor, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create services: %w", err)
	}

	var cachePinger handlers.Pinger
	if cacheService != nil {
		cachePinger = cacheService
	}
	healthHandler := handlers.NewHealthHandler(
		handlers.PingFunc(func(ctx context.Context) error {
			return database.Ping(ctx, gormDB)
		}),
		cachePinger,
		log,
	)

	// 创建路由器
	router := routes.NewRouter(cfg, log, serviceFactory, healthHandler)
	router.SetupRoutes()

	// 创建HTTP服务器
	server := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("address", server.Addr).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	// 优雅关闭服务器
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithField("error", err.Error()).Error("Server forced to shutdown")
		return err
	}
	log.Info("Server shutdown complete")
	return nil
}

// openDatabase 连接数据库并执行迁移
func openDatabase(cfg *config.Config, log logger.Logger) (*gorm.DB, error) {
	gormDB, err := database.NewGormDB(cfg.Database, log)
	if err != nil {
		return nil, err
	}

	if err := database.InitializeDatabase(gormDB, log); err != nil {
		_ = database.Close(gormDB)
		return nil, fmt.Errorf("database initialization failed: %w", err)
	}

	log.WithField("driver", cfg.Database.Driver).Info("Database connection established")
	return gormDB, nil
}
