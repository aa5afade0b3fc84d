package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/infrastructure/config"
	appLogger "prompt-manager/internal/infrastructure/logger"

	"github.com/avast/retry-go/v4"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	// 纯Go实现的SQLite驱动，注册为 "sqlite"
	_ "modernc.org/sqlite"
)

// 支持的数据库驱动
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// gormLogWriter 将GORM日志写入应用日志
type gormLogWriter struct {
	log appLogger.Logger
}

// Printf 实现 logger.Writer
func (w gormLogWriter) Printf(format string, args ...interface{}) {
	w.log.Infof(strings.TrimSpace(format), args...)
}

// NewGormDB 创建GORM数据库连接，启动阶段按配置重试
func NewGormDB(cfg config.DatabaseConfig, log appLogger.Logger) (*gorm.DB, error) {
	dialector, err := newDialector(cfg)
	if err != nil {
		return nil, err
	}

	// 配置GORM日志
	gormConfig := &gorm.Config{
		Logger: logger.New(
			gormLogWriter{log: log.WithField("component", "gorm")},
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  parseGormLogLevel(cfg.LogLevel),
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}

	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}

	var db *gorm.DB
	err = retry.Do(
		func() error {
			var openErr error
			db, openErr = gorm.Open(dialector, gormConfig)
			if openErr != nil {
				return openErr
			}
			return HealthCheck(db)
		},
		retry.Attempts(attempts),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.WithFields(map[string]interface{}{
				"attempt": n + 1,
				"driver":  cfg.Driver,
				"error":   err.Error(),
			}).Warn("Database connection failed, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 获取底层sql.DB对象进行连接池配置
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// newDialector 根据驱动创建方言
func newDialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
			cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode, cfg.TimeZone)
		return postgres.Open(dsn), nil
	case DriverSQLite:
		dsn, err := sqliteDSN(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// sqliteDSN 构造SQLite连接串，文件数据库会先创建所在目录
func sqliteDSN(path string) (string, error) {
	const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		return "file::memory:?" + pragmas, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}
	return fmt.Sprintf("file:%s?%s", path, pragmas), nil
}

func parseGormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Models 需要迁移的模型
func Models() []interface{} {
	return []interface{}{
		&entities.User{},
		&entities.InviteCode{},
		&entities.Tag{},
		&entities.Prompt{},
		&entities.Favorite{},
		&entities.AIConfig{},
	}
}

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}
	return nil
}

// InitializeDatabase 初始化数据库（迁移+索引）
func InitializeDatabase(db *gorm.DB, log appLogger.Logger) error {
	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}

	// 性能索引创建失败不阻止启动
	if err := CreatePerformanceIndexes(db, log); err != nil {
		log.WithField("error", err.Error()).Warn("Failed to create performance indexes, continuing with startup")
	}

	return nil
}

// HealthCheck 数据库健康检查
func HealthCheck(db *gorm.DB) error {
	return Ping(context.Background(), db)
}

// Ping 带超时控制的连通性检查
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// Close 关闭数据库连接
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// GetDBStats 获取数据库连接池统计信息
func GetDBStats(db *gorm.DB) (map[string]interface{}, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	return map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration.String(),
	}, nil
}

// ConnectionKeepAliveService 数据库连接保活服务
type ConnectionKeepAliveService struct {
	db       *gorm.DB
	logger   appLogger.Logger
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewConnectionKeepAliveService 创建数据库连接保活服务
func NewConnectionKeepAliveService(db *gorm.DB, logger appLogger.Logger, interval time.Duration) *ConnectionKeepAliveService {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ConnectionKeepAliveService{
		db:       db,
		logger:   logger,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start 启动连接保活服务
func (s *ConnectionKeepAliveService) Start() {
	s.wg.Add(1)
	go s.keepAliveLoop()
	s.logger.WithField("interval", s.interval.String()).Info("Database connection keep-alive service started")
}

// Stop 停止连接保活服务
func (s *ConnectionKeepAliveService) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Database connection keep-alive service stopped")
}

// keepAliveLoop 保活循环
func (s *ConnectionKeepAliveService) keepAliveLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			var result int
			if err := s.db.WithContext(s.ctx).Raw("SELECT 1").Scan(&result).Error; err != nil && s.ctx.Err() == nil {
				s.logger.WithField("error", err.Error()).Error("Database keep-alive query failed")
				continue
			}
			if stats, err := GetDBStats(s.db); err == nil {
				s.logger.WithFields(stats).Debug("Database pool stats")
			}
		}
	}
}
