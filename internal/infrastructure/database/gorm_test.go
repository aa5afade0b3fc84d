package database

import (
	"path/filepath"
	"testing"

	"prompt-manager/internal/infrastructure/config"
	"prompt-manager/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLogger 用于测试的mock logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(args ...interface{})                 {}
func (m *MockLogger) Debugf(format string, args ...interface{}) {}
func (m *MockLogger) Info(args ...interface{})                  {}
func (m *MockLogger) Infof(format string, args ...interface{})  {}
func (m *MockLogger) Warn(args ...interface{})                  {}
func (m *MockLogger) Warnf(format string, args ...interface{})  {}
func (m *MockLogger) Error(args ...interface{})                 {}
func (m *MockLogger) Errorf(format string, args ...interface{}) {}
func (m *MockLogger) Fatal(args ...interface{})                 {}
func (m *MockLogger) Fatalf(format string, args ...interface{}) {}
func (m *MockLogger) WithField(key string, value interface{}) logger.Logger {
	return m
}
func (m *MockLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return m
}

func TestNewGormDB(t *testing.T) {
	t.Run("SQLite文件数据库应该完成迁移和索引", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "prompts.db")
		db, err := NewGormDB(config.DatabaseConfig{
			Driver:          DriverSQLite,
			SQLitePath:      path,
			ConnectAttempts: 1,
			LogLevel:        "silent",
		}, &MockLogger{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = Close(db) })

		require.NoError(t, InitializeDatabase(db, &MockLogger{}))
		assert.NoError(t, HealthCheck(db))

		for _, table := range []string{"users", "invite_codes", "prompts", "tags", "tags_prompts", "favorites", "ai_configs"} {
			assert.True(t, db.Migrator().HasTable(table), table)
		}

		exists, err := indexExists(db, "idx_prompts_public_ranking")
		require.NoError(t, err)
		assert.True(t, exists)

		stats, err := GetDBStats(db)
		require.NoError(t, err)
		assert.Contains(t, stats, "open_connections")
	})

	t.Run("重复初始化应该幂等", func(t *testing.T) {
		db, err := NewGormDB(config.DatabaseConfig{
			Driver:       DriverSQLite,
			SQLitePath:   ":memory:",
			MaxOpenConns: 1,
			LogLevel:     "silent",
		}, &MockLogger{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = Close(db) })

		require.NoError(t, InitializeDatabase(db, &MockLogger{}))
		assert.NoError(t, InitializeDatabase(db, &MockLogger{}))
	})

	t.Run("不支持的驱动应该报错", func(t *testing.T) {
		_, err := NewGormDB(config.DatabaseConfig{Driver: "mysql"}, &MockLogger{})

		assert.ErrorContains(t, err, "unsupported database driver")
	})
}

func TestBuildCreateIndexSQL(t *testing.T) {
	info := IndexInfo{
		Name:       "idx_test",
		Table:      "prompts",
		Columns:    []string{"user_id", "created_at DESC"},
		Condition:  "is_public = true",
		Concurrent: true,
	}

	t.Run("PostgreSQL使用CONCURRENTLY", func(t *testing.T) {
		assert.Equal(t,
			"CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_test ON prompts (user_id, created_at DESC) WHERE is_public = true",
			buildCreateIndexSQL(info, true))
	})

	t.Run("SQLite不使用CONCURRENTLY", func(t *testing.T) {
		assert.Equal(t,
			"CREATE INDEX IF NOT EXISTS idx_test ON prompts (user_id, created_at DESC) WHERE is_public = true",
			buildCreateIndexSQL(info, false))
	})
}

func TestParseGormLogLevel(t *testing.T) {
	assert.NotEqual(t, parseGormLogLevel("silent"), parseGormLogLevel("info"))
	assert.Equal(t, parseGormLogLevel("unknown"), parseGormLogLevel("warn"))
}
