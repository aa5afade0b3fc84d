package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/infrastructure/clients"
	"prompt-manager/internal/infrastructure/config"
	"prompt-manager/internal/infrastructure/database"
	"prompt-manager/internal/infrastructure/logger"
	infraRepos "prompt-manager/internal/infrastructure/repositories"
	"prompt-manager/internal/infrastructure/storage"

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

// MockAIClient AI客户端mock
type MockAIClient struct {
	mock.Mock
}

func (m *MockAIClient) ChatCompletion(ctx context.Context, messages []clients.ChatMessage, overrides *clients.ChatOverrides) (*clients.ChatResponse, error) {
	args := m.Called(ctx, messages, overrides)
	if resp := args.Get(0); resp != nil {
		return resp.(*clients.ChatResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAIClient) TestConnection(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *MockAIClient) ExtractText(resp *clients.ChatResponse) string {
	return resp.Text()
}

func (m *MockAIClient) Provider() string {
	return "mock"
}

// chatReply 构造只有一条回复的响应
func chatReply(text string) *clients.ChatResponse {
	return &clients.ChatResponse{
		Provider: "mock",
		Choices:  []clients.ChatChoice{{Message: clients.ChatMessage{Role: clients.RoleAssistant, Content: text}}},
	}
}

// MockStorage 文件存储mock
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Save(ctx context.Context, folder, filename, contentType string, content io.Reader) (*storage.UploadResult, error) {
	args := m.Called(ctx, folder, filename, contentType, content)
	if res := args.Get(0); res != nil {
		return res.(*storage.UploadResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockStorage) Name() string {
	return "mock"
}

// fakeCipher 可逆的测试加密器
type fakeCipher struct {
	failDecrypt bool
}

func (c *fakeCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	return "enc:" + plaintext, nil
}

func (c *fakeCipher) Decrypt(ciphertext string) (string, error) {
	if c.failDecrypt {
		return "", errors.New("decryption failed")
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

// newTestRepos 基于内存SQLite创建仓储工厂
func newTestRepos(t *testing.T) *infraRepos.RepositoryFactory {
	t.Helper()
	db, err := database.NewGormDB(config.DatabaseConfig{
		Driver:       database.DriverSQLite,
		SQLitePath:   ":memory:",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	}, &MockLogger{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return infraRepos.NewRepositoryFactory(db)
}

func newTestJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		Secret:          "test-secret-key-for-unit-tests",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "prompt-manager",
		Audience:        "prompt-manager-users",
	}
}

// seedUser 直接写入用户，密码为password123
func seedUser(t *testing.T, repos *infraRepos.RepositoryFactory, username string, isAdmin bool) *entities.User {
	t.Helper()
	hash, err := hashPassword("password123")
	require.NoError(t, err)
	user := &entities.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	}
	require.NoError(t, repos.UserRepository().Create(context.Background(), user))
	return user
}

// seedInvite 写入一个未使用的邀请码
func seedInvite(t *testing.T, repos *infraRepos.RepositoryFactory, creatorID int64, code string) {
	t.Helper()
	err := repos.InviteCodeRepository().CreateBatch(context.Background(), []*entities.InviteCode{
		{Code: code, CreatorID: creatorID},
	})
	require.NoError(t, err)
}
