package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"prompt-manager/internal/application/services"
	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/infrastructure/config"
	"prompt-manager/internal/infrastructure/database"
	"prompt-manager/internal/infrastructure/logger"
	infraRepos "prompt-manager/internal/infrastructure/repositories"

	"github.com/gin-gonic/gin"
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

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(engine *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestIDMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestIDMiddleware())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextKeyRequestID))
	})

	t.Run("生成请求ID", func(t *testing.T) {
		w := perform(engine, http.MethodGet, "/", nil)
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())
	})

	t.Run("透传请求ID", func(t *testing.T) {
		w := perform(engine, http.MethodGet, "/", map[string]string{RequestIDHeader: "abc"})
		assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
	})
}

func TestCORSMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(CORSMiddleware([]string{"https://app.example.com"}))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("允许的来源", func(t *testing.T) {
		w := perform(engine, http.MethodGet, "/", map[string]string{"Origin": "https://app.example.com"})
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("其他来源不设置头", func(t *testing.T) {
		w := perform(engine, http.MethodGet, "/", map[string]string{"Origin": "https://evil.example.com"})
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("预检请求", func(t *testing.T) {
		w := perform(engine, http.MethodOptions, "/", map[string]string{"Origin": "https://app.example.com"})
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(RecoveryMiddleware(&MockLogger{}))
	engine.GET("/", func(c *gin.Context) { panic("boom") })

	w := perform(engine, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestTimeoutMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(TimeoutMiddleware(10 * time.Millisecond))
	engine.GET("/", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})

	w := perform(engine, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestSecurityMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(SecurityMiddleware())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(engine, http.MethodGet, "/", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

type authFixture struct {
	engine *gin.Engine
	jwt    services.JWTService
	repos  *infraRepos.RepositoryFactory
	user   *entities.User
	admin  *entities.User
}

func newAuthFixture(t *testing.T) *authFixture {
	db, err := database.NewGormDB(config.DatabaseConfig{
		Driver:       database.DriverSQLite,
		SQLitePath:   ":memory:",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	}, &MockLogger{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	repos := infraRepos.NewRepositoryFactory(db)

	ctx := context.Background()
	admin := &entities.User{Username: "admin", Email: "admin@example.com", PasswordHash: "x", IsAdmin: true}
	user := &entities.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, repos.UserRepository().Create(ctx, admin))
	require.NoError(t, repos.UserRepository().Create(ctx, user))

	jwtService := services.NewJWTService(&config.JWTConfig{
		Secret:          "middleware-test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "prompt-manager",
		Audience:        "prompt-manager-users",
	})
	auth := NewAuthMiddleware(jwtService, repos.UserRepository(), &MockLogger{})

	engine := gin.New()
	whoami := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "is_admin": IsAdmin(c)})
	}
	engine.GET("/private", auth.RequireAuth(), whoami)
	engine.GET("/optional", auth.OptionalAuth(), whoami)
	engine.GET("/admin", auth.RequireAuth(), auth.RequireAdmin(), whoami)

	return &authFixture{engine: engine, jwt: jwtService, repos: repos, user: user, admin: admin}
}

func (f *authFixture) bearer(t *testing.T, user *entities.User) map[string]string {
	access, refresh, err := f.jwt.GenerateTokens(context.Background(), user)
	require.NoError(t, err)
	require.NotEmpty(t, refresh)
	return map[string]string{"Authorization": "Bearer " + access}
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("缺少令牌", func(t *testing.T) {
		f := newAuthFixture(t)
		w := perform(f.engine, http.MethodGet, "/private", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("无效令牌", func(t *testing.T) {
		f := newAuthFixture(t)
		w := perform(f.engine, http.MethodGet, "/private", map[string]string{"Authorization": "Bearer nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("有效令牌", func(t *testing.T) {
		f := newAuthFixture(t)
		w := perform(f.engine, http.MethodGet, "/private", f.bearer(t, f.user))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id": 2, "is_admin": false}`, w.Body.String())
	})

	t.Run("封禁用户立即失效", func(t *testing.T) {
		f := newAuthFixture(t)
		headers := f.bearer(t, f.user)
		require.NoError(t, f.repos.UserRepository().SetBanned(context.Background(), f.user.ID, true))

		w := perform(f.engine, http.MethodGet, "/private", headers)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "ACCOUNT_BANNED")
	})

	t.Run("已删除用户", func(t *testing.T) {
		f := newAuthFixture(t)
		headers := f.bearer(t, f.user)
		require.NoError(t, f.repos.UserRepository().Delete(context.Background(), f.user.ID))

		w := perform(f.engine, http.MethodGet, "/private", headers)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("可选认证", func(t *testing.T) {
		f := newAuthFixture(t)

		anon := perform(f.engine, http.MethodGet, "/optional", nil)
		assert.JSONEq(t, `{"user_id": 0, "is_admin": false}`, anon.Body.String())

		bad := perform(f.engine, http.MethodGet, "/optional", map[string]string{"Authorization": "Bearer nope"})
		assert.Equal(t, http.StatusOK, bad.Code)

		authed := perform(f.engine, http.MethodGet, "/optional", f.bearer(t, f.user))
		assert.JSONEq(t, `{"user_id": 2, "is_admin": false}`, authed.Body.String())
	})

	t.Run("管理员接口", func(t *testing.T) {
		f := newAuthFixture(t)

		w := perform(f.engine, http.MethodGet, "/admin", f.bearer(t, f.user))
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = perform(f.engine, http.MethodGet, "/admin", f.bearer(t, f.admin))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("超过突发量返回429", func(t *testing.T) {
		m := NewRateLimitMiddleware(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 2}, &MockLogger{})
		engine := gin.New()
		engine.Use(m.Global())
		engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		assert.Equal(t, http.StatusOK, perform(engine, http.MethodGet, "/", nil).Code)
		assert.Equal(t, http.StatusOK, perform(engine, http.MethodGet, "/", nil).Code)

		w := perform(engine, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "1", w.Header().Get("Retry-After"))
	})

	t.Run("未启用时不限流", func(t *testing.T) {
		m := NewRateLimitMiddleware(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1, Burst: 1}, &MockLogger{})
		engine := gin.New()
		engine.Use(m.Global())
		engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, perform(engine, http.MethodGet, "/", nil).Code)
		}
	})

	t.Run("按用户分别计数", func(t *testing.T) {
		m := NewRateLimitMiddleware(&config.RateLimitConfig{Enabled: true, AIRequestsPerHour: 1}, &MockLogger{})
		engine := gin.New()
		engine.Use(func(c *gin.Context) {
			if c.GetHeader("X-User") == "2" {
				c.Set(ContextKeyUserID, int64(2))
			} else {
				c.Set(ContextKeyUserID, int64(1))
			}
			c.Next()
		})
		engine.POST("/ai", m.AIGeneration(), func(c *gin.Context) { c.Status(http.StatusOK) })

		assert.Equal(t, http.StatusOK, perform(engine, http.MethodPost, "/ai", nil).Code)
		assert.Equal(t, http.StatusTooManyRequests, perform(engine, http.MethodPost, "/ai", nil).Code)
		assert.Equal(t, http.StatusOK, perform(engine, http.MethodPost, "/ai", map[string]string{"X-User": "2"}).Code)
	})
}

func TestLimiterStore_Sweep(t *testing.T) {
	now := time.Now()
	store := newLimiterStore(1, 1)
	store.now = func() time.Time { return now }

	ok, _ := store.reserve("a")
	require.True(t, ok)
	assert.Len(t, store.entries, 1)

	now = now.Add(limiterIdleTTL + time.Minute)
	ok, _ = store.reserve("b")
	require.True(t, ok)
	assert.Len(t, store.entries, 1)
	assert.Contains(t, store.entries, "b")
}
