package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/application/services"
	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/infrastructure/logger"
	"prompt-manager/internal/infrastructure/storage"
	"prompt-manager/internal/presentation/middleware"

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

// MockAIConfigService AI配置服务mock
type MockAIConfigService struct {
	mock.Mock
}

func (m *MockAIConfigService) GetConfig(ctx context.Context, userID int64) (*dto.AIConfigResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AIConfigResponse), args.Error(1)
}

func (m *MockAIConfigService) SaveConfig(ctx context.Context, userID int64, req *dto.UpdateAIConfigRequest) (*dto.AIConfigResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AIConfigResponse), args.Error(1)
}

func (m *MockAIConfigService) GenerateMetadata(ctx context.Context, userID int64, content string) (*dto.GeneratedMetadata, error) {
	args := m.Called(ctx, userID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.GeneratedMetadata), args.Error(1)
}

func (m *MockAIConfigService) TestConnection(ctx context.Context, userID int64, req *dto.TestConnectionRequest) (*dto.TestConnectionResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TestConnectionResponse), args.Error(1)
}

// MockPromptService 提示词服务mock
type MockPromptService struct {
	mock.Mock
}

func (m *MockPromptService) Create(ctx context.Context, userID int64, req *dto.CreatePromptRequest) (*dto.PromptResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PromptResponse), args.Error(1)
}

func (m *MockPromptService) Get(ctx context.Context, id, viewerID int64) (*dto.PromptResponse, error) {
	args := m.Called(ctx, id, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PromptResponse), args.Error(1)
}

func (m *MockPromptService) Update(ctx context.Context, id, userID int64, req *dto.UpdatePromptRequest) (*dto.PromptResponse, error) {
	args := m.Called(ctx, id, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PromptResponse), args.Error(1)
}

func (m *MockPromptService) Delete(ctx context.Context, id, userID int64, isAdmin bool) error {
	return m.Called(ctx, id, userID, isAdmin).Error(0)
}

func (m *MockPromptService) ListMine(ctx context.Context, userID int64, page int) (*dto.PromptListResponse, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PromptListResponse), args.Error(1)
}

func (m *MockPromptService) ListPublic(ctx context.Context, page int, query, tag string) (*dto.PromptListResponse, error) {
	args := m.Called(ctx, page, query, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PromptListResponse), args.Error(1)
}

func (m *MockPromptService) ToggleFavorite(ctx context.Context, id, userID int64) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPromptService) Share(ctx context.Context, id, viewerID int64) (*dto.ShareResponse, error) {
	args := m.Called(ctx, id, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ShareResponse), args.Error(1)
}

func (m *MockPromptService) UploadCover(ctx context.Context, id, userID int64, filename, contentType string, content io.Reader) (*dto.UploadResponse, error) {
	args := m.Called(ctx, id, userID, filename, contentType, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UploadResponse), args.Error(1)
}

func (m *MockPromptService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.StatsResponse), args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser 模拟认证中间件写入的用户信息
func asUser(id int64, isAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, id)
		c.Set(middleware.ContextKeyIsAdmin, isAdmin)
		c.Next()
	}
}

func doJSON(engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"提示词不存在", entities.ErrPromptNotFound, http.StatusNotFound, "PROMPT_NOT_FOUND"},
		{"包装后的错误仍可识别", fmt.Errorf("lookup: %w", entities.ErrUserNotFound), http.StatusNotFound, "USER_NOT_FOUND"},
		{"用户名冲突", entities.ErrUsernameTaken, http.StatusConflict, "USERNAME_TAKEN"},
		{"凭证错误", entities.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"封禁", entities.ErrUserBanned, http.StatusForbidden, "ACCOUNT_BANNED"},
		{"无权限", entities.ErrPermissionDenied, http.StatusForbidden, "PERMISSION_DENIED"},
		{"邀请码无效", entities.ErrInvalidInviteCode, http.StatusBadRequest, "INVALID_INVITE_CODE"},
		{"文件过大", storage.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{"凭证无法解密", services.ErrCredentialUnreadable, http.StatusInternalServerError, "CREDENTIAL_UNREADABLE"},
		{"元数据校验失败", &services.MetadataError{Kind: services.MetadataErrorValidation, Err: services.ErrNoTags}, http.StatusBadRequest, "METADATA_INVALID"},
		{"元数据生成失败", &services.MetadataError{Kind: services.MetadataErrorService, Err: services.ErrMetadataFormat}, http.StatusInternalServerError, "METADATA_FAILED"},
		{"未知错误", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, &MockLogger{}, tc.err, "test")

			assert.Equal(t, tc.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}

	t.Run("未知错误不泄露内部信息", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondError(c, &MockLogger{}, errors.New("password=secret"), "test")
		assert.NotContains(t, w.Body.String(), "secret")
	})
}

func TestParseParams(t *testing.T) {
	engine := gin.New()
	engine.GET("/items/:id", func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "page": parsePage(c)})
	})

	t.Run("合法ID和页码", func(t *testing.T) {
		w := doJSON(engine, http.MethodGet, "/items/42?page=3", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":42,"page":3}`, w.Body.String())
	})

	t.Run("非法页码按第一页处理", func(t *testing.T) {
		for _, page := range []string{"0", "-2", "abc"} {
			w := doJSON(engine, http.MethodGet, "/items/1?page="+page, nil)
			assert.JSONEq(t, `{"id":1,"page":1}`, w.Body.String())
		}
	})

	t.Run("非法ID", func(t *testing.T) {
		for _, id := range []string{"abc", "0", "-1"} {
			w := doJSON(engine, http.MethodGet, "/items/"+id, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "INVALID_ID")
		}
	})
}

func TestHealthHandler(t *testing.T) {
	ok := PingFunc(func(ctx context.Context) error { return nil })
	down := PingFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	run := func(h *HealthHandler) (int, map[string]interface{}) {
		engine := gin.New()
		engine.GET("/health", h.Health)
		w := doJSON(engine, http.MethodGet, "/health", nil)
		var body map[string]interface{}
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		return w.Code, body
	}

	t.Run("未启用缓存", func(t *testing.T) {
		status, body := run(NewHealthHandler(ok, nil, &MockLogger{}))
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "disabled", body["cache"])
	})

	t.Run("数据库不可用", func(t *testing.T) {
		status, body := run(NewHealthHandler(down, ok, &MockLogger{}))
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "unavailable", body["database"])
		assert.Equal(t, "ok", body["cache"])
	})

	t.Run("缓存不可用不影响状态码", func(t *testing.T) {
		status, body := run(NewHealthHandler(ok, down, &MockLogger{}))
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "unavailable", body["cache"])
	})
}

func TestAIHandler(t *testing.T) {
	setup := func() (*gin.Engine, *MockAIConfigService) {
		svc := &MockAIConfigService{}
		h := NewAIHandler(svc, &MockLogger{})
		engine := gin.New()
		engine.Use(asUser(7, false))
		engine.GET("/ai/config", h.GetConfig)
		engine.PUT("/ai/config", h.SaveConfig)
		engine.POST("/ai/generate-metadata", h.GenerateMetadata)
		engine.POST("/ai/test-connection", h.TestConnection)
		return engine, svc
	}

	t.Run("获取配置", func(t *testing.T) {
		engine, svc := setup()
		svc.On("GetConfig", mock.Anything, int64(7)).Return(&dto.AIConfigResponse{Provider: "openai", TagCount: 5}, nil)

		w := doJSON(engine, http.MethodGet, "/ai/config", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"provider":"openai"`)
		assert.NotContains(t, w.Body.String(), `"api_key"`)
		svc.AssertExpectations(t)
	})

	t.Run("保存配置缺少Key", func(t *testing.T) {
		engine, svc := setup()
		svc.On("SaveConfig", mock.Anything, int64(7), mock.AnythingOfType("*dto.UpdateAIConfigRequest")).
			Return(nil, entities.ErrAPIKeyRequired)

		w := doJSON(engine, http.MethodPut, "/ai/config", map[string]interface{}{"provider": "openai"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "API_KEY_REQUIRED")
	})

	t.Run("生成元数据", func(t *testing.T) {
		engine, svc := setup()
		svc.On("GenerateMetadata", mock.Anything, int64(7), "写一首诗").
			Return(&dto.GeneratedMetadata{Title: "诗歌", Description: "写诗", Tags: []string{"写作"}}, nil)

		w := doJSON(engine, http.MethodPost, "/ai/generate-metadata", map[string]string{"content": "写一首诗"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"title":"诗歌"`)
	})

	t.Run("元数据校验错误返回400", func(t *testing.T) {
		engine, svc := setup()
		svc.On("GenerateMetadata", mock.Anything, int64(7), "").
			Return(nil, &services.MetadataError{Kind: services.MetadataErrorValidation, Err: services.ErrEmptyContent})

		w := doJSON(engine, http.MethodPost, "/ai/generate-metadata", map[string]string{"content": ""})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "METADATA_INVALID")
	})

	t.Run("AI未启用", func(t *testing.T) {
		engine, svc := setup()
		svc.On("GenerateMetadata", mock.Anything, int64(7), "x").Return(nil, entities.ErrAIConfigDisabled)

		w := doJSON(engine, http.MethodPost, "/ai/generate-metadata", map[string]string{"content": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "AI_NOT_CONFIGURED")
	})

	t.Run("测试连接允许空请求体", func(t *testing.T) {
		engine, svc := setup()
		svc.On("TestConnection", mock.Anything, int64(7), &dto.TestConnectionRequest{}).
			Return(&dto.TestConnectionResponse{Success: false, Message: "连接失败，请检查 API Key 和配置"}, nil)

		w := doJSON(engine, http.MethodPost, "/ai/test-connection", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":false`)
		svc.AssertExpectations(t)
	})
}

func TestPromptHandler(t *testing.T) {
	setup := func(userID int64, isAdmin bool) (*gin.Engine, *MockPromptService) {
		svc := &MockPromptService{}
		h := NewPromptHandler(svc, nil, &MockLogger{})
		engine := gin.New()
		engine.Use(asUser(userID, isAdmin))
		engine.POST("/prompts", h.Create)
		engine.GET("/prompts", h.ListPublic)
		engine.DELETE("/prompts/:id", h.Delete)
		engine.POST("/prompts/:id/favorite", h.ToggleFavorite)
		engine.POST("/prompts/:id/cover", h.UploadCover)
		return engine, svc
	}

	t.Run("创建返回201", func(t *testing.T) {
		engine, svc := setup(3, false)
		svc.On("Create", mock.Anything, int64(3), mock.AnythingOfType("*dto.CreatePromptRequest")).
			Return(&dto.PromptResponse{ID: 10, Title: "t"}, nil)

		w := doJSON(engine, http.MethodPost, "/prompts", map[string]interface{}{"title": "t", "content": "c"})
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"id":10`)
	})

	t.Run("请求体格式错误", func(t *testing.T) {
		engine, _ := setup(3, false)
		req := httptest.NewRequest(http.MethodPost, "/prompts", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
	})

	t.Run("列表透传查询参数", func(t *testing.T) {
		engine, svc := setup(0, false)
		svc.On("ListPublic", mock.Anything, 2, "诗", "写作").
			Return(&dto.PromptListResponse{Items: []dto.PromptResponse{}, CurrentPage: 2}, nil)

		w := doJSON(engine, http.MethodGet, "/prompts?page=2&q=%E8%AF%97&tag=%E5%86%99%E4%BD%9C", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("管理员删除", func(t *testing.T) {
		engine, svc := setup(1, true)
		svc.On("Delete", mock.Anything, int64(5), int64(1), true).Return(nil)

		w := doJSON(engine, http.MethodDelete, "/prompts/5", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("非作者删除", func(t *testing.T) {
		engine, svc := setup(2, false)
		svc.On("Delete", mock.Anything, int64(5), int64(2), false).Return(entities.ErrPermissionDenied)

		w := doJSON(engine, http.MethodDelete, "/prompts/5", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("切换收藏", func(t *testing.T) {
		engine, svc := setup(2, false)
		svc.On("ToggleFavorite", mock.Anything, int64(5), int64(2)).Return(true, nil)

		w := doJSON(engine, http.MethodPost, "/prompts/5/favorite", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"favorited":true`)
	})

	t.Run("上传封面缺少文件", func(t *testing.T) {
		engine, _ := setup(2, false)
		w := doJSON(engine, http.MethodPost, "/prompts/5/cover", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "MISSING_FILE")
	})
}
