package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/infrastructure/clients"
	"prompt-manager/internal/infrastructure/config"
	infraRepos "prompt-manager/internal/infrastructure/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

type aiConfigFixture struct {
	repos   *infraRepos.RepositoryFactory
	cipher  *fakeCipher
	client  *MockAIClient
	built   []clients.ClientConfig
	svc     AIConfigService
	user    *entities.User
	factory ClientFactory
}

func newAIConfigFixture(t *testing.T) *aiConfigFixture {
	repos := newTestRepos(t)
	f := &aiConfigFixture{
		repos:  repos,
		cipher: &fakeCipher{},
		client: &MockAIClient{},
		user:   seedUser(t, repos, "alice", false),
	}
	f.factory = func(cfg clients.ClientConfig) (clients.AIClient, error) {
		if !clients.IsSupportedProvider(cfg.Provider) {
			return nil, clients.ErrUnsupportedProvider
		}
		f.built = append(f.built, cfg)
		return f.client, nil
	}

	metadata, err := NewMetadataService(&MockLogger{})
	require.NoError(t, err)

	f.svc = NewAIConfigService(
		repos.AIConfigRepository(),
		f.cipher,
		metadata,
		f.factory,
		config.AIConfig{
			DefaultProvider:    "openai",
			DefaultModel:       "gpt-3.5-turbo",
			RequestTimeout:     20 * time.Second,
			MaxContentLength:   10000,
			DescriptionMinimum: 100,
		},
		&MockLogger{},
	)
	return f
}

func (f *aiConfigFixture) save(t *testing.T, req *dto.UpdateAIConfigRequest) *dto.AIConfigResponse {
	t.Helper()
	resp, err := f.svc.SaveConfig(context.Background(), f.user.ID, req)
	require.NoError(t, err)
	return resp
}

func TestAIConfigService_Config(t *testing.T) {
	ctx := context.Background()

	t.Run("未配置时返回默认值", func(t *testing.T) {
		f := newAIConfigFixture(t)

		resp, err := f.svc.GetConfig(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, "openai", resp.Provider)
		assert.Equal(t, "gpt-3.5-turbo", resp.Model)
		assert.Equal(t, 0.7, resp.Temperature)
		assert.Equal(t, 500, resp.MaxTokens)
		assert.False(t, resp.HasAPIKey)
		assert.False(t, resp.Enabled)
		assert.Nil(t, resp.UpdatedAt)
		assert.Contains(t, resp.SupportedProviders, "custom")
	})

	t.Run("首次保存必须提供API Key", func(t *testing.T) {
		f := newAIConfigFixture(t)

		_, err := f.svc.SaveConfig(ctx, f.user.ID, &dto.UpdateAIConfigRequest{Provider: "openai"})
		assert.ErrorIs(t, err, entities.ErrAPIKeyRequired)
	})

	t.Run("保存后加密存储且不返回密钥", func(t *testing.T) {
		f := newAIConfigFixture(t)

		resp := f.save(t, &dto.UpdateAIConfigRequest{
			Provider:    "OpenAI",
			APIKey:      "sk-secret",
			Model:       "gpt-4o-mini",
			Temperature: floatPtr(0),
			MaxTokens:   800,
			Enabled:     true,
		})
		assert.Equal(t, "openai", resp.Provider)
		assert.True(t, resp.HasAPIKey)
		assert.Equal(t, 0.0, resp.Temperature)
		assert.NotNil(t, resp.UpdatedAt)

		stored, err := f.repos.AIConfigRepository().GetByUserID(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, "enc:sk-secret", stored.APIKey)
		assert.Equal(t, 800, stored.MaxTokens)
	})

	t.Run("空API Key保留原值", func(t *testing.T) {
		f := newAIConfigFixture(t)
		f.save(t, &dto.UpdateAIConfigRequest{Provider: "openai", APIKey: "sk-old", Enabled: true})

		resp := f.save(t, &dto.UpdateAIConfigRequest{Provider: "anthropic", Model: "claude-3-haiku", Enabled: false})
		assert.Equal(t, "anthropic", resp.Provider)
		assert.True(t, resp.HasAPIKey)

		stored, err := f.repos.AIConfigRepository().GetByUserID(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, "enc:sk-old", stored.APIKey)
		assert.False(t, stored.Enabled)
	})

	t.Run("切换提供商未指定模型时使用该提供商的默认模型", func(t *testing.T) {
		f := newAIConfigFixture(t)

		resp := f.save(t, &dto.UpdateAIConfigRequest{Provider: "anthropic", APIKey: "sk-ant", Enabled: true})
		assert.Equal(t, clients.DefaultAnthropicModel, resp.Model)

		resp = f.save(t, &dto.UpdateAIConfigRequest{Provider: "anthropic", Model: "claude-3-opus-latest", Enabled: true})
		assert.Equal(t, "claude-3-opus-latest", resp.Model)

		resp = f.save(t, &dto.UpdateAIConfigRequest{Provider: "anthropic", Enabled: true})
		assert.Equal(t, "claude-3-opus-latest", resp.Model)

		resp = f.save(t, &dto.UpdateAIConfigRequest{Provider: "openai", Enabled: true})
		assert.Equal(t, "gpt-3.5-turbo", resp.Model)
	})

	t.Run("非法配置", func(t *testing.T) {
		f := newAIConfigFixture(t)

		tests := []struct {
			name string
			req  dto.UpdateAIConfigRequest
		}{
			{"未知提供商", dto.UpdateAIConfigRequest{Provider: "gemini", APIKey: "k"}},
			{"自定义提供商缺少地址", dto.UpdateAIConfigRequest{Provider: "custom", APIKey: "k"}},
			{"温度过高", dto.UpdateAIConfigRequest{Provider: "openai", APIKey: "k", Temperature: floatPtr(2.5)}},
			{"温度为负", dto.UpdateAIConfigRequest{Provider: "openai", APIKey: "k", Temperature: floatPtr(-0.1)}},
			{"标签数量为0", dto.UpdateAIConfigRequest{Provider: "openai", APIKey: "k", TagCount: intPtr(0)}},
			{"预留标签超过总数", dto.UpdateAIConfigRequest{Provider: "openai", APIKey: "k", TagCount: intPtr(3), TagTwoCharCount: intPtr(2), TagFourCharCount: intPtr(2)}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := tt.req
				_, err := f.svc.SaveConfig(ctx, f.user.ID, &req)
				assert.ErrorIs(t, err, entities.ErrInvalidAIConfig)
			})
		}
	})

	t.Run("保存元数据参数", func(t *testing.T) {
		f := newAIConfigFixture(t)

		resp := f.save(t, &dto.UpdateAIConfigRequest{
			Provider:         "custom",
			APIKey:           "k",
			BaseURL:          "https://llm.internal/v1",
			TitleMaxLength:   intPtr(20),
			TagCount:         intPtr(6),
			TagTwoCharCount:  intPtr(2),
			TagFourCharCount: intPtr(2),
		})
		assert.Equal(t, "https://llm.internal/v1", resp.BaseURL)
		assert.Equal(t, 20, resp.TitleMaxLength)
		assert.Equal(t, 6, resp.TagCount)
		assert.Equal(t, 2, resp.TagTwoCharCount)
		assert.Equal(t, 2, resp.TagFourCharCount)
	})
}

func TestAIConfigService_GenerateMetadata(t *testing.T) {
	ctx := context.Background()

	t.Run("未配置或未启用", func(t *testing.T) {
		f := newAIConfigFixture(t)

		_, err := f.svc.GenerateMetadata(ctx, f.user.ID, "内容")
		assert.ErrorIs(t, err, entities.ErrAIConfigDisabled)

		f.save(t, &dto.UpdateAIConfigRequest{Provider: "openai", APIKey: "sk", Enabled: false})
		_, err = f.svc.GenerateMetadata(ctx, f.user.ID, "内容")
		assert.ErrorIs(t, err, entities.ErrAIConfigDisabled)
	})

	t.Run("解密失败提示重新配置", func(t *testing.T) {
		f := newAIConfigFixture(t)
		f.save(t, &dto.UpdateAIConfigRequest{Provider: "openai", APIKey: "sk", Enabled: true})
		f.cipher.failDecrypt = true

		_, err := f.svc.GenerateMetadata(ctx, f.user.ID, "内容")
		assert.ErrorIs(t, err, ErrCredentialUnreadable)
	})

	t.Run("使用保存的配置和元数据参数", func(t *testing.T) {
		f := newAIConfigFixture(t)
		f.save(t, &dto.UpdateAIConfigRequest{
			Provider:         "openai",
			APIKey:           "sk-live",
			Model:            "gpt-4o-mini",
			Temperature:      floatPtr(0.2),
			Enabled:          true,
			TitleMaxLength:   intPtr(4),
			TagCount:         intPtr(1),
			TagFourCharCount: intPtr(1),
		})
		f.client.On("ChatCompletion", mock.Anything, mock.Anything, mock.Anything).
			Return(chatReply(`{"title":"邮件写作助手","description":"d","tags":["写作","邮件助手"]}`), nil).Once()

		meta, err := f.svc.GenerateMetadata(ctx, f.user.ID, "帮我写邮件")
		require.NoError(t, err)
		assert.Equal(t, "邮件写作", meta.Title)
		assert.Equal(t, []string{"邮件助手"}, meta.Tags)

		require.Len(t, f.built, 1)
		assert.Equal(t, "sk-live", f.built[0].APIKey)
		assert.Equal(t, "gpt-4o-mini", f.built[0].Model)
		require.NotNil(t, f.built[0].Temperature)
		assert.Equal(t, 0.2, *f.built[0].Temperature)
		assert.Equal(t, 20*time.Second, f.built[0].Timeout)
	})

	t.Run("元数据错误原样返回", func(t *testing.T) {
		f := newAIConfigFixture(t)
		f.save(t, &dto.UpdateAIConfigRequest{Provider: "openai", APIKey: "sk", Enabled: true})

		_, err := f.svc.GenerateMetadata(ctx, f.user.ID, "   ")
		var metaErr *MetadataError
		require.True(t, errors.As(err, &metaErr))
		assert.True(t, metaErr.IsValidation())
	})
}

func TestAIConfigService_TestConnection(t *testing.T) {
	ctx := context.Background()

	t.Run("输入的Key优先且默认openai", func(t *testing.T) {
		f := newAIConfigFixture(t)
		f.client.On("TestConnection", mock.Anything).Return(true).Once()

		resp, err := f.svc.TestConnection(ctx, f.user.ID, &dto.TestConnectionRequest{APIKey: " sk-input "})
		require.NoError(t, err)
		assert.True(t, resp.Success)

		require.Len(t, f.built, 1)
		assert.Equal(t, "openai", f.built[0].Provider)
		assert.Equal(t, "sk-input", f.built[0].APIKey)
		assert.Equal(t, 0.7, *f.built[0].Temperature)
		assert.Equal(t, 100, f.built[0].MaxTokens)
		assert.Equal(t, 20*time.Second, f.built[0].Timeout)
	})

	t.Run("使用保存的配置并由输入覆盖", func(t *testing.T) {
		f := newAIConfigFixture(t)
		f.save(t, &dto.UpdateAIConfigRequest{Provider: "openai", APIKey: "sk-saved", Model: "gpt-4o", Enabled: true})
		f.client.On("TestConnection", mock.Anything).Return(false).Once()

		resp, err := f.svc.TestConnection(ctx, f.user.ID, &dto.TestConnectionRequest{Model: "gpt-4o-mini"})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Message)

		require.Len(t, f.built, 1)
		assert.Equal(t, "sk-saved", f.built[0].APIKey)
		assert.Equal(t, "gpt-4o-mini", f.built[0].Model)
	})

	t.Run("既无输入也无配置", func(t *testing.T) {
		f := newAIConfigFixture(t)

		_, err := f.svc.TestConnection(ctx, f.user.ID, &dto.TestConnectionRequest{})
		assert.ErrorIs(t, err, entities.ErrAPIKeyRequired)
	})

	t.Run("创建客户端失败", func(t *testing.T) {
		f := newAIConfigFixture(t)

		_, err := f.svc.TestConnection(ctx, f.user.ID, &dto.TestConnectionRequest{APIKey: "k", Provider: "gemini"})
		assert.ErrorIs(t, err, entities.ErrInvalidAIConfig)
	})
}
