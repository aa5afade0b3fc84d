package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/domain/repositories"
	domainservices "prompt-manager/internal/domain/services"
	"prompt-manager/internal/infrastructure/clients"
	"prompt-manager/internal/infrastructure/config"
	"prompt-manager/internal/infrastructure/logger"
)

// 测试连接时使用的参数
const (
	testConnectionTemperature = 0.7
	testConnectionMaxTokens   = 100
)

// AI配置取值范围
const (
	minTemperature    = 0.0
	maxTemperature    = 2.0
	maxTitleLength    = 200
	maxTagCountConfig = 20
)

// ClientFactory 创建AI客户端
type ClientFactory func(cfg clients.ClientConfig) (clients.AIClient, error)

// AIConfigService AI配置服务接口
type AIConfigService interface {
	// GetConfig 获取用户AI配置，未配置时返回默认值
	GetConfig(ctx context.Context, userID int64) (*dto.AIConfigResponse, error)

	// SaveConfig 创建或更新AI配置，空API Key保留原值
	SaveConfig(ctx context.Context, userID int64, req *dto.UpdateAIConfigRequest) (*dto.AIConfigResponse, error)

	// GenerateMetadata 使用用户已启用的配置生成元数据
	GenerateMetadata(ctx context.Context, userID int64, content string) (*dto.GeneratedMetadata, error)

	// TestConnection 测试AI连通性
	TestConnection(ctx context.Context, userID int64, req *dto.TestConnectionRequest) (*dto.TestConnectionResponse, error)
}

// aiConfigServiceImpl AI配置服务实现
type aiConfigServiceImpl struct {
	repo          repositories.AIConfigRepository
	cipher        domainservices.CredentialCipher
	metadata      MetadataService
	clientFactory ClientFactory
	aiConfig      config.AIConfig
	logger        logger.Logger
}

// NewAIConfigService 创建AI配置服务
func NewAIConfigService(
	repo repositories.AIConfigRepository,
	cipher domainservices.CredentialCipher,
	metadata MetadataService,
	clientFactory ClientFactory,
	aiConfig config.AIConfig,
	log logger.Logger,
) AIConfigService {
	if clientFactory == nil {
		clientFactory = clients.NewClient
	}
	return &aiConfigServiceImpl{
		repo:          repo,
		cipher:        cipher,
		metadata:      metadata,
		clientFactory: clientFactory,
		aiConfig:      aiConfig,
		logger:        log,
	}
}

// GetConfig 获取用户AI配置
func (s *aiConfigServiceImpl) GetConfig(ctx context.Context, userID int64) (*dto.AIConfigResponse, error) {
	cfg, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, entities.ErrAIConfigNotFound) {
		return s.toResponse(s.defaultConfig(userID), false), nil
	}
	if err != nil {
		return nil, err
	}
	return s.toResponse(cfg, true), nil
}

// SaveConfig 创建或更新AI配置
func (s *aiConfigServiceImpl) SaveConfig(ctx context.Context, userID int64, req *dto.UpdateAIConfigRequest) (*dto.AIConfigResponse, error) {
	cfg, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, entities.ErrAIConfigNotFound) {
			return nil, err
		}
		cfg = s.defaultConfig(userID)
	}

	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		provider = s.defaultProvider()
	}
	if !clients.IsSupportedProvider(provider) {
		return nil, fmt.Errorf("%w: unsupported provider %q", entities.ErrInvalidAIConfig, req.Provider)
	}

	baseURL := strings.TrimSpace(req.BaseURL)
	if provider == entities.AIProviderCustom && baseURL == "" {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidAIConfig, clients.ErrBaseURLRequired)
	}

	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" && !cfg.HasAPIKey() {
		return nil, entities.ErrAPIKeyRequired
	}
	if apiKey != "" {
		encrypted, err := s.cipher.Encrypt(apiKey)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt api key: %w", err)
		}
		cfg.APIKey = encrypted
	}

	if req.Temperature != nil {
		if *req.Temperature < minTemperature || *req.Temperature > maxTemperature {
			return nil, fmt.Errorf("%w: temperature must be between 0 and 2", entities.ErrInvalidAIConfig)
		}
		cfg.Temperature = *req.Temperature
	}

	if err := s.applyMetadataLimits(cfg, req); err != nil {
		return nil, err
	}

	previousProvider := cfg.Provider
	cfg.Provider = provider
	cfg.BaseURL = stringPtr(baseURL)
	if model := strings.TrimSpace(req.Model); model != "" {
		cfg.Model = model
	} else if provider != previousProvider || cfg.Model == "" {
		cfg.Model = s.defaultModelFor(provider)
	}
	if req.MaxTokens > 0 {
		cfg.MaxTokens = req.MaxTokens
	}
	cfg.Enabled = req.Enabled

	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  userID,
		"provider": cfg.Provider,
		"enabled":  cfg.Enabled,
	}).Info("AI config saved")

	return s.toResponse(cfg, true), nil
}

// applyMetadataLimits 校验并写入元数据生成参数
func (s *aiConfigServiceImpl) applyMetadataLimits(cfg *entities.AIConfig, req *dto.UpdateAIConfigRequest) error {
	title := intValue(req.TitleMaxLength, cfg.TitleMaxLength)
	tagCount := intValue(req.TagCount, cfg.TagCount)
	twoChar := intValue(req.TagTwoCharCount, cfg.TagTwoCharCount)
	fourChar := intValue(req.TagFourCharCount, cfg.TagFourCharCount)

	switch {
	case title < 1 || title > maxTitleLength:
		return fmt.Errorf("%w: title_max_length must be between 1 and %d", entities.ErrInvalidAIConfig, maxTitleLength)
	case tagCount < 1 || tagCount > maxTagCountConfig:
		return fmt.Errorf("%w: tag_count must be between 1 and %d", entities.ErrInvalidAIConfig, maxTagCountConfig)
	case twoChar < 0 || fourChar < 0 || twoChar+fourChar > tagCount:
		return fmt.Errorf("%w: reserved tag counts exceed tag_count", entities.ErrInvalidAIConfig)
	}

	cfg.TitleMaxLength = title
	cfg.TagCount = tagCount
	cfg.TagTwoCharCount = twoChar
	cfg.TagFourCharCount = fourChar
	return nil
}

// GenerateMetadata 使用用户已启用的配置生成元数据
func (s *aiConfigServiceImpl) GenerateMetadata(ctx context.Context, userID int64, content string) (*dto.GeneratedMetadata, error) {
	cfg, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, entities.ErrAIConfigNotFound) {
			return nil, entities.ErrAIConfigDisabled
		}
		return nil, err
	}
	if !cfg.Enabled {
		return nil, entities.ErrAIConfigDisabled
	}

	apiKey, err := s.cipher.Decrypt(cfg.APIKey)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("Failed to decrypt api key")
		return nil, ErrCredentialUnreadable
	}

	temperature := cfg.Temperature
	client, err := s.clientFactory(clients.ClientConfig{
		Provider:    cfg.Provider,
		APIKey:      apiKey,
		BaseURL:     cfg.BaseURLValue(),
		Model:       cfg.Model,
		Temperature: &temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     s.aiConfig.RequestTimeout,
		Logger:      s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidAIConfig, err)
	}

	return s.metadata.GenerateMetadata(ctx, client, content, MetadataOptions{
		TitleMaxLength:       cfg.TitleMaxLength,
		DescriptionMinLength: s.aiConfig.DescriptionMinimum,
		DescriptionMaxLength: cfg.DescriptionMaxLength,
		TagCount:             cfg.TagCount,
		TagTwoCharCount:      cfg.TagTwoCharCount,
		TagFourCharCount:     cfg.TagFourCharCount,
		MaxContentLength:     s.aiConfig.MaxContentLength,
	})
}

// TestConnection 输入的API Key优先，否则使用已启用的配置并由输入字段覆盖
func (s *aiConfigServiceImpl) TestConnection(ctx context.Context, userID int64, req *dto.TestConnectionRequest) (*dto.TestConnectionResponse, error) {
	clientCfg := clients.ClientConfig{
		Provider: strings.TrimSpace(req.Provider),
		APIKey:   strings.TrimSpace(req.APIKey),
		BaseURL:  strings.TrimSpace(req.BaseURL),
		Model:    strings.TrimSpace(req.Model),
	}

	if clientCfg.APIKey != "" {
		if clientCfg.Provider == "" {
			clientCfg.Provider = entities.AIProviderOpenAI
		}
	} else {
		saved, err := s.repo.GetByUserID(ctx, userID)
		if err != nil && !errors.Is(err, entities.ErrAIConfigNotFound) {
			return nil, err
		}
		if saved == nil || !saved.Enabled {
			return nil, entities.ErrAPIKeyRequired
		}

		apiKey, err := s.cipher.Decrypt(saved.APIKey)
		if err != nil {
			return nil, ErrCredentialUnreadable
		}
		clientCfg.APIKey = apiKey
		if clientCfg.Provider == "" {
			clientCfg.Provider = saved.Provider
		}
		if clientCfg.BaseURL == "" {
			clientCfg.BaseURL = saved.BaseURLValue()
		}
		if clientCfg.Model == "" {
			clientCfg.Model = saved.Model
		}
	}

	temperature := testConnectionTemperature
	clientCfg.Temperature = &temperature
	clientCfg.MaxTokens = testConnectionMaxTokens
	clientCfg.Timeout = s.aiConfig.RequestTimeout
	clientCfg.Logger = s.logger

	client, err := s.clientFactory(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidAIConfig, err)
	}

	if !client.TestConnection(ctx) {
		return &dto.TestConnectionResponse{Success: false, Message: "连接失败，请检查 API Key 和配置"}, nil
	}
	return &dto.TestConnectionResponse{Success: true, Message: "连接成功"}, nil
}

// defaultConfig 未保存时的默认配置
func (s *aiConfigServiceImpl) defaultConfig(userID int64) *entities.AIConfig {
	opts := DefaultMetadataOptions()
	provider := s.defaultProvider()
	descMax := opts.DescriptionMaxLength
	if s.aiConfig.DescriptionMaximum > 0 {
		descMax = s.aiConfig.DescriptionMaximum
	}
	return &entities.AIConfig{
		UserID:               userID,
		Provider:             provider,
		Model:                s.defaultModelFor(provider),
		Temperature:          clients.DefaultTemperature,
		MaxTokens:            clients.DefaultMaxTokens,
		TitleMaxLength:       opts.TitleMaxLength,
		DescriptionMaxLength: descMax,
		TagCount:             opts.TagCount,
		TagTwoCharCount:      opts.TagTwoCharCount,
		TagFourCharCount:     opts.TagFourCharCount,
	}
}

func (s *aiConfigServiceImpl) defaultProvider() string {
	if s.aiConfig.DefaultProvider != "" {
		return s.aiConfig.DefaultProvider
	}
	return entities.AIProviderOpenAI
}

// defaultModelFor 配置的默认模型只用于默认提供商
func (s *aiConfigServiceImpl) defaultModelFor(provider string) string {
	if provider == s.defaultProvider() && s.aiConfig.DefaultModel != "" {
		return s.aiConfig.DefaultModel
	}
	return clients.DefaultModelFor(provider)
}

// toResponse 转换配置，不返回API Key
func (s *aiConfigServiceImpl) toResponse(cfg *entities.AIConfig, saved bool) *dto.AIConfigResponse {
	resp := &dto.AIConfigResponse{
		Provider:             cfg.Provider,
		BaseURL:              cfg.BaseURLValue(),
		Model:                cfg.Model,
		Temperature:          cfg.Temperature,
		MaxTokens:            cfg.MaxTokens,
		Enabled:              cfg.Enabled,
		HasAPIKey:            cfg.HasAPIKey(),
		TitleMaxLength:       cfg.TitleMaxLength,
		DescriptionMaxLength: cfg.DescriptionMaxLength,
		TagCount:             cfg.TagCount,
		TagTwoCharCount:      cfg.TagTwoCharCount,
		TagFourCharCount:     cfg.TagFourCharCount,
		SupportedProviders:   clients.SupportedProviders(),
	}
	if saved {
		updatedAt := cfg.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}
