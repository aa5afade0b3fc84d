package clients

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"prompt-manager/internal/infrastructure/logger"
)

// 提供商标识
const (
	ProviderOpenAI    = "openai"
	ProviderCustom    = "custom"
	ProviderAnthropic = "anthropic"
)

// ClientConfig 创建客户端所需的配置
type ClientConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64      // 为空时使用默认值0.7
	MaxTokens   int
	Timeout     time.Duration // 为空或超过30秒时使用30秒
	Logger      logger.Logger // 为空时使用全局日志
}

type clientConstructor func(cfg ClientConfig, log logger.Logger) (AIClient, error)

// constructors 提供商注册表
var constructors = map[string]clientConstructor{
	ProviderOpenAI:    newOpenAIClient,
	ProviderCustom:    newCustomClient,
	ProviderAnthropic: newAnthropicClient,
}

// defaultModels 各提供商未指定模型时使用的模型
var defaultModels = map[string]string{
	ProviderOpenAI:    DefaultModel,
	ProviderCustom:    DefaultModel,
	ProviderAnthropic: DefaultAnthropicModel,
}

// NewClient 根据提供商创建客户端
func NewClient(cfg ClientConfig) (AIClient, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	constructor, ok := constructors[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
	if provider == ProviderCustom && strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrBaseURLRequired
	}

	cfg.Provider = provider
	applyDefaults(&cfg)

	log := cfg.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	return constructor(cfg, log.WithField("provider", provider))
}

// IsSupportedProvider 是否为已注册的提供商
func IsSupportedProvider(provider string) bool {
	_, ok := constructors[strings.ToLower(strings.TrimSpace(provider))]
	return ok
}

// DefaultModelFor 提供商的默认模型
func DefaultModelFor(provider string) string {
	if model, ok := defaultModels[strings.ToLower(strings.TrimSpace(provider))]; ok {
		return model
	}
	return DefaultModel
}

// SupportedProviders 已注册的提供商列表
func SupportedProviders() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func applyDefaults(cfg *ClientConfig) {
	if cfg.Model == "" {
		cfg.Model = DefaultModelFor(cfg.Provider)
	}
	if cfg.Temperature == nil {
		t := DefaultTemperature
		cfg.Temperature = &t
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
}
