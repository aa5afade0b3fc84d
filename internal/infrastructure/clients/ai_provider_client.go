package clients

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// 消息角色
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// 客户端默认参数
const (
	DefaultModel          = "gpt-3.5-turbo"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 500

	// maxRequestTimeout 单次调用的HTTP超时上限，也是未配置时的默认值
	maxRequestTimeout = 30 * time.Second

	// 连通性测试参数
	testConnectionContent   = "test"
	testConnectionMaxTokens = 5
)

var (
	// ErrUnsupportedProvider 不支持的AI提供商
	ErrUnsupportedProvider = errors.New("unsupported AI provider")
	// ErrBaseURLRequired 自定义提供商缺少BaseURL
	ErrBaseURLRequired = errors.New("custom provider requires base URL")
	// ErrAPIKeyRequired 缺少API Key
	ErrAPIKeyRequired = errors.New("API key is required")
)

// ChatMessage 对话消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOverrides 单次调用覆盖参数，nil表示使用客户端默认值
type ChatOverrides struct {
	Temperature *float64
	MaxTokens   *int
}

// ChatChoice 候选回复
type ChatChoice struct {
	Message ChatMessage `json:"message"`
}

// ChatResponse 统一的对话补全响应
type ChatResponse struct {
	Provider string       `json:"provider"`
	Model    string       `json:"model"`
	Choices  []ChatChoice `json:"choices"`
	Raw      []byte       `json:"-"` // 原始响应数据
}

// Text 返回第一个候选回复的内容
func (r *ChatResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// AIClient AI提供商客户端接口
type AIClient interface {
	// ChatCompletion 发送对话补全请求，提供商支持时请求JSON输出
	ChatCompletion(ctx context.Context, messages []ChatMessage, overrides *ChatOverrides) (*ChatResponse, error)

	// TestConnection 发送最小请求测试连通性，任何失败都返回false
	TestConnection(ctx context.Context) bool

	// ExtractText 从响应中提取文本
	ExtractText(resp *ChatResponse) string

	// Provider 提供商标识
	Provider() string
}

// clientSettings 各实现共享的调用参数
type clientSettings struct {
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
}

func settingsFrom(cfg ClientConfig) clientSettings {
	s := clientSettings{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: DefaultTemperature,
		maxTokens:   cfg.MaxTokens,
	}
	if cfg.Temperature != nil {
		s.temperature = *cfg.Temperature
	}
	return s
}

// resolve 合并覆盖参数
func (s clientSettings) resolve(overrides *ChatOverrides) (float64, int) {
	temperature, maxTokens := s.temperature, s.maxTokens
	if overrides != nil {
		if overrides.Temperature != nil {
			temperature = *overrides.Temperature
		}
		if overrides.MaxTokens != nil {
			maxTokens = *overrides.MaxTokens
		}
	}
	return temperature, maxTokens
}

// testConnectionRequest 连通性测试使用的消息和参数
func testConnectionRequest() ([]ChatMessage, *ChatOverrides) {
	maxTokens := testConnectionMaxTokens
	return []ChatMessage{{Role: RoleUser, Content: testConnectionContent}}, &ChatOverrides{MaxTokens: &maxTokens}
}

// newHTTPClient 创建带超时的HTTP客户端，超时不超过30秒
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 || timeout > maxRequestTimeout {
		timeout = maxRequestTimeout
	}
	return &http.Client{Timeout: timeout}
}
