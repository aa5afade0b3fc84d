package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"prompt-manager/internal/infrastructure/logger"
)

const chatCompletionsPath = "/chat/completions"

// customClient 兼容OpenAI协议的通用HTTP客户端
type customClient struct {
	endpoint   string
	settings   clientSettings
	httpClient *http.Client
	logger     logger.Logger
}

// customChatRequest 请求体
type customChatRequest struct {
	Model          string               `json:"model"`
	Messages       []ChatMessage        `json:"messages"`
	Temperature    float64              `json:"temperature"`
	MaxTokens      int                  `json:"max_tokens"`
	ResponseFormat customResponseFormat `json:"response_format"`
}

type customResponseFormat struct {
	Type string `json:"type"`
}

// customChatResponse 响应体中关心的字段
type customChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

// newCustomClient 创建通用HTTP客户端
func newCustomClient(cfg ClientConfig, log logger.Logger) (AIClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrBaseURLRequired
	}
	return &customClient{
		endpoint:   normalizeEndpoint(cfg.BaseURL),
		settings:   settingsFrom(cfg),
		httpClient: newHTTPClient(cfg.Timeout),
		logger:     log,
	}, nil
}

// normalizeEndpoint 去掉末尾斜杠并补全 /chat/completions
func normalizeEndpoint(baseURL string) string {
	endpoint := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.HasSuffix(endpoint, chatCompletionsPath) {
		endpoint += chatCompletionsPath
	}
	return endpoint
}

// ChatCompletion 发送对话补全请求
func (c *customClient) ChatCompletion(ctx context.Context, messages []ChatMessage, overrides *ChatOverrides) (*ChatResponse, error) {
	temperature, maxTokens := c.settings.resolve(overrides)

	body, err := json.Marshal(customChatRequest{
		Model:          c.settings.model,
		Messages:       messages,
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		ResponseFormat: customResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("custom API call failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("custom API call failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.settings.apiKey)

	c.logger.WithFields(map[string]interface{}{
		"provider":   c.Provider(),
		"endpoint":   c.endpoint,
		"model":      c.settings.model,
		"max_tokens": maxTokens,
	}).Debug("Sending chat completion request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("custom API call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("custom API call failed: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("custom API call failed: status %d: %s", resp.StatusCode, truncateBody(raw))
	}

	var parsed customChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("custom API call failed: invalid response: %w", err)
	}

	result := &ChatResponse{
		Provider: c.Provider(),
		Model:    parsed.Model,
		Raw:      raw,
	}
	for _, choice := range parsed.Choices {
		result.Choices = append(result.Choices, ChatChoice{Message: choice.Message})
	}
	return result, nil
}

// TestConnection 测试连通性
func (c *customClient) TestConnection(ctx context.Context) bool {
	messages, overrides := testConnectionRequest()
	if _, err := c.ChatCompletion(ctx, messages, overrides); err != nil {
		c.logger.WithFields(map[string]interface{}{
			"provider": c.Provider(),
			"endpoint": c.endpoint,
			"error":    err.Error(),
		}).Warn("Connection test failed")
		return false
	}
	return true
}

// ExtractText 提取第一个候选回复
func (c *customClient) ExtractText(resp *ChatResponse) string {
	return resp.Text()
}

// Provider 提供商标识
func (c *customClient) Provider() string {
	return ProviderCustom
}

// truncateBody 截断错误响应，避免日志和错误信息过长
func truncateBody(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
