package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"prompt-manager/internal/infrastructure/logger"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicClient 基于官方SDK的Anthropic客户端
type anthropicClient struct {
	client   anthropic.Client
	settings clientSettings
	logger   logger.Logger
}

// newAnthropicClient 创建Anthropic客户端
func newAnthropicClient(cfg ClientConfig, log logger.Logger) (AIClient, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(newHTTPClient(cfg.Timeout)),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &anthropicClient{
		client:   anthropic.NewClient(opts...),
		settings: settingsFrom(cfg),
		logger:   log,
	}, nil
}

// ChatCompletion 发送消息请求，system消息放入system字段
func (c *anthropicClient) ChatCompletion(ctx context.Context, messages []ChatMessage, overrides *ChatOverrides) (*ChatResponse, error) {
	temperature, maxTokens := c.settings.resolve(overrides)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.settings.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"provider":   c.Provider(),
		"model":      c.settings.model,
		"messages":   len(messages),
		"max_tokens": maxTokens,
	}).Debug("Sending messages request")

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("anthropic API call failed (status %d): %w", apiErr.StatusCode, err)
		}
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	result := &ChatResponse{
		Provider: c.Provider(),
		Model:    string(msg.Model),
		Raw:      []byte(msg.RawJSON()),
	}
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		result.Choices = append(result.Choices, ChatChoice{
			Message: ChatMessage{Role: RoleAssistant, Content: block.Text},
		})
	}
	return result, nil
}

// TestConnection 测试连通性
func (c *anthropicClient) TestConnection(ctx context.Context) bool {
	messages, overrides := testConnectionRequest()
	if _, err := c.ChatCompletion(ctx, messages, overrides); err != nil {
		c.logger.WithFields(map[string]interface{}{
			"provider": c.Provider(),
			"error":    err.Error(),
		}).Warn("Connection test failed")
		return false
	}
	return true
}

// ExtractText 拼接所有文本块
func (c *anthropicClient) ExtractText(resp *ChatResponse) string {
	if resp == nil {
		return ""
	}
	parts := make([]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		parts = append(parts, choice.Message.Content)
	}
	return strings.Join(parts, "")
}

// Provider 提供商标识
func (c *anthropicClient) Provider() string {
	return ProviderAnthropic
}
