package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"prompt-manager/internal/infrastructure/logger"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// openAIClient 基于官方SDK的OpenAI客户端
type openAIClient struct {
	client   openai.Client
	settings clientSettings
	logger   logger.Logger
}

// newOpenAIClient 创建OpenAI客户端，BaseURL为空时使用官方地址
func newOpenAIClient(cfg ClientConfig, log logger.Logger) (AIClient, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(newHTTPClient(cfg.Timeout)),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &openAIClient{
		client:   openai.NewClient(opts...),
		settings: settingsFrom(cfg),
		logger:   log,
	}, nil
}

// ChatCompletion 发送对话补全请求
func (c *openAIClient) ChatCompletion(ctx context.Context, messages []ChatMessage, overrides *ChatOverrides) (*ChatResponse, error) {
	temperature, maxTokens := c.settings.resolve(overrides)

	params := openai.ChatCompletionNewParams{
		Model:       c.settings.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	c.logger.WithFields(map[string]interface{}{
		"provider":   c.Provider(),
		"model":      c.settings.model,
		"messages":   len(messages),
		"max_tokens": maxTokens,
	}).Debug("Sending chat completion request")

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("openai API call failed (status %d): %w", apiErr.StatusCode, err)
		}
		return nil, fmt.Errorf("openai API call failed: %w", err)
	}

	result := &ChatResponse{
		Provider: c.Provider(),
		Model:    resp.Model,
		Raw:      []byte(resp.RawJSON()),
	}
	for _, choice := range resp.Choices {
		result.Choices = append(result.Choices, ChatChoice{
			Message: ChatMessage{Role: RoleAssistant, Content: choice.Message.Content},
		})
	}
	return result, nil
}

// TestConnection 测试连通性
func (c *openAIClient) TestConnection(ctx context.Context) bool {
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

// ExtractText 提取第一个候选回复
func (c *openAIClient) ExtractText(resp *ChatResponse) string {
	return resp.Text()
}

// Provider 提供商标识
func (c *openAIClient) Provider() string {
	return ProviderOpenAI
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			result = append(result, openai.SystemMessage(m.Content))
		case RoleAssistant:
			result = append(result, openai.AssistantMessage(m.Content))
		default:
			result = append(result, openai.UserMessage(m.Content))
		}
	}
	return result
}
