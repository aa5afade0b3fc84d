package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/infrastructure/clients"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestMetadataService(t *testing.T) MetadataService {
	t.Helper()
	svc, err := NewMetadataService(&MockLogger{})
	require.NoError(t, err)
	return svc
}

// requireMetadataError 断言错误分类
func requireMetadataError(t *testing.T, err error, kind MetadataErrorKind, target error) {
	t.Helper()
	var metaErr *MetadataError
	require.True(t, errors.As(err, &metaErr), "expected MetadataError, got %v", err)
	assert.Equal(t, kind, metaErr.Kind)
	assert.ErrorIs(t, err, target)
}

func TestMetadataTokenBudget(t *testing.T) {
	assert.Equal(t, 500, metadataTokenBudget(5))
	assert.Equal(t, 650, metadataTokenBudget(20))
	assert.Equal(t, 2000, metadataTokenBudget(200))
	assert.Equal(t, 500, metadataTokenBudget(0))
}

func TestMetadataService_Input(t *testing.T) {
	ctx := context.Background()
	svc := newTestMetadataService(t)

	t.Run("空内容不调用AI", func(t *testing.T) {
		client := &MockAIClient{}
		_, err := svc.GenerateMetadata(ctx, client, "  \n ", DefaultMetadataOptions())
		requireMetadataError(t, err, MetadataErrorValidation, ErrEmptyContent)
		client.AssertNotCalled(t, "ChatCompletion", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("超过10000字符", func(t *testing.T) {
		client := &MockAIClient{}
		_, err := svc.GenerateMetadata(ctx, client, strings.Repeat("字", 10001), DefaultMetadataOptions())
		requireMetadataError(t, err, MetadataErrorValidation, ErrContentTooLong)
		client.AssertNotCalled(t, "ChatCompletion", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("长度按去除首尾空白后的内容计算", func(t *testing.T) {
		content := strings.Repeat("字", 10000)
		client := &MockAIClient{}
		client.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(msgs []clients.ChatMessage) bool {
			return len(msgs) == 2 && strings.Contains(msgs[1].Content, "\n"+content+"\n")
		}), mock.Anything).Return(chatReply(`{"title":"t","description":"d","tags":["写作"]}`), nil).Once()

		_, err := svc.GenerateMetadata(ctx, client, "\n  "+content+"  \n", DefaultMetadataOptions())
		assert.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("刚好10000字符可以生成", func(t *testing.T) {
		client := &MockAIClient{}
		client.On("ChatCompletion", mock.Anything, mock.Anything, mock.Anything).
			Return(chatReply(`{"title":"t","description":"d","tags":["写作"]}`), nil).Once()

		_, err := svc.GenerateMetadata(ctx, client, strings.Repeat("字", 10000), DefaultMetadataOptions())
		assert.NoError(t, err)
	})
}

func TestMetadataService_Request(t *testing.T) {
	client := &MockAIClient{}
	client.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(msgs []clients.ChatMessage) bool {
		return len(msgs) == 2 &&
			msgs[0].Role == clients.RoleSystem &&
			msgs[0].Content == metadataSystemPrompt &&
			msgs[1].Role == clients.RoleUser &&
			strings.Contains(msgs[1].Content, "帮我写一封邮件")
	}), mock.MatchedBy(func(o *clients.ChatOverrides) bool {
		return o != nil && o.MaxTokens != nil && *o.MaxTokens == 500
	})).Return(chatReply(`{"title":"邮件助手","description":"写邮件","tags":["邮件","写作"]}`), nil).Once()

	meta, err := newTestMetadataService(t).GenerateMetadata(context.Background(), client, "帮我写一封邮件", DefaultMetadataOptions())
	require.NoError(t, err)
	assert.Equal(t, "邮件助手", meta.Title)
	assert.Equal(t, "写邮件", meta.Description)
	assert.Equal(t, []string{"邮件", "写作"}, meta.Tags)
	client.AssertExpectations(t)
}

func TestMetadataService_Parse(t *testing.T) {
	ctx := context.Background()
	svc := newTestMetadataService(t)

	generate := func(t *testing.T, reply string) (*MockAIClient, error) {
		client := &MockAIClient{}
		client.On("ChatCompletion", mock.Anything, mock.Anything, mock.Anything).Return(chatReply(reply), nil).Once()
		_, err := svc.GenerateMetadata(ctx, client, "内容", DefaultMetadataOptions())
		return client, err
	}

	t.Run("代码块包裹与裸JSON解析结果一致", func(t *testing.T) {
		payload := `{"title":"诗歌助手","description":"写诗","tags":["诗歌","写作"]}`
		parse := func(reply string) *dto.GeneratedMetadata {
			client := &MockAIClient{}
			client.On("ChatCompletion", mock.Anything, mock.Anything, mock.Anything).Return(chatReply(reply), nil).Once()
			meta, err := svc.GenerateMetadata(ctx, client, "内容", DefaultMetadataOptions())
			require.NoError(t, err)
			return meta
		}

		plain := parse(payload)
		assert.Equal(t, plain, parse("\n  ```json\n"+payload+"\n```  \n"))
		assert.Equal(t, plain, parse("```\n"+payload+"\n```"))
	})

	t.Run("从说明文字中提取JSON", func(t *testing.T) {
		client := &MockAIClient{}
		client.On("ChatCompletion", mock.Anything, mock.Anything, mock.Anything).
			Return(chatReply(`好的，结果如下：{"title": "标题", "description": "描述", "tags": "写作"} 希望有帮助`), nil).Once()

		meta, err := svc.GenerateMetadata(ctx, client, "内容", DefaultMetadataOptions())
		require.NoError(t, err)
		assert.Equal(t, "标题", meta.Title)
		assert.Equal(t, []string{"写作"}, meta.Tags)
	})

	t.Run("无法解析返回服务错误", func(t *testing.T) {
		_, err := generate(t, "抱歉，我无法完成")
		requireMetadataError(t, err, MetadataErrorService, ErrMetadataFormat)
	})

	t.Run("缺少字段返回校验错误", func(t *testing.T) {
		_, err := generate(t, `{"title":"t","tags":["写作"]}`)
		requireMetadataError(t, err, MetadataErrorValidation, ErrMetadataFields)
	})

	t.Run("非对象JSON返回校验错误", func(t *testing.T) {
		_, err := generate(t, `["title"]`)
		requireMetadataError(t, err, MetadataErrorValidation, ErrMetadataFields)
	})

	t.Run("AI调用失败返回服务错误", func(t *testing.T) {
		client := &MockAIClient{}
		client.On("ChatCompletion", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()

		_, err := svc.GenerateMetadata(ctx, client, "内容", DefaultMetadataOptions())
		requireMetadataError(t, err, MetadataErrorService, ErrMetadataAIRequest)
		assert.Contains(t, err.Error(), "timeout")
	})
}

func TestMetadataService_Normalize(t *testing.T) {
	ctx := context.Background()
	svc := newTestMetadataService(t)

	run := func(t *testing.T, reply string, opts MetadataOptions) (*MockAIClient, func() (string, string, []string, error)) {
		client := &MockAIClient{}
		client.On("ChatCompletion", mock.Anything, mock.Anything, mock.Anything).Return(chatReply(reply), nil).Once()
		return client, func() (string, string, []string, error) {
			meta, err := svc.GenerateMetadata(ctx, client, "内容", opts)
			if err != nil {
				return "", "", nil, err
			}
			return meta.Title, meta.Description, meta.Tags, nil
		}
	}

	t.Run("截断标题和描述", func(t *testing.T) {
		longTitle := strings.Repeat("标", 40)
		longDesc := strings.Repeat("述", 200)
		_, call := run(t, `{"title":"`+longTitle+`","description":"`+longDesc+`","tags":["写作"]}`, DefaultMetadataOptions())

		title, desc, _, err := call()
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("标", 30), title)
		assert.Equal(t, strings.Repeat("述", 150), desc)
	})

	t.Run("非字符串标题转为字符串", func(t *testing.T) {
		_, call := run(t, `{"title":123,"description":"d","tags":["写作"]}`, DefaultMetadataOptions())
		title, _, _, err := call()
		require.NoError(t, err)
		assert.Equal(t, "123", title)
	})

	t.Run("空标题和空描述", func(t *testing.T) {
		_, call := run(t, `{"title":"  ","description":"d","tags":["写作"]}`, DefaultMetadataOptions())
		_, _, _, err := call()
		requireMetadataError(t, err, MetadataErrorValidation, ErrEmptyTitle)

		_, call = run(t, `{"title":"t","description":"","tags":["写作"]}`, DefaultMetadataOptions())
		_, _, _, err = call()
		requireMetadataError(t, err, MetadataErrorValidation, ErrEmptyDescription)
	})

	t.Run("默认参数按两字四字其他排序", func(t *testing.T) {
		reply := `{"title":"t","description":"d","tags":["abc","写作","翻译助手","x","编程","人工智能","` + strings.Repeat("a", 21) + `"]}`
		_, call := run(t, reply, DefaultMetadataOptions())

		_, _, tags, err := call()
		require.NoError(t, err)
		assert.Equal(t, []string{"写作", "编程", "翻译助手", "人工智能", "abc"}, tags)
	})

	t.Run("预留两字和四字名额", func(t *testing.T) {
		opts := DefaultMetadataOptions()
		opts.TagCount = 3
		opts.TagTwoCharCount = 1
		opts.TagFourCharCount = 1
		reply := `{"title":"t","description":"d","tags":["abc","写作","翻译助手","编程","人工智能"]}`
		_, call := run(t, reply, opts)

		_, _, tags, err := call()
		require.NoError(t, err)
		assert.Equal(t, []string{"写作", "翻译助手", "编程"}, tags)
	})

	t.Run("预留名额超过可用数量", func(t *testing.T) {
		opts := DefaultMetadataOptions()
		opts.TagCount = 2
		opts.TagFourCharCount = 3
		reply := `{"title":"t","description":"d","tags":["写作","翻译助手"]}`
		_, call := run(t, reply, opts)

		_, _, tags, err := call()
		require.NoError(t, err)
		assert.Equal(t, []string{"翻译助手", "写作"}, tags)
	})

	t.Run("单个数字标签包装为列表", func(t *testing.T) {
		_, call := run(t, `{"title":"T","description":"D","tags":12345}`, DefaultMetadataOptions())
		_, _, tags, err := call()
		require.NoError(t, err)
		assert.Equal(t, []string{"12345"}, tags)
	})

	t.Run("单个布尔标签", func(t *testing.T) {
		_, call := run(t, `{"title":"T","description":"D","tags":true}`, DefaultMetadataOptions())
		_, _, tags, err := call()
		require.NoError(t, err)
		assert.Equal(t, []string{"true"}, tags)

		_, call = run(t, `{"title":"T","description":"D","tags":false}`, DefaultMetadataOptions())
		_, _, _, err = call()
		requireMetadataError(t, err, MetadataErrorValidation, ErrNoTags)
	})

	t.Run("没有合格标签", func(t *testing.T) {
		_, call := run(t, `{"title":"t","description":"d","tags":["x",""]}`, DefaultMetadataOptions())
		_, _, _, err := call()
		requireMetadataError(t, err, MetadataErrorValidation, ErrNoTags)
	})
}

func TestMetadataOptions_WithDefaults(t *testing.T) {
	opts := MetadataOptions{TagCount: 8, TagTwoCharCount: -1}.withDefaults()
	assert.Equal(t, 30, opts.TitleMaxLength)
	assert.Equal(t, 100, opts.DescriptionMinLength)
	assert.Equal(t, 150, opts.DescriptionMaxLength)
	assert.Equal(t, 8, opts.TagCount)
	assert.Equal(t, 0, opts.TagTwoCharCount)
	assert.Equal(t, 10000, opts.MaxContentLength)
}
