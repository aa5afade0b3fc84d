package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/infrastructure/clients"
	"prompt-manager/internal/infrastructure/logger"
	"prompt-manager/internal/infrastructure/metrics"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MetadataErrorKind 元数据错误分类
type MetadataErrorKind string

const (
	// MetadataErrorValidation 输入或生成结果不合法
	MetadataErrorValidation MetadataErrorKind = "validation"
	// MetadataErrorService 调用AI或解析响应失败
	MetadataErrorService MetadataErrorKind = "service"
)

// 元数据生成错误
var (
	ErrEmptyContent      = errors.New("prompt content is empty")
	ErrContentTooLong    = errors.New("prompt content is too long")
	ErrMetadataFormat    = errors.New("cannot extract valid JSON from AI response")
	ErrMetadataFields    = errors.New("AI response is missing required fields")
	ErrEmptyTitle        = errors.New("generated title is empty")
	ErrEmptyDescription  = errors.New("generated description is empty")
	ErrNoTags            = errors.New("at least one tag is required")
	ErrMetadataAIRequest = errors.New("failed to generate metadata")
)

// MetadataError 带分类的元数据错误
type MetadataError struct {
	Kind MetadataErrorKind
	Err  error
}

func (e *MetadataError) Error() string {
	return e.Err.Error()
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// IsValidation 是否为校验类错误
func (e *MetadataError) IsValidation() bool {
	return e.Kind == MetadataErrorValidation
}

func validationError(err error) error {
	return &MetadataError{Kind: MetadataErrorValidation, Err: err}
}

func serviceError(err error) error {
	return &MetadataError{Kind: MetadataErrorService, Err: err}
}

// MetadataOptions 元数据生成参数
type MetadataOptions struct {
	TitleMaxLength       int
	DescriptionMinLength int
	DescriptionMaxLength int
	TagCount             int
	TagTwoCharCount      int
	TagFourCharCount     int
	MaxContentLength     int
}

// DefaultMetadataOptions 默认参数
func DefaultMetadataOptions() MetadataOptions {
	return MetadataOptions{
		TitleMaxLength:       30,
		DescriptionMinLength: 100,
		DescriptionMaxLength: 150,
		TagCount:             5,
		TagTwoCharCount:      0,
		TagFourCharCount:     0,
		MaxContentLength:     10000,
	}
}

// withDefaults 非正数的参数使用默认值
func (o MetadataOptions) withDefaults() MetadataOptions {
	d := DefaultMetadataOptions()
	if o.TitleMaxLength <= 0 {
		o.TitleMaxLength = d.TitleMaxLength
	}
	if o.DescriptionMinLength <= 0 {
		o.DescriptionMinLength = d.DescriptionMinLength
	}
	if o.DescriptionMaxLength <= 0 {
		o.DescriptionMaxLength = d.DescriptionMaxLength
	}
	if o.TagCount <= 0 {
		o.TagCount = d.TagCount
	}
	if o.TagTwoCharCount < 0 {
		o.TagTwoCharCount = 0
	}
	if o.TagFourCharCount < 0 {
		o.TagFourCharCount = 0
	}
	if o.MaxContentLength <= 0 {
		o.MaxContentLength = d.MaxContentLength
	}
	return o
}

// 标签长度范围
const (
	minGeneratedTagLength = 2
	maxGeneratedTagLength = 20
)

const metadataSystemPrompt = "你是一个专业的提示词管理助手，擅长分析提示词内容并生成准确的元数据。"

const metadataPromptTemplate = "你是一个专业的提示词管理助手。请根据用户提供的提示词内容，生成以下信息：\n\n" +
	"1. **标题**：一个简洁、准确的标题，能够概括提示词的核心功能或用途\n" +
	"   - 要求：不超过30个字符，使用中文\n" +
	"   - 风格：专业、简洁、易于理解\n\n" +
	"2. **描述**：一段简要的描述，说明这个提示词的用途、适用场景和特点\n" +
	"   - 要求：必须100-150个字符之间，使用中文\n" +
	"   - 内容：详细说明用途、适用场景、主要特点，确保描述充分且完整\n" +
	"   - 重要：描述字数必须严格控制在100-150字符之间，不能少于100字符，不能超过150字符\n\n" +
	"3. **标签**：生成5个相关标签，用于分类和搜索\n" +
	"   - 要求：标签使用中文或英文（技术术语）\n" +
	"   - 类型：技术标签、功能标签、场景标签\n" +
	"   - 每个标签长度2-8个字符\n\n" +
	"**输出格式**：必须严格按照以下 JSON 格式返回，不要包含任何其他文字说明：\n\n" +
	"```json\n" +
	"{\n" +
	"    \"title\": \"标题内容\",\n" +
	"    \"description\": \"描述内容\",\n" +
	"    \"tags\": [\"标签1\", \"标签2\", \"标签3\", \"标签4\", \"标签5\"]\n" +
	"}\n" +
	"```\n\n" +
	"**用户提供的提示词内容**：\n" +
	"%s\n\n" +
	"请开始分析并生成元数据："

const metadataSchemaURL = "metadata.json"

const metadataSchema = `{
	"type": "object",
	"required": ["title", "description", "tags"]
}`

var (
	codeFenceJSON = regexp.MustCompile("```json\\s*")
	codeFence     = regexp.MustCompile("```\\s*")
	metadataBlock = regexp.MustCompile(`\{[^{}]*"title"[^{}]*\}`)
)

// MetadataService 元数据生成服务接口
type MetadataService interface {
	// GenerateMetadata 根据提示词内容生成标题、描述和标签
	GenerateMetadata(ctx context.Context, client clients.AIClient, content string, opts MetadataOptions) (*dto.GeneratedMetadata, error)
}

// metadataServiceImpl 元数据生成服务实现
type metadataServiceImpl struct {
	schema *jsonschema.Schema
	logger logger.Logger
}

// NewMetadataService 创建元数据生成服务
func NewMetadataService(log logger.Logger) (MetadataService, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(metadataSchemaURL, strings.NewReader(metadataSchema)); err != nil {
		return nil, fmt.Errorf("failed to load metadata schema: %w", err)
	}
	schema, err := compiler.Compile(metadataSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile metadata schema: %w", err)
	}

	return &metadataServiceImpl{schema: schema, logger: log}, nil
}

// GenerateMetadata 根据提示词内容生成元数据，不重试
func (s *metadataServiceImpl) GenerateMetadata(ctx context.Context, client clients.AIClient, content string, opts MetadataOptions) (*dto.GeneratedMetadata, error) {
	opts = opts.withDefaults()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationError(ErrEmptyContent)
	}
	if utf8.RuneCountInString(content) > opts.MaxContentLength {
		return nil, validationError(fmt.Errorf("%w: max %d characters", ErrContentTooLong, opts.MaxContentLength))
	}

	maxTokens := metadataTokenBudget(opts.TagCount)
	messages := []clients.ChatMessage{
		{Role: clients.RoleSystem, Content: metadataSystemPrompt},
		{Role: clients.RoleUser, Content: fmt.Sprintf(metadataPromptTemplate, content)},
	}

	start := time.Now()
	resp, err := client.ChatCompletion(ctx, messages, &clients.ChatOverrides{MaxTokens: &maxTokens})
	metrics.RecordAICall(client.Provider(), err, time.Since(start))
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"provider": client.Provider(),
			"error":    err.Error(),
		}).Error("Metadata generation request failed")
		return nil, serviceError(fmt.Errorf("%w: %v", ErrMetadataAIRequest, err))
	}

	raw, err := s.parseResponse(client.ExtractText(resp))
	if err != nil {
		return nil, err
	}

	return s.normalize(raw, opts)
}

// metadataTokenBudget 标题50、描述300、每个标签10、JSON开销100，限制在[500, 2000]
func metadataTokenBudget(tagCount int) int {
	budget := 50 + 300 + tagCount*10 + 100
	if budget < 500 {
		return 500
	}
	if budget > 2000 {
		return 2000
	}
	return budget
}

// parseResponse 先整体解析，失败后提取包含title的JSON片段
func (s *metadataServiceImpl) parseResponse(text string) (map[string]interface{}, error) {
	cleaned := codeFenceJSON.ReplaceAllString(text, "")
	cleaned = codeFence.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	var value interface{}
	strictErr := json.Unmarshal([]byte(cleaned), &value)
	if strictErr == nil {
		metrics.RecordMetadataParse(metrics.ParseStageStrict)
		return s.validateShape(value)
	}

	if block := metadataBlock.FindString(cleaned); block != "" {
		if err := json.Unmarshal([]byte(block), &value); err == nil {
			metrics.RecordMetadataParse(metrics.ParseStageSalvage)
			s.logger.Debug("Metadata parsed from embedded JSON block")
			return s.validateShape(value)
		}
	}

	metrics.RecordMetadataParse(metrics.ParseStageFailed)
	s.logger.WithField("error", strictErr.Error()).Warn("Failed to parse metadata response")
	return nil, serviceError(fmt.Errorf("%w: %v", ErrMetadataFormat, strictErr))
}

// validateShape 校验必需字段
func (s *metadataServiceImpl) validateShape(value interface{}) (map[string]interface{}, error) {
	if err := s.schema.Validate(value); err != nil {
		return nil, validationError(fmt.Errorf("%w: %v", ErrMetadataFields, err))
	}
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, validationError(ErrMetadataFields)
	}
	return obj, nil
}

// normalize 截断标题和描述，按长度分组挑选标签
func (s *metadataServiceImpl) normalize(raw map[string]interface{}, opts MetadataOptions) (*dto.GeneratedMetadata, error) {
	title := truncateRunes(strings.TrimSpace(stringify(raw["title"])), opts.TitleMaxLength)
	if title == "" {
		return nil, validationError(ErrEmptyTitle)
	}

	description := strings.TrimSpace(stringify(raw["description"]))
	if n := utf8.RuneCountInString(description); n > opts.DescriptionMaxLength {
		description = truncateRunes(description, opts.DescriptionMaxLength)
	} else if n < opts.DescriptionMinLength {
		s.logger.WithFields(map[string]interface{}{
			"length":  n,
			"minimum": opts.DescriptionMinLength,
		}).Warn("Generated description is shorter than expected")
	}
	if description == "" {
		return nil, validationError(ErrEmptyDescription)
	}

	tags := selectTags(raw["tags"], opts)
	if len(tags) < 1 {
		return nil, validationError(ErrNoTags)
	}

	return &dto.GeneratedMetadata{
		Title:       title,
		Description: description,
		Tags:        tags,
	}, nil
}

// selectTags 先取预留的两字和四字标签，再依次用剩余两字、四字、其他标签补足
// 单个非空标量视为只有一个标签
func selectTags(value interface{}, opts MetadataOptions) []string {
	var items []interface{}
	switch v := value.(type) {
	case []interface{}:
		items = v
	case nil, bool:
		if v == true {
			items = []interface{}{v}
		}
	case float64:
		if v != 0 {
			items = []interface{}{v}
		}
	default:
		if s := stringify(v); s != "" {
			items = []interface{}{v}
		}
	}

	var twoChar, fourChar, other []string
	for _, item := range items {
		tag := strings.TrimSpace(stringify(item))
		n := utf8.RuneCountInString(tag)
		if n < minGeneratedTagLength || n > maxGeneratedTagLength {
			continue
		}
		switch n {
		case 2:
			twoChar = append(twoChar, tag)
		case 4:
			fourChar = append(fourChar, tag)
		default:
			other = append(other, tag)
		}
	}

	twoTaken := min(opts.TagTwoCharCount, len(twoChar))
	fourTaken := min(opts.TagFourCharCount, len(fourChar))

	selected := make([]string, 0, opts.TagCount)
	selected = append(selected, twoChar[:twoTaken]...)
	selected = append(selected, fourChar[:fourTaken]...)

	if remaining := opts.TagCount - len(selected); remaining > 0 {
		var rest []string
		rest = append(rest, twoChar[twoTaken:]...)
		rest = append(rest, fourChar[fourTaken:]...)
		rest = append(rest, other...)
		if len(rest) > remaining {
			rest = rest[:remaining]
		}
		selected = append(selected, rest...)
	}

	if len(selected) > opts.TagCount {
		selected = selected[:opts.TagCount]
	}
	return selected
}

// stringify 将JSON值转为字符串
func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64, bool:
		return fmt.Sprint(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
