package services

import (
	"context"
	"regexp"
	"strings"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/domain/repositories"
)

// maxTagLength 标签名最大字符数，与表结构一致
const maxTagLength = 50

// tagSeparators 标签分隔符：中英文逗号分号、顿号、空白、#、/、|、·、-、_、+、*、~、反引号
var tagSeparators = regexp.MustCompile("[,;，；、\\s#/|·\\-_+*~`]+")

// ParseTags 拆分标签输入，去除空白和重复项，保留首次出现的顺序
func ParseTags(fields []string) []string {
	seen := make(map[string]bool)
	tags := make([]string, 0, len(fields))

	for _, field := range fields {
		if strings.TrimSpace(field) == "" {
			continue
		}
		for _, part := range tagSeparators.Split(field, -1) {
			name := truncateRunes(strings.TrimSpace(part), maxTagLength)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			tags = append(tags, name)
		}
	}

	return tags
}

// TagService 标签服务接口
type TagService interface {
	// ListTags 所有标签及其公开提示词数量
	ListTags(ctx context.Context) ([]dto.TagResponse, error)
}

// tagServiceImpl 标签服务实现
type tagServiceImpl struct {
	tagRepo repositories.TagRepository
}

// NewTagService 创建标签服务
func NewTagService(tagRepo repositories.TagRepository) TagService {
	return &tagServiceImpl{tagRepo: tagRepo}
}

// ListTags 所有标签及其公开提示词数量，按数量倒序
func (s *tagServiceImpl) ListTags(ctx context.Context) ([]dto.TagResponse, error) {
	tags, err := s.tagRepo.ListWithPublicCounts(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]dto.TagResponse, 0, len(tags))
	for _, t := range tags {
		items = append(items, dto.TagResponse{
			ID:          t.ID,
			Name:        t.Name,
			PromptCount: t.PromptCount,
		})
	}
	return items, nil
}

// truncateRunes 按字符数截断
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
