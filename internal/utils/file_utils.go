package utils

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AllowedImageExtensions 头像和封面允许的扩展名
var AllowedImageExtensions = []string{"png", "jpg", "jpeg", "gif", "webp"}

// FileKeyGenerationConfig 文件键生成配置
type FileKeyGenerationConfig struct {
	Prefix      string // 文件键前缀，如 "avatars"
	UseDateTime bool   // 是否使用日期路径
	UseUUID     bool   // 是否使用UUID作为文件名
}

// IsAllowedFileType 检查文件类型是否被允许
// 这是一个纯函数，可以直接调用
func IsAllowedFileType(contentType string, allowedTypes []string) bool {
	if len(allowedTypes) == 0 {
		return true // 如果没有限制，允许所有类型
	}

	for _, allowedType := range allowedTypes {
		if contentType == allowedType {
			return true
		}
		// 支持通配符匹配，如 "image/*"
		if strings.HasSuffix(allowedType, "/*") {
			prefix := strings.TrimSuffix(allowedType, "/*")
			if strings.HasPrefix(contentType, prefix+"/") {
				return true
			}
		}
	}

	return false
}

// IsAllowedImageExtension 检查文件扩展名是否为允许的图片格式（不区分大小写）
func IsAllowedImageExtension(filename string) bool {
	ext := strings.ToLower(GetFileExtensionWithoutDot(filename))
	for _, allowed := range AllowedImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// InferMimeType 从文件名推断MIME类型
// 这是一个纯函数，可以直接调用
func InferMimeType(filename string) string {
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	// 去掉 charset 等参数
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	return contentType
}

// GenerateFileKey 在指定前缀下生成唯一文件键
func GenerateFileKey(prefix, filename string) string {
	return GenerateFileKeyWithConfig(filename, FileKeyGenerationConfig{
		Prefix:      prefix,
		UseDateTime: true,
		UseUUID:     true,
	})
}

// GenerateFileKeyWithConfig 使用配置生成文件键
func GenerateFileKeyWithConfig(filename string, config FileKeyGenerationConfig) string {
	var parts []string

	if config.Prefix != "" {
		parts = append(parts, strings.Trim(config.Prefix, "/"))
	}

	if config.UseDateTime {
		now := time.Now()
		parts = append(parts, fmt.Sprintf("%d/%02d/%02d", now.Year(), now.Month(), now.Day()))
	}

	var fileName string
	if config.UseUUID {
		fileName = uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	} else {
		fileName = filepath.Base(filename)
	}

	parts = append(parts, fileName)
	return strings.Join(parts, "/")
}

// GetFileExtensionWithoutDot 获取文件扩展名（不包含点号）
func GetFileExtensionWithoutDot(filename string) string {
	return strings.TrimPrefix(filepath.Ext(filename), ".")
}
