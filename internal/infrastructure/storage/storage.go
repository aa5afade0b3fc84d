package storage

import (
	"context"
	"errors"
	"io"

	"prompt-manager/internal/infrastructure/config"
	"prompt-manager/internal/infrastructure/logger"
)

// 上传目录
const (
	FolderAvatars = "avatars"
	FolderCovers  = "covers"
)

var (
	// ErrFileTypeNotAllowed 文件类型不允许
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	// ErrFileTooLarge 文件过大
	ErrFileTooLarge = errors.New("file too large")
)

// UploadResult 上传结果
type UploadResult struct {
	Key      string `json:"key"`       // 存储键
	URL      string `json:"url"`       // 文件访问URL
	Filename string `json:"filename"`  // 原始文件名
	Size     int64  `json:"size"`      // 文件大小
	MimeType string `json:"mime_type"` // MIME类型
}

// Storage 上传文件存储接口
type Storage interface {
	// Save 保存文件到指定目录
	Save(ctx context.Context, folder, filename, contentType string, content io.Reader) (*UploadResult, error)
	// Delete 删除文件
	Delete(ctx context.Context, key string) error
	// Name 存储后端名称
	Name() string
}

// NewStorage 根据配置创建存储，启用S3时使用S3，否则使用本地磁盘
func NewStorage(cfg *config.Config, log logger.Logger) (Storage, error) {
	if cfg.S3.Enabled {
		return NewS3Storage(&cfg.S3, log)
	}
	return NewLocalStorage(&cfg.Storage, log)
}
