package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"prompt-manager/internal/infrastructure/config"
	"prompt-manager/internal/infrastructure/logger"
	"prompt-manager/internal/utils"
)

// localStorage 本地磁盘存储，文件通过静态路由对外提供
type localStorage struct {
	config *config.StorageConfig
	logger logger.Logger
}

// NewLocalStorage 创建本地磁盘存储
func NewLocalStorage(cfg *config.StorageConfig, log logger.Logger) (Storage, error) {
	if err := os.MkdirAll(cfg.LocalDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &localStorage{config: cfg, logger: log}, nil
}

// Name 存储后端名称
func (s *localStorage) Name() string {
	return "local"
}

// Save 保存文件到本地目录
func (s *localStorage) Save(ctx context.Context, folder, filename, contentType string, content io.Reader) (*UploadResult, error) {
	if contentType == "" {
		contentType = utils.InferMimeType(filename)
	}

	if !utils.IsAllowedFileType(contentType, s.config.AllowedTypes) {
		return nil, fmt.Errorf("%w: %s", ErrFileTypeNotAllowed, contentType)
	}

	data, err := readLimited(content, s.config.MaxFileSize)
	if err != nil {
		return nil, err
	}

	key := utils.GenerateFileKey(folder, filename)
	path := filepath.Join(s.config.LocalDir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	url := strings.TrimRight(s.config.PublicPrefix, "/") + "/" + key

	s.logger.WithFields(map[string]interface{}{
		"key":      key,
		"filename": filename,
		"size":     len(data),
	}).Info("File stored locally")

	return &UploadResult{
		Key:      key,
		URL:      url,
		Filename: filename,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

// Delete 删除本地文件，文件不存在时忽略
func (s *localStorage) Delete(ctx context.Context, key string) error {
	clean := filepath.Clean("/" + key)
	path := filepath.Join(s.config.LocalDir, clean)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

// readLimited 读取内容，超过上限返回 ErrFileTooLarge
func readLimited(content io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		data, err := io.ReadAll(content)
		if err != nil {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(content, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
