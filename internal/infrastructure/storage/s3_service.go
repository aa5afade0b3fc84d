package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"prompt-manager/internal/infrastructure/config"
	"prompt-manager/internal/infrastructure/logger"
	"prompt-manager/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API 存储用到的S3客户端方法
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3Storage S3存储实现
type s3Storage struct {
	client s3API
	config *config.S3Config
	logger logger.Logger
}

// NewS3Storage 创建S3存储
func NewS3Storage(cfg *config.S3Config, log logger.Logger) (Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3.bucket is required when s3 is enabled")
	}

	var awsCfg aws.Config
	var err error

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		// 使用静态凭证
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			)),
		)
	} else {
		// 使用默认凭证链（环境变量、IAM角色等）
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var options []func(*s3.Options)

	// 自定义端点（如MinIO）
	if cfg.Endpoint != "" {
		options = append(options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	return newS3StorageWithClient(s3.NewFromConfig(awsCfg, options...), cfg, log), nil
}

func newS3StorageWithClient(client s3API, cfg *config.S3Config, log logger.Logger) *s3Storage {
	return &s3Storage{
		client: client,
		config: cfg,
		logger: log,
	}
}

// Name 存储后端名称
func (s *s3Storage) Name() string {
	return "s3"
}

// Save 上传文件到S3
func (s *s3Storage) Save(ctx context.Context, folder, filename, contentType string, content io.Reader) (*UploadResult, error) {
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

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"error":    err.Error(),
			"bucket":   s.config.Bucket,
			"key":      key,
			"filename": filename,
		}).Error("Failed to upload file to S3")
		return nil, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	url := s.fileURL(key)

	s.logger.WithFields(map[string]interface{}{
		"key":      key,
		"filename": filename,
		"url":      url,
	}).Info("File uploaded successfully to S3")

	return &UploadResult{
		Key:      key,
		URL:      url,
		Filename: filename,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

// Delete 删除S3对象
func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"error":  err.Error(),
			"bucket": s.config.Bucket,
			"key":    key,
		}).Error("Failed to delete file from S3")
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// fileURL 文件访问URL
func (s *s3Storage) fileURL(key string) string {
	if s.config.Endpoint != "" {
		endpoint := strings.TrimRight(s.config.Endpoint, "/")
		if s.config.UsePathStyle {
			return fmt.Sprintf("%s/%s/%s", endpoint, s.config.Bucket, key)
		}
		return fmt.Sprintf("%s/%s", endpoint, key)
	}

	// 使用AWS S3的标准URL格式
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.Bucket, s.config.Region, key)
}
