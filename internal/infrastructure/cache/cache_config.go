package cache

import (
	"time"

	"prompt-manager/internal/infrastructure/config"
)

// 默认TTL
const (
	defaultUserTTL = 5 * time.Minute
	defaultTagTTL  = 10 * time.Minute
)

// CacheTTLManager 缓存TTL配置管理器
type CacheTTLManager struct {
	userTTL time.Duration
	tagTTL  time.Duration
}

// NewCacheTTLManager 根据配置创建TTL管理器，零值字段使用默认值
func NewCacheTTLManager(cfg config.CacheConfig) *CacheTTLManager {
	m := &CacheTTLManager{
		userTTL: cfg.UserTTL,
		tagTTL:  cfg.TagTTL,
	}
	if m.userTTL <= 0 {
		m.userTTL = defaultUserTTL
	}
	if m.tagTTL <= 0 {
		m.tagTTL = defaultTagTTL
	}
	return m
}

// GetUserTTL 获取用户缓存TTL
func (m *CacheTTLManager) GetUserTTL() time.Duration {
	return m.userTTL
}

// GetTagListTTL 获取标签列表缓存TTL
func (m *CacheTTLManager) GetTagListTTL() time.Duration {
	return m.tagTTL
}
