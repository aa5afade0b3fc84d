package repositories

import (
	"prompt-manager/internal/domain/repositories"
	"prompt-manager/internal/infrastructure/cache"
	"prompt-manager/internal/infrastructure/config"
	"prompt-manager/internal/infrastructure/redis"

	"gorm.io/gorm"
)

// RepositoryFactory 仓储工厂（基于GORM）
type RepositoryFactory struct {
	gormDB *gorm.DB
	cache  *redis.CacheService
	ttl    *cache.CacheTTLManager
}

// NewRepositoryFactory 创建GORM仓储工厂
func NewRepositoryFactory(gormDB *gorm.DB) *RepositoryFactory {
	return &RepositoryFactory{
		gormDB: gormDB,
		cache:  nil,
		ttl:    cache.NewCacheTTLManager(config.CacheConfig{}),
	}
}

// NewRepositoryFactoryWithCache 创建带缓存的GORM仓储工厂
func NewRepositoryFactoryWithCache(gormDB *gorm.DB, cacheService *redis.CacheService, ttl *cache.CacheTTLManager) *RepositoryFactory {
	return &RepositoryFactory{
		gormDB: gormDB,
		cache:  cacheService,
		ttl:    ttl,
	}
}

// DB 获取底层数据库连接
func (f *RepositoryFactory) DB() *gorm.DB {
	return f.gormDB
}

// UserRepository 获取用户仓储
func (f *RepositoryFactory) UserRepository() repositories.UserRepository {
	return NewUserRepositoryGorm(f.gormDB, f.cache, f.ttl)
}

// InviteCodeRepository 获取邀请码仓储
func (f *RepositoryFactory) InviteCodeRepository() repositories.InviteCodeRepository {
	return NewInviteCodeRepositoryGorm(f.gormDB)
}

// PromptRepository 获取提示词仓储
func (f *RepositoryFactory) PromptRepository() repositories.PromptRepository {
	return NewPromptRepositoryGorm(f.gormDB, f.cache)
}

// TagRepository 获取标签仓储
func (f *RepositoryFactory) TagRepository() repositories.TagRepository {
	return NewTagRepositoryGorm(f.gormDB, f.cache, f.ttl)
}

// FavoriteRepository 获取收藏仓储
func (f *RepositoryFactory) FavoriteRepository() repositories.FavoriteRepository {
	return NewFavoriteRepositoryGorm(f.gormDB)
}

// AIConfigRepository 获取AI配置仓储
func (f *RepositoryFactory) AIConfigRepository() repositories.AIConfigRepository {
	return NewAIConfigRepositoryGorm(f.gormDB)
}
