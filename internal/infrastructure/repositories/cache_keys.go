package repositories

import "fmt"

// 缓存key常量定义
const (
	// 用户相关缓存key
	CacheKeyUserByID = "user:id:%d"

	// 标签相关缓存key
	CacheKeyPublicTags = "tags:public"
)

// GetUserCacheKey 用户ID缓存key
func GetUserCacheKey(userID int64) string {
	return fmt.Sprintf(CacheKeyUserByID, userID)
}

// GetPublicTagsCacheKey 公开标签列表缓存key
func GetPublicTagsCacheKey() string {
	return CacheKeyPublicTags
}
