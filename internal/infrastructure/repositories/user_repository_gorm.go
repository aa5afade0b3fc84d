package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/domain/repositories"
	"prompt-manager/internal/infrastructure/cache"
	"prompt-manager/internal/infrastructure/redis"

	"gorm.io/gorm"
)

// userRepositoryGorm GORM用户仓储实现
type userRepositoryGorm struct {
	db    *gorm.DB
	cache *redis.CacheService
	ttl   *cache.CacheTTLManager
}

// cachedUser 缓存中的用户，包含密码哈希
type cachedUser struct {
	entities.User
	PasswordHash string `json:"password_hash"`
}

// NewUserRepositoryGorm 创建GORM用户仓储
func NewUserRepositoryGorm(db *gorm.DB, cacheService *redis.CacheService, ttl *cache.CacheTTLManager) repositories.UserRepository {
	return &userRepositoryGorm{
		db:    db,
		cache: cacheService,
		ttl:   ttl,
	}
}

// Create 创建用户
func (r *userRepositoryGorm) Create(ctx context.Context, user *entities.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// RegisterWithInviteCode 在同一事务中创建用户并消费邀请码
func (r *userRepositoryGorm) RegisterWithInviteCode(ctx context.Context, user *entities.User, code string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var userCount int64
		if err := tx.Model(&entities.User{}).Count(&userCount).Error; err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		// 第一个注册的用户成为管理员
		user.IsAdmin = userCount == 0

		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		// 条件更新保证邀请码只能被消费一次
		result := tx.Model(&entities.InviteCode{}).
			Where("code = ? AND is_used = ?", code, false).
			Updates(map[string]interface{}{
				"is_used": true,
				"used_by": user.ID,
				"used_at": time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to consume invite code: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return entities.ErrInvalidInviteCode
		}
		return nil
	})
}

// GetByID 根据ID获取用户
func (r *userRepositoryGorm) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	if r.cache != nil {
		var cached cachedUser
		if err := r.cache.Get(ctx, GetUserCacheKey(id), &cached); err == nil {
			user := cached.User
			user.PasswordHash = cached.PasswordHash
			return &user, nil
		}
	}

	var user entities.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, GetUserCacheKey(id), cachedUser{User: user, PasswordHash: user.PasswordHash}, r.ttl.GetUserTTL())
	}

	return &user, nil
}

// GetByUsername 根据用户名获取用户
func (r *userRepositoryGorm) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.getBy(ctx, "username = ?", username)
}

// GetByEmail 根据邮箱获取用户
func (r *userRepositoryGorm) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.getBy(ctx, "email = ?", email)
}

func (r *userRepositoryGorm) getBy(ctx context.Context, query string, arg interface{}) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UsernameExists 检查用户名是否被其他用户占用
func (r *userRepositoryGorm) UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entities.User{}).Where("username = ?", username)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

// EmailExists 检查邮箱是否已注册
func (r *userRepositoryGorm) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// Update 更新用户
func (r *userRepositoryGorm) Update(ctx context.Context, user *entities.User) error {
	result := r.db.WithContext(ctx).Model(user).Select("*").Omit("id", "created_at").Updates(user)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return entities.ErrUserNotFound
	}

	r.invalidate(ctx, user.ID)
	return nil
}

// SetBanned 设置封禁状态
func (r *userRepositoryGorm) SetBanned(ctx context.Context, id int64, banned bool) error {
	result := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Update("is_banned", banned)
	if result.Error != nil {
		return fmt.Errorf("failed to update ban status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return entities.ErrUserNotFound
	}

	r.invalidate(ctx, id)
	return nil
}

// Delete 删除用户及其提示词、收藏和AI配置
func (r *userRepositoryGorm) Delete(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var promptIDs []int64
		if err := tx.Model(&entities.Prompt{}).Where("user_id = ?", id).Pluck("id", &promptIDs).Error; err != nil {
			return fmt.Errorf("failed to list user prompts: %w", err)
		}

		if len(promptIDs) > 0 {
			if err := tx.Exec("DELETE FROM tags_prompts WHERE prompt_id IN ?", promptIDs).Error; err != nil {
				return fmt.Errorf("failed to delete prompt tags: %w", err)
			}
			if err := tx.Where("prompt_id IN ?", promptIDs).Delete(&entities.Favorite{}).Error; err != nil {
				return fmt.Errorf("failed to delete prompt favorites: %w", err)
			}
			if err := tx.Where("id IN ?", promptIDs).Delete(&entities.Prompt{}).Error; err != nil {
				return fmt.Errorf("failed to delete prompts: %w", err)
			}
		}

		if err := tx.Where("user_id = ?", id).Delete(&entities.Favorite{}).Error; err != nil {
			return fmt.Errorf("failed to delete favorites: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&entities.AIConfig{}).Error; err != nil {
			return fmt.Errorf("failed to delete ai config: %w", err)
		}
		if err := tx.Model(&entities.InviteCode{}).Where("used_by = ?", id).Update("used_by", nil).Error; err != nil {
			return fmt.Errorf("failed to detach invite codes: %w", err)
		}

		result := tx.Delete(&entities.User{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return entities.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.invalidate(ctx, id)
	if r.cache != nil {
		_ = r.cache.Delete(ctx, GetPublicTagsCacheKey())
	}
	return nil
}

// List 按ID顺序获取全部用户
func (r *userRepositoryGorm) List(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Count 用户总数
func (r *userRepositoryGorm) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// GetStats 获取用户统计
func (r *userRepositoryGorm) GetStats(ctx context.Context, id int64) (*repositories.UserStats, error) {
	var stats repositories.UserStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&entities.Prompt{}).Where("user_id = ?", id).Count(&stats.PromptCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count prompts: %w", err)
	}
	if err := db.Model(&entities.Favorite{}).Where("user_id = ?", id).Count(&stats.FavoriteCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count favorites: %w", err)
	}
	if err := db.Model(&entities.Prompt{}).Where("user_id = ?", id).
		Select("COALESCE(SUM(view_count), 0)").Scan(&stats.TotalViews).Error; err != nil {
		return nil, fmt.Errorf("failed to sum views: %w", err)
	}

	return &stats, nil
}

// invalidate 清除用户缓存
func (r *userRepositoryGorm) invalidate(ctx context.Context, id int64) {
	if r.cache != nil {
		_ = r.cache.Delete(ctx, GetUserCacheKey(id))
	}
}
