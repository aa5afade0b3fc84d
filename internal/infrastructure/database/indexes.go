package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"prompt-manager/internal/infrastructure/logger"

	"gorm.io/gorm"
)

// IndexInfo 索引信息
type IndexInfo struct {
	Name        string
	Table       string
	Columns     []string
	Condition   string // WHERE 条件，用于部分索引
	Concurrent  bool   // 仅PostgreSQL生效
	Description string
}

// PerformanceIndexes 性能优化索引列表
var PerformanceIndexes = []IndexInfo{
	{
		Name:        "idx_prompts_public_ranking",
		Table:       "prompts",
		Columns:     []string{"view_count DESC", "created_at DESC"},
		Condition:   "is_public = true",
		Description: "公开提示词按浏览量和创建时间排序",
		Concurrent:  true,
	},
	{
		Name:        "idx_prompts_user_created",
		Table:       "prompts",
		Columns:     []string{"user_id", "created_at DESC"},
		Description: "我的提示词按创建时间分页",
		Concurrent:  true,
	},
	{
		Name:        "idx_favorites_user_created",
		Table:       "favorites",
		Columns:     []string{"user_id", "created_at DESC"},
		Description: "用户收藏按收藏时间排序",
		Concurrent:  true,
	},
	{
		Name:        "idx_tags_prompts_tag",
		Table:       "tags_prompts",
		Columns:     []string{"tag_id"},
		Description: "按标签筛选提示词",
		Concurrent:  true,
	},
	{
		Name:        "idx_invite_codes_created",
		Table:       "invite_codes",
		Columns:     []string{"created_at DESC"},
		Description: "邀请码按创建时间倒序",
		Concurrent:  true,
	},
}

// CreatePerformanceIndexes 创建性能优化索引
func CreatePerformanceIndexes(db *gorm.DB, log logger.Logger) error {
	log.Info("Starting to create performance indexes...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	createdCount := 0
	skippedCount := 0

	for _, indexInfo := range PerformanceIndexes {
		exists, err := indexExists(db, indexInfo.Name)
		if err != nil {
			log.WithFields(map[string]interface{}{
				"index_name": indexInfo.Name,
				"error":      err.Error(),
			}).Warn("Failed to check if index exists, skipping")
			skippedCount++
			continue
		}

		if exists {
			log.WithFields(map[string]interface{}{
				"index_name": indexInfo.Name,
				"table":      indexInfo.Table,
			}).Debug("Index already exists, skipping")
			skippedCount++
			continue
		}

		if err := createIndex(ctx, db, indexInfo, log); err != nil {
			log.WithFields(map[string]interface{}{
				"index_name":  indexInfo.Name,
				"table":       indexInfo.Table,
				"description": indexInfo.Description,
				"error":       err.Error(),
			}).Error("Failed to create index")
			continue
		}

		createdCount++
		log.WithFields(map[string]interface{}{
			"index_name":  indexInfo.Name,
			"table":       indexInfo.Table,
			"description": indexInfo.Description,
		}).Info("Successfully created performance index")
	}

	log.WithFields(map[string]interface{}{
		"created_count": createdCount,
		"skipped_count": skippedCount,
		"total_count":   len(PerformanceIndexes),
	}).Info("Performance indexes creation completed")

	return nil
}

// indexExists 检查索引是否存在
func indexExists(db *gorm.DB, indexName string) (bool, error) {
	var count int64

	switch db.Dialector.Name() {
	case DriverPostgres:
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE indexname = ? AND schemaname = 'public'
		`, indexName).Scan(&count).Error
		return count > 0, err
	case DriverSQLite:
		err := db.Raw(`
			SELECT COUNT(*)
			FROM sqlite_master
			WHERE type = 'index' AND name = ?
		`, indexName).Scan(&count).Error
		return count > 0, err
	default:
		return false, fmt.Errorf("unsupported database type: %s", db.Dialector.Name())
	}
}

// createIndex 创建索引
func createIndex(ctx context.Context, db *gorm.DB, indexInfo IndexInfo, log logger.Logger) error {
	sql := buildCreateIndexSQL(indexInfo, db.Dialector.Name() == DriverPostgres)

	log.WithFields(map[string]interface{}{
		"index_name": indexInfo.Name,
		"sql":        sql,
	}).Debug("Executing index creation SQL")

	return db.WithContext(ctx).Exec(sql).Error
}

// buildCreateIndexSQL 构建创建索引的SQL
func buildCreateIndexSQL(indexInfo IndexInfo, postgres bool) string {
	var sql strings.Builder

	sql.WriteString("CREATE INDEX")
	if indexInfo.Concurrent && postgres {
		sql.WriteString(" CONCURRENTLY")
	}

	sql.WriteString(" IF NOT EXISTS ")
	sql.WriteString(indexInfo.Name)
	sql.WriteString(" ON ")
	sql.WriteString(indexInfo.Table)
	sql.WriteString(" (")
	sql.WriteString(strings.Join(indexInfo.Columns, ", "))
	sql.WriteString(")")

	if indexInfo.Condition != "" {
		sql.WriteString(" WHERE ")
		sql.WriteString(indexInfo.Condition)
	}

	return sql.String()
}
