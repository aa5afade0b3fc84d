package handlers

import (
	"context"
	"net/http"
	"time"

	"prompt-manager/internal/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

// Pinger 可探活的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc 函数适配为Pinger
type PingFunc func(ctx context.Context) error

// Ping 调用函数本身
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

const healthCheckTimeout = 3 * time.Second

// HealthHandler 健康检查处理器
type HealthHandler struct {
	database Pinger
	cache    Pinger
	logger   logger.Logger
}

// NewHealthHandler 创建健康检查处理器，cache为nil表示未启用缓存
func NewHealthHandler(database Pinger, cache Pinger, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		database: database,
		cache:    cache,
		logger:   logger,
	}
}

// Health 健康检查
// @Summary 健康检查
// @Description 检查数据库和缓存连通性
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string "服务正常"
// @Failure 503 {object} map[string]string "依赖不可用"
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":    "ok",
		"database":  "ok",
		"cache":     "disabled",
		"timestamp": time.Now().Unix(),
	}

	if err := h.database.Ping(ctx); err != nil {
		h.logger.WithField("error", err.Error()).Error("Database health check failed")
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = "unavailable"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			// 缓存不可用时仍可服务
			h.logger.WithField("error", err.Error()).Warn("Cache health check failed")
			body["cache"] = "unavailable"
		} else {
			body["cache"] = "ok"
		}
	}

	c.JSON(status, body)
}
