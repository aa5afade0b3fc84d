package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/infrastructure/config"
	"prompt-manager/internal/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdleTTL 闲置超过该时间的限流器会被回收
const limiterIdleTTL = 2 * time.Hour

// limiterEntry 单个调用方的限流器
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore 按键分组的令牌桶
type limiterStore struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	entries   map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(limit rate.Limit, burst int) *limiterStore {
	return &limiterStore{
		limit:   limit,
		burst:   burst,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

// reserve 消耗一个令牌，不足时返回需要等待的时间
func (s *limiterStore) reserve(key string) (bool, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > limiterIdleTTL {
		for k, e := range s.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(s.entries, k)
			}
		}
		s.lastSweep = now
	}

	entry, ok := s.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = entry
	}
	entry.lastSeen = now

	r := entry.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// RateLimitMiddleware 限流中间件
type RateLimitMiddleware struct {
	enabled bool
	global  *limiterStore
	ai      *limiterStore
	logger  logger.Logger
}

// NewRateLimitMiddleware 创建限流中间件，全局按IP每分钟限流，元数据生成按用户每小时限流
func NewRateLimitMiddleware(cfg *config.RateLimitConfig, log logger.Logger) *RateLimitMiddleware {
	m := &RateLimitMiddleware{enabled: cfg.Enabled, logger: log}

	if cfg.RequestsPerMinute > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = cfg.RequestsPerMinute
		}
		m.global = newLimiterStore(rate.Limit(float64(cfg.RequestsPerMinute)/60), burst)
	}
	if cfg.AIRequestsPerHour > 0 {
		m.ai = newLimiterStore(rate.Limit(float64(cfg.AIRequestsPerHour)/3600), cfg.AIRequestsPerHour)
	}
	return m
}

// Global 按客户端IP限流
func (m *RateLimitMiddleware) Global() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled || m.global == nil {
			c.Next()
			return
		}
		m.check(c, m.global, "ip:"+c.ClientIP())
	}
}

// AIGeneration 按用户限流，需在认证之后使用
func (m *RateLimitMiddleware) AIGeneration() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled || m.ai == nil {
			c.Next()
			return
		}
		key := "user:" + strconv.FormatInt(GetUserID(c), 10)
		if GetUserID(c) == 0 {
			key = "ip:" + c.ClientIP()
		}
		m.check(c, m.ai, key)
	}
}

func (m *RateLimitMiddleware) check(c *gin.Context, store *limiterStore, key string) {
	allowed, wait := store.reserve(key)
	if allowed {
		c.Next()
		return
	}

	retryAfter := int(math.Ceil(wait.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	m.logger.WithFields(map[string]interface{}{
		"key":         key,
		"path":        c.Request.URL.Path,
		"retry_after": retryAfter,
	}).Warn("Rate limit exceeded")

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse(
		"RATE_LIMIT_EXCEEDED",
		fmt.Sprintf("Too many requests, retry after %d seconds", retryAfter),
		nil,
	))
}
