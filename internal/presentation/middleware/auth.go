package middleware

import (
	"errors"
	"net/http"
	"strings"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/application/services"
	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/domain/repositories"
	"prompt-manager/internal/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware JWT认证中间件
type AuthMiddleware struct {
	jwtService services.JWTService
	userRepo   repositories.UserRepository
	logger     logger.Logger
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtService services.JWTService, userRepo repositories.UserRepository, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		userRepo:   userRepo,
		logger:     log,
	}
}

// RequireAuth 要求有效的访问令牌，封禁用户返回403
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortUnauthorized(c, "Missing authorization token")
			return
		}

		user, err := m.authenticate(c, token)
		if err != nil {
			if errors.Is(err, entities.ErrUserBanned) {
				c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse(
					"ACCOUNT_BANNED",
					"Account is banned",
					nil,
				))
				return
			}
			m.logger.WithFields(map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			}).Debug("Authentication failed")
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// OptionalAuth 令牌有效时设置用户，否则按匿名访问
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if user, err := m.authenticate(c, token); err == nil {
				setUser(c, user)
			}
		}
		c.Next()
	}
}

// RequireAdmin 要求管理员，需在RequireAuth之后使用
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse(
				"ADMIN_REQUIRED",
				"Administrator privileges required",
				nil,
			))
			return
		}
		c.Next()
	}
}

// authenticate 校验令牌并重新读取用户，使封禁和权限变更立即生效
func (m *AuthMiddleware) authenticate(c *gin.Context, token string) (*entities.User, error) {
	claims, err := m.jwtService.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	user, err := m.userRepo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.CanLogin() {
		return nil, entities.ErrUserBanned
	}
	return user, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func setUser(c *gin.Context, user *entities.User) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyUsername, user.Username)
	c.Set(ContextKeyIsAdmin, user.IsAdmin)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse(
		"UNAUTHORIZED",
		message,
		nil,
	))
}
