package handlers

import (
	"net/http"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/application/services"
	"prompt-manager/internal/infrastructure/logger"
	"prompt-manager/internal/presentation/middleware"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService services.AuthService
	logger      logger.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService services.AuthService, logger logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register 注册
// @Summary 使用邀请码注册
// @Description 第一个注册的用户自动成为管理员
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "注册请求"
// @Success 201 {object} dto.Response{data=dto.RegisterResponse} "注册成功"
// @Failure 400 {object} dto.Response "请求参数错误或邀请码无效"
// @Failure 409 {object} dto.Response "用户名或邮箱已存在"
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "register")
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessResponse(resp, "User registered successfully"))
}

// Login 登录
// @Summary 邮箱密码登录
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录请求"
// @Success 200 {object} dto.Response{data=dto.LoginResponse} "登录成功"
// @Failure 401 {object} dto.Response "邮箱或密码错误"
// @Failure 403 {object} dto.Response "账号已被封禁"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "login")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(resp, "Login successful"))
}

// RefreshToken 刷新令牌
// @Summary 刷新访问令牌
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "刷新请求"
// @Success 200 {object} dto.Response{data=dto.RefreshTokenResponse} "刷新成功"
// @Failure 401 {object} dto.Response "令牌无效"
// @Router /api/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.authService.RefreshToken(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "refresh_token")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(resp, "Token refreshed"))
}

// ChangePassword 修改密码
// @Summary 修改当前用户密码
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.ChangePasswordRequest true "修改密码请求"
// @Success 200 {object} dto.Response "修改成功"
// @Failure 400 {object} dto.Response "新密码不符合要求"
// @Failure 401 {object} dto.Response "原密码错误"
// @Security BearerAuth
// @Router /api/users/me/password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), middleware.GetUserID(c), &req); err != nil {
		respondError(c, h.logger, err, "change_password")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(nil, "Password changed successfully"))
}
