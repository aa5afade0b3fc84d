package handlers

import (
	"net/http"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/application/services"
	"prompt-manager/internal/infrastructure/logger"
	"prompt-manager/internal/presentation/middleware"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	userService services.UserService
	logger      logger.Logger
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userService services.UserService, logger logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetProfile 当前用户资料
// @Summary 获取当前用户资料
// @Tags users
// @Produce json
// @Success 200 {object} dto.Response{data=dto.UserProfileResponse} "获取成功"
// @Failure 401 {object} dto.Response "未认证"
// @Security BearerAuth
// @Router /api/users/me [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.userService.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "get_profile")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(profile, "Profile retrieved successfully"))
}

// UpdateProfile 更新资料
// @Summary 更新用户名和简介
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.UpdateProfileRequest true "更新资料请求"
// @Success 200 {object} dto.Response{data=dto.UserResponse} "更新成功"
// @Failure 409 {object} dto.Response "用户名已被占用"
// @Security BearerAuth
// @Router /api/users/me [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err, "update_profile")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(user, "Profile updated successfully"))
}

// UploadAvatar 上传头像
// @Summary 上传头像
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "头像文件（png/jpg/jpeg/gif/webp）"
// @Success 200 {object} dto.Response{data=dto.UploadResponse} "上传成功"
// @Failure 400 {object} dto.Response "文件类型不允许"
// @Failure 413 {object} dto.Response "文件过大"
// @Security BearerAuth
// @Router /api/users/me/avatar [post]
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse("MISSING_FILE", "Avatar file is required", nil))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, h.logger, err, "upload_avatar")
		return
	}
	defer file.Close()

	resp, err := h.userService.UploadAvatar(
		c.Request.Context(),
		middleware.GetUserID(c),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		respondError(c, h.logger, err, "upload_avatar")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(resp, "Avatar uploaded successfully"))
}

// GetPublicProfile 公开主页
// @Summary 获取用户公开主页
// @Description 包含统计和用户收藏的提示词（按收藏时间倒序，仅返回调用者可见的提示词）
// @Tags users
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} dto.Response{data=dto.PublicProfileResponse} "获取成功"
// @Failure 404 {object} dto.Response "用户不存在"
// @Router /api/users/{id} [get]
func (h *UserHandler) GetPublicProfile(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	profile, err := h.userService.GetPublicProfile(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "get_public_profile")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(profile, "Profile retrieved successfully"))
}
