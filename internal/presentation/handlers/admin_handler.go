package handlers

import (
	"net/http"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/application/services"
	"prompt-manager/internal/infrastructure/logger"
	"prompt-manager/internal/presentation/middleware"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理处理器
type AdminHandler struct {
	adminService services.AdminService
	logger       logger.Logger
}

// NewAdminHandler 创建管理处理器
func NewAdminHandler(adminService services.AdminService, logger logger.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

// GenerateInviteCodes 生成邀请码
// @Summary 批量生成邀请码
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.GenerateInviteCodesRequest true "数量（1-10）"
// @Success 201 {object} dto.Response{data=dto.GenerateInviteCodesResponse} "生成成功"
// @Failure 400 {object} dto.Response "数量超出范围"
// @Failure 403 {object} dto.Response "需要管理员权限"
// @Security BearerAuth
// @Router /api/admin/invite-codes [post]
func (h *AdminHandler) GenerateInviteCodes(c *gin.Context) {
	var req dto.GenerateInviteCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	codes, err := h.adminService.GenerateInviteCodes(c.Request.Context(), middleware.GetUserID(c), req.Quantity)
	if err != nil {
		respondError(c, h.logger, err, "generate_invite_codes")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"admin_id": middleware.GetUserID(c),
		"quantity": len(codes),
	}).Info("Invite codes generated")

	c.JSON(http.StatusCreated, dto.SuccessResponse(dto.GenerateInviteCodesResponse{Codes: codes}, "Invite codes generated"))
}

// ListInviteCodes 邀请码列表
// @Summary 邀请码列表
// @Tags admin
// @Produce json
// @Success 200 {object} dto.Response{data=[]dto.InviteCodeResponse} "获取成功"
// @Security BearerAuth
// @Router /api/admin/invite-codes [get]
func (h *AdminHandler) ListInviteCodes(c *gin.Context) {
	codes, err := h.adminService.ListInviteCodes(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "list_invite_codes")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(codes, "Invite codes retrieved successfully"))
}

// DeleteInviteCodes 删除邀请码
// @Summary 批量删除邀请码
// @Description 不存在的邀请码被忽略
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.DeleteInviteCodesRequest true "邀请码列表"
// @Success 200 {object} dto.Response{data=dto.DeleteInviteCodesResponse} "删除成功"
// @Security BearerAuth
// @Router /api/admin/invite-codes [delete]
func (h *AdminHandler) DeleteInviteCodes(c *gin.Context) {
	var req dto.DeleteInviteCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	deleted, err := h.adminService.DeleteInviteCodes(c.Request.Context(), req.Codes)
	if err != nil {
		respondError(c, h.logger, err, "delete_invite_codes")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(dto.DeleteInviteCodesResponse{Deleted: deleted}, "Invite codes deleted"))
}

// ListUsers 用户列表
// @Summary 用户列表
// @Tags admin
// @Produce json
// @Success 200 {object} dto.Response{data=[]dto.UserResponse} "获取成功"
// @Security BearerAuth
// @Router /api/admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "list_users")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(users, "Users retrieved successfully"))
}

// SetBanned 封禁或解封
// @Summary 封禁或解封用户
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "用户ID"
// @Param request body dto.BanUserRequest true "封禁状态"
// @Success 200 {object} dto.Response "操作成功"
// @Failure 403 {object} dto.Response "不能封禁管理员"
// @Failure 404 {object} dto.Response "用户不存在"
// @Security BearerAuth
// @Router /api/admin/users/{id}/ban [post]
func (h *AdminHandler) SetBanned(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.BanUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.adminService.SetBanned(c.Request.Context(), id, *req.Banned); err != nil {
		respondError(c, h.logger, err, "set_banned")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"admin_id": middleware.GetUserID(c),
		"user_id":  id,
		"banned":   *req.Banned,
	}).Info("User ban status changed")

	c.JSON(http.StatusOK, dto.SuccessResponse(nil, "User updated"))
}

// DeleteUser 删除用户
// @Summary 删除用户及其全部数据
// @Tags admin
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} dto.Response "删除成功"
// @Failure 403 {object} dto.Response "不能删除管理员"
// @Failure 404 {object} dto.Response "用户不存在"
// @Security BearerAuth
// @Router /api/admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "delete_user")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"admin_id": middleware.GetUserID(c),
		"user_id":  id,
	}).Info("User deleted")

	c.JSON(http.StatusOK, dto.SuccessResponse(nil, "User deleted"))
}
