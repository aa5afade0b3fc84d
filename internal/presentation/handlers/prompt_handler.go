package handlers

import (
	"net/http"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/application/services"
	"prompt-manager/internal/infrastructure/logger"
	"prompt-manager/internal/presentation/middleware"

	"github.com/gin-gonic/gin"
)

// PromptHandler 提示词处理器
type PromptHandler struct {
	promptService services.PromptService
	tagService    services.TagService
	logger        logger.Logger
}

// NewPromptHandler 创建提示词处理器
func NewPromptHandler(promptService services.PromptService, tagService services.TagService, logger logger.Logger) *PromptHandler {
	return &PromptHandler{
		promptService: promptService,
		tagService:    tagService,
		logger:        logger,
	}
}

// Create 创建提示词
// @Summary 创建提示词
// @Tags prompts
// @Accept json
// @Produce json
// @Param request body dto.CreatePromptRequest true "提示词"
// @Success 201 {object} dto.Response{data=dto.PromptResponse} "创建成功"
// @Failure 400 {object} dto.Response "标题和内容必填"
// @Security BearerAuth
// @Router /api/prompts [post]
func (h *PromptHandler) Create(c *gin.Context) {
	var req dto.CreatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	prompt, err := h.promptService.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err, "create_prompt")
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessResponse(prompt, "Prompt created successfully"))
}

// Get 查看提示词
// @Summary 查看提示词
// @Description 私有提示词仅作者可见，每次查看浏览数加一
// @Tags prompts
// @Produce json
// @Param id path int true "提示词ID"
// @Success 200 {object} dto.Response{data=dto.PromptResponse} "获取成功"
// @Failure 404 {object} dto.Response "提示词不存在"
// @Router /api/prompts/{id} [get]
func (h *PromptHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	prompt, err := h.promptService.Get(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "get_prompt")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(prompt, "Prompt retrieved successfully"))
}

// Update 更新提示词
// @Summary 更新提示词
// @Tags prompts
// @Accept json
// @Produce json
// @Param id path int true "提示词ID"
// @Param request body dto.UpdatePromptRequest true "提示词"
// @Success 200 {object} dto.Response{data=dto.PromptResponse} "更新成功"
// @Failure 403 {object} dto.Response "不是作者"
// @Failure 404 {object} dto.Response "提示词不存在"
// @Security BearerAuth
// @Router /api/prompts/{id} [put]
func (h *PromptHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	prompt, err := h.promptService.Update(c.Request.Context(), id, middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err, "update_prompt")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(prompt, "Prompt updated successfully"))
}

// Delete 删除提示词
// @Summary 删除提示词
// @Description 作者或管理员可删除
// @Tags prompts
// @Produce json
// @Param id path int true "提示词ID"
// @Success 200 {object} dto.Response "删除成功"
// @Failure 403 {object} dto.Response "无权删除"
// @Failure 404 {object} dto.Response "提示词不存在"
// @Security BearerAuth
// @Router /api/prompts/{id} [delete]
func (h *PromptHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.promptService.Delete(c.Request.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c)); err != nil {
		respondError(c, h.logger, err, "delete_prompt")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(nil, "Prompt deleted successfully"))
}

// ListMine 我的提示词
// @Summary 我的提示词
// @Tags prompts
// @Produce json
// @Param page query int false "页码"
// @Success 200 {object} dto.Response{data=dto.PromptListResponse} "获取成功"
// @Security BearerAuth
// @Router /api/prompts/mine [get]
func (h *PromptHandler) ListMine(c *gin.Context) {
	list, err := h.promptService.ListMine(c.Request.Context(), middleware.GetUserID(c), parsePage(c))
	if err != nil {
		respondError(c, h.logger, err, "list_my_prompts")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(list, "Prompts retrieved successfully"))
}

// ListPublic 公开提示词
// @Summary 公开提示词列表
// @Description 按浏览量和创建时间倒序，q匹配标题和描述，tag精确匹配标签名
// @Tags prompts
// @Produce json
// @Param page query int false "页码"
// @Param q query string false "关键字"
// @Param tag query string false "标签"
// @Success 200 {object} dto.Response{data=dto.PromptListResponse} "获取成功"
// @Router /api/prompts [get]
func (h *PromptHandler) ListPublic(c *gin.Context) {
	list, err := h.promptService.ListPublic(c.Request.Context(), parsePage(c), c.Query("q"), c.Query("tag"))
	if err != nil {
		respondError(c, h.logger, err, "list_public_prompts")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(list, "Prompts retrieved successfully"))
}

// ToggleFavorite 切换收藏
// @Summary 收藏或取消收藏
// @Tags prompts
// @Produce json
// @Param id path int true "提示词ID"
// @Success 200 {object} dto.Response{data=dto.FavoriteResponse} "操作成功"
// @Failure 404 {object} dto.Response "提示词不存在"
// @Security BearerAuth
// @Router /api/prompts/{id}/favorite [post]
func (h *PromptHandler) ToggleFavorite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	favorited, err := h.promptService.ToggleFavorite(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "toggle_favorite")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(dto.FavoriteResponse{Favorited: favorited}, "Favorite updated"))
}

// Share 记录分享
// @Summary 分享数加一
// @Tags prompts
// @Produce json
// @Param id path int true "提示词ID"
// @Success 200 {object} dto.Response{data=dto.ShareResponse} "操作成功"
// @Failure 404 {object} dto.Response "提示词不存在"
// @Router /api/prompts/{id}/share [post]
func (h *PromptHandler) Share(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.promptService.Share(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "share_prompt")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(resp, "Share recorded"))
}

// UploadCover 上传封面
// @Summary 上传提示词封面
// @Tags prompts
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "提示词ID"
// @Param cover formData file true "封面图片（png/jpg/jpeg/gif/webp）"
// @Success 200 {object} dto.Response{data=dto.UploadResponse} "上传成功"
// @Failure 400 {object} dto.Response "文件类型不允许"
// @Failure 403 {object} dto.Response "不是作者"
// @Security BearerAuth
// @Router /api/prompts/{id}/cover [post]
func (h *PromptHandler) UploadCover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("cover")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse("MISSING_FILE", "Cover file is required", nil))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, h.logger, err, "upload_cover")
		return
	}
	defer file.Close()

	resp, err := h.promptService.UploadCover(
		c.Request.Context(),
		id,
		middleware.GetUserID(c),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		respondError(c, h.logger, err, "upload_cover")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(resp, "Cover uploaded successfully"))
}

// ListTags 标签列表
// @Summary 标签及其公开提示词数量
// @Tags prompts
// @Produce json
// @Success 200 {object} dto.Response{data=[]dto.TagResponse} "获取成功"
// @Router /api/tags [get]
func (h *PromptHandler) ListTags(c *gin.Context) {
	tags, err := h.tagService.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "list_tags")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(tags, "Tags retrieved successfully"))
}

// Stats 站点统计
// @Summary 提示词和用户总数
// @Tags prompts
// @Produce json
// @Success 200 {object} dto.Response{data=dto.StatsResponse} "获取成功"
// @Router /api/stats [get]
func (h *PromptHandler) Stats(c *gin.Context) {
	stats, err := h.promptService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "stats")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(stats, "Stats retrieved successfully"))
}
