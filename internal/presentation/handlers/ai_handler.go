package handlers

import (
	"net/http"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/application/services"
	"prompt-manager/internal/infrastructure/logger"
	"prompt-manager/internal/presentation/middleware"

	"github.com/gin-gonic/gin"
)

// AIHandler AI配置与元数据生成处理器
type AIHandler struct {
	aiConfigService services.AIConfigService
	logger          logger.Logger
}

// NewAIHandler 创建AI处理器
func NewAIHandler(aiConfigService services.AIConfigService, logger logger.Logger) *AIHandler {
	return &AIHandler{
		aiConfigService: aiConfigService,
		logger:          logger,
	}
}

// GetConfig 获取AI配置
// @Summary 获取当前用户的AI配置
// @Description 不返回API Key，只返回has_api_key
// @Tags ai
// @Produce json
// @Success 200 {object} dto.Response{data=dto.AIConfigResponse} "获取成功"
// @Security BearerAuth
// @Router /api/ai/config [get]
func (h *AIHandler) GetConfig(c *gin.Context) {
	cfg, err := h.aiConfigService.GetConfig(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "get_ai_config")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(cfg, "AI config retrieved successfully"))
}

// SaveConfig 保存AI配置
// @Summary 创建或更新AI配置
// @Description api_key留空时保留原值
// @Tags ai
// @Accept json
// @Produce json
// @Param request body dto.UpdateAIConfigRequest true "AI配置"
// @Success 200 {object} dto.Response{data=dto.AIConfigResponse} "保存成功"
// @Failure 400 {object} dto.Response "配置无效"
// @Security BearerAuth
// @Router /api/ai/config [put]
func (h *AIHandler) SaveConfig(c *gin.Context) {
	var req dto.UpdateAIConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	cfg, err := h.aiConfigService.SaveConfig(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err, "save_ai_config")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(cfg, "AI config saved successfully"))
}

// GenerateMetadata 生成元数据
// @Summary 根据提示词内容生成标题、描述和标签
// @Tags ai
// @Accept json
// @Produce json
// @Param request body dto.GenerateMetadataRequest true "提示词内容"
// @Success 200 {object} dto.Response{data=dto.GeneratedMetadata} "生成成功"
// @Failure 400 {object} dto.Response "内容为空、过长或AI未启用"
// @Failure 429 {object} dto.Response "请求过于频繁"
// @Failure 500 {object} dto.Response "AI返回无法解析"
// @Security BearerAuth
// @Router /api/ai/generate-metadata [post]
func (h *AIHandler) GenerateMetadata(c *gin.Context) {
	var req dto.GenerateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	metadata, err := h.aiConfigService.GenerateMetadata(c.Request.Context(), middleware.GetUserID(c), req.Content)
	if err != nil {
		respondError(c, h.logger, err, "generate_metadata")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(metadata, "Metadata generated successfully"))
}

// TestConnection 测试连接
// @Summary 测试AI服务连通性
// @Description 请求中带api_key时使用请求参数，否则使用已保存的配置
// @Tags ai
// @Accept json
// @Produce json
// @Param request body dto.TestConnectionRequest false "临时配置"
// @Success 200 {object} dto.Response{data=dto.TestConnectionResponse} "测试完成"
// @Failure 400 {object} dto.Response "缺少API Key"
// @Security BearerAuth
// @Router /api/ai/test-connection [post]
func (h *AIHandler) TestConnection(c *gin.Context) {
	var req dto.TestConnectionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	result, err := h.aiConfigService.TestConnection(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err, "test_connection")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(result, result.Message))
}
