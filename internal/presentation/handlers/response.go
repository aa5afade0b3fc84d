package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/application/services"
	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/infrastructure/logger"
	"prompt-manager/internal/infrastructure/storage"

	"github.com/gin-gonic/gin"
)

// errorMapping 领域错误对应的HTTP状态和错误码
type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{entities.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{entities.ErrPromptNotFound, http.StatusNotFound, "PROMPT_NOT_FOUND"},
	{entities.ErrUsernameTaken, http.StatusConflict, "USERNAME_TAKEN"},
	{entities.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
	{entities.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{services.ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
	{entities.ErrUserBanned, http.StatusForbidden, "ACCOUNT_BANNED"},
	{entities.ErrAdminProtected, http.StatusForbidden, "ADMIN_PROTECTED"},
	{entities.ErrPermissionDenied, http.StatusForbidden, "PERMISSION_DENIED"},
	{entities.ErrWeakPassword, http.StatusBadRequest, "WEAK_PASSWORD"},
	{entities.ErrInvalidInviteCode, http.StatusBadRequest, "INVALID_INVITE_CODE"},
	{entities.ErrInvalidPrompt, http.StatusBadRequest, "INVALID_PROMPT"},
	{entities.ErrAIConfigDisabled, http.StatusBadRequest, "AI_NOT_CONFIGURED"},
	{entities.ErrAIConfigNotFound, http.StatusBadRequest, "AI_NOT_CONFIGURED"},
	{entities.ErrAPIKeyRequired, http.StatusBadRequest, "API_KEY_REQUIRED"},
	{entities.ErrInvalidAIConfig, http.StatusBadRequest, "INVALID_AI_CONFIG"},
	{services.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY"},
	{services.ErrInvalidFileType, http.StatusBadRequest, "INVALID_FILE_TYPE"},
	{storage.ErrFileTypeNotAllowed, http.StatusBadRequest, "INVALID_FILE_TYPE"},
	{storage.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
	{services.ErrCredentialUnreadable, http.StatusInternalServerError, "CREDENTIAL_UNREADABLE"},
}

// respondError 将服务层错误转换为HTTP响应，未知错误记录日志并返回500
func respondError(c *gin.Context, log logger.Logger, err error, action string) {
	var metaErr *services.MetadataError
	if errors.As(err, &metaErr) {
		if metaErr.IsValidation() {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse("METADATA_INVALID", metaErr.Error(), nil))
			return
		}
		log.WithFields(map[string]interface{}{
			"action": action,
			"error":  err.Error(),
		}).Error("Metadata generation failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse("METADATA_FAILED", metaErr.Error(), nil))
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				log.WithFields(map[string]interface{}{
					"action": action,
					"error":  err.Error(),
				}).Error("Request failed")
			}
			c.JSON(m.status, dto.ErrorResponse(m.code, err.Error(), nil))
			return
		}
	}

	log.WithFields(map[string]interface{}{
		"action": action,
		"path":   c.Request.URL.Path,
		"error":  err.Error(),
	}).Error("Unexpected error")
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse(
		"INTERNAL_ERROR",
		"Internal server error",
		nil,
	))
}

// respondBindError 请求体解析失败
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse(
		"INVALID_REQUEST",
		"Invalid request body",
		map[string]interface{}{
			"details": err.Error(),
		},
	))
}

// parseIDParam 解析路径中的ID参数，失败时写入400响应
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse(
			"INVALID_ID",
			"Invalid "+name,
			nil,
		))
		return 0, false
	}
	return id, true
}

// parsePage 解析页码，非法值按第一页处理
func parsePage(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
