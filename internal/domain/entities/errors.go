package entities

import "errors"

// 用户相关错误
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserBanned         = errors.New("account is banned")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidInviteCode  = errors.New("invalid or used invite code")
	ErrAdminProtected     = errors.New("admin accounts cannot be banned or deleted")
)

// 提示词相关错误
var (
	ErrPromptNotFound   = errors.New("prompt not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidPrompt    = errors.New("title and content are required")
)

// AI配置相关错误
var (
	ErrAIConfigNotFound = errors.New("ai config not found")
	ErrAIConfigDisabled = errors.New("ai config is not enabled")
	ErrAPIKeyRequired   = errors.New("api key is required")
	ErrInvalidAIConfig  = errors.New("invalid ai config")
)
