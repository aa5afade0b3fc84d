package routes

import (
	"net/http"

	"prompt-manager/internal/application/services"
	"prompt-manager/internal/infrastructure/config"
	"prompt-manager/internal/infrastructure/logger"
	"prompt-manager/internal/presentation/handlers"
	"prompt-manager/internal/presentation/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "prompt-manager/docs" // 导入swagger文档
)

// Router 路由器
type Router struct {
	engine         *gin.Engine
	config         *config.Config
	logger         logger.Logger
	serviceFactory *services.ServiceFactory
	healthHandler  *handlers.HealthHandler
}

// NewRouter 创建路由器
func NewRouter(
	config *config.Config,
	logger logger.Logger,
	serviceFactory *services.ServiceFactory,
	healthHandler *handlers.HealthHandler,
) *Router {
	// 设置Gin模式
	if config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	return &Router{
		engine:         engine,
		config:         config,
		logger:         logger,
		serviceFactory: serviceFactory,
		healthHandler:  healthHandler,
	}
}

// SetupRoutes 设置路由
func (r *Router) SetupRoutes() {
	// 创建中间件
	authMiddleware := middleware.NewAuthMiddleware(
		r.serviceFactory.JWTService(),
		r.serviceFactory.UserRepository(),
		r.logger,
	)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(&r.config.RateLimit, r.logger)

	// 全局中间件
	r.engine.Use(middleware.RecoveryMiddleware(r.logger))
	r.engine.Use(middleware.RequestIDMiddleware())
	r.engine.Use(middleware.LoggingMiddleware(r.logger))
	r.engine.Use(middleware.CORSMiddleware(r.config.Server.AllowedOrigins))
	r.engine.Use(middleware.SecurityMiddleware())
	if r.config.Metrics.Enabled {
		r.engine.Use(middleware.MetricsMiddleware())
	}

	// 创建处理器
	authHandler := handlers.NewAuthHandler(r.serviceFactory.AuthService(), r.logger)
	userHandler := handlers.NewUserHandler(r.serviceFactory.UserService(), r.logger)
	promptHandler := handlers.NewPromptHandler(
		r.serviceFactory.PromptService(),
		r.serviceFactory.TagService(),
		r.logger,
	)
	adminHandler := handlers.NewAdminHandler(r.serviceFactory.AdminService(), r.logger)
	aiHandler := handlers.NewAIHandler(r.serviceFactory.AIConfigService(), r.logger)

	// 健康检查路由（无需认证）
	if r.healthHandler != nil {
		r.engine.GET("/health", r.healthHandler.Health)
	}

	// 监控指标
	if r.config.Metrics.Enabled {
		r.engine.GET(r.config.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// Swagger文档路由（无需认证）
	swaggerGroup := r.engine.Group("/swagger")
	swaggerGroup.Use(func(c *gin.Context) {
		// 设置 CSP 头部以允许 Swagger UI 正常工作
		c.Header("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline' 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self'")
		c.Next()
	})
	swaggerGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 本地上传文件
	if !r.config.S3.Enabled && r.config.Storage.PublicPrefix != "" {
		r.engine.StaticFS(r.config.Storage.PublicPrefix, http.Dir(r.config.Storage.LocalDir))
	}

	api := r.engine.Group("/api")
	api.Use(middleware.TimeoutMiddleware(r.config.Server.RequestTimeout))
	api.Use(rateLimitMiddleware.Global())

	// 认证路由（无需认证）
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
	}

	// 公开读取路由（可选认证）
	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/prompts", promptHandler.ListPublic)
		public.GET("/prompts/:id", promptHandler.Get)
		public.POST("/prompts/:id/share", promptHandler.Share)
		public.GET("/users/:id", userHandler.GetPublicProfile)
		public.GET("/tags", promptHandler.ListTags)
		public.GET("/stats", promptHandler.Stats)
	}

	// 需要登录的路由
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		users := protected.Group("/users/me")
		{
			users.GET("", userHandler.GetProfile)
			users.PUT("", userHandler.UpdateProfile)
			users.POST("/avatar", userHandler.UploadAvatar)
			users.POST("/password", authHandler.ChangePassword)
		}

		prompts := protected.Group("/prompts")
		{
			prompts.POST("", promptHandler.Create)
			prompts.GET("/mine", promptHandler.ListMine)
			prompts.PUT("/:id", promptHandler.Update)
			prompts.DELETE("/:id", promptHandler.Delete)
			prompts.POST("/:id/favorite", promptHandler.ToggleFavorite)
			prompts.POST("/:id/cover", promptHandler.UploadCover)
		}

		ai := protected.Group("/ai")
		{
			ai.GET("/config", aiHandler.GetConfig)
			ai.PUT("/config", aiHandler.SaveConfig)
			ai.POST("/test-connection", aiHandler.TestConnection)
			ai.POST("/generate-metadata", rateLimitMiddleware.AIGeneration(), aiHandler.GenerateMetadata)
		}
	}

	// 管理路由
	admin := api.Group("/admin")
	admin.Use(authMiddleware.RequireAuth())
	admin.Use(authMiddleware.RequireAdmin())
	{
		admin.POST("/invite-codes", adminHandler.GenerateInviteCodes)
		admin.GET("/invite-codes", adminHandler.ListInviteCodes)
		admin.DELETE("/invite-codes", adminHandler.DeleteInviteCodes)
		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users/:id/ban", adminHandler.SetBanned)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)
	}
}

// GetEngine 获取Gin引擎
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
