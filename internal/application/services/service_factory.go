package services

import (
	"prompt-manager/internal/domain/repositories"
	domainservices "prompt-manager/internal/domain/services"
	"prompt-manager/internal/infrastructure/clients"
	"prompt-manager/internal/infrastructure/config"
	"prompt-manager/internal/infrastructure/logger"
	infraRepos "prompt-manager/internal/infrastructure/repositories"
	"prompt-manager/internal/infrastructure/storage"
)

// ServiceFactory 服务工厂
type ServiceFactory struct {
	repoFactory *infraRepos.RepositoryFactory
	storage     storage.Storage
	cipher      domainservices.CredentialCipher
	metadata    MetadataService
	jwtService  JWTService
	config      *config.Config
	logger      logger.Logger
}

// NewServiceFactory 创建服务工厂
func NewServiceFactory(
	repoFactory *infraRepos.RepositoryFactory,
	store storage.Storage,
	cipher domainservices.CredentialCipher,
	cfg *config.Config,
	log logger.Logger,
) (*ServiceFactory, error) {
	metadata, err := NewMetadataService(log.WithField("component", "metadata"))
	if err != nil {
		return nil, err
	}

	return &ServiceFactory{
		repoFactory: repoFactory,
		storage:     store,
		cipher:      cipher,
		metadata:    metadata,
		jwtService:  NewJWTService(&cfg.JWT),
		config:      cfg,
		logger:      log,
	}, nil
}

// JWTService 获取JWT服务
func (f *ServiceFactory) JWTService() JWTService {
	return f.jwtService
}

// UserRepository 获取用户仓储，供认证中间件使用
func (f *ServiceFactory) UserRepository() repositories.UserRepository {
	return f.repoFactory.UserRepository()
}

// AuthService 获取认证服务
func (f *ServiceFactory) AuthService() AuthService {
	return NewAuthService(f.repoFactory.UserRepository(), f.jwtService, f.logger)
}

// UserService 获取用户服务
func (f *ServiceFactory) UserService() UserService {
	return NewUserService(
		f.repoFactory.UserRepository(),
		f.repoFactory.PromptRepository(),
		f.storage,
		f.logger,
	)
}

// AdminService 获取管理服务
func (f *ServiceFactory) AdminService() AdminService {
	return NewAdminService(
		f.repoFactory.UserRepository(),
		f.repoFactory.InviteCodeRepository(),
		f.logger,
	)
}

// PromptService 获取提示词服务
func (f *ServiceFactory) PromptService() PromptService {
	return NewPromptService(
		f.repoFactory.PromptRepository(),
		f.repoFactory.TagRepository(),
		f.repoFactory.FavoriteRepository(),
		f.repoFactory.UserRepository(),
		f.storage,
		f.logger,
	)
}

// TagService 获取标签服务
func (f *ServiceFactory) TagService() TagService {
	return NewTagService(f.repoFactory.TagRepository())
}

// AIConfigService 获取AI配置服务
func (f *ServiceFactory) AIConfigService() AIConfigService {
	return NewAIConfigService(
		f.repoFactory.AIConfigRepository(),
		f.cipher,
		f.metadata,
		clients.NewClient,
		f.config.AI,
		f.logger,
	)
}
