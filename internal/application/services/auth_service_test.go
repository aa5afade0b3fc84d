package services

import (
	"context"
	"testing"
	"time"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService(t *testing.T) {
	cfg := newTestJWTConfig()
	svc := NewJWTService(cfg)
	user := &entities.User{ID: 7, Username: "alice", IsAdmin: true}

	t.Run("访问令牌和刷新令牌各自校验", func(t *testing.T) {
		access, refresh, err := svc.GenerateTokens(context.Background(), user)
		require.NoError(t, err)

		claims, err := svc.ValidateAccessToken(access)
		require.NoError(t, err)
		assert.Equal(t, int64(7), claims.UserID)
		assert.Equal(t, "alice", claims.Username)
		assert.True(t, claims.IsAdmin)

		refreshClaims, err := svc.ValidateRefreshToken(refresh)
		require.NoError(t, err)
		assert.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)
	})

	t.Run("令牌类型不匹配被拒绝", func(t *testing.T) {
		access, refresh, err := svc.GenerateTokens(context.Background(), user)
		require.NoError(t, err)

		_, err = svc.ValidateRefreshToken(access)
		assert.ErrorIs(t, err, ErrInvalidToken)
		_, err = svc.ValidateAccessToken(refresh)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("过期令牌被拒绝", func(t *testing.T) {
		impl := &jwtServiceImpl{cfg: cfg, now: func() time.Time { return time.Now().Add(-2 * time.Hour) }}
		access, _, err := impl.GenerateTokens(context.Background(), user)
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(access)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("其他密钥签发的令牌被拒绝", func(t *testing.T) {
		other := *cfg
		other.Secret = "another-secret"
		access, _, err := NewJWTService(&other).GenerateTokens(context.Background(), user)
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(access)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("垃圾字符串被拒绝", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAuthService(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (AuthService, *entities.User) {
		repos := newTestRepos(t)
		admin := seedUser(t, repos, "admin", true)
		seedInvite(t, repos, admin.ID, "INVITE01")
		return NewAuthService(repos.UserRepository(), NewJWTService(newTestJWTConfig()), &MockLogger{}), admin
	}

	t.Run("使用邀请码注册", func(t *testing.T) {
		svc, _ := setup(t)

		resp, err := svc.Register(ctx, &dto.RegisterRequest{
			Username:   " bob ",
			Email:      "Bob@Example.com",
			Password:   "password123",
			InviteCode: "INVITE01",
		})
		require.NoError(t, err)
		assert.Equal(t, "bob", resp.Username)
		assert.Equal(t, "bob@example.com", resp.Email)
		assert.False(t, resp.IsAdmin)

		login, err := svc.Login(ctx, &dto.LoginRequest{Email: "BOB@example.com", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", login.TokenType)
		assert.Equal(t, int64(3600), login.ExpiresIn)
		assert.Equal(t, "bob", login.User.Username)
	})

	t.Run("邀请码只能使用一次", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "password123", InviteCode: "INVITE01"})
		require.NoError(t, err)

		_, err = svc.Register(ctx, &dto.RegisterRequest{Username: "carol", Email: "carol@example.com", Password: "password123", InviteCode: "INVITE01"})
		assert.ErrorIs(t, err, entities.ErrInvalidInviteCode)
	})

	t.Run("注册校验", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "short", InviteCode: "INVITE01"})
		assert.ErrorIs(t, err, entities.ErrWeakPassword)

		_, err = svc.Register(ctx, &dto.RegisterRequest{Username: "admin", Email: "x@example.com", Password: "password123", InviteCode: "INVITE01"})
		assert.ErrorIs(t, err, entities.ErrUsernameTaken)

		_, err = svc.Register(ctx, &dto.RegisterRequest{Username: "x", Email: "ADMIN@example.com", Password: "password123", InviteCode: "INVITE01"})
		assert.ErrorIs(t, err, entities.ErrEmailTaken)

		_, err = svc.Register(ctx, &dto.RegisterRequest{Username: "x", Email: "x@example.com", Password: "password123", InviteCode: "NOPE"})
		assert.ErrorIs(t, err, entities.ErrInvalidInviteCode)
	})

	t.Run("登录失败不区分用户是否存在", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.Login(ctx, &dto.LoginRequest{Email: "admin@example.com", Password: "wrong-password"})
		assert.ErrorIs(t, err, entities.ErrInvalidCredentials)

		_, err = svc.Login(ctx, &dto.LoginRequest{Email: "ghost@example.com", Password: "password123"})
		assert.ErrorIs(t, err, entities.ErrInvalidCredentials)
	})

	t.Run("被封禁用户无法登录和刷新", func(t *testing.T) {
		repos := newTestRepos(t)
		seedUser(t, repos, "admin", true)
		user := seedUser(t, repos, "bob", false)
		svc := NewAuthService(repos.UserRepository(), NewJWTService(newTestJWTConfig()), &MockLogger{})

		login, err := svc.Login(ctx, &dto.LoginRequest{Email: "bob@example.com", Password: "password123"})
		require.NoError(t, err)

		require.NoError(t, repos.UserRepository().SetBanned(ctx, user.ID, true))

		_, err = svc.Login(ctx, &dto.LoginRequest{Email: "bob@example.com", Password: "password123"})
		assert.ErrorIs(t, err, entities.ErrUserBanned)

		_, err = svc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
		assert.ErrorIs(t, err, entities.ErrUserBanned)
	})

	t.Run("刷新令牌", func(t *testing.T) {
		svc, _ := setup(t)

		login, err := svc.Login(ctx, &dto.LoginRequest{Email: "admin@example.com", Password: "password123"})
		require.NoError(t, err)

		refreshed, err := svc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
		require.NoError(t, err)
		assert.NotEmpty(t, refreshed.AccessToken)

		_, err = svc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: login.AccessToken})
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("修改密码", func(t *testing.T) {
		svc, admin := setup(t)

		err := svc.ChangePassword(ctx, admin.ID, &dto.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword1"})
		assert.ErrorIs(t, err, entities.ErrInvalidCredentials)

		err = svc.ChangePassword(ctx, admin.ID, &dto.ChangePasswordRequest{OldPassword: "password123", NewPassword: "short"})
		assert.ErrorIs(t, err, entities.ErrWeakPassword)

		require.NoError(t, svc.ChangePassword(ctx, admin.ID, &dto.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpassword1"}))

		_, err = svc.Login(ctx, &dto.LoginRequest{Email: "admin@example.com", Password: "newpassword1"})
		assert.NoError(t, err)
	})
	t.Run("初始化管理员", func(t *testing.T) {
		repos := newTestRepos(t)
		svc := NewAuthService(repos.UserRepository(), NewJWTService(newTestJWTConfig()), &MockLogger{})

		_, err := svc.CreateAdmin(ctx, "root", "root@example.com", "short")
		assert.ErrorIs(t, err, entities.ErrWeakPassword)

		info, err := svc.CreateAdmin(ctx, " root ", "Root@Example.com", "password123")
		require.NoError(t, err)
		assert.True(t, info.IsAdmin)
		assert.Equal(t, "root", info.Username)
		assert.Equal(t, "root@example.com", info.Email)

		_, err = svc.Login(ctx, &dto.LoginRequest{Email: "root@example.com", Password: "password123"})
		assert.NoError(t, err)

		_, err = svc.CreateAdmin(ctx, "second", "second@example.com", "password123")
		assert.ErrorIs(t, err, ErrAlreadyInitialized)
	})
}
