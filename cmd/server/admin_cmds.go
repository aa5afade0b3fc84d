package main

import (
	"errors"
	"fmt"

	"prompt-manager/internal/application/services"
	"prompt-manager/internal/infrastructure/crypto"
	"prompt-manager/internal/infrastructure/database"
	"prompt-manager/internal/infrastructure/repositories"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Create or update all tables and performance indexes, then exit.

Migrations are also applied automatically by serve.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}

		gormDB, err := openDatabase(cfg, log)
		if err != nil {
			return err
		}
		defer database.Close(gormDB)

		log.Info("Database migration complete")
		return nil
	},
}

var (
	adminEmail       string
	adminUsername    string
	adminPassword    string
	inviteCodeAmount int
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the first admin user and invite codes",
	Long: `Migrate the database, create the first admin user and generate invite codes.

The command refuses to run when any user already exists.

Examples:
  server init-db --admin-email admin@example.com --admin-password changeme123
  server init-db --admin-email admin@example.com --admin-password changeme123 --invite-codes 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inviteCodeAmount < 0 || inviteCodeAmount > 10 {
			return fmt.Errorf("--invite-codes must be between 0 and 10")
		}

		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}

		gormDB, err := openDatabase(cfg, log)
		if err != nil {
			return err
		}
		defer database.Close(gormDB)

		repoFactory := repositories.NewRepositoryFactory(gormDB)
		jwtService := services.NewJWTService(&cfg.JWT)
		authService := services.NewAuthService(repoFactory.UserRepository(), jwtService, log)
		adminService := services.NewAdminService(repoFactory.UserRepository(), repoFactory.InviteCodeRepository(), log)

		ctx := cmd.Context()
		admin, err := authService.CreateAdmin(ctx, adminUsername, adminEmail, adminPassword)
		if errors.Is(err, services.ErrAlreadyInitialized) {
			return fmt.Errorf("database already initialized: users exist")
		}
		if err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin created: id=%d username=%s email=%s\n", admin.ID, admin.Username, admin.Email)

		if inviteCodeAmount == 0 {
			return nil
		}

		codes, err := adminService.GenerateInviteCodes(ctx, admin.ID, inviteCodeAmount)
		if err != nil {
			return fmt.Errorf("failed to generate invite codes: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "invite codes:")
		for _, code := range codes {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", code)
		}
		return nil
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an AI_ENCRYPTION_KEY value",
	Long: `Print a random 32-byte URL-safe base64 key for AI_ENCRYPTION_KEY.

Changing the key makes stored API keys unreadable; users must re-enter them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

func init() {
	initDBCmd.Flags().StringVar(&adminEmail, "admin-email", "", "admin email (required)")
	initDBCmd.Flags().StringVar(&adminUsername, "admin-username", "admin", "admin username")
	initDBCmd.Flags().StringVar(&adminPassword, "admin-password", "", "admin password, at least 8 characters (required)")
	initDBCmd.Flags().IntVar(&inviteCodeAmount, "invite-codes", 0, "number of invite codes to generate (0-10)")
	_ = initDBCmd.MarkFlagRequired("admin-email")
	_ = initDBCmd.MarkFlagRequired("admin-password")
}
