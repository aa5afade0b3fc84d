// @title Prompt Manager API
// @version 1.0.0
// @description 提示词管理平台：邀请码注册、提示词管理与收藏、AI元数据生成
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token for API authentication. Format: 'Bearer {token}'

//go:generate swag init -g cmd/server/main.go -o docs -d ../../

package main

import (
	"fmt"
	"os"

	"prompt-manager/internal/infrastructure/config"
	"prompt-manager/internal/infrastructure/logger"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Prompt manager HTTP server",
	Long: `Prompt manager stores, shares and organizes AI prompts.

Commands:
  serve    start the HTTP API (default)
  migrate  run database migrations
  init-db  create the first admin and invite codes
  keygen   print a new AI_ENCRYPTION_KEY`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./configs/config.yaml or ./config.yaml)",
	)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(initDBCmd)
	rootCmd.AddCommand(keygenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadRuntime 加载配置并初始化全局日志
func loadRuntime() (*config.Config, logger.Logger, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitGlobalLogger(&cfg.Logging)
	log := logger.GetLogger()
	log.WithField("config", cfgFile).Info("Configuration loaded")

	return cfg, log, nil
}
