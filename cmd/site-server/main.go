package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"iiot-site/internal/common/config"
	"iiot-site/internal/common/logger"
)

var configPath string

// rootCmd runs the server when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "site-server",
	Short: "Industrial IoT site backend",
	Long: `site-server serves the quote and internship forms, the product and
post catalog, and the admin catalog API.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: configs/config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(mailCheckCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// bootstrap loads config and builds the zap logger plus its adapter.
func bootstrap() (*config.Config, *zap.Logger, logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, zapLog, logger.NewZapAdapter(zapLog), nil
}
