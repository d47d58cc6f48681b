package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	errwrap "github.com/prathikkv/pharma-intelligence-sub001/internal/errors"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Run a self-health check to verify the configuration loads and every enabled source has an adapter.",
	Run: func(cmd *cobra.Command, args []string) {
		logger := observability.CLILogger
		if logger == nil {
			ExitWithCodeStderr(foundry.ExitConfigInvalid, "Logger not initialized", errwrap.NewConfigInvalidError("Logger not initialized"))
			return
		}
		logger.Info("Running health check...")

		if versionInfo.Version == "" {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		logger.Debug("Version check passed", zap.String("version", versionInfo.Version))
		logger.Info("✅ Version information available")

		cfg, err := loadConfig(cmd.Context(), nil)
		if err != nil {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration invalid"))
			return
		}
		logger.Info("✅ Configuration loaded")

		p, err := buildPipeline(cfg, logger)
		if err != nil {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Search pipeline invalid", errwrap.WrapConfigInvalid(cmd.Context(), err, "search pipeline invalid"))
			return
		}
		for _, id := range p.Registry.IDs() {
			if !p.hasAdapter(id) {
				ExitWithCode(logger, foundry.ExitConfigInvalid, "Source without adapter", errwrap.NewConfigInvalidError("no adapter for source "+id))
				return
			}
		}
		logger.Info("✅ Sources ready", zap.Strings("sources", p.Registry.IDs()))

		logger.Info("")
		logger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
