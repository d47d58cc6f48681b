package cmd

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/config"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display environment, effective configuration, source and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger
		version := crucible.GetVersion()
		identity := GetAppIdentity()

		log.Info("=== " + identity.BinaryName + " Environment Information ===")
		log.Info("")

		log.Info("Application:")
		log.Info("  Name:       " + identity.BinaryName)
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("")

		log.Info("SSOT:")
		log.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		log.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		log.Info("")

		log.Info("Runtime:")
		log.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		log.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		log.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		log.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		log.Info("")

		cfg, err := loadConfig(cmd.Context(), nil)
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return
		}

		log.Info("Configuration:")
		log.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		log.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		log.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		log.Info(fmt.Sprintf("  Metrics Port:   %d", cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		log.Info(fmt.Sprintf("  Debug:          %t", cfg.Debug.Enabled), zap.Bool("debug", cfg.Debug.Enabled))
		log.Info("  Config File:    "+config.DefaultConfigPath(identity), zap.String("config_file", config.DefaultConfigPath(identity)))
		log.Info("")

		log.Info("Search:")
		log.Info(fmt.Sprintf("  Default Limit:  %d", cfg.Search.DefaultLimit))
		log.Info(fmt.Sprintf("  Max Limit:      %d", cfg.Search.MaxLimit))
		log.Info(fmt.Sprintf("  Max Query:      %d chars", cfg.Search.MaxQueryLength))
		log.Info("  Backoff Unit:   " + cfg.Search.BackoffUnit.String())
		log.Info("  HTTP Timeout:   " + cfg.Search.HTTPTimeout.String())
		log.Info(fmt.Sprintf("  Rate Margin:    %.2f", cfg.RateLimitMargin))
		log.Info("")

		registry, err := core.DefaultRegistry(cfg.SourceOverrides())
		if err != nil {
			log.Warn("Source registry invalid", zap.Error(err))
			return
		}
		log.Info("Sources:")
		for _, d := range registry.Descriptors() {
			log.Info(fmt.Sprintf("  %-15s timeout=%s retries=%d", d.ID, d.Timeout, d.Retries))
		}
		baseURLs := cfg.BaseURLs()
		ids := make([]string, 0, len(baseURLs))
		for id := range baseURLs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			log.Info(fmt.Sprintf("  %s.base_url: %s", id, baseURLs[id]))
		}
		log.Info("")

		log.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
