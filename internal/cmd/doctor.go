package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/config"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
	errwrap "github.com/prathikkv/pharma-intelligence-sub001/internal/errors"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/observability"
)

var (
	doctorProbeQuery string
	doctorSkipProbe  bool
	doctorInitForce  bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Run diagnostic checks on the installation, the configuration and each
enabled source. Sources are probed with a one-result search unless
--skip-probe is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := observability.CLILogger
		identity := GetAppIdentity()

		log.Info("=== " + identity.BinaryName + " doctor ===")
		log.Info("")

		allChecks := true
		totalChecks := 5

		version := crucible.GetVersion()
		log.Info(fmt.Sprintf("[1/%d] Checking runtime... ✅ %s %s/%s, gofulmen %s", totalChecks, runtime.Version(), runtime.GOOS, runtime.GOARCH, version.Gofulmen),
			zap.String("go_version", runtime.Version()),
			zap.String("gofulmen_version", version.Gofulmen))

		configPath := config.DefaultConfigPath(identity)
		switch {
		case configPath == "":
			log.Warn(fmt.Sprintf("[2/%d] Checking config file... ⚠️  cannot resolve config directory", totalChecks))
		case fileExists(configPath):
			log.Info(fmt.Sprintf("[2/%d] Checking config file... ✅ %s", totalChecks, configPath), zap.String("config_file", configPath))
		default:
			log.Info(fmt.Sprintf("[2/%d] Checking config file... ✅ none (defaults; run '%s doctor init' to create %s)", totalChecks, identity.BinaryName, configPath))
		}

		cfg, err := loadConfig(ctx, nil)
		if err != nil {
			log.Error(fmt.Sprintf("[3/%d] Checking configuration... ❌ invalid", totalChecks), zap.Error(err))
			ExitWithCode(log, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.WrapConfigInvalid(ctx, err, "configuration invalid"))
			return
		}
		log.Info(fmt.Sprintf("[3/%d] Checking configuration... ✅ valid", totalChecks))

		p, err := buildPipeline(cfg, log)
		if err != nil {
			log.Error(fmt.Sprintf("[4/%d] Checking sources... ❌ %v", totalChecks, err))
			ExitWithCode(log, foundry.ExitConfigInvalid, "Search pipeline invalid", errwrap.WrapConfigInvalid(ctx, err, "search pipeline invalid"))
			return
		}
		log.Info(fmt.Sprintf("[4/%d] Checking sources... ✅ %d enabled (%s)", totalChecks, p.Registry.Len(), strings.Join(p.Registry.IDs(), ", ")))

		if doctorSkipProbe {
			log.Info(fmt.Sprintf("[5/%d] Probing sources... skipped", totalChecks))
		} else {
			results := probeSources(ctx, p, doctorProbeQuery)
			failed := 0
			for _, o := range results {
				if !o.Success {
					failed++
				}
			}
			if failed == 0 {
				log.Info(fmt.Sprintf("[5/%d] Probing sources... ✅ all %d reachable", totalChecks, len(results)))
			} else {
				log.Warn(fmt.Sprintf("[5/%d] Probing sources... ⚠️  %d of %d failed", totalChecks, failed, len(results)))
				allChecks = false
			}
			for _, o := range results {
				if o.Success {
					log.Info(fmt.Sprintf("       %-15s ✅ %dms, %d result(s)", o.SourceID, o.Elapsed.Milliseconds(), len(o.Results)))
				} else {
					log.Warn(fmt.Sprintf("       %-15s ❌ %s (%d attempt(s))", o.SourceID, o.Err, o.Attempts))
				}
			}
		}

		log.Info("")
		if allChecks {
			log.Info(fmt.Sprintf("✅ All checks passed! Your %s installation is healthy.", identity.BinaryName))
		} else {
			log.Warn("⚠️  Some checks failed. Review the output above for details.")
		}
		log.Info("")
		log.Info("=== End Diagnostics ===")
	},
}

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath(GetAppIdentity())
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}
		if err := writeInitConfig(configPath, GetAppIdentity(), doctorInitForce); err != nil {
			return err
		}
		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

// probeSources dispatches a one-result query to every enabled source.
func probeSources(ctx context.Context, p *pipeline, query string) []core.SourceOutcome {
	if strings.TrimSpace(query) == "" {
		query = "aspirin"
	}
	return p.Dispatcher.Dispatch(ctx, query, p.Registry.IDs(), 1)
}

func writeInitConfig(path string, identity *appidentity.Identity, force bool) error {
	if fileExists(path) && !force {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(buildInitConfig(identity)), 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func buildInitConfig(identity *appidentity.Identity) string {
	name := "pharmaintel"
	if identity != nil && identity.BinaryName != "" {
		name = identity.BinaryName
	}
	lines := []string{
		fmt.Sprintf("# %s config - created by '%s doctor init'", name, name),
		"server:",
		"  host: localhost",
		"  port: 8080",
		"search:",
		"  default_limit: 50",
		"  max_limit: 100",
		"  backoff_unit: 1s",
		"sources:",
	}
	for _, d := range core.BuiltInSources {
		lines = append(lines,
			fmt.Sprintf("  %s:", d.ID),
			"    enabled: true",
			fmt.Sprintf("    timeout: %s", d.Timeout),
			fmt.Sprintf("    retries: %d", d.Retries),
		)
	}
	lines = append(lines, "rate_limit_margin: 1.0")
	return strings.Join(lines, "\n") + "\n"
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd)

	doctorCmd.Flags().StringVar(&doctorProbeQuery, "query", "aspirin", "query used to probe each source")
	doctorCmd.Flags().BoolVar(&doctorSkipProbe, "skip-probe", false, "skip network probes")
	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite existing config file")
}
