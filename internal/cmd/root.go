package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"
	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/appid"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/config"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/observability"
)

var (
	cfgFile string
	verbose bool

	// App identity resolved by appid.Get
	appIdentity *appidentity.Identity

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// GetAppIdentity returns the loaded app identity (only valid after initConfig)
func GetAppIdentity() *appidentity.Identity {
	return appIdentity
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	// NOTE: initConfig() overwrites these from app identity.
	Use:   filepath.Base(os.Args[0]),
	Short: "Pharmaceutical combined-search aggregator",
	Long: `Search clinical trial, compound, literature, target and market
intelligence sources with one query and get a single ranked result set.

Use the subcommands to perform specific operations.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Disable global telemetry early so CLI commands do not emit metrics to
	// stdout. Server mode initializes the Prometheus exporter later.
	disabledConfig := &telemetry.Config{Enabled: false}
	if sys, err := telemetry.NewSystem(disabledConfig); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	if identity, err := appid.Get(context.Background()); err == nil && identity != nil {
		appIdentity = identity
		applyIdentityHelp(identity)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; defaults to app identity config path)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func applyIdentityHelp(identity *appidentity.Identity) {
	if identity.BinaryName != "" {
		rootCmd.Use = identity.BinaryName
	}
	if identity.Description != "" {
		rootCmd.Short = identity.Description
	}
	if f := rootCmd.PersistentFlags().Lookup("config"); f != nil && identity.ConfigName != "" {
		f.Usage = fmt.Sprintf("config file (default is $XDG_CONFIG_HOME/%s/config.yaml)", identity.ConfigName)
	}
}

// initConfig resolves the app identity and the CLI logger.
func initConfig() {
	identity, err := appid.Get(context.Background())
	if err != nil {
		ExitWithCodeStderr(foundry.ExitFileNotFound, "Failed to load app identity", err)
	}
	appIdentity = identity
	applyIdentityHelp(identity)

	viper.SetEnvPrefix(strings.TrimSuffix(identity.EnvPrefix, "_"))
	viper.AutomaticEnv()
	config.SetDefaults(viper.GetViper())

	observability.InitCLILogger(identity.BinaryName, verbose || viper.GetBool("verbose"))

	if verbose && gfconfig.GetAppConfigDir(identity.ConfigName) == "" {
		observability.CLILogger.Warn("Could not resolve XDG config directory; only --config and environment apply")
	}
}

// loadConfig layers defaults, the XDG config file, environment variables,
// the --config file and explicit flag overrides, in that order.
func loadConfig(ctx context.Context, flagOverrides map[string]any) (*config.Config, error) {
	var overrides []map[string]any
	if cfgFile != "" {
		settings, err := readConfigFile(cfgFile)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, settings)
		if observability.CLILogger != nil {
			observability.CLILogger.Debug("Using config file", zap.String("path", cfgFile))
		}
	}
	if len(flagOverrides) > 0 {
		overrides = append(overrides, flagOverrides)
	}
	return config.Load(ctx, overrides...)
}

// readConfigFile returns the settings of a single YAML file without defaults.
func readConfigFile(path string) (map[string]any, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return v.AllSettings(), nil
}

// changedFlags maps changed cobra flags to config paths.
func changedFlags(cmd *cobra.Command, paths map[string]string) map[string]any {
	out := make(map[string]any)
	for flag, path := range paths {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		setPath(out, strings.Split(path, "."), f.Value.String())
	}
	return out
}

func setPath(m map[string]any, keys []string, value any) {
	for i, key := range keys {
		if i == len(keys)-1 {
			m[key] = value
			return
		}
		next, ok := m[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[key] = next
		}
		m = next
	}
}
