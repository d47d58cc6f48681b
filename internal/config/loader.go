// Package config loads pharmaintel configuration with viper and decodes it
// into typed structs with mapstructure.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fulmenhq/gofulmen/appidentity"
	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/appid"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core/engine"
)

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// EnvVarSpec defines environment variable mappings for config fields
// following the pattern: {PREFIX}{NAME} maps to config path
type EnvVarSpec = gfconfig.EnvVarSpec

// Environment variable types
const (
	EnvString = gfconfig.EnvString
	EnvInt    = gfconfig.EnvInt
	EnvBool   = gfconfig.EnvBool
)

// SetDefaults registers built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)

	v.SetDefault("debug.enabled", false)

	v.SetDefault("search.default_limit", 50)
	v.SetDefault("search.max_limit", 100)
	v.SetDefault("search.max_query_length", core.MaxQueryLength)
	v.SetDefault("search.backoff_unit", "1s")
	v.SetDefault("search.user_agent", "")
	v.SetDefault("search.http_timeout", "30s")

	v.SetDefault("rate_limit_margin", 1.0)
}

// Load builds configuration from defaults, the first user config file
// found in the XDG config paths, PHARMAINTEL_* env variables and the given
// runtime overrides (applied last, in order).
func Load(ctx context.Context, runtimeOverrides ...map[string]any) (*Config, error) {
	identity, err := appid.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load app identity: %w", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")

	for _, path := range userConfigPaths(identity) {
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		break
	}

	envOverrides, err := gfconfig.LoadEnvOverrides(envSpecs(identity.EnvPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	overrides := append([]map[string]any{envOverrides}, runtimeOverrides...)
	for _, o := range overrides {
		if len(o) == 0 {
			continue
		}
		if err := v.MergeConfigMap(o); err != nil {
			return nil, fmt.Errorf("failed to apply overrides: %w", err)
		}
	}

	cfg, err := FromViper(v)
	if err != nil {
		return nil, err
	}
	setConfig(cfg)
	return cfg, nil
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg, err := Decode(v.AllSettings())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode converts a nested settings map into a Config.
func Decode(settings map[string]any) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Search.DefaultLimit < 1 {
		errs = append(errs, fmt.Errorf("search.default_limit must be positive"))
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		errs = append(errs, fmt.Errorf("search.max_limit (%d) is below search.default_limit (%d)", c.Search.MaxLimit, c.Search.DefaultLimit))
	}
	if c.Search.MaxQueryLength < 1 {
		errs = append(errs, fmt.Errorf("search.max_query_length must be positive"))
	}
	if c.Search.BackoffUnit < 0 {
		errs = append(errs, fmt.Errorf("search.backoff_unit must not be negative"))
	}
	if c.RateLimitMargin <= 0 || c.RateLimitMargin > 1 {
		errs = append(errs, fmt.Errorf("rate_limit_margin must be in (0, 1]: %v", c.RateLimitMargin))
	}
	for id, src := range c.Sources {
		if _, ok := builtinIDs()[strings.ToLower(id)]; !ok {
			errs = append(errs, fmt.Errorf("sources.%s: unknown source", id))
		}
		if src.Timeout < 0 || src.Retries < 0 || src.RatePerSecond < 0 || src.Burst < 0 {
			errs = append(errs, fmt.Errorf("sources.%s: values must not be negative", id))
		}
	}
	if err := c.validateWriteTimeout(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// validateWriteTimeout requires server.write_timeout to outlast the slowest
// source, since a search runs to completion even after the client leaves.
func (c *Config) validateWriteTimeout() error {
	if c.Server.WriteTimeout <= 0 {
		return nil
	}
	registry, err := core.DefaultRegistry(c.SourceOverrides())
	if err != nil {
		return fmt.Errorf("sources: %w", err)
	}
	slowest, worst := engine.SlowestSource(registry, c.Search.BackoffUnit)
	if worst >= c.Server.WriteTimeout {
		return fmt.Errorf("server.write_timeout (%s) must exceed the worst-case time of source %s (%s)",
			c.Server.WriteTimeout, slowest.ID, worst)
	}
	return nil
}

// SourceOverrides converts the sources section into registry overrides.
func (c *Config) SourceOverrides() map[string]core.SourceOverride {
	out := make(map[string]core.SourceOverride, len(c.Sources))
	for id, src := range c.Sources {
		out[strings.ToLower(id)] = core.SourceOverride{
			Disabled: src.Enabled != nil && !*src.Enabled,
			Timeout:  src.Timeout,
			Retries:  src.Retries,
		}
	}
	return out
}

// RateLimits returns per-source rate overrides for sources that set one.
func (c *Config) RateLimits() map[string]engine.RateLimit {
	out := make(map[string]engine.RateLimit)
	for id, src := range c.Sources {
		if src.RatePerSecond <= 0 {
			continue
		}
		out[strings.ToLower(id)] = engine.RateLimit{RequestsPerSecond: src.RatePerSecond, Burst: src.Burst}
	}
	return out
}

// BaseURLs returns per-source upstream base URL overrides.
func (c *Config) BaseURLs() map[string]string {
	out := make(map[string]string)
	for id, src := range c.Sources {
		if url := strings.TrimSpace(src.BaseURL); url != "" {
			out[strings.ToLower(id)] = url
		}
	}
	return out
}

// GetConfig returns the last configuration produced by Load.
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

func builtinIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(core.BuiltInSources))
	for _, d := range core.BuiltInSources {
		ids[d.ID] = struct{}{}
	}
	return ids
}

// userConfigPaths lists candidate config files, most specific first.
func userConfigPaths(identity *appidentity.Identity) []string {
	name := strings.TrimSpace(identity.ConfigName)
	if name == "" {
		name = identity.BinaryName
	}
	var legacy []string
	if identity.BinaryName != "" && identity.BinaryName != name {
		legacy = append(legacy, identity.BinaryName)
	}
	return gfconfig.GetAppConfigPaths(name, legacy...)
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath(identity *appidentity.Identity) string {
	if identity == nil {
		return ""
	}
	dir := gfconfig.GetAppConfigDir(identity.ConfigName)
	if strings.TrimSpace(dir) == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// envSpecs maps {PREFIX}{NAME} environment variables to config paths.
func envSpecs(prefix string) []EnvVarSpec {
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}

	specs := []EnvVarSpec{
		{Name: prefix + "HOST", Path: []string{"server", "host"}, Type: EnvString},
		{Name: prefix + "PORT", Path: []string{"server", "port"}, Type: EnvInt},
		// Durations stay strings and are converted by the decode hook
		{Name: prefix + "READ_TIMEOUT", Path: []string{"server", "read_timeout"}, Type: EnvString},
		{Name: prefix + "WRITE_TIMEOUT", Path: []string{"server", "write_timeout"}, Type: EnvString},
		{Name: prefix + "IDLE_TIMEOUT", Path: []string{"server", "idle_timeout"}, Type: EnvString},
		{Name: prefix + "SHUTDOWN_TIMEOUT", Path: []string{"server", "shutdown_timeout"}, Type: EnvString},

		{Name: prefix + "LOG_LEVEL", Path: []string{"logging", "level"}, Type: EnvString},
		{Name: prefix + "LOG_PROFILE", Path: []string{"logging", "profile"}, Type: EnvString},

		{Name: prefix + "METRICS_ENABLED", Path: []string{"metrics", "enabled"}, Type: EnvBool},
		{Name: prefix + "METRICS_PORT", Path: []string{"metrics", "port"}, Type: EnvInt},
		{Name: prefix + "HEALTH_ENABLED", Path: []string{"health", "enabled"}, Type: EnvBool},
		{Name: prefix + "DEBUG_ENABLED", Path: []string{"debug", "enabled"}, Type: EnvBool},

		{Name: prefix + "SEARCH_DEFAULT_LIMIT", Path: []string{"search", "default_limit"}, Type: EnvInt},
		{Name: prefix + "SEARCH_MAX_LIMIT", Path: []string{"search", "max_limit"}, Type: EnvInt},
		{Name: prefix + "SEARCH_MAX_QUERY_LENGTH", Path: []string{"search", "max_query_length"}, Type: EnvInt},
		{Name: prefix + "SEARCH_BACKOFF_UNIT", Path: []string{"search", "backoff_unit"}, Type: EnvString},
		{Name: prefix + "SEARCH_USER_AGENT", Path: []string{"search", "user_agent"}, Type: EnvString},
		{Name: prefix + "SEARCH_HTTP_TIMEOUT", Path: []string{"search", "http_timeout"}, Type: EnvString},

		{Name: prefix + "RATE_LIMIT_MARGIN", Path: []string{"rate_limit_margin"}, Type: EnvString},
	}

	for _, d := range core.BuiltInSources {
		key := prefix + "SOURCES_" + strings.ToUpper(d.ID) + "_"
		specs = append(specs,
			EnvVarSpec{Name: key + "ENABLED", Path: []string{"sources", d.ID, "enabled"}, Type: EnvBool},
			EnvVarSpec{Name: key + "TIMEOUT", Path: []string{"sources", d.ID, "timeout"}, Type: EnvString},
			EnvVarSpec{Name: key + "RETRIES", Path: []string{"sources", d.ID, "retries"}, Type: EnvInt},
			EnvVarSpec{Name: key + "BASE_URL", Path: []string{"sources", d.ID, "base_url"}, Type: EnvString},
		)
	}
	return specs
}
