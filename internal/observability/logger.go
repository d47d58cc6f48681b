package observability

import (
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
)

var (
	// CLILogger is the SIMPLE-profile logger used by commands.
	CLILogger *logging.Logger

	// ServerLogger is the STRUCTURED logger used by serve and its middleware.
	ServerLogger *logging.Logger
)

var logLevels = map[string]string{
	"trace":   "TRACE",
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

// InitCLILogger sets CLILogger, at DEBUG level when verbose.
func InitCLILogger(serviceName string, verbose bool) {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		fatal("Failed to initialize CLI logger", err)
	}
	if verbose {
		logger.SetLevel(logging.DEBUG)
	}
	CLILogger = logger
}

// ServerLoggerOptions configures the STRUCTURED server logger.
type ServerLoggerOptions struct {
	Service     string
	Level       string
	Namespace   string
	Environment string
	// Format is "json" (default) or "console".
	Format string
}

func (o ServerLoggerOptions) loggerConfig() *logging.LoggerConfig {
	static := map[string]any{}
	if o.Namespace != "" {
		static["namespace"] = o.Namespace
	}
	env := strings.TrimSpace(o.Environment)
	if env == "" {
		env = "production"
	}
	format := "json"
	if strings.EqualFold(strings.TrimSpace(o.Format), "console") {
		format = "console"
	}

	return &logging.LoggerConfig{
		Profile:      logging.ProfileStructured,
		DefaultLevel: parseLogLevel(o.Level),
		Service:      o.Service,
		Environment:  env,
		StaticFields: static,
		Middleware: []logging.MiddlewareConfig{
			{Name: "correlation", Enabled: true, Order: 100, Config: map[string]any{}},
		},
		Sinks: []logging.SinkConfig{
			{
				Type:    "console",
				Format:  format,
				Console: &logging.ConsoleSinkConfig{Stream: "stderr"},
			},
		},
		EnableCaller:     true,
		EnableStacktrace: true,
	}
}

// NewServerLogger builds a STRUCTURED stderr logger with correlation ids.
func NewServerLogger(opts ServerLoggerOptions) (*logging.Logger, error) {
	return logging.New(opts.loggerConfig())
}

// InitServerLogger sets ServerLogger or exits with ExitConfigInvalid.
func InitServerLogger(opts ServerLoggerOptions) {
	logger, err := NewServerLogger(opts)
	if err != nil {
		fatal("Failed to initialize server logger", err)
	}
	ServerLogger = logger
}

func parseLogLevel(level string) string {
	if mapped, ok := logLevels[strings.ToLower(strings.TrimSpace(level))]; ok {
		return mapped
	}
	return "INFO"
}

// fatal reports a logger setup failure on stderr and exits. The cmd package
// exit helpers cannot be used here without an import cycle.
func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	code := int(foundry.ExitConfigInvalid)
	if info, ok := foundry.GetExitCodeInfo(foundry.ExitConfigInvalid); ok {
		code = info.Code
	}
	os.Exit(code)
}
