package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core/engine"
	errwrap "github.com/prathikkv/pharma-intelligence-sub001/internal/errors"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/output"
)

var rateLimitOutput string

var rateLimitCmd = &cobra.Command{
	Use:   "rate-limit",
	Short: "Show effective per-source rate limits",
	Long: `Show the token bucket applied to each enabled source after
sources.<id>.rate_per_second/burst overrides and rate_limit_margin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := output.ParseFormat(rateLimitOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		cfg, err := loadConfig(ctx, nil)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "configuration invalid")
		}
		registry, err := core.DefaultRegistry(cfg.SourceOverrides())
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "source registry invalid")
		}

		limiter := &engine.RateLimiter{}
		limiter.ApplyOverrides(cfg.RateLimits())
		limiter.ApplySafetyMargin(cfg.RateLimitMargin)

		return writeRateLimits(cmd.OutOrStdout(), format, rateLimitEntries(registry, limiter))
	},
}

type rateLimitEntry struct {
	Source            string  `json:"source"`
	Limited           bool    `json:"limited"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
	Burst             int     `json:"burst,omitempty"`
}

func rateLimitEntries(registry *core.Registry, limiter *engine.RateLimiter) []rateLimitEntry {
	entries := make([]rateLimitEntry, 0, registry.Len())
	for _, id := range registry.IDs() {
		entry := rateLimitEntry{Source: id}
		if limit, ok := limiter.Effective(id); ok {
			entry.Limited = true
			entry.RequestsPerSecond = limit.RequestsPerSecond
			entry.Burst = limit.Burst
		}
		entries = append(entries, entry)
	}
	return entries
}

func writeRateLimits(w io.Writer, format output.Format, entries []rateLimitEntry) error {
	if format == output.FormatJSON {
		payload, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(payload))
		return err
	}

	lines := []string{"Rate Limits", ""}
	if len(entries) == 0 {
		lines = append(lines, "(no enabled sources)")
	}
	for _, entry := range entries {
		if !entry.Limited {
			lines = append(lines, fmt.Sprintf("%s: unlimited", entry.Source))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %.2f req/s burst=%d", entry.Source, entry.RequestsPerSecond, entry.Burst))
	}
	_, err := fmt.Fprint(w, ascii.DrawBox(strings.Join(lines, "\n"), 0))
	return err
}

func init() {
	rateLimitCmd.Flags().StringVar(&rateLimitOutput, "output-format", string(output.FormatTable), "Output format: table|json")
	rootCmd.AddCommand(rateLimitCmd)
}
