package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
	errwrap "github.com/prathikkv/pharma-intelligence-sub001/internal/errors"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/output"
)

var sourcesOutput string

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the enabled search sources",
	Long:  "List every source the combined search dispatches to, after config overrides (disabled sources are omitted).",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := output.ParseFormat(sourcesOutput)
		if err != nil {
			return errwrap.WrapValidationError(ctx, err, "invalid output format")
		}

		cfg, err := loadConfig(ctx, nil)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "configuration invalid")
		}

		registry, err := core.DefaultRegistry(cfg.SourceOverrides())
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "source registry invalid")
		}

		rendered, err := output.NewFormatter(format).FormatSources(registry.Descriptors())
		if err != nil {
			return errwrap.WrapInternal(ctx, err, "failed to render sources")
		}
		sink, err := resolveSink(cmd, format, "sources")
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		_, err = fmt.Fprintln(sink.writer, rendered)
		return err
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.Flags().StringVarP(&sourcesOutput, "output", "o", "table", "output format: table, json, markdown")
	addOutputTargetFlags(sourcesCmd)
}
