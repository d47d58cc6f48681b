package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core/aggregate"
	errwrap "github.com/prathikkv/pharma-intelligence-sub001/internal/errors"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/metrics"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/observability"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/output"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/server/handlers"
)

var (
	searchDatabase string
	searchLimit    int
	searchOutput   string
)

// errAllSourcesFailed is returned after rendering when no source answered.
var errAllSourcesFailed = errors.New("all sources failed")

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a combined search from the command line",
	Long: `Run one combined search across every enabled source (or a single
database) and render the ranked, deduplicated results.

Examples:
  pharmaintel search pembrolizumab
  pharmaintel search "non-small cell lung cancer" --database clinicaltrials --limit 10
  pharmaintel search imatinib --output json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := output.ParseFormat(searchOutput)
		if err != nil {
			return errwrap.WrapValidationError(ctx, err, "invalid output format")
		}

		cfg, err := loadConfig(ctx, nil)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "configuration invalid")
		}

		p, err := buildPipeline(cfg, observability.CLILogger)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "search pipeline initialization failed")
		}

		req := aggregate.Request{
			Query:     args[0],
			Database:  searchDatabase,
			Limit:     searchLimit,
			RequestID: uuid.NewString(),
		}
		sink, err := resolveSink(cmd, format, "search."+req.Query)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		return runSearch(ctx, sink.writer, p.Aggregator, req, output.NewFormatter(format))
	},
}

// runSearch executes one search and writes the rendered response to w.
func runSearch(ctx context.Context, w io.Writer, searcher handlers.Searcher, req aggregate.Request, formatter output.Formatter) error {
	start := time.Now()
	resp, err := searcher.Search(ctx, req)
	if err != nil {
		metrics.RecordOperation("search", false)
		var verr *aggregate.ValidationError
		if errors.As(err, &verr) {
			return errwrap.WrapValidationError(ctx, err, "invalid search request")
		}
		return errwrap.WrapInternal(ctx, err, "search failed")
	}

	if observability.CLILogger != nil {
		observability.CLILogger.Debug("Search completed",
			zap.String("request_id", req.RequestID),
			zap.Int("status", resp.Status),
			zap.Int("results", resp.FilteredResults),
			zap.Duration("elapsed", time.Since(start)))
	}

	rendered, err := formatter.FormatSearch(resp)
	if err != nil {
		metrics.RecordOperation("search", false)
		return errwrap.WrapInternal(ctx, err, "failed to render results")
	}
	if _, err := fmt.Fprintln(w, rendered); err != nil {
		return err
	}

	ok := resp.Status != http.StatusServiceUnavailable
	metrics.RecordOperation("search", ok)
	if !ok {
		return errAllSourcesFailed
	}
	return nil
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchDatabase, "database", "d", "all", "source id to query, or \"all\"")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "maximum results (0 uses search.default_limit)")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", "table", "output format: table, json, markdown")
	addOutputTargetFlags(searchCmd)
}
