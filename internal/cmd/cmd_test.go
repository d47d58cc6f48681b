package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/appid"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/config"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core/aggregate"
	errwrap "github.com/prathikkv/pharma-intelligence-sub001/internal/errors"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/output"
)

func defaultConfig(t *testing.T, settings map[string]any) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	for key, value := range settings {
		v.Set(key, value)
	}
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestBuildPipeline(t *testing.T) {
	cfg := defaultConfig(t, map[string]any{
		"sources.globaldata.enabled":      false,
		"sources.pubmed.rate_per_second":  1,
		"sources.pubmed.burst":            2,
		"sources.clinicaltrials.retries":  5,
		"sources.clinicaltrials.base_url": "http://127.0.0.1:1",
		"search.backoff_unit":             "10ms",
		"search.default_limit":            20,
		"server.write_timeout":            "2m",
		"rate_limit_margin":               0.5,
	})

	p, err := buildPipeline(cfg, nil)
	require.NoError(t, err)

	require.Equal(t, len(core.BuiltInSources)-1, p.Registry.Len())
	_, ok := p.Registry.Lookup("globaldata")
	assert.False(t, ok)
	for _, id := range p.Registry.IDs() {
		assert.True(t, p.hasAdapter(id), id)
	}
	assert.False(t, p.hasAdapter("globaldata"))

	ct, ok := p.Registry.Lookup("clinicaltrials")
	require.True(t, ok)
	assert.Equal(t, 5, ct.Retries)

	limit, ok := p.Limiter.Effective("pubmed")
	require.True(t, ok)
	assert.Equal(t, 0.5, limit.RequestsPerSecond)
	assert.Equal(t, 1, limit.Burst)

	assert.Equal(t, cfg.Search.BackoffUnit, p.Dispatcher.BackoffUnit)
	assert.Equal(t, 20, p.Aggregator.DefaultLimit)
	assert.Equal(t, 100, p.Aggregator.MaxLimit)
	assert.Same(t, p.Registry, p.Aggregator.Registry)
}

func TestBuildPipelineRequiresConfig(t *testing.T) {
	_, err := buildPipeline(nil, nil)
	require.Error(t, err)
}

type stubSearcher struct {
	resp *aggregate.Response
	err  error
}

func (s stubSearcher) Search(ctx context.Context, req aggregate.Request) (*aggregate.Response, error) {
	return s.resp, s.err
}

func TestRunSearch(t *testing.T) {
	ctx := context.Background()
	req := aggregate.Request{Query: "imatinib", RequestID: "req-1"}
	formatter := output.NewFormatter(output.FormatJSON)

	t.Run("partial success renders and succeeds", func(t *testing.T) {
		var buf bytes.Buffer
		resp := &aggregate.Response{Success: true, Query: "imatinib", Status: http.StatusPartialContent}
		require.NoError(t, runSearch(ctx, &buf, stubSearcher{resp: resp}, req, formatter))
		assert.Contains(t, buf.String(), `"query": "imatinib"`)
	})

	t.Run("all sources failed renders then errors", func(t *testing.T) {
		var buf bytes.Buffer
		resp := &aggregate.Response{Query: "imatinib", Status: http.StatusServiceUnavailable}
		err := runSearch(ctx, &buf, stubSearcher{resp: resp}, req, formatter)
		require.ErrorIs(t, err, errAllSourcesFailed)
		assert.Contains(t, buf.String(), `"status": 503`)
	})

	t.Run("validation error", func(t *testing.T) {
		var buf bytes.Buffer
		verr := &aggregate.ValidationError{Field: "query", Err: errors.New("query is required")}
		err := runSearch(ctx, &buf, stubSearcher{err: verr}, req, formatter)

		var envelope *gferrors.ErrorEnvelope
		require.ErrorAs(t, err, &envelope)
		assert.Equal(t, errwrap.CodeValidationFailed, envelope.Code)
		assert.Empty(t, buf.String())
	})

	t.Run("unexpected error", func(t *testing.T) {
		err := runSearch(ctx, &bytes.Buffer{}, stubSearcher{err: errors.New("boom")}, req, formatter)

		var envelope *gferrors.ErrorEnvelope
		require.ErrorAs(t, err, &envelope)
		assert.Equal(t, errwrap.CodeInternal, envelope.Code)
	})
}

func TestReadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pharmaintel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\nsources:\n  chembl:\n    enabled: false\n"), 0644))

	settings, err := readConfigFile(path)
	require.NoError(t, err)

	cfg, err := config.Decode(settings)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	require.NotNil(t, cfg.Sources["chembl"].Enabled)
	assert.False(t, *cfg.Sources["chembl"].Enabled)

	_, err = readConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestChangedFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("host", "localhost", "")
	cmd.Flags().Int("port", 8080, "")
	cmd.Flags().Bool("debug", false, "")
	require.NoError(t, cmd.Flags().Set("port", "9191"))
	require.NoError(t, cmd.Flags().Set("debug", "true"))

	got := changedFlags(cmd, serveFlagPaths)
	assert.Equal(t, map[string]any{
		"server": map[string]any{"port": "9191"},
		"debug":  map[string]any{"enabled": "true"},
	}, got)

	cfg, err := config.Decode(got)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.True(t, cfg.Debug.Enabled)
}

func TestRateLimitEntries(t *testing.T) {
	p, err := buildPipeline(defaultConfig(t, nil), nil)
	require.NoError(t, err)

	entries := rateLimitEntries(p.Registry, p.Limiter)
	require.Len(t, entries, p.Registry.Len())
	assert.Equal(t, "clinicaltrials", entries[0].Source)
	assert.True(t, entries[0].Limited)

	var evaluate rateLimitEntry
	for _, e := range entries {
		if e.Source == "evaluatepharma" {
			evaluate = e
		}
	}
	assert.False(t, evaluate.Limited)

	var buf bytes.Buffer
	require.NoError(t, writeRateLimits(&buf, output.FormatJSON, entries))
	var decoded []rateLimitEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, entries, decoded)

	buf.Reset()
	require.NoError(t, writeRateLimits(&buf, output.FormatTable, entries))
	assert.Contains(t, buf.String(), "evaluatepharma: unlimited")
}

func TestInitConfigRoundTrip(t *testing.T) {
	identity, err := appid.Get(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, writeInitConfig(path, identity, false))
	require.Error(t, writeInitConfig(path, identity, false))
	require.NoError(t, writeInitConfig(path, identity, true))

	v := viper.New()
	config.SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Len(t, cfg.Sources, len(core.BuiltInSources))
	assert.Equal(t, 15000, int(cfg.Sources["clinicaltrials"].Timeout.Milliseconds()))
}

func TestWriteVersion(t *testing.T) {
	identity, err := appid.Get(context.Background())
	require.NoError(t, err)
	SetVersionInfo("1.2.3", "abc123", "2026-01-01")

	var buf bytes.Buffer
	writeVersion(&buf, identity, false)
	assert.Equal(t, "pharmaintel 1.2.3\n", buf.String())

	buf.Reset()
	writeVersion(&buf, identity, true)
	assert.Contains(t, buf.String(), "Commit: abc123")
	assert.Contains(t, buf.String(), "Gofulmen:")
}

func TestResolveSink(t *testing.T) {
	format := output.FormatMarkdown
	newCmd := func() *cobra.Command {
		c := &cobra.Command{Use: "test"}
		addOutputTargetFlags(c)
		return c
	}

	c := newCmd()
	var stdout bytes.Buffer
	c.SetOut(&stdout)
	sink, err := resolveSink(c, format, "search.x")
	require.NoError(t, err)
	assert.Equal(t, "-", sink.path)
	assert.Same(t, &stdout, sink.writer)

	dir := t.TempDir()
	c = newCmd()
	require.NoError(t, c.Flags().Set("out-dir", dir))
	sink, err = resolveSink(c, format, "search.Lung Cancer/EGFR")
	require.NoError(t, err)
	defer func() { _ = sink.close() }()
	assert.Equal(t, filepath.Join(dir, "search.lung-cancer-egfr.md"), sink.path)

	c = newCmd()
	require.NoError(t, c.Flags().Set("out-dir", dir))
	require.NoError(t, c.Flags().Set("out", filepath.Join(dir, "x.md")))
	_, err = resolveSink(c, format, "x")
	require.Error(t, err)
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, foundry.ExitExternalServiceUnavailable, ExitCodeFor(errAllSourcesFailed))
	assert.Equal(t, foundry.ExitConfigInvalid, ExitCodeFor(errwrap.NewConfigInvalidError("bad")))
	assert.Equal(t, foundry.ExitFailure, ExitCodeFor(errors.New("other")))
}

func TestWriteFatal(t *testing.T) {
	var buf bytes.Buffer
	writeFatal(&buf, "Search failed", nil)
	assert.Equal(t, "FATAL: Search failed\n", buf.String())

	buf.Reset()
	writeFatal(&buf, "Search failed", errAllSourcesFailed)
	assert.Equal(t, "FATAL: Search failed: all sources failed\n", buf.String())

	buf.Reset()
	envelope := errwrap.NewConfigInvalidError("port out of range").WithCorrelationID("corr-1")
	writeFatal(&buf, "Config", envelope)
	assert.Contains(t, buf.String(), "[CONFIG_INVALID]: port out of range (correlation: corr-1)")
}

func TestExitWithCodeStderrUsesFoundryCode(t *testing.T) {
	var got int
	osExit = func(code int) { got = code }
	t.Cleanup(func() { osExit = os.Exit })

	ExitWithCodeStderr(foundry.ExitConfigInvalid, "Config", errors.New("bad"))
	assert.Equal(t, int(foundry.ExitConfigInvalid), got)
}
