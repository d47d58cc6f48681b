package cmd

import (
	"fmt"
	"net/http"

	"github.com/fulmenhq/gofulmen/logging"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/config"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core/adapter"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core/aggregate"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core/engine"
)

// pipeline is the wired search stack shared by serve and search.
type pipeline struct {
	Registry   *core.Registry
	Adapters   map[string]adapter.Adapter
	Limiter    *engine.RateLimiter
	Dispatcher *engine.Dispatcher
	Aggregator *aggregate.Aggregator
}

// hasAdapter reports whether a registered source has a built adapter.
func (p *pipeline) hasAdapter(id string) bool {
	_, ok := p.Adapters[id]
	return ok
}

// buildPipeline wires registry, adapters, rate limiter, dispatcher and
// aggregator from cfg.
func buildPipeline(cfg *config.Config, logger *logging.Logger) (*pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	registry, err := core.DefaultRegistry(cfg.SourceOverrides())
	if err != nil {
		return nil, fmt.Errorf("failed to build source registry: %w", err)
	}

	adapters, err := adapter.Build(registry, adapter.Options{
		Client:    &http.Client{Timeout: cfg.Search.HTTPTimeout},
		UserAgent: cfg.Search.UserAgent,
		BaseURLs:  cfg.BaseURLs(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build adapters: %w", err)
	}

	limiter := &engine.RateLimiter{}
	limiter.ApplyOverrides(cfg.RateLimits())
	limiter.ApplySafetyMargin(cfg.RateLimitMargin)

	dispatcher := &engine.Dispatcher{
		Registry:    registry,
		Adapters:    adapters,
		Limiter:     limiter,
		BackoffUnit: cfg.Search.BackoffUnit,
		Logger:      logger,
	}

	return &pipeline{
		Registry:   registry,
		Adapters:   adapters,
		Limiter:    limiter,
		Dispatcher: dispatcher,
		Aggregator: &aggregate.Aggregator{
			Dispatcher:     dispatcher,
			Registry:       registry,
			Logger:         logger,
			DefaultLimit:   cfg.Search.DefaultLimit,
			MaxLimit:       cfg.Search.MaxLimit,
			MaxQueryLength: cfg.Search.MaxQueryLength,
		},
	}, nil
}
