package cmd

import (
	"context"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/rubiojr/basket/pkg/aggregator"
	"github.com/rubiojr/basket/pkg/cache"
	"github.com/rubiojr/basket/pkg/config"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/log"
	"github.com/rubiojr/basket/pkg/realtime"
	"github.com/rubiojr/basket/pkg/relevance"
	"github.com/rubiojr/basket/pkg/search"
	"github.com/rubiojr/basket/pkg/store"
)

// createSourcesFromConfig creates and configures the sources listed in cfg,
// in merge order.
func createSourcesFromConfig(registry *core.Registry, cfg *config.Config) error {
	for _, name := range cfg.ListSources() {
		sourceType, rawConfig, err := cfg.GetSourceConfig(name)
		if err != nil {
			return fmt.Errorf("getting config for source %s: %w", name, err)
		}

		// Create the source with defaults first, then apply the typed config
		if err := registry.CreateSource(name, sourceType, nil); err != nil {
			return fmt.Errorf("creating source %s: %w", name, err)
		}

		src, err := registry.GetSource(name)
		if err != nil {
			return fmt.Errorf("source %s not found after creation", name)
		}

		sourceConfig, err := convertRawConfigToType(src, rawConfig)
		if err != nil {
			return fmt.Errorf("converting config for source %s: %w", name, err)
		}

		if err := src.SetConfig(sourceConfig); err != nil {
			return fmt.Errorf("setting config for source %s: %w", name, err)
		}

		if ts, ok := src.(core.TimeoutSetter); ok {
			ts.SetTimeout(cfg.GetSourceTimeout(name))
		}
	}

	return nil
}

// convertRawConfigToType converts raw config to the source's expected type
func convertRawConfigToType(src core.Source, rawConfig any) (any, error) {
	configType := src.ConfigType()

	if rawConfig == nil {
		return configType, nil
	}

	// Marshal and unmarshal to convert between types
	configData, err := toml.Marshal(rawConfig)
	if err != nil {
		return nil, fmt.Errorf("marshaling config data: %w", err)
	}

	if err := toml.Unmarshal(configData, configType); err != nil {
		return nil, fmt.Errorf("unmarshaling source config: %w", err)
	}

	return configType, nil
}

// runtime is everything a search needs, built from one configuration.
type runtime struct {
	registry   *core.Registry
	store      store.Store
	service    *search.Service
	aggregator *aggregator.Aggregator
	hub        *realtime.Hub
}

type runtimeOption func(*runtimeOptions)

type runtimeOptions struct {
	onOutcome func(aggregator.Outcome)
	hub       *realtime.Hub
}

func withOutcomeCallback(fn func(aggregator.Outcome)) runtimeOption {
	return func(o *runtimeOptions) { o.onOutcome = fn }
}

func withHub(hub *realtime.Hub) runtimeOption {
	return func(o *runtimeOptions) { o.hub = hub }
}

// newRuntime wires sources, store, cache, aggregator and relevance filter
// together. The caller must call close.
func newRuntime(ctx context.Context, cfg *config.Config, opts ...runtimeOption) (*runtime, error) {
	var o runtimeOptions
	for _, opt := range opts {
		opt(&o)
	}

	registry := core.GetGlobalRegistry()
	if err := createSourcesFromConfig(registry, cfg); err != nil {
		return nil, fmt.Errorf("creating sources: %w", err)
	}

	filter, err := relevance.FromConfig(cfg.Relevance)
	if err != nil {
		return nil, fmt.Errorf("creating relevance filter: %w", err)
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	aggOpts := []aggregator.Option{aggregator.WithMaxParallel(cfg.Aggregator.MaxParallel)}
	if o.onOutcome != nil {
		aggOpts = append(aggOpts, aggregator.WithOutcomeCallback(o.onOutcome))
	}
	agg := aggregator.New(registry, aggOpts...)

	svcOpts := []search.Option{search.WithRecentLimit(cfg.Cache.RecentLimit)}
	if o.hub != nil {
		svcOpts = append(svcOpts, search.WithPublisher(o.hub))
	}
	svc := search.NewService(
		cache.New(st, cache.WithMaxAge(cfg.Cache.MaxAge.Duration)),
		agg,
		filter,
		svcOpts...,
	)

	log.ForService("basket").Debugf("%d sources configured, store %s", len(registry.Sources()), cfg.Store.Backend)

	return &runtime{
		registry:   registry,
		store:      st,
		service:    svc,
		aggregator: agg,
		hub:        o.hub,
	}, nil
}

func (r *runtime) close() {
	if err := r.store.Close(); err != nil {
		log.ForService("basket").Warnf("closing store: %v", err)
	}
}

// loadConfig reads the configuration and applies its logging settings.
func loadConfig(configPath string, debug bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log.Configure(debug, cfg.Log.DebugServices)
	return cfg, nil
}
