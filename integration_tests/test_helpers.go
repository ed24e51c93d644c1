package integration_tests

import (
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/rubiojr/basket/pkg/aggregator"
	"github.com/rubiojr/basket/pkg/api"
	"github.com/rubiojr/basket/pkg/cache"
	"github.com/rubiojr/basket/pkg/config"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/realtime"
	"github.com/rubiojr/basket/pkg/relevance"
	"github.com/rubiojr/basket/pkg/search"
	"github.com/rubiojr/basket/pkg/store"

	_ "github.com/rubiojr/basket/pkg/sources/catalog"
)

// CreateTestConfig returns a configuration with local catalog sources only:
// two location-free stores, one store that needs a location, one that
// always fails and one slower than its timeout.
func CreateTestConfig(backend, path, redisAddr string) string {
	return fmt.Sprintf(`
[store]
backend = %q
path = %q
[store.redis]
addr = %q

[aggregator]
max_parallel = 3
order = ["pantry", "dairy", "quick", "broken", "slow"]

[sources.pantry]
type = "catalog"
[sources.pantry.config]
platform = "Pantry"
[[sources.pantry.config.products]]
name = "Basmati Rice"
weight = "1 kg"
price = "₹120"
[[sources.pantry.config.products]]
name = "Toned Milk Powder"
weight = "200 g"
price = "₹95"

[sources.dairy]
type = "catalog"
[sources.dairy.config]
platform = "Dairy"
[[sources.dairy.config.products]]
name = "Toned Milk"
weight = "500 ml"
price = "₹27"
availability = "In Stock"
[[sources.dairy.config.products]]
name = "Greek Yogurt"
price = "₹60"

[sources.quick]
type = "catalog"
[sources.quick.config]
platform = "Quick"
requires_location = true
[[sources.quick.config.products]]
name = "Full Cream Milk"
price = "₹34"

[sources.broken]
type = "catalog"
[sources.broken.config]
platform = "Broken"
fail = "storefront returned 503"

[sources.slow]
type = "catalog"
timeout = "50ms"
[sources.slow.config]
platform = "Slow"
delay = "5s"
[[sources.slow.config.products]]
name = "Slow Milk"
`, backend, path, redisAddr)
}

// Stack is a fully wired search pipeline behind a test HTTP server.
type Stack struct {
	Config   *config.Config
	Registry *core.Registry
	Store    store.Store
	Service  *search.Service
	Hub      *realtime.Hub
	Server   *httptest.Server
}

// NewStack builds the pipeline described by doc. Everything is closed when
// the test ends.
func NewStack(t *testing.T, doc string) *Stack {
	t.Helper()

	cfg, err := config.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parsing config: %v", err)
	}

	registry := core.GetGlobalRegistry()
	if err := createSourcesFromConfig(registry, cfg); err != nil {
		t.Fatalf("creating sources: %v", err)
	}

	st, err := store.Open(context.Background(), cfg.Store)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	hub := realtime.NewHub(8)
	svc := search.NewService(
		cache.New(st, cache.WithMaxAge(cfg.Cache.MaxAge.Duration)),
		aggregator.New(registry, aggregator.WithMaxParallel(cfg.Aggregator.MaxParallel)),
		relevance.Passthrough{},
		search.WithPublisher(hub),
		search.WithRecentLimit(cfg.Cache.RecentLimit),
	)

	apiServer := api.NewServer(svc, registry)
	apiServer.SetHub(hub)
	apiServer.SetRecentLimit(cfg.Cache.RecentLimit)
	srv := httptest.NewServer(apiServer.Handler())
	t.Cleanup(srv.Close)

	return &Stack{
		Config:   cfg,
		Registry: registry,
		Store:    st,
		Service:  svc,
		Hub:      hub,
		Server:   srv,
	}
}

// BackendConfigs returns a test configuration per store backend. The redis
// one talks to an in-process miniredis server.
func BackendConfigs(t *testing.T) map[string]string {
	t.Helper()
	dir := t.TempDir()
	mr := miniredis.RunT(t)
	return map[string]string{
		config.BackendMemory: CreateTestConfig(config.BackendMemory, "", ""),
		config.BackendBolt:   CreateTestConfig(config.BackendBolt, filepath.Join(dir, "basket.db"), ""),
		config.BackendSQLite: CreateTestConfig(config.BackendSQLite, filepath.Join(dir, "basket.sqlite"), ""),
		config.BackendRedis:  CreateTestConfig(config.BackendRedis, "", mr.Addr()),
	}
}

// createSourcesFromConfig mirrors what the CLI does when starting up
func createSourcesFromConfig(registry *core.Registry, cfg *config.Config) error {
	for _, name := range cfg.ListSources() {
		sourceType, rawConfig, err := cfg.GetSourceConfig(name)
		if err != nil {
			return err
		}
		if err := registry.CreateSource(name, sourceType, nil); err != nil {
			return err
		}
		src, err := registry.GetSource(name)
		if err != nil {
			return err
		}

		typed := src.ConfigType()
		if rawConfig != nil {
			data, err := toml.Marshal(rawConfig)
			if err != nil {
				return err
			}
			if err := toml.Unmarshal(data, typed); err != nil {
				return err
			}
		}
		if err := src.SetConfig(typed); err != nil {
			return fmt.Errorf("configuring %s: %w", name, err)
		}
		if ts, ok := src.(core.TimeoutSetter); ok {
			ts.SetTimeout(cfg.GetSourceTimeout(name))
		}
	}
	return nil
}
