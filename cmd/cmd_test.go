package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rubiojr/basket/pkg/aggregator"
	"github.com/rubiojr/basket/pkg/config"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/search"
	"github.com/rubiojr/basket/pkg/sources"
	"github.com/rubiojr/basket/pkg/sources/catalog"
	"github.com/rubiojr/basket/pkg/sources/zepto"

	_ "github.com/rubiojr/basket/pkg/sources/gourmetgarden"
)

const testConfig = `
[store]
backend = "memory"

[aggregator]
order = ["dairy"]

[sources.bakery]
type = "catalog"
timeout = "5s"
[sources.bakery.config]
platform = "Bakery"
[[sources.bakery.config.products]]
name = "Brown Bread"
price = "₹45"

[sources.dairy]
type = "catalog"
[sources.dairy.config]
platform = "Dairy"
max_products = 1
[[sources.dairy.config.products]]
name = "Toned Milk"
weight = "500 ml"
price = "₹27"
[[sources.dairy.config.products]]
name = "Full Cream Milk"
price = "₹34"
`

func withEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("OPENAI_API_KEY", "")
	return dir
}

func parseConfig(t *testing.T, doc string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cfg
}

func TestCreateSourcesFromConfig(t *testing.T) {
	withEnv(t)
	cfg := parseConfig(t, testConfig)

	registry := core.GetGlobalRegistry()
	if err := createSourcesFromConfig(registry, cfg); err != nil {
		t.Fatalf("createSourcesFromConfig: %v", err)
	}

	if got := strings.Join(registry.ListSources(), ","); got != "dairy,bakery" {
		t.Errorf("source order = %s", got)
	}

	bakery, err := registry.GetSource("bakery")
	if err != nil {
		t.Fatal(err)
	}
	if bakery.Platform() != "Bakery" {
		t.Errorf("platform = %s", bakery.Platform())
	}
	if bakery.Timeout() != 5*time.Second {
		t.Errorf("timeout = %s", bakery.Timeout())
	}

	dairy, _ := registry.GetSource("dairy")
	if dairy.Timeout() != config.DefaultSourceTimeout {
		t.Errorf("default timeout = %s", dairy.Timeout())
	}
	if dairy.GetConfig().(*catalog.Config).MaxProducts != 1 {
		t.Errorf("typed config not applied")
	}
}

func TestCreateSourcesUnknownType(t *testing.T) {
	withEnv(t)
	cfg := parseConfig(t, "[store]\nbackend = \"memory\"\n[sources.x]\ntype = \"nope\"\n")

	if err := createSourcesFromConfig(core.GetGlobalRegistry(), cfg); err == nil {
		t.Fatal("expected error for an unknown source type")
	}
}

func TestConvertRawConfigToType(t *testing.T) {
	src, err := (&zepto.Source{}).Factory("zepto", nil)
	if err != nil {
		t.Fatal(err)
	}

	raw := map[string]any{
		"max_products": int64(5),
		"headless":     false,
		"results_wait": "3s",
	}
	converted, err := convertRawConfigToType(src, raw)
	if err != nil {
		t.Fatalf("convertRawConfigToType: %v", err)
	}

	cfg, ok := converted.(*sources.Config)
	if !ok {
		t.Fatalf("converted to %T", converted)
	}
	if cfg.MaxProducts != 5 || cfg.IsHeadless() || cfg.ResultsWait.Duration != 3*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}

	def, err := convertRawConfigToType(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := def.(*sources.Config); !ok {
		t.Errorf("nil raw config should give an empty %T", def)
	}
}

func TestRuntimeSearch(t *testing.T) {
	withEnv(t)
	cfg := parseConfig(t, testConfig)

	var (
		mu       sync.Mutex
		outcomes []aggregator.Outcome
	)
	rt, err := newRuntime(context.Background(), cfg, withOutcomeCallback(func(o aggregator.Outcome) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, o)
	}))
	if err != nil {
		t.Fatalf("newRuntime: %v", err)
	}
	defer rt.close()

	ctx := context.Background()
	resp, err := rt.service.Search(ctx, core.NewQuery(" milk ", "", ""))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Source != search.SourceScraper {
		t.Errorf("first search should be live, got %s", resp.Source)
	}
	matches := resp.Results.Matches
	if len(matches) != 1 || matches[0].Name != "Toned Milk" || matches[0].Platform != "Dairy" {
		t.Fatalf("unexpected matches %+v", matches)
	}
	if matches[0].SearchQuery != "milk" {
		t.Errorf("search_query = %q", matches[0].SearchQuery)
	}
	if len(outcomes) != 2 {
		t.Errorf("expected an outcome per source, got %d", len(outcomes))
	}

	again, err := rt.service.Search(ctx, core.NewQuery("Milk", "", ""))
	if err != nil {
		t.Fatal(err)
	}
	if again.Source != search.SourceCache {
		t.Errorf("related search should hit the cache, got %s", again.Source)
	}

	products, err := rt.service.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 {
		t.Errorf("expected 1 recent product, got %d", len(products))
	}
}

func TestReloadSources(t *testing.T) {
	dir := withEnv(t)
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}

	registry := core.GetGlobalRegistry()
	if _, err := reloadSources(path, registry); err != nil {
		t.Fatalf("reloadSources: %v", err)
	}
	if len(registry.ListSources()) != 2 {
		t.Fatalf("expected 2 sources, got %v", registry.ListSources())
	}

	updated := "[store]\nbackend = \"memory\"\n[sources.gourmet]\ntype = \"gourmetgarden\"\n"
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := reloadSources(path, registry); err != nil {
		t.Fatalf("reloadSources: %v", err)
	}
	if got := strings.Join(registry.ListSources(), ","); got != "gourmet" {
		t.Errorf("sources after reload = %s", got)
	}

	if err := os.WriteFile(path, []byte("[sources.broken]\ntype = \"nope\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := reloadSources(path, registry); err == nil {
		t.Errorf("expected error for a broken config")
	}
	if got := strings.Join(registry.ListSources(), ","); got != "gourmet" {
		t.Errorf("failed reload must keep the current sources, got %s", got)
	}
}

func TestInitConfig(t *testing.T) {
	dir := withEnv(t)
	path := filepath.Join(dir, "basket", "config.toml")

	if err := initConfig(path, false); err != nil {
		t.Fatalf("initConfig: %v", err)
	}
	if err := initConfig(path, false); err == nil {
		t.Errorf("expected error when the file exists")
	}
	if err := initConfig(path, true); err != nil {
		t.Errorf("force should overwrite: %v", err)
	}
}

func TestAddRemoveSource(t *testing.T) {
	dir := withEnv(t)
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}

	if err := addSource(path, "gourmet", "gourmetgarden"); err != nil {
		t.Fatalf("addSource: %v", err)
	}
	if err := addSource(path, "gourmet", "gourmetgarden"); err == nil {
		t.Errorf("expected error for a duplicate source")
	}
	if err := addSource(path, "ghost", "nope"); err == nil {
		t.Errorf("expected error for an unknown type")
	}

	if err := removeSource(path, "dairy"); err != nil {
		t.Fatalf("removeSource: %v", err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("config should still load after removing an ordered source: %v", err)
	}
	if got := strings.Join(cfg.ListSources(), ","); got != "bakery,gourmet" {
		t.Errorf("sources = %s", got)
	}
}

func TestRenderProducts(t *testing.T) {
	var buf bytes.Buffer
	renderProducts(&buf, "milk", []core.ProductRecord{
		{Name: "Toned Milk", Platform: "Dairy", Weight: "500 ml", Price: "₹27", Availability: "In Stock", SearchQuery: "milk"},
	}, true)

	out := buf.String()
	for _, want := range []string{"Toned Milk", "Dairy", "₹27", "Query"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	renderProducts(&buf, "nothing", nil, false)
	if !strings.Contains(buf.String(), "No products found") {
		t.Errorf("empty output = %q", buf.String())
	}

	buf.Reset()
	renderOutcome(&buf, aggregator.Outcome{Source: "zepto", Err: errors.New("timeout\nstack"), Elapsed: time.Second})
	if !strings.Contains(buf.String(), "zepto") || strings.Contains(buf.String(), "stack") {
		t.Errorf("outcome = %q", buf.String())
	}
}
