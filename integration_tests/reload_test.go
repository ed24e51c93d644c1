package integration_tests

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rubiojr/basket/pkg/api"
	"github.com/rubiojr/basket/pkg/config"
	"github.com/rubiojr/basket/pkg/core"
)

const extraSource = `
[sources.bakery]
type = "catalog"
[sources.bakery.config]
platform = "Bakery"
[[sources.bakery.config.products]]
name = "Milk Bread"
price = "₹45"
`

func listSources(t *testing.T, base string) []string {
	t.Helper()
	resp, err := http.Get(base + "/api/sources")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var list api.ListSourcesResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, s := range list.Sources {
		names = append(names, s.Name)
	}
	return names
}

// watchAndReload rebuilds the sources of registry every time path is
// written. It reports each attempt on the returned channel.
func watchAndReload(t *testing.T, path string, registry *core.Registry) <-chan error {
	t.Helper()
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.Fatalf("creating watcher: %v", err)
	}
	t.Cleanup(func() { watcher.Close() })
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		t.Fatalf("watching config dir: %v", err)
	}

	results := make(chan error, 16)
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				results <- reload(path, registry)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return results
}

// writeConfig replaces path atomically so the watcher never sees a
// half-written file.
func writeConfig(t *testing.T, path, doc string) {
	t.Helper()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
}

func reload(path string, registry *core.Registry) error {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	fresh := core.GetGlobalRegistry()
	if err := createSourcesFromConfig(fresh, cfg); err != nil {
		return err
	}
	registry.ReplaceSources(fresh)
	return nil
}

func waitReload(t *testing.T, results <-chan error) error {
	t.Helper()
	select {
	case err := <-results:
		// A single replace can raise more than one event; keep the last.
		for {
			select {
			case err = <-results:
			case <-time.After(200 * time.Millisecond):
				return err
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not noticed")
		return nil
	}
}

func TestConfigReloadSwapsSources(t *testing.T) {
	doc := CreateTestConfig("memory", "", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	stack := NewStack(t, doc)
	results := watchAndReload(t, path, stack.Registry)

	writeConfig(t, path, doc+extraSource)
	if err := waitReload(t, results); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	names := listSources(t, stack.Server.URL)
	if got := strings.Join(names, ","); got != "pantry,dairy,quick,broken,slow,bakery" {
		t.Fatalf("sources after reload = %s", got)
	}

	_, resp := postSearch(t, stack.Server.URL, api.SearchRequest{Query: "bread"})
	if len(resp.Results.Matches) != 1 || resp.Results.Matches[0].Platform != "Bakery" {
		t.Errorf("new source not searched: %+v", resp.Results.Matches)
	}

	// A broken file keeps the running sources.
	writeConfig(t, path, doc+"\n[sources.ghost]\ntimeout = \"1s\"\n")
	if err := waitReload(t, results); err == nil {
		t.Fatal("expected reload of an invalid config to fail")
	}
	if got := len(listSources(t, stack.Server.URL)); got != 6 {
		t.Errorf("sources after failed reload = %d, want 6", got)
	}
}
