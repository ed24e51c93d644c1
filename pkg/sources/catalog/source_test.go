package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rubiojr/basket/pkg/config"
	"github.com/rubiojr/basket/pkg/core"
)

func newSource(t *testing.T, cfg *Config) core.Source {
	t.Helper()
	src, err := (&Source{}).Factory("pantry", cfg)
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}
	return src
}

func search(t *testing.T, src core.Source, ctx context.Context, text string) ([]core.ProductRecord, error) {
	t.Helper()
	a, err := src.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	return a.Search(ctx, core.NewQuery(text, "", ""))
}

func TestSearchMatchesRelatedProducts(t *testing.T) {
	src := newSource(t, &Config{
		Platform:    "Pantry",
		MaxProducts: 2,
		Products: []Product{
			{Name: "Amul Taaza Toned Milk", Weight: "500 ml", Price: "₹27"},
			{Name: "Basmati Rice", Weight: "1 kg", Price: "₹120"},
			{Name: "Mother Dairy Milk", Price: "₹30", Availability: "In Stock"},
			{Name: "Milk Bikis", Price: "₹10"},
		},
	})

	if src.Platform() != "Pantry" || src.RequiresLocation() {
		t.Errorf("unexpected metadata")
	}

	records, err := search(t, src, context.Background(), "milk")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %+v", records)
	}
	if records[0].Name != "Amul Taaza Toned Milk" || records[1].Name != "Mother Dairy Milk" {
		t.Errorf("unexpected records %+v", records)
	}
	if records[0].Availability != core.NotAvailable {
		t.Errorf("blank availability should normalize, got %q", records[0].Availability)
	}

	none, err := search(t, src, context.Background(), "shampoo")
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", none)
	}
}

func TestProductsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pantry.toml")
	data := `
[[products]]
name = "Tata Salt"
weight = "1 kg"
price = "₹28"

[[products]]
name = "Aashirvaad Atta"
weight = "5 kg"
price = "₹260"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	src := newSource(t, &Config{File: path})
	records, err := search(t, src, context.Background(), "atta")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Weight != "5 kg" {
		t.Errorf("unexpected records %+v", records)
	}

	if _, err := (&Source{}).Factory("broken", &Config{File: filepath.Join(t.TempDir(), "missing.toml")}); err == nil {
		t.Errorf("expected error for a missing catalog file")
	}
}

func TestFailAndDelay(t *testing.T) {
	src := newSource(t, &Config{Fail: "storefront down"})
	if _, err := search(t, src, context.Background(), "milk"); err == nil || err.Error() != "storefront down" {
		t.Errorf("expected configured failure, got %v", err)
	}

	slow := newSource(t, &Config{Delay: config.Duration{Duration: time.Minute}})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := search(t, slow, ctx, "milk"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	if _, err := (&Source{}).Factory("x", &Config{MaxProducts: -1}); err == nil {
		t.Errorf("expected error for negative max_products")
	}
	if _, err := (&Source{}).Factory("x", "nope"); err == nil {
		t.Errorf("expected error for wrong config type")
	}
}
