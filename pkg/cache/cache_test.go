package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/store"
)

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func record(query string, at time.Time, names ...string) core.SearchRecord {
	matches := make([]core.ProductRecord, 0, len(names))
	for _, n := range names {
		matches = append(matches, core.ProductRecord{Name: n, Price: "₹10", Weight: "1 pc", Availability: "Available", Platform: "Zepto"})
	}
	return core.NewSearchRecord(core.Query{Text: query}, matches, at)
}

func seed(t *testing.T, c *Cache, recs ...core.SearchRecord) {
	t.Helper()
	for _, r := range recs {
		if err := c.Store(context.Background(), r); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}
}

func TestFindRelated(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory())

	seed(t, c,
		record("milk", base, "Amul Taaza"),
		record("toned milk", base.Add(time.Minute), "Nandini Toned"),
		record("bread", base.Add(2*time.Minute), "Harvest Gold"),
	)

	res, err := c.FindRelated(ctx, core.Query{Text: "Milk"})
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || len(res.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %+v", res)
	}
	// key order
	if res.Matches[0].Name != "Amul Taaza" || res.Matches[1].Name != "Nandini Toned" {
		t.Errorf("unexpected order: %+v", res.Matches)
	}
}

func TestFindRelatedMiss(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory())

	res, err := c.FindRelated(ctx, core.Query{Text: "milk"})
	if err != nil || res != nil {
		t.Fatalf("empty store: got %+v, %v", res, err)
	}

	seed(t, c, record("rice", base, "Daawat"))
	if res, _ := c.FindRelated(ctx, core.Query{Text: "dal"}); res != nil {
		t.Errorf("unrelated query should miss, got %+v", res)
	}

	// A related search that found nothing is indistinguishable from a miss.
	seed(t, c, record("paneer", base.Add(time.Second)))
	if res, _ := c.FindRelated(ctx, core.Query{Text: "paneer"}); res != nil {
		t.Errorf("related but empty should miss, got %+v", res)
	}
}

func TestFindRelatedSkipsUndecodable(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	c := New(st)

	st.Set(ctx, "search:2024-01-01T00:00:00.000000Z", "{not json")
	seed(t, c, record("eggs", base, "Country Eggs"))

	res, err := c.FindRelated(ctx, core.Query{Text: "eggs"})
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || len(res.Matches) != 1 {
		t.Fatalf("expected 1 match, got %+v", res)
	}
}

func TestFindRelatedNormalizes(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	c := New(st)

	st.Set(ctx, "search:2024-01-01T00:00:00.000000Z", `{"query":"ghee","timestamp":"2024-01-01T00:00:00.000000Z","results":{"matches":[{"name":"Amul Ghee"}]}}`)

	res, err := c.FindRelated(ctx, core.Query{Text: "ghee"})
	if err != nil || res == nil {
		t.Fatalf("got %+v, %v", res, err)
	}
	if res.Matches[0].Price != core.NotAvailable {
		t.Errorf("missing fields should read N/A, got %+v", res.Matches[0])
	}
}

func TestMaxAge(t *testing.T) {
	ctx := context.Background()
	now := base.Add(2 * time.Hour)
	c := New(store.NewMemory(), WithMaxAge(time.Hour), WithClock(func() time.Time { return now }))

	seed(t, c,
		record("curd", base, "Old Curd"),
		record("curd", base.Add(90*time.Minute), "Fresh Curd"),
	)

	res, err := c.FindRelated(ctx, core.Query{Text: "curd"})
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || len(res.Matches) != 1 || res.Matches[0].Name != "Fresh Curd" {
		t.Fatalf("stale record should be ignored, got %+v", res)
	}

	// Recent is not affected by max age.
	recent, _ := c.Recent(ctx, 10)
	if len(recent) != 2 {
		t.Errorf("Recent should list stale records too, got %d", len(recent))
	}
}

func TestRecentReturnsNewestTen(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory())

	for i := 0; i < 12; i++ {
		seed(t, c, record(fmt.Sprintf("item %d", i), base.Add(time.Duration(i)*time.Second), "x"))
	}

	recent, err := c.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 10 {
		t.Fatalf("expected 10 records, got %d", len(recent))
	}
	for i, rec := range recent {
		if want := fmt.Sprintf("item %d", 11-i); rec.Query != want {
			t.Errorf("recent[%d] = %s, want %s", i, rec.Query, want)
		}
	}
}

func TestRecentEmpty(t *testing.T) {
	recent, err := New(store.NewMemory()).Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 0 {
		t.Errorf("expected no records, got %d", len(recent))
	}
}

type failingStore struct {
	store.Store
}

func (failingStore) Keys(context.Context, string) ([]string, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("read-only")
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	c := New(failingStore{})

	_, err := c.FindRelated(ctx, core.Query{Text: "milk"})
	var se *core.StoreError
	if !errors.As(err, &se) || se.Op != "keys" {
		t.Errorf("FindRelated error = %v", err)
	}

	err = c.Store(ctx, record("milk", base))
	if !errors.As(err, &se) || se.Op != "set" {
		t.Errorf("Store error = %v", err)
	}
}
