package instamart

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rubiojr/basket/pkg/core"
)

const fixture = `<html><body><div data-testid="search-results">
<div class="XjYJe _2lV0g">
  <div class="sc-aXZVg giKYGQ GOJ8s">12 MINS</div>
  <div class="novMV">Britannia Brown Bread</div>
  <div class="sc-aXZVg entQHA">400 g</div>
  <div class="sc-aXZVg ihMJwf JZGfZ">55</div>
</div>
<div class="XjYJe _2lV0g">
  <div class="novMV">Harvest Gold Whole Wheat Bread</div>
  <div class="sc-aXZVg ihMJwf JZGfZ">50</div>
</div>
</div></body></html>`

func TestParse(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fixture))
	if err != nil {
		t.Fatal(err)
	}

	records := Parse(doc, 3)
	want := []core.ProductRecord{
		{Name: "Britannia Brown Bread", Price: "55", Weight: "400 g", Availability: "12 MINS"},
		{Name: "Harvest Gold Whole Wheat Bread", Price: "50", Weight: core.NotAvailable, Availability: core.NotAvailable},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i, w := range want {
		if records[i] != w {
			t.Errorf("record %d = %+v, want %+v", i, records[i], w)
		}
	}
}

func TestSearchURL(t *testing.T) {
	want := "https://www.swiggy.com/instamart/search?custom_back=true&query=brown+bread"
	if got := SearchURL(siteURL, "brown bread"); got != want {
		t.Errorf("SearchURL = %s", got)
	}
}

func TestLocationRequired(t *testing.T) {
	src, err := (&Source{}).Factory("instamart", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !src.RequiresLocation() || src.Platform() != "Instamart" {
		t.Errorf("unexpected metadata")
	}
	var a core.Adapter = &adapter{}
	if _, ok := a.(core.LocationConfigurer); !ok {
		t.Errorf("instamart adapter must configure the delivery location")
	}
}
