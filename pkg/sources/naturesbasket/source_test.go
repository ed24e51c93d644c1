package naturesbasket

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rubiojr/basket/pkg/core"
)

const fixture = `<html><body><div id="searchResults">
<div class="col-md-3 pro-id_10231">
  <a class="search_Ptitle" href="#">Nature's Basket Greek Yogurt</a>
  <span class="search_PSellingP">MRP 120</span>
  <span class="search_PSelectedSize">400 g</span>
</div>
<div class="col-md-3 pro-id_10232">
  <a class="search_Ptitle" href="#">Epigamia Greek Yogurt Blueberry</a>
  <span class="search_PSellingP">MRP 60</span>
</div>
</div></body></html>`

func TestParse(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fixture))
	if err != nil {
		t.Fatal(err)
	}

	records := Parse(doc, 3)
	want := []core.ProductRecord{
		{Name: "Nature's Basket Greek Yogurt", Price: "120", Weight: "400 g", Availability: core.NotAvailable},
		{Name: "Epigamia Greek Yogurt Blueberry", Price: "60", Weight: core.NotAvailable, Availability: core.NotAvailable},
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

func TestParseLimit(t *testing.T) {
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(fixture))
	if got := Parse(doc, 1); len(got) != 1 {
		t.Errorf("expected 1 record, got %d", len(got))
	}
}

func TestMetadata(t *testing.T) {
	src, err := (&Source{}).Factory("nb", nil)
	if err != nil {
		t.Fatal(err)
	}
	if src.Platform() != "Nature's Basket" || src.RequiresLocation() {
		t.Errorf("unexpected metadata")
	}
}
